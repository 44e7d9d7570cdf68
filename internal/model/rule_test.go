package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionFor(t *testing.T) {
	tests := []struct {
		cat  RuleCategory
		want Section
	}{
		{CategoryPayment, SectionFinancial},
		{CategoryRisk, SectionFinancial},
		{CategorySystem, SectionTechnical},
		{CategoryTechnical, SectionTechnical},
		{CategoryPerformance, SectionOperating},
		{CategoryCompliance, SectionOperating},
		{CategoryOperational, SectionOperating},
	}
	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			assert.Equal(t, tt.want, SectionFor(tt.cat))
		})
	}
}

func TestValidCategory(t *testing.T) {
	for _, cat := range []RuleCategory{
		CategoryPayment, CategoryPerformance, CategoryCompliance,
		CategoryRisk, CategoryOperational, CategorySystem, CategoryTechnical,
	} {
		assert.True(t, ValidCategory(cat), "category %s", cat)
	}

	assert.False(t, ValidCategory("billing"))
	assert.False(t, ValidCategory(""))
}
