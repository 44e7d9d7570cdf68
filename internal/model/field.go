package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ExtractionAttempt is one ordered strategy for filling a canonical field:
// a source key looked up first in the raw value bag, then in rule
// parameters, with an optional named parser applied to the raw value.
// Earlier-declared attempts represent higher-confidence strategies.
type ExtractionAttempt struct {
	SourceKey string `yaml:"source_key"`
	Parser    string `yaml:"parser,omitempty"`
}

// FieldMapping configures extraction for one canonical contract field: the
// rule categories eligible to supply it and the ordered extraction attempts.
// Static configuration; loaded once, never mutated at runtime.
type FieldMapping struct {
	FieldKey   string              `yaml:"field_key"`
	Categories []RuleCategory      `yaml:"categories"`
	Attempts   []ExtractionAttempt `yaml:"attempts"`
}

// EligibleCategory reports whether rules of the given category may supply
// this field.
func (m *FieldMapping) EligibleCategory(cat RuleCategory) bool {
	for _, c := range m.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// FieldTable is an indexed, ordered collection of field mappings.
type FieldTable struct {
	Mappings []FieldMapping
	byKey    map[string]*FieldMapping
}

// NewFieldTable builds a FieldTable with indexed lookups.
func NewFieldTable(mappings []FieldMapping) *FieldTable {
	t := &FieldTable{
		Mappings: mappings,
		byKey:    make(map[string]*FieldMapping, len(mappings)),
	}
	for i := range t.Mappings {
		t.byKey[t.Mappings[i].FieldKey] = &t.Mappings[i]
	}
	return t
}

// ByKey returns the mapping for a canonical field key, or nil.
func (t *FieldTable) ByKey(key string) *FieldMapping {
	return t.byKey[key]
}

// LoadFieldTable reads a field mapping table from a YAML file. Used to
// override DefaultFieldTable without a rebuild.
func LoadFieldTable(path string) (*FieldTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read field table %s", path)
	}

	var wrapper struct {
		Fields []FieldMapping `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "model: parse field table")
	}
	if len(wrapper.Fields) == 0 {
		return nil, eris.Errorf("model: field table %s defines no fields", path)
	}

	return NewFieldTable(wrapper.Fields), nil
}

// DefaultFieldTable returns the built-in mapping table covering every
// canonical blueprint field.
func DefaultFieldTable() *FieldTable {
	return NewFieldTable([]FieldMapping{
		{
			FieldKey:   FieldCustomerName,
			Categories: []RuleCategory{CategoryPayment, CategoryCompliance, CategoryOperational},
			Attempts: []ExtractionAttempt{
				{SourceKey: "customerName"},
				{SourceKey: "customer"},
				{SourceKey: "counterparty"},
			},
		},
		{
			FieldKey:   FieldSiteAddress,
			Categories: []RuleCategory{CategoryOperational, CategorySystem},
			Attempts: []ExtractionAttempt{
				{SourceKey: "siteAddress"},
				{SourceKey: "installationAddress"},
				{SourceKey: "site"},
			},
		},
		{
			FieldKey:   FieldContractType,
			Categories: []RuleCategory{CategoryCompliance},
			Attempts: []ExtractionAttempt{
				{SourceKey: "contractType"},
				{SourceKey: "agreementType"},
			},
		},
		{
			FieldKey:   FieldEffectiveDate,
			Categories: []RuleCategory{CategoryCompliance, CategoryOperational},
			Attempts: []ExtractionAttempt{
				{SourceKey: "effectiveDate"},
				{SourceKey: "commencementDate"},
			},
		},
		{
			FieldKey:   FieldCapacityKW,
			Categories: []RuleCategory{CategorySystem, CategoryTechnical, CategoryPerformance},
			Attempts: []ExtractionAttempt{
				{SourceKey: "systemCapacity", Parser: "capacity"},
				{SourceKey: "capacityKW", Parser: "capacity"},
				{SourceKey: "ratedCapacity", Parser: "capacity"},
			},
		},
		{
			FieldKey:   FieldTermYears,
			Categories: []RuleCategory{CategoryPayment, CategoryCompliance},
			Attempts: []ExtractionAttempt{
				{SourceKey: "contractTerm", Parser: "term"},
				{SourceKey: "termYears", Parser: "term"},
				{SourceKey: "initialTerm", Parser: "term"},
			},
		},
		{
			FieldKey:   FieldBaseRate,
			Categories: []RuleCategory{CategoryPayment},
			Attempts: []ExtractionAttempt{
				{SourceKey: "baseRate", Parser: "currency"},
				{SourceKey: "energyRate", Parser: "currency"},
				{SourceKey: "pricePerKWh", Parser: "currency"},
			},
		},
		{
			FieldKey:   FieldEscalationPct,
			Categories: []RuleCategory{CategoryPayment},
			Attempts: []ExtractionAttempt{
				{SourceKey: "escalationRate", Parser: "percent"},
				{SourceKey: "annualEscalator", Parser: "percent"},
			},
		},
		{
			FieldKey:   FieldVoltage,
			Categories: []RuleCategory{CategorySystem, CategoryTechnical},
			Attempts: []ExtractionAttempt{
				{SourceKey: "voltage", Parser: "voltage"},
				{SourceKey: "serviceVoltage", Parser: "voltage"},
				{SourceKey: "interconnectionVoltage", Parser: "voltage"},
			},
		},
		{
			FieldKey:   FieldInstallationType,
			Categories: []RuleCategory{CategorySystem, CategoryOperational},
			Attempts: []ExtractionAttempt{
				{SourceKey: "installationType"},
				{SourceKey: "siteType"},
			},
		},
		{
			FieldKey:   FieldOutputWarrantyPct,
			Categories: []RuleCategory{CategoryPerformance},
			Attempts: []ExtractionAttempt{
				{SourceKey: "outputWarranty", Parser: "percent"},
				{SourceKey: "performanceGuarantee", Parser: "percent"},
			},
		},
		{
			FieldKey:   FieldEffWarrantyPct,
			Categories: []RuleCategory{CategoryPerformance},
			Attempts: []ExtractionAttempt{
				{SourceKey: "efficiencyWarranty", Parser: "percent"},
				{SourceKey: "efficiencyGuarantee", Parser: "percent"},
			},
		},
		{
			FieldKey:   FieldCriticalOutputKW,
			Categories: []RuleCategory{CategoryPerformance, CategorySystem},
			Attempts: []ExtractionAttempt{
				{SourceKey: "guaranteedCriticalOutput", Parser: "number"},
				{SourceKey: "criticalLoadKW", Parser: "number"},
			},
		},
		{
			FieldKey:   FieldDemandMinKW,
			Categories: []RuleCategory{CategoryOperational, CategoryTechnical},
			Attempts: []ExtractionAttempt{
				{SourceKey: "minimumDemand", Parser: "number"},
			},
		},
		{
			FieldKey:   FieldDemandMaxKW,
			Categories: []RuleCategory{CategoryOperational, CategoryTechnical},
			Attempts: []ExtractionAttempt{
				{SourceKey: "maximumDemand", Parser: "number"},
			},
		},
		{
			FieldKey:   FieldPaymentTermsDays,
			Categories: []RuleCategory{CategoryPayment},
			Attempts: []ExtractionAttempt{
				{SourceKey: "paymentTerms", Parser: "term"},
				{SourceKey: "netDays", Parser: "term"},
			},
		},
	})
}
