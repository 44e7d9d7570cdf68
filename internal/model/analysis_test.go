package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotSpecified(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"n/a", "n/a", true},
		{"N/A mixed case", "N/A", true},
		{"na", "na", true},
		{"none", "None", true},
		{"unknown", "unknown", true},
		{"not specified", "Not Specified", true},
		{"not provided", "not provided", true},
		{"sentinel with padding", "  n/a  ", true},
		{"real string", "480V", false},
		{"number", 42.0, false},
		{"zero is a value", 0, false},
		{"false is a value", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotSpecified(tt.v))
		})
	}
}

func TestRawValueBagLookup(t *testing.T) {
	bag := RawValueBag{
		"systemCapacity": "4,980 kW",
		"voltage":        "n/a",
		"escalation":     nil,
		"termYears":      20.0,
	}

	v, ok := bag.Lookup("systemCapacity")
	assert.True(t, ok)
	assert.Equal(t, "4,980 kW", v)

	v, ok = bag.Lookup("termYears")
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)

	_, ok = bag.Lookup("voltage")
	assert.False(t, ok, "sentinel value should read as absent")

	_, ok = bag.Lookup("escalation")
	assert.False(t, ok, "nil value should read as absent")

	_, ok = bag.Lookup("missing")
	assert.False(t, ok)
}
