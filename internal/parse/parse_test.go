package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-intake/internal/model"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"dollar string", "$0.0847", 0.0847, true},
		{"plain string", "0.0847", 0.0847, true},
		{"thousands separators", "$1,250.50", 1250.50, true},
		{"float passthrough", 0.09, 0.09, true},
		{"int passthrough", 12, 12, true},
		{"garbage", "eight cents", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Currency(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"percent sign", "3.2%", 3.2, true},
		{"bare string", "3.2", 3.2, true},
		{"with space", " 2.5 % ", 2.5, true},
		{"number", 2.0, 2.0, true},
		{"garbage", "three percent", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percent(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"rounds down to nearest module", 4980, 4875, true},
		{"rounds up to nearest module", 5000, 4875, true},
		{"exact multiple", 650, 650, true},
		{"minimum one module", 40, 325, true},
		{"kw suffix", "4,980 kW", 4875, true},
		{"kilowatts suffix", "650 kilowatts", 650, true},
		{"zero", 0, 0, false},
		{"negative", -500, 0, false},
		{"garbage", "five megawatts-ish", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Capacity(tt.in, 325)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapacityInvalidModule(t *testing.T) {
	_, ok := Capacity(5000, 0)
	assert.False(t, ok)
}

func TestTerm(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"bare int", 15, 15, true},
		{"years suffix", "15 years", 15, true},
		{"yr suffix", "10yr", 10, true},
		{"net prefix", "net 30", 30, true},
		{"days suffix", "45 days", 45, true},
		{"whole float", 20.0, 20, true},
		{"fractional float", 7.5, 0, false},
		{"zero", 0, 0, false},
		{"garbage", "forever", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Term(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVoltageLabel(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want model.Voltage
		ok   bool
	}{
		{"numeric code", 480, model.Voltage480, true},
		{"float code", 4160.0, model.Voltage4160, true},
		{"labeled string", "480V", model.Voltage480, true},
		{"dual rating", "277/480", model.Voltage480, true},
		{"low dual rating", "120/208V", model.Voltage208, true},
		{"kv form", "13.2kV", model.Voltage13200, true},
		{"bare numeric string", "240", model.Voltage240, true},
		{"unknown code", 600, "", false},
		{"garbage", "medium voltage", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VoltageLabel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistryCoversTableParsers(t *testing.T) {
	reg := Registry(325)
	for _, name := range []string{"currency", "percent", "number", "term", "capacity", "voltage"} {
		require.Contains(t, reg, name)
	}

	got, ok := reg["capacity"]("4,980")
	require.True(t, ok)
	assert.Equal(t, 4875, got)
}
