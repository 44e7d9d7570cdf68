// Package parse holds the pure value parsers that normalize raw extraction
// scalars into canonical typed values. Parsers are total: they never panic
// and never consult external state; failure is reported through the ok
// return, not an error.
package parse

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/contract-intake/internal/model"
)

// Func normalizes a raw extracted value. ok is false when the value cannot
// be interpreted; the caller treats that attempt as a miss and moves on.
type Func func(v any) (any, bool)

// Registry returns the named parser set used by the field mapping table.
// moduleKW is the fixed capacity increment all capacity values round to.
func Registry(moduleKW int) map[string]Func {
	return map[string]Func{
		"currency": func(v any) (any, bool) { return Currency(v) },
		"percent":  func(v any) (any, bool) { return Percent(v) },
		"number":   func(v any) (any, bool) { return Number(v) },
		"term":     func(v any) (any, bool) { return Term(v) },
		"capacity": func(v any) (any, bool) { return Capacity(v, moduleKW) },
		"voltage":  func(v any) (any, bool) { return VoltageLabel(v) },
	}
}

// Currency parses currency-like strings ("$0.0847", "0.0847") and bare
// numbers into a float.
func Currency(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Number is Currency without the currency affordances in its name; some
// source keys carry plain magnitudes (kW figures) that still arrive as
// "5,000" style strings.
func Number(v any) (float64, bool) {
	return Currency(v)
}

// Percent parses percentage strings ("3.2%", "3.2") and numbers into a
// float percentage value.
func Percent(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, "%")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return Currency(v)
}

// Capacity parses capacity strings or numbers ("5000", "5000 kW", 5000)
// into kW rounded to the nearest positive multiple of moduleKW, minimum one
// module.
func Capacity(v any, moduleKW int) (int, bool) {
	if moduleKW <= 0 {
		return 0, false
	}

	var raw float64
	switch n := v.(type) {
	case float64:
		raw = n
	case float32:
		raw = float64(n)
	case int:
		raw = float64(n)
	case int64:
		raw = float64(n)
	case string:
		s := strings.ToLower(strings.TrimSpace(n))
		for _, suffix := range []string{"kilowatts", "kilowatt", "kw"} {
			s = strings.TrimSuffix(s, suffix)
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		raw = f
	default:
		return 0, false
	}

	if raw <= 0 {
		return 0, false
	}

	modules := int(math.Round(raw / float64(moduleKW)))
	if modules < 1 {
		modules = 1
	}
	return modules * moduleKW, true
}

// Term parses contract-term strings or numbers ("15", "15 years", 15) into
// whole years (or days, for payment terms — the unit is the caller's).
func Term(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n > 0
	case int64:
		return int(n), n > 0
	case float64:
		i := int(n)
		return i, n > 0 && n == float64(i)
	case string:
		s := strings.ToLower(strings.TrimSpace(n))
		for _, suffix := range []string{"years", "year", "yrs", "yr", "days", "day", "net"} {
			s = strings.TrimSuffix(s, suffix)
			s = strings.TrimPrefix(s, suffix)
		}
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || i <= 0 {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// voltageByCode maps numeric service-voltage codes to the enumeration.
var voltageByCode = map[int]model.Voltage{
	208:   model.Voltage208,
	240:   model.Voltage240,
	480:   model.Voltage480,
	4160:  model.Voltage4160,
	13200: model.Voltage13200,
}

// VoltageLabel parses voltage labels or numeric codes into the fixed
// voltage enumeration. Unrecognized values are unparsed, never defaulted;
// defaulting is the business defaulter's decision.
func VoltageLabel(v any) (model.Voltage, bool) {
	switch n := v.(type) {
	case int:
		vol, ok := voltageByCode[n]
		return vol, ok
	case int64:
		vol, ok := voltageByCode[int(n)]
		return vol, ok
	case float64:
		vol, ok := voltageByCode[int(n)]
		return vol, ok
	case string:
		s := strings.ToLower(strings.TrimSpace(n))
		s = strings.ReplaceAll(s, " ", "")
		switch s {
		case "208", "208v", "120/208", "120/208v":
			return model.Voltage208, true
		case "240", "240v", "120/240", "120/240v":
			return model.Voltage240, true
		case "480", "480v", "277/480", "277/480v":
			return model.Voltage480, true
		case "4160", "4160v", "4.16kv":
			return model.Voltage4160, true
		case "13200", "13200v", "13.2kv":
			return model.Voltage13200, true
		}
		// Bare numeric strings fall through to the code table.
		if i, err := strconv.Atoi(s); err == nil {
			vol, ok := voltageByCode[i]
			return vol, ok
		}
		return "", false
	default:
		return "", false
	}
}
