package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/model"
	"github.com/sells-group/contract-intake/internal/parse"
)

// MapToFields consolidates one document's analysis result into a partial
// canonical field set with per-field provenance.
//
// For each field the table's extraction attempts run in declared order. An
// attempt first consults the raw value bag for its source key: direct
// AI-asserted values are trusted over rule-derived ones, so a non-sentinel
// bag value always wins, even when it fails to parse. Only when the key is
// absent from the bag does the attempt scan rule parameters across the
// field's eligible categories. The first attempt that yields a parseable
// value wins and the rest are skipped. Fields with no successful attempt
// stay absent for the business defaulter to resolve.
func MapToFields(res *model.DocumentAnalysisResult, table *model.FieldTable, parsers map[string]parse.Func) model.PartialFieldSet {
	out := make(model.PartialFieldSet)
	docScore := ScoreDocument(res)

	for i := range table.Mappings {
		mapping := &table.Mappings[i]

		for _, attempt := range mapping.Attempts {
			parser := parsers[attempt.Parser]
			if attempt.Parser != "" && parser == nil {
				zap.L().Warn("mapper: unknown parser in field table",
					zap.String("field", mapping.FieldKey),
					zap.String("parser", attempt.Parser),
				)
				continue
			}

			fv, filled, inBag := fromRawBag(res, attempt, parser, docScore)
			if filled {
				fv.FieldKey = mapping.FieldKey
				out[mapping.FieldKey] = fv
				break
			}
			if inBag {
				// The bag answered this key but the value did not parse.
				// Rule parameters never override a bag answer; move on to
				// the next attempt.
				continue
			}

			if fv, ok := fromRuleParams(res, mapping, attempt, parser); ok {
				fv.FieldKey = mapping.FieldKey
				out[mapping.FieldKey] = fv
				break
			}
		}
	}

	zap.L().Debug("mapper: document mapped",
		zap.String("document_id", res.DocumentID),
		zap.Int("fields_mapped", len(out)),
		zap.Int("fields_total", len(table.Mappings)),
	)
	return out
}

// fromRawBag attempts to fill a field from the backend's direct value bag.
// Bag-sourced values carry the document-level confidence. The second result
// reports whether the value parsed; the third whether the bag held a
// non-sentinel value for the key at all.
func fromRawBag(res *model.DocumentAnalysisResult, attempt model.ExtractionAttempt, parser parse.Func, docScore float64) (model.FieldValue, bool, bool) {
	raw, ok := res.RawValues.Lookup(attempt.SourceKey)
	if !ok {
		return model.FieldValue{}, false, false
	}

	value, ok := applyParser(parser, raw)
	if !ok {
		return model.FieldValue{}, false, true
	}

	return model.FieldValue{
		Value:      value,
		DocumentID: res.DocumentID,
		Source:     model.SourceRawValue,
		SourceKey:  attempt.SourceKey,
		Confidence: docScore,
	}, true, true
}

// fromRuleParams scans rule parameters for the attempt's source key across
// rules in the field's eligible categories. The highest-confidence rule
// with a parseable value supplies it; every rule that carried the key is
// retained as supporting provenance.
func fromRuleParams(res *model.DocumentAnalysisResult, mapping *model.FieldMapping, attempt model.ExtractionAttempt, parser parse.Func) (model.FieldValue, bool) {
	var (
		best       model.FieldValue
		found      bool
		supporting []string
	)

	for _, rule := range res.Rules {
		if !mapping.EligibleCategory(rule.Category) {
			continue
		}
		raw, ok := rule.Parameters[attempt.SourceKey]
		if !ok || model.IsNotSpecified(raw) {
			continue
		}
		value, ok := applyParser(parser, raw)
		if !ok {
			continue
		}

		supporting = append(supporting, rule.ID)
		if !found || rule.Confidence > best.Confidence {
			best = model.FieldValue{
				Value:      value,
				DocumentID: res.DocumentID,
				Source:     model.SourceRuleParam,
				SourceKey:  attempt.SourceKey,
				Confidence: rule.Confidence,
			}
			found = true
		}
	}

	if !found {
		return model.FieldValue{}, false
	}
	best.RuleIDs = supporting
	return best, true
}

func applyParser(parser parse.Func, raw any) (any, bool) {
	if parser == nil {
		if model.IsNotSpecified(raw) {
			return nil, false
		}
		return raw, true
	}
	return parser(raw)
}
