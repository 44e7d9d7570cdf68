package pipeline

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/model"
)

// DocumentMapping pairs one document's analysis result with its mapped
// field set and its position in the upload batch.
type DocumentMapping struct {
	Meta   model.DocumentMeta
	Result *model.DocumentAnalysisResult
	Fields model.PartialFieldSet
	// Order is the document's upload position within the batch. Earlier
	// documents are conventionally the primary agreement; later ones are
	// amendments and schedules.
	Order int
}

// Consolidate merges per-document field sets across a batch. When multiple
// documents propose values for a field, the higher per-field confidence
// wins; ties go to the earliest-uploaded document. All supporting rules
// across all documents are retained grouped by section, even where only one
// value was selected as authoritative.
func Consolidate(docs []DocumentMapping) (map[string]model.FieldValue, map[model.Section][]model.SectionRule) {
	// Tie-breaking depends on relative upload order across the whole batch,
	// so the caller must pass the complete set of succeeded documents.
	ordered := make([]DocumentMapping, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	fields := make(map[string]model.FieldValue)
	for _, doc := range ordered {
		for key, fv := range doc.Fields {
			existing, ok := fields[key]
			if !ok {
				fields[key] = fv
				continue
			}
			// Strictly greater: on equal confidence the earlier document,
			// already in place, keeps the field.
			if fv.Confidence > existing.Confidence {
				zap.L().Debug("consolidate: later document overrides field",
					zap.String("field", key),
					zap.String("winner_doc", fv.DocumentID),
					zap.Float64("winner_confidence", fv.Confidence),
					zap.String("loser_doc", existing.DocumentID),
					zap.Float64("loser_confidence", existing.Confidence),
				)
				fields[key] = fv
			}
		}
	}

	sections := make(map[model.Section][]model.SectionRule)
	for _, doc := range ordered {
		if doc.Result == nil {
			continue
		}
		for _, rule := range doc.Result.Rules {
			sec := model.SectionFor(rule.Category)
			sections[sec] = append(sections[sec], model.SectionRule{
				DocumentID: doc.Result.DocumentID,
				Rule:       rule,
			})
		}
	}

	return fields, sections
}
