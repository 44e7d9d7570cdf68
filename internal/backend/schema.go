package backend

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/contract-intake/internal/model"
)

// analysisSchema is the one seam where loosely-structured backend JSON is
// admitted into the pipeline. Everything downstream of Decode works with
// validated model types; rawValues and rule parameters stay open maps by
// design, but their containers and the confidence ranges are enforced here.
const analysisSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rules", "rawValues", "stats"],
  "properties": {
    "summary": {
      "type": "object",
      "properties": {
        "contractType": {"type": "string"},
        "parties": {"type": "array", "items": {"type": "string"}},
        "effectiveDate": {"type": "string"}
      }
    },
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["category", "type", "name", "confidence"],
        "properties": {
          "id": {"type": "string"},
          "category": {
            "enum": ["payment", "performance", "compliance", "risk",
                     "operational", "system", "technical"]
          },
          "type": {
            "enum": ["conditional", "calculation", "threshold",
                     "validation", "constraint", "workflow"]
          },
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "condition": {"type": "string"},
          "action": {"type": "string"},
          "parameters": {"type": "object"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "sourceText": {"type": "string"}
        }
      }
    },
    "rawValues": {"type": "object"},
    "riskFactors": {"type": "array", "items": {"type": "string"}},
    "anomalies": {"type": "array", "items": {"type": "string"}},
    "stats": {
      "type": "object",
      "required": ["confidence"],
      "properties": {
        "ruleCount": {"type": "integer", "minimum": 0},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("analysis.schema.json", analysisSchema)

// analysisPayload mirrors the wire shape both backends return.
type analysisPayload struct {
	Summary struct {
		ContractType  string   `json:"contractType"`
		Parties       []string `json:"parties"`
		EffectiveDate string   `json:"effectiveDate"`
	} `json:"summary"`
	Rules []struct {
		ID          string         `json:"id"`
		Category    string         `json:"category"`
		Type        string         `json:"type"`
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Condition   string         `json:"condition"`
		Action      string         `json:"action"`
		Parameters  map[string]any `json:"parameters"`
		Confidence  float64        `json:"confidence"`
		SourceText  string         `json:"sourceText"`
	} `json:"rules"`
	RawValues   map[string]any `json:"rawValues"`
	RiskFactors []string       `json:"riskFactors"`
	Anomalies   []string       `json:"anomalies"`
	Stats       struct {
		RuleCount  int     `json:"ruleCount"`
		Confidence float64 `json:"confidence"`
	} `json:"stats"`
}

// Decode validates raw backend JSON against the analysis schema and maps it
// into a DocumentAnalysisResult. Schema violations surface as
// malformed-response failures.
func Decode(backendName string, docID string, raw []byte) (*model.DocumentAnalysisResult, error) {
	var loose any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, NewFailure(backendName, FailureMalformed, eris.Wrap(err, "backend: parse analysis JSON"))
	}
	if err := compiledSchema.Validate(loose); err != nil {
		return nil, NewFailure(backendName, FailureMalformed, eris.Wrap(err, "backend: analysis payload failed schema validation"))
	}

	var payload analysisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, NewFailure(backendName, FailureMalformed, eris.Wrap(err, "backend: decode analysis payload"))
	}

	result := &model.DocumentAnalysisResult{
		DocumentID: docID,
		Summary: model.DocumentSummary{
			ContractType:  payload.Summary.ContractType,
			Parties:       payload.Summary.Parties,
			EffectiveDate: payload.Summary.EffectiveDate,
		},
		RawValues:   model.RawValueBag(payload.RawValues),
		RiskFactors: payload.RiskFactors,
		Anomalies:   payload.Anomalies,
		Stats: model.AnalysisStats{
			RuleCount:  payload.Stats.RuleCount,
			Confidence: payload.Stats.Confidence,
		},
	}
	if result.RawValues == nil {
		result.RawValues = model.RawValueBag{}
	}

	for i, r := range payload.Rules {
		id := r.ID
		if id == "" {
			id = ruleID(docID, i)
		}
		result.Rules = append(result.Rules, model.ExtractedRule{
			ID:          id,
			Category:    model.RuleCategory(r.Category),
			Kind:        model.RuleKind(r.Type),
			Name:        r.Name,
			Description: r.Description,
			Condition:   r.Condition,
			Action:      r.Action,
			Parameters:  r.Parameters,
			Confidence:  r.Confidence,
			SourceText:  r.SourceText,
		})
	}
	if result.Stats.RuleCount == 0 {
		result.Stats.RuleCount = len(result.Rules)
	}

	return result, nil
}

func ruleID(docID string, idx int) string {
	return fmt.Sprintf("%s-rule-%d", docID, idx)
}
