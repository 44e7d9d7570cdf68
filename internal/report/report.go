package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/contract-intake/internal/model"
)

// WriteWorkbook writes an XLSX review workbook for one analyzed batch:
// one sheet of canonical fields with provenance, one of routing decisions
// with cost estimates, one of validation findings, and one of supporting
// rules grouped by section.
func WriteWorkbook(path string, result *model.BatchResult) error {
	f := xlsx.NewFile()

	if err := addFieldsSheet(f, result.Blueprint); err != nil {
		return err
	}
	if err := addDecisionsSheet(f, result.Decisions); err != nil {
		return err
	}
	if err := addValidationSheet(f, result.Validation, result.Failed); err != nil {
		return err
	}
	if err := addRulesSheet(f, result.Blueprint); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	return nil
}

func addFieldsSheet(f *xlsx.File, bp *model.ContractBlueprint) error {
	sheet, err := f.AddSheet("Fields")
	if err != nil {
		return eris.Wrap(err, "report: add fields sheet")
	}
	addRow(sheet, "Field", "Value", "Source", "Source Key", "Confidence", "Document", "Rules")

	if bp == nil {
		return nil
	}

	keys := make([]string, 0, len(bp.Fields))
	for k := range bp.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fv := bp.Fields[k]
		addRow(sheet,
			fv.FieldKey,
			fmt.Sprintf("%v", fv.Value),
			string(fv.Source),
			fv.SourceKey,
			fmt.Sprintf("%.2f", fv.Confidence),
			fv.DocumentID,
			strings.Join(fv.RuleIDs, ", "),
		)
	}

	addRow(sheet)
	addRow(sheet, "Overall Confidence", fmt.Sprintf("%.2f", bp.OverallConfidence))
	addRow(sheet, "Blueprint ID", bp.ID)
	addRow(sheet, "Created At", bp.CreatedAt.Format(time.RFC3339))
	return nil
}

func addDecisionsSheet(f *xlsx.File, decisions []model.ExtractionDecision) error {
	sheet, err := f.AddSheet("Decisions")
	if err != nil {
		return eris.Wrap(err, "report: add decisions sheet")
	}
	addRow(sheet, "Document", "Backend", "Reason", "Estimated Cost (USD)", "Fallback", "Decided At")

	var total float64
	for _, d := range decisions {
		total += d.EstimatedCostUSD
		addRow(sheet,
			d.DocumentID,
			string(d.Backend),
			string(d.Reason),
			fmt.Sprintf("%.4f", d.EstimatedCostUSD),
			fmt.Sprintf("%t", d.Fallback),
			d.DecidedAt.Format(time.RFC3339),
		)
	}

	addRow(sheet)
	addRow(sheet, "Total", "", "", fmt.Sprintf("%.4f", total))
	return nil
}

func addValidationSheet(f *xlsx.File, report *model.ValidationReport, failed []model.DocumentFailure) error {
	sheet, err := f.AddSheet("Validation")
	if err != nil {
		return eris.Wrap(err, "report: add validation sheet")
	}
	addRow(sheet, "Severity", "Field", "Code", "Message")

	if report != nil {
		for _, issue := range report.Errors {
			addRow(sheet, string(issue.Severity), issue.FieldKey, issue.Code, issue.Message)
		}
		for _, issue := range report.Warnings {
			addRow(sheet, string(issue.Severity), issue.FieldKey, issue.Code, issue.Message)
		}
	}

	for _, df := range failed {
		addRow(sheet, "failed-document", df.Filename, "analysis-failed", df.Error)
	}
	return nil
}

func addRulesSheet(f *xlsx.File, bp *model.ContractBlueprint) error {
	sheet, err := f.AddSheet("Rules")
	if err != nil {
		return eris.Wrap(err, "report: add rules sheet")
	}
	addRow(sheet, "Section", "Category", "Kind", "Name", "Description", "Confidence", "Document")

	if bp == nil {
		return nil
	}

	sections := make([]model.Section, 0, len(bp.RulesBySection))
	for s := range bp.RulesBySection {
		sections = append(sections, s)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i] < sections[j] })

	for _, section := range sections {
		for _, sr := range bp.RulesBySection[section] {
			addRow(sheet,
				string(section),
				string(sr.Rule.Category),
				string(sr.Rule.Kind),
				sr.Rule.Name,
				sr.Rule.Description,
				fmt.Sprintf("%.2f", sr.Rule.Confidence),
				sr.DocumentID,
			)
		}
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().Value = c
	}
}
