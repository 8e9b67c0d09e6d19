package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

// Sheet names in the exported workbook
const (
	sheetSummary         = "Summary"
	sheetViolations      = "Violations"
	sheetRecommendations = "Recommendations"
)

// Exporter renders analysis results as Excel workbooks for review teams
// that track campaign sign-off outside the API
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Workbook builds the workbook for one analysis result
func (e *Exporter) Workbook(result *models.AnalysisResult) (*excelize.File, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to export")
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetSummary)
	if _, err := f.NewSheet(sheetViolations); err != nil {
		return nil, fmt.Errorf("failed to create violations sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetRecommendations); err != nil {
		return nil, fmt.Errorf("failed to create recommendations sheet: %w", err)
	}

	e.fillSummary(f, result)
	e.fillViolations(f, result)
	e.fillRecommendations(f, result)

	index, err := f.GetSheetIndex(sheetSummary)
	if err == nil {
		f.SetActiveSheet(index)
	}
	return f, nil
}

// Write renders the workbook for result to w
func (e *Exporter) Write(result *models.AnalysisResult, w io.Writer) error {
	f, err := e.Workbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save renders the workbook for result to a file
func (e *Exporter) Save(result *models.AnalysisResult, path string) error {
	f, err := e.Workbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Report exported",
		zap.String("report_id", result.ID),
		zap.String("path", path))
	return nil
}

func (e *Exporter) fillSummary(f *excelize.File, result *models.AnalysisResult) {
	breakdown := result.Report.Breakdown

	rows := [][]interface{}{
		{"Report ID", result.ID},
		{"Analyzed At", result.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
		{"Compliance Score", breakdown.TotalScore},
		{"Level", string(breakdown.Level)},
		{"Risk Level", string(breakdown.Risk.Level)},
		{"Violations", len(result.Report.Violations)},
		{"Missing Elements", len(result.Report.MissingElements)},
		{"Model Review", modelReviewLabel(result.Insights)},
		{},
		{"Risk Assessment", result.Report.Summary.RiskAssessment},
	}

	row := 1
	for _, cells := range rows {
		e.setRow(f, sheetSummary, row, cells)
		row++
	}

	row++
	e.setRow(f, sheetSummary, row, []interface{}{"Key Findings"})
	row++
	for _, finding := range result.Report.Summary.KeyFindings {
		e.setRow(f, sheetSummary, row, []interface{}{"", finding})
		row++
	}

	row++
	e.setRow(f, sheetSummary, row, []interface{}{"Next Steps"})
	row++
	for _, step := range result.Report.Summary.NextSteps {
		e.setRow(f, sheetSummary, row, []interface{}{"", step})
		row++
	}

	e.setColWidth(f, sheetSummary, "A", "A", 22)
	e.setColWidth(f, sheetSummary, "B", "B", 90)
}

func (e *Exporter) fillViolations(f *excelize.File, result *models.AnalysisResult) {
	e.setRow(f, sheetViolations, 1, []interface{}{
		"Rule ID", "Rule Title", "Category", "Severity", "Kind", "Matched Text", "Confidence", "Score Impact", "Context",
	})

	row := 2
	for _, v := range result.Report.Violations {
		e.setRow(f, sheetViolations, row, []interface{}{
			v.RuleID,
			v.RuleTitle,
			v.Category,
			string(v.Severity),
			string(v.Kind),
			v.MatchedText,
			v.Confidence,
			v.Impact,
			v.Context,
		})
		row++
	}

	if len(result.Report.MissingElements) > 0 {
		row++
		e.setRow(f, sheetViolations, row, []interface{}{"Missing Element", "Required By"})
		row++
		for _, m := range result.Report.MissingElements {
			e.setRow(f, sheetViolations, row, []interface{}{m.Element, m.RuleTitle})
			row++
		}
	}

	if len(result.Report.Citations) > 0 {
		row++
		e.setRow(f, sheetViolations, row, []interface{}{"Citation", "Source", "Section", "Matched Texts"})
		row++
		for _, c := range result.Report.Citations {
			e.setRow(f, sheetViolations, row, []interface{}{c.RuleTitle, c.SourceDocument, c.Section, c.MatchedTexts})
			row++
		}
	}

	e.setColWidth(f, sheetViolations, "A", "B", 28)
	e.setColWidth(f, sheetViolations, "F", "F", 40)
	e.setColWidth(f, sheetViolations, "I", "I", 60)
}

func (e *Exporter) fillRecommendations(f *excelize.File, result *models.AnalysisResult) {
	rec := result.Recommendations

	e.setRow(f, sheetRecommendations, 1, []interface{}{"Overall Approach", rec.OverallApproach})

	row := 3
	if len(rec.Fixes) > 0 {
		e.setRow(f, sheetRecommendations, row, []interface{}{"Original", "Suggested", "Reason", "Citation", "Priority", "Difficulty", "Marketing Impact"})
		row++
		for _, fix := range rec.Fixes {
			e.setRow(f, sheetRecommendations, row, []interface{}{
				fix.OriginalText,
				fix.SuggestedText,
				fix.Reason,
				fix.Citation,
				string(fix.Priority),
				fix.Difficulty,
				fix.Impact,
			})
			row++
		}
		row++
	}

	if len(rec.RequiredAdditions) > 0 {
		e.setRow(f, sheetRecommendations, row, []interface{}{"Required Addition", "Suggested Text", "Placement", "Reference"})
		row++
		for _, add := range rec.RequiredAdditions {
			e.setRow(f, sheetRecommendations, row, []interface{}{add.Element, add.SuggestedText, add.Placement, add.Reference})
			row++
		}
		row++
	}

	if len(rec.Alternatives) > 0 {
		e.setRow(f, sheetRecommendations, row, []interface{}{"Alternative", "Text", "Marketing Strength", "Risk"})
		row++
		for _, alt := range rec.Alternatives {
			e.setRow(f, sheetRecommendations, row, []interface{}{alt.Label, alt.Text, alt.MarketingStrength, string(alt.RiskLevel)})
			row++
		}
		row++
	}

	if len(rec.Checklist) > 0 {
		e.setRow(f, sheetRecommendations, row, []interface{}{"Checklist"})
		row++
		for _, item := range rec.Checklist {
			e.setRow(f, sheetRecommendations, row, []interface{}{"", item})
			row++
		}
	}

	e.setColWidth(f, sheetRecommendations, "A", "B", 50)
	e.setColWidth(f, sheetRecommendations, "C", "D", 36)
}

// setRow writes one row starting at column A
func (e *Exporter) setRow(f *excelize.File, sheet string, row int, cells []interface{}) {
	if len(cells) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		e.logger.Warn("Failed to compute cell name", zap.Int("row", row), zap.Error(err))
		return
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		e.logger.Warn("Failed to set sheet row",
			zap.String("sheet", sheet),
			zap.Int("row", row),
			zap.Error(err))
	}
}

func (e *Exporter) setColWidth(f *excelize.File, sheet, start, end string, width float64) {
	if err := f.SetColWidth(sheet, start, end, width); err != nil {
		e.logger.Warn("Failed to set column width", zap.String("sheet", sheet), zap.Error(err))
	}
}

func modelReviewLabel(insights models.ModelInsights) string {
	if insights.Fallback {
		return "unavailable (manual review required)"
	}
	return fmt.Sprintf("%s (score %.0f)", insights.OverallStatus, insights.Score)
}
