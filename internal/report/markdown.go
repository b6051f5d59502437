package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/linac-qa/backend/internal/qa"
	"github.com/linac-qa/backend/internal/storage/models"
)

// Generator renders QA session reports for download and record keeping.
type Generator struct {
	sessions *qa.Store
}

func NewGenerator(sessions *qa.Store) *Generator {
	return &Generator{sessions: sessions}
}

// Markdown renders one QA session as a printable markdown document.
func (g *Generator) Markdown(reportID int64) (string, error) {
	detail, err := g.sessions.GetReport(reportID)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	// Title
	b.WriteString(fmt.Sprintf("# %s QA Report\n\n", titleCase(detail.Report.QAType)))
	if detail.Unit != nil {
		b.WriteString(fmt.Sprintf("**Unit:** %s", detail.Unit.Name))
		if detail.Unit.Model != "" {
			b.WriteString(fmt.Sprintf(" (%s %s)", detail.Unit.Manufacturer, detail.Unit.Model))
		}
		b.WriteString("  \n")
	}
	b.WriteString(fmt.Sprintf("**Date:** %s  \n", detail.Report.Date.Format("January 2, 2006")))
	if detail.Report.Performer != "" {
		b.WriteString(fmt.Sprintf("**Performed by:** %s  \n", detail.Report.Performer))
	}
	if detail.Report.Witness != "" {
		b.WriteString(fmt.Sprintf("**Witnessed by:** %s  \n", detail.Report.Witness))
	}
	b.WriteString(fmt.Sprintf("**Generated:** %s  \n\n", time.Now().Format("January 2, 2006 15:04:05 MST")))

	// Summary
	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("%d of %d scored tests passed", detail.PassCount, detail.TotalTests))
	if detail.FailCount > 0 {
		b.WriteString(fmt.Sprintf(", **%d failed**", detail.FailCount))
	}
	b.WriteString(".\n\n")

	// Results table
	b.WriteString("## Test Results\n\n")
	b.WriteString("| Test | Description | Tolerance | Result | Measurement | Notes |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, t := range detail.Tests {
		measurement := ""
		if t.Measurement != nil {
			measurement = fmt.Sprintf("%g", *t.Measurement)
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			t.TestID, t.Description, t.Tolerance, statusLabel(t.Status), measurement, t.Notes))
	}
	b.WriteString("\n")

	// Failed tests get their action levels spelled out.
	var failed []qa.TestDetail
	for _, t := range detail.Tests {
		if t.Status == models.StatusFail {
			failed = append(failed, t)
		}
	}
	if len(failed) > 0 {
		b.WriteString("## Failed Tests\n\n")
		for _, t := range failed {
			b.WriteString(fmt.Sprintf("### %s — %s\n\n", t.TestID, t.Description))
			if t.Action != "" {
				b.WriteString(fmt.Sprintf("**Action level:** %s  \n", t.Action))
			}
			if t.Notes != "" {
				b.WriteString(fmt.Sprintf("**Notes:** %s  \n", t.Notes))
			}
			b.WriteString("\n")
		}
	}

	if detail.Report.Comments != "" {
		b.WriteString("## Comments\n\n")
		b.WriteString(detail.Report.Comments)
		b.WriteString("\n\n")
	}

	if detail.Report.Signature != "" {
		b.WriteString("---\n\n")
		b.WriteString(fmt.Sprintf("Signed: %s\n", detail.Report.Signature))
	}

	return b.String(), nil
}

// Filename builds a download name like daily-qa-2024-03-01-report-12.md.
func (g *Generator) Filename(detail *models.QAReport) string {
	return fmt.Sprintf("%s-qa-%s-report-%d.md",
		detail.QAType, detail.Date.Format("2006-01-02"), detail.ID)
}

// titleCase capitalizes a session type label. The types are plain ASCII
// words, so no locale-aware casing is needed.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func statusLabel(s models.TestStatus) string {
	switch s {
	case models.StatusPass:
		return "Pass"
	case models.StatusFail:
		return "**FAIL**"
	case models.StatusNA:
		return "N/A"
	}
	return "—"
}
