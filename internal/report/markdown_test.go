package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/checklist"
	"github.com/linac-qa/backend/internal/qa"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
)

func newSeededGenerator(t *testing.T) (*Generator, int64) {
	t.Helper()

	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	unit := &models.Unit{Name: "Linac 1", Manufacturer: "Varian", Model: "Clinac", Active: true}
	require.NoError(t, client.InsertUnit(unit))

	sessions := qa.NewStore(client, audit.NewTrail(client))
	date, _ := time.Parse("2006-01-02", "2024-03-01")
	saved, err := sessions.CreateSession(qa.SessionInput{
		UnitID:    unit.ID,
		QAType:    checklist.Daily,
		Date:      date,
		Performer: "Alice",
		Results: map[string]qa.Result{
			"DL1": {Status: models.StatusPass},
			"DL2": {Status: models.StatusFail, Notes: "lasers off by 2mm"},
		},
		ActingUser: "alice",
	})
	require.NoError(t, err)

	return NewGenerator(sessions), saved.ID
}

func TestMarkdownContent(t *testing.T) {
	generator, reportID := newSeededGenerator(t)

	doc, err := generator.Markdown(reportID)
	require.NoError(t, err)

	assert.Contains(t, doc, "# Daily QA Report")
	assert.Contains(t, doc, "**Unit:** Linac 1 (Varian Clinac)")
	assert.Contains(t, doc, "**Performed by:** Alice")
	assert.Contains(t, doc, "| DL1 |")
	assert.Contains(t, doc, "**FAIL**")
	// Failed tests get a dedicated section with their notes.
	assert.Contains(t, doc, "## Failed Tests")
	assert.Contains(t, doc, "lasers off by 2mm")
}

func TestMarkdownUnknownReport(t *testing.T) {
	generator, _ := newSeededGenerator(t)

	_, err := generator.Markdown(9999)
	assert.ErrorIs(t, err, qa.ErrNotFound)
}

func TestFilename(t *testing.T) {
	date, _ := time.Parse("2006-01-02", "2024-03-01")
	name := (&Generator{}).Filename(&models.QAReport{ID: 12, QAType: "daily", Date: date})
	assert.Equal(t, "daily-qa-2024-03-01-report-12.md", name)
}
