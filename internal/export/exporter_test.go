package export

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
)

func newSeededExporter(t *testing.T) *Exporter {
	t.Helper()

	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	install := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
	unit := &models.Unit{
		Name:           "Linac 1",
		Manufacturer:   "Varian",
		InstallDate:    &install,
		PhotonEnergies: []string{"6MV"},
		Active:         true,
	}
	require.NoError(t, client.InsertUnit(unit))

	measurement := 99.9
	require.NoError(t, client.InsertReportWithTests(&models.QAReport{
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		QAType:    "daily",
		UnitID:    unit.ID,
		Performer: "Alice",
		Tests: []models.QATest{
			{TestID: "DL1", Status: models.StatusPass, Measurement: &measurement},
			{TestID: "DL2", Status: models.StatusFail, Notes: "out of tolerance"},
		},
	}))

	require.NoError(t, client.InsertReading(&models.OutputReading{
		Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		UnitID:    unit.ID,
		Energy:    "6MV",
		Reading:   99.0,
		Reference: 100.0,
		Deviation: -1.0,
	}))

	require.NoError(t, client.InsertAuditEntry(&models.AuditEntry{
		User:   "admin",
		Action: "LOGIN",
	}))

	return NewExporter(client)
}

func TestSnapshotIsComplete(t *testing.T) {
	exporter := newSeededExporter(t)

	snap, err := exporter.Snapshot()
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ExportedAt)
	require.Len(t, snap.Units, 1)
	require.Len(t, snap.Reports, 1)
	require.Len(t, snap.OutputReadings, 1)
	require.Len(t, snap.AuditLog, 1)

	// Reports carry their test rows so the export stands alone.
	report := snap.Reports[0]
	require.Len(t, report.Tests, 2)
	assert.Equal(t, "DL1", report.Tests[0].TestID)
	assert.Equal(t, "pass", report.Tests[0].Status)
	require.NotNil(t, report.Tests[0].Measurement)
	assert.Equal(t, 99.9, *report.Tests[0].Measurement)
}

func TestSnapshotDateFormats(t *testing.T) {
	exporter := newSeededExporter(t)

	snap, err := exporter.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", snap.Reports[0].Date)
	assert.Equal(t, "2024-03-01", snap.OutputReadings[0].Date)
	require.NotNil(t, snap.Units[0].InstallDate)
	assert.Equal(t, "2018-06-01", *snap.Units[0].InstallDate)

	_, err = time.Parse(time.RFC3339, snap.ExportedAt)
	assert.NoError(t, err)
	_, err = time.Parse(time.RFC3339, snap.AuditLog[0].Timestamp)
	assert.NoError(t, err)
}

func TestJSONRoundtrips(t *testing.T) {
	exporter := newSeededExporter(t)

	data, err := exporter.JSON()
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "units")
	assert.Contains(t, decoded, "reports")
	assert.Contains(t, decoded, "output_readings")
	assert.Contains(t, decoded, "audit_log")
}

func TestSnapshotIncludesInactiveUnits(t *testing.T) {
	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	require.NoError(t, client.InsertUnit(&models.Unit{Name: "Retired", Active: false}))

	snap, err := NewExporter(client).Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Units, 1)
	assert.False(t, snap.Units[0].Active)
}
