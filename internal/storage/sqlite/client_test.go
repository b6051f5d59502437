package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linac-qa/backend/internal/storage/models"
)

func insertTestUnit(t *testing.T, client *Client) int64 {
	t.Helper()

	unit := &models.Unit{Name: "Linac 1", PhotonEnergies: []string{"6MV"}, Active: true}
	require.NoError(t, client.InsertUnit(unit))
	return unit.ID
}

func testDate(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestForeignKeysEnforced(t *testing.T) {
	client := newTestClient(t)

	// Orphan test rows must be rejected on any pooled connection, not
	// just the one that happened to run a pragma at startup.
	for i := 0; i < 5; i++ {
		_, err := client.db.Exec(
			`INSERT INTO qa_tests (report_id, test_id) VALUES (?, ?)`, 9999, "DL1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FOREIGN KEY")
	}
}

func TestInsertReportStoresActingUserID(t *testing.T) {
	client := newTestClient(t)
	unitID := insertTestUnit(t, client)

	user := &models.User{
		Username:       "jlopez",
		Email:          "jlopez@hospital.local",
		HashedPassword: "hash",
		Role:           "physicist",
		Active:         true,
	}
	require.NoError(t, client.InsertUser(user))

	report := &models.QAReport{
		Date:      testDate(t, "2024-03-01"),
		QAType:    "daily",
		UnitID:    unitID,
		Performer: "J. Lopez",
		CreatedBy: user.ID,
		Tests:     []models.QATest{{TestID: "DL1", Status: models.StatusPass}},
	}
	require.NoError(t, client.InsertReportWithTests(report))

	saved, err := client.GetReport(report.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, user.ID, saved.CreatedBy)
}

func TestInsertReportWithoutActorStoresNull(t *testing.T) {
	client := newTestClient(t)
	unitID := insertTestUnit(t, client)

	// created_by references users(id); an absent actor has to land as
	// NULL or the foreign key rejects the whole session.
	report := &models.QAReport{
		Date:   testDate(t, "2024-03-01"),
		QAType: "daily",
		UnitID: unitID,
		Tests:  []models.QATest{{TestID: "DL1", Status: models.StatusPass}},
	}
	require.NoError(t, client.InsertReportWithTests(report))

	saved, err := client.GetReport(report.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Zero(t, saved.CreatedBy)
}

func TestInsertReportUnknownActorRejected(t *testing.T) {
	client := newTestClient(t)
	unitID := insertTestUnit(t, client)

	report := &models.QAReport{
		Date:      testDate(t, "2024-03-01"),
		QAType:    "daily",
		UnitID:    unitID,
		CreatedBy: 9999,
		Tests:     []models.QATest{{TestID: "DL1", Status: models.StatusPass}},
	}
	require.Error(t, client.InsertReportWithTests(report))

	count, err := client.CountReports()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteReportCascadesTests(t *testing.T) {
	client := newTestClient(t)
	unitID := insertTestUnit(t, client)

	report := &models.QAReport{
		Date:   testDate(t, "2024-03-01"),
		QAType: "daily",
		UnitID: unitID,
		Tests: []models.QATest{
			{TestID: "DL1", Status: models.StatusPass},
			{TestID: "DL2", Status: models.StatusFail},
		},
	}
	require.NoError(t, client.InsertReportWithTests(report))

	_, err := client.db.Exec(`DELETE FROM qa_reports WHERE id = ?`, report.ID)
	require.NoError(t, err)

	var count int
	require.NoError(t, client.db.QueryRow(
		`SELECT COUNT(*) FROM qa_tests WHERE report_id = ?`, report.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestGetUnitRejectsCorruptEnergyJSON(t *testing.T) {
	client := newTestClient(t)
	unitID := insertTestUnit(t, client)

	_, err := client.db.Exec(
		`UPDATE units SET photon_energies = ? WHERE id = ?`, "{not json", unitID)
	require.NoError(t, err)

	unit, err := client.GetUnit(unitID)
	require.Error(t, err)
	assert.Nil(t, unit)
	assert.Contains(t, err.Error(), "photon_energies")
}
