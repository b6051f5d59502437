package qa

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/checklist"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
)

type qaFixture struct {
	store  *Store
	client *sqlite.Client
	unitID int64
}

func newQAFixture(t *testing.T) *qaFixture {
	t.Helper()

	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	unit := &models.Unit{Name: "Linac 1", PhotonEnergies: []string{"6MV"}, Active: true}
	require.NoError(t, client.InsertUnit(unit))

	return &qaFixture{
		store:  NewStore(client, audit.NewTrail(client)),
		client: client,
		unitID: unit.ID,
	}
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateSessionBackfillsChecklist(t *testing.T) {
	f := newQAFixture(t)

	measurement := 99.8
	report, err := f.store.CreateSession(SessionInput{
		UnitID: f.unitID,
		QAType: checklist.Daily,
		Date:   date("2024-03-01"),
		Results: map[string]Result{
			"DL1": {Status: models.StatusPass},
			"DL2": {Status: models.StatusFail, Notes: "laser misaligned"},
			"DL3": {Status: models.StatusPass, Measurement: &measurement},
		},
		ActingUser: "admin",
	})
	require.NoError(t, err)

	// Every daily item gets a row, entered or not.
	saved, err := f.client.GetReport(report.ID)
	require.NoError(t, err)
	require.Len(t, saved.Tests, 9)

	byID := make(map[string]models.QATest)
	for _, test := range saved.Tests {
		byID[test.TestID] = test
	}
	assert.Equal(t, models.StatusPass, byID["DL1"].Status)
	assert.Equal(t, models.StatusFail, byID["DL2"].Status)
	assert.Equal(t, "laser misaligned", byID["DL2"].Notes)
	require.NotNil(t, byID["DL3"].Measurement)
	assert.Equal(t, 99.8, *byID["DL3"].Measurement)
	assert.Equal(t, models.StatusUnset, byID["DL9"].Status)
}

func TestCreateSessionScoreCounts(t *testing.T) {
	f := newQAFixture(t)

	report, err := f.store.CreateSession(SessionInput{
		UnitID: f.unitID,
		QAType: checklist.Daily,
		Date:   date("2024-03-01"),
		Results: map[string]Result{
			"DL1": {Status: models.StatusPass},
			"DL2": {Status: models.StatusPass},
			"DL3": {Status: models.StatusPass},
			"DL4": {Status: models.StatusFail},
			"DL5": {Status: models.StatusFail},
			"DL6": {Status: models.StatusNA},
		},
		ActingUser: "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.PassCount())
	assert.Equal(t, 2, report.FailCount())
	// N/A and unset rows are not scored.
	assert.Equal(t, 5, report.TotalTests())
}

func TestCreateSessionUnknownItemPersistsNothing(t *testing.T) {
	f := newQAFixture(t)

	_, err := f.store.CreateSession(SessionInput{
		UnitID: f.unitID,
		QAType: checklist.Daily,
		Date:   date("2024-03-01"),
		Results: map[string]Result{
			"DL1":  {Status: models.StatusPass},
			"ML16": {Status: models.StatusPass},
		},
		ActingUser: "admin",
	})
	require.ErrorIs(t, err, ErrUnknownChecklistItem)

	count, err := f.client.CountReports()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateSessionInvalidStatus(t *testing.T) {
	f := newQAFixture(t)

	_, err := f.store.CreateSession(SessionInput{
		UnitID: f.unitID,
		QAType: checklist.Daily,
		Date:   date("2024-03-01"),
		Results: map[string]Result{
			"DL1": {Status: models.TestStatus("passed")},
		},
		ActingUser: "admin",
	})
	require.ErrorIs(t, err, ErrInvalidStatus)

	count, err := f.client.CountReports()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateSessionUnknownType(t *testing.T) {
	f := newQAFixture(t)

	_, err := f.store.CreateSession(SessionInput{
		UnitID:     f.unitID,
		QAType:     checklist.SessionType("weekly"),
		Date:       date("2024-03-01"),
		ActingUser: "admin",
	})
	assert.ErrorIs(t, err, ErrInvalidSessionType)
}

func TestCreateSessionUnknownUnit(t *testing.T) {
	f := newQAFixture(t)

	_, err := f.store.CreateSession(SessionInput{
		UnitID:     999,
		QAType:     checklist.Daily,
		Date:       date("2024-03-01"),
		ActingUser: "admin",
	})
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestCreateSessionDuplicateDayAllowed(t *testing.T) {
	f := newQAFixture(t)

	input := SessionInput{
		UnitID:     f.unitID,
		QAType:     checklist.Daily,
		Date:       date("2024-03-01"),
		Results:    map[string]Result{"DL1": {Status: models.StatusPass}},
		ActingUser: "admin",
	}

	// A repeated session after a fault is a new record, never an overwrite.
	_, err := f.store.CreateSession(input)
	require.NoError(t, err)
	_, err = f.store.CreateSession(input)
	require.NoError(t, err)

	count, err := f.client.CountReports()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetReportJoinsChecklistDefinitions(t *testing.T) {
	f := newQAFixture(t)

	saved, err := f.store.CreateSession(SessionInput{
		UnitID:     f.unitID,
		QAType:     checklist.Daily,
		Date:       date("2024-03-01"),
		Results:    map[string]Result{"DL1": {Status: models.StatusPass}},
		ActingUser: "admin",
	})
	require.NoError(t, err)

	detail, err := f.store.GetReport(saved.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Unit)
	assert.Equal(t, "Linac 1", detail.Unit.Name)
	require.Len(t, detail.Tests, 9)
	assert.NotEmpty(t, detail.Tests[0].Description)
	assert.Equal(t, 1, detail.PassCount)
}

func TestGetReportNotFound(t *testing.T) {
	f := newQAFixture(t)

	_, err := f.store.GetReport(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryFiltersAndOrdering(t *testing.T) {
	f := newQAFixture(t)

	for _, d := range []string{"2024-03-01", "2024-03-05", "2024-03-10"} {
		_, err := f.store.CreateSession(SessionInput{
			UnitID:     f.unitID,
			QAType:     checklist.Daily,
			Date:       date(d),
			ActingUser: "admin",
		})
		require.NoError(t, err)
	}
	_, err := f.store.CreateSession(SessionInput{
		UnitID:     f.unitID,
		QAType:     checklist.Monthly,
		Date:       date("2024-03-05"),
		ActingUser: "admin",
	})
	require.NoError(t, err)

	all, err := f.store.Query(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Most recent QA date first.
	assert.Equal(t, "2024-03-10", all[0].Date.Format("2006-01-02"))

	daily, err := f.store.Query(Filter{QAType: "daily"})
	require.NoError(t, err)
	assert.Len(t, daily, 3)

	start, end := date("2024-03-02"), date("2024-03-05")
	ranged, err := f.store.Query(Filter{Start: &start, End: &end})
	require.NoError(t, err)
	// Range bounds are inclusive.
	require.Len(t, ranged, 2)
	for _, r := range ranged {
		assert.Equal(t, "2024-03-05", r.Date.Format("2006-01-02"))
	}
}

func TestCreateSessionRecordsActingUserID(t *testing.T) {
	f := newQAFixture(t)

	user := &models.User{
		Username:       "jlopez",
		Email:          "jlopez@hospital.local",
		HashedPassword: "hash",
		Role:           "physicist",
		Active:         true,
	}
	require.NoError(t, f.client.InsertUser(user))

	report, err := f.store.CreateSession(SessionInput{
		UnitID:     f.unitID,
		QAType:     checklist.Daily,
		Date:       date("2024-03-01"),
		Results:    map[string]Result{"DL1": {Status: models.StatusPass}},
		ActorID:    user.ID,
		ActingUser: user.Username,
	})
	require.NoError(t, err)

	saved, err := f.client.GetReport(report.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, saved.CreatedBy)
}

func TestCreateSessionWithoutActorSucceeds(t *testing.T) {
	// No actor resolves to a NULL creator; the users foreign key must
	// still accept the row.
	f := newQAFixture(t)

	report, err := f.store.CreateSession(SessionInput{
		UnitID:     f.unitID,
		QAType:     checklist.Daily,
		Date:       date("2024-03-01"),
		ActingUser: "admin",
	})
	require.NoError(t, err)

	saved, err := f.client.GetReport(report.ID)
	require.NoError(t, err)
	assert.Zero(t, saved.CreatedBy)
}

func TestCreateSessionUnknownActorRejected(t *testing.T) {
	f := newQAFixture(t)

	_, err := f.store.CreateSession(SessionInput{
		UnitID:  f.unitID,
		QAType:  checklist.Daily,
		Date:    date("2024-03-01"),
		ActorID: 9999,
	})
	require.Error(t, err)

	count, err := f.client.CountReports()
	require.NoError(t, err)
	assert.Zero(t, count)
}
