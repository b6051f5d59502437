package schedule

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
)

type scheduleFixture struct {
	scheduler *Scheduler
	client    *sqlite.Client
	unitID    int64
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()

	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	unit := &models.Unit{Name: "Linac 1", Active: true}
	require.NoError(t, client.InsertUnit(unit))

	return &scheduleFixture{
		scheduler: NewScheduler(client),
		client:    client,
		unitID:    unit.ID,
	}
}

func (f *scheduleFixture) addReport(t *testing.T, qaType, date string) {
	t.Helper()

	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	require.NoError(t, f.client.InsertReportWithTests(&models.QAReport{
		Date:   d,
		QAType: qaType,
		UnitID: f.unitID,
	}))
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestStatusNoHistory(t *testing.T) {
	f := newScheduleFixture(t)

	statuses, err := f.scheduler.Status(mustDay(t, "2024-03-15"))
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	assert.True(t, statuses[0].DailyDue)
	assert.True(t, statuses[0].MonthlyDue)
	assert.Nil(t, statuses[0].LastDaily)
	assert.Nil(t, statuses[0].LastMonthly)
}

func TestStatusDailyDoneToday(t *testing.T) {
	f := newScheduleFixture(t)
	f.addReport(t, "daily", "2024-03-15")

	statuses, err := f.scheduler.Status(mustDay(t, "2024-03-15"))
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	assert.False(t, statuses[0].DailyDue)
	require.NotNil(t, statuses[0].LastDaily)
	assert.Equal(t, "2024-03-15", statuses[0].LastDaily.Format("2006-01-02"))
}

func TestStatusDailyDueNextDay(t *testing.T) {
	f := newScheduleFixture(t)
	f.addReport(t, "daily", "2024-03-14")

	statuses, err := f.scheduler.Status(mustDay(t, "2024-03-15"))
	require.NoError(t, err)
	assert.True(t, statuses[0].DailyDue)
}

func TestStatusMonthlyWindow(t *testing.T) {
	f := newScheduleFixture(t)
	f.addReport(t, "monthly", "2024-03-01")

	// Exactly 30 days later the last monthly is still in the window.
	statuses, err := f.scheduler.Status(mustDay(t, "2024-03-31"))
	require.NoError(t, err)
	assert.False(t, statuses[0].MonthlyDue)

	statuses, err = f.scheduler.Status(mustDay(t, "2024-04-01"))
	require.NoError(t, err)
	assert.True(t, statuses[0].MonthlyDue)
}

func TestStatusUsesLatestReportPerType(t *testing.T) {
	f := newScheduleFixture(t)
	f.addReport(t, "monthly", "2024-01-10")
	f.addReport(t, "monthly", "2024-03-10")
	f.addReport(t, "daily", "2024-03-14")

	statuses, err := f.scheduler.Status(mustDay(t, "2024-03-15"))
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	assert.Equal(t, "2024-03-10", statuses[0].LastMonthly.Format("2006-01-02"))
	assert.False(t, statuses[0].MonthlyDue)
	assert.True(t, statuses[0].DailyDue)
}

func TestStatusSkipsInactiveUnits(t *testing.T) {
	f := newScheduleFixture(t)

	retired := &models.Unit{Name: "Old Linac", Active: false}
	require.NoError(t, f.client.InsertUnit(retired))

	statuses, err := f.scheduler.Status(mustDay(t, "2024-03-15"))
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "Linac 1", statuses[0].Unit.Name)
}
