package schedule

import (
	"time"

	"github.com/linac-qa/backend/internal/checklist"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
)

// monthlyWindowDays is how long a monthly QA stays current. A report dated
// exactly this many days ago is still in the window.
const monthlyWindowDays = 30

// UnitStatus is the due state for one unit, derived fresh on every call.
type UnitStatus struct {
	Unit        models.Unit
	LastDaily   *time.Time
	LastMonthly *time.Time
	DailyDue    bool
	MonthlyDue  bool
}

// Scheduler derives due states from the QA session history. It holds no
// state of its own.
type Scheduler struct {
	store *sqlite.Client
}

func NewScheduler(store *sqlite.Client) *Scheduler {
	return &Scheduler{store: store}
}

// Status computes the daily/monthly due state for every active unit as of
// today. Daily QA is due each calendar day until a report dated today
// exists; monthly QA is due once the last monthly report is more than 30
// days old.
func (s *Scheduler) Status(today time.Time) ([]UnitStatus, error) {
	units, err := s.store.ListUnits(true)
	if err != nil {
		return nil, err
	}

	today = truncateToDay(today)

	var statuses []UnitStatus
	for _, unit := range units {
		lastDaily, err := s.store.LastReportDate(unit.ID, string(checklist.Daily))
		if err != nil {
			return nil, err
		}
		lastMonthly, err := s.store.LastReportDate(unit.ID, string(checklist.Monthly))
		if err != nil {
			return nil, err
		}

		statuses = append(statuses, UnitStatus{
			Unit:        unit,
			LastDaily:   lastDaily,
			LastMonthly: lastMonthly,
			DailyDue:    lastDaily == nil || lastDaily.Before(today),
			MonthlyDue:  lastMonthly == nil || daysBetween(*lastMonthly, today) > monthlyWindowDays,
		})
	}
	return statuses, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b. Dates are compared
// in UTC day units so DST shifts cannot skew the window.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
