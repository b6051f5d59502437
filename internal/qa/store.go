package qa

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/checklist"
	"github.com/linac-qa/backend/internal/metrics"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/pkg/logger"
)

var (
	ErrInvalidSessionType   = errors.New("invalid session type")
	ErrUnknownUnit          = errors.New("unknown unit")
	ErrUnknownChecklistItem = errors.New("unknown checklist item")
	ErrInvalidStatus        = errors.New("invalid test status")
	ErrNotFound             = errors.New("report not found")
)

// Store records and retrieves QA sessions.
type Store struct {
	store *sqlite.Client
	trail *audit.Trail
}

func NewStore(store *sqlite.Client, trail *audit.Trail) *Store {
	return &Store{store: store, trail: trail}
}

// Result is one operator-entered checklist outcome.
type Result struct {
	Status      models.TestStatus
	Notes       string
	Measurement *float64
}

// SessionInput is everything needed to save one QA session. Results is
// keyed by checklist item ID; items missing from the map are persisted
// with an unset status.
type SessionInput struct {
	UnitID     int64
	QAType     checklist.SessionType
	Date       time.Time
	Performer  string
	Witness    string
	Comments   string
	Signature  string
	Results    map[string]Result
	ActorID    int64
	ActingUser string
	SourceIP   string
}

// CreateSession validates and persists a QA session atomically. Validation
// runs entirely before the first write: an unknown session type, unit, or
// checklist item rejects the whole session and persists nothing.
func (s *Store) CreateSession(input SessionInput) (*models.QAReport, error) {
	items, err := checklist.ItemsFor(input.QAType)
	if err != nil {
		return nil, ErrInvalidSessionType
	}

	unit, err := s.store.GetUnit(input.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, ErrUnknownUnit
	}

	valid := make(map[string]bool, len(items))
	for _, item := range items {
		valid[item.ID] = true
	}
	for id, result := range input.Results {
		if !valid[id] {
			return nil, fmt.Errorf("%w: %s not in %s checklist", ErrUnknownChecklistItem, id, input.QAType)
		}
		if !models.KnownStatus(result.Status) {
			return nil, fmt.Errorf("%w: %q for item %s", ErrInvalidStatus, result.Status, id)
		}
	}

	report := &models.QAReport{
		Date:      input.Date,
		QAType:    string(input.QAType),
		UnitID:    input.UnitID,
		Performer: input.Performer,
		Witness:   input.Witness,
		Comments:  input.Comments,
		Signature: input.Signature,
		CreatedBy: input.ActorID,
	}

	// One row per checklist item, in canonical checklist order. Items the
	// operator skipped are stored with an unset status.
	for _, item := range items {
		test := models.QATest{TestID: item.ID, Status: models.StatusUnset}
		if result, ok := input.Results[item.ID]; ok {
			test.Status = result.Status
			test.Notes = result.Notes
			test.Measurement = result.Measurement
		}
		report.Tests = append(report.Tests, test)
	}

	if err := s.store.InsertReportWithTests(report); err != nil {
		return nil, err
	}

	s.trail.Append(input.ActingUser, audit.ActionSaveQA,
		fmt.Sprintf("%s QA saved for %s on %s", input.QAType, unit.Name, input.Date.Format("2006-01-02")),
		input.SourceIP)
	metrics.SessionsSaved.WithLabelValues(string(input.QAType)).Inc()
	logger.Info("QA session saved",
		zap.Int64("report_id", report.ID),
		zap.String("qa_type", string(input.QAType)),
		zap.String("unit", unit.Name),
	)
	return report, nil
}

// TestDetail joins a stored test result with its checklist definition for
// display. The definition is looked up at read time, never persisted.
type TestDetail struct {
	models.QATest
	Description string
	Tolerance   string
	Action      string
}

// ReportDetail is a full report view: header, unit, joined test rows and
// the computed score counts.
type ReportDetail struct {
	Report     models.QAReport
	Unit       *models.Unit
	Tests      []TestDetail
	PassCount  int
	FailCount  int
	TotalTests int
}

func (s *Store) GetReport(id int64) (*ReportDetail, error) {
	report, err := s.store.GetReport(id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrNotFound
	}

	unit, err := s.store.GetUnit(report.UnitID)
	if err != nil {
		return nil, err
	}

	detail := &ReportDetail{
		Report:     *report,
		Unit:       unit,
		PassCount:  report.PassCount(),
		FailCount:  report.FailCount(),
		TotalTests: report.TotalTests(),
	}
	for _, test := range report.Tests {
		td := TestDetail{QATest: test}
		if item, ok := checklist.Lookup(checklist.SessionType(report.QAType), test.TestID); ok {
			td.Description = item.Description
			td.Tolerance = item.Tolerance
			td.Action = item.Action
		}
		detail.Tests = append(detail.Tests, td)
	}
	return detail, nil
}

// Filter narrows Query. All constraints are optional and conjunctive.
type Filter struct {
	Start  *time.Time
	End    *time.Time
	QAType string
	UnitID int64
}

// Query returns report headers with their tests, most recent QA date first.
func (s *Store) Query(filter Filter) ([]models.QAReport, error) {
	return s.store.QueryReports(sqlite.ReportFilter{
		Start:  filter.Start,
		End:    filter.End,
		QAType: filter.QAType,
		UnitID: filter.UnitID,
	})
}

// Recent returns the most recently created report headers for the dashboard.
func (s *Store) Recent(limit int) ([]models.QAReport, error) {
	return s.store.RecentReports(limit)
}
