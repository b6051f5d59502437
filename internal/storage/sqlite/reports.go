package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/linac-qa/backend/internal/storage/models"
)

// InsertReportWithTests writes the report header and every test row in one
// transaction. Either the whole session lands or none of it does.
func (c *Client) InsertReportWithTests(report *models.QAReport) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	report.CreatedAt = time.Now()

	// created_by references users(id); an absent actor must land as NULL,
	// never 0, or the foreign key rejects the row.
	var createdBy sql.NullInt64
	if report.CreatedBy != 0 {
		createdBy = sql.NullInt64{Int64: report.CreatedBy, Valid: true}
	}

	res, err := tx.Exec(
		`INSERT INTO qa_reports (date, qa_type, unit_id, performer, witness, comments, signature, created_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatDate(report.Date), report.QAType, report.UnitID, report.Performer,
		report.Witness, report.Comments, report.Signature, report.CreatedAt.Unix(), createdBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	report.ID, _ = res.LastInsertId()

	stmt, err := tx.Prepare(
		`INSERT INTO qa_tests (report_id, test_id, status, notes, measurement) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare test insert: %w", err)
	}
	defer stmt.Close()

	for i := range report.Tests {
		t := &report.Tests[i]
		t.ReportID = report.ID
		res, err := stmt.Exec(t.ReportID, t.TestID, string(t.Status), t.Notes, t.Measurement)
		if err != nil {
			return fmt.Errorf("failed to insert test %s: %w", t.TestID, err)
		}
		t.ID, _ = res.LastInsertId()
	}

	return tx.Commit()
}

func (c *Client) GetReport(id int64) (*models.QAReport, error) {
	var r models.QAReport
	var date string
	var createdAt int64
	var createdBy sql.NullInt64

	err := c.db.QueryRow(
		`SELECT id, date, qa_type, unit_id, performer, witness, comments, signature, created_at, created_by
		 FROM qa_reports WHERE id = ?`, id,
	).Scan(&r.ID, &date, &r.QAType, &r.UnitID, &r.Performer, &r.Witness, &r.Comments,
		&r.Signature, &createdAt, &createdBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	r.Date, err = parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("bad report date %q: %w", date, err)
	}
	r.CreatedAt = time.Unix(createdAt, 0)
	r.CreatedBy = createdBy.Int64

	r.Tests, err = c.getReportTests(id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) getReportTests(reportID int64) ([]models.QATest, error) {
	rows, err := c.db.Query(
		`SELECT id, report_id, test_id, status, notes, measurement
		 FROM qa_tests WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report tests: %w", err)
	}
	defer rows.Close()

	var tests []models.QATest
	for rows.Next() {
		var t models.QATest
		var status string
		if err := rows.Scan(&t.ID, &t.ReportID, &t.TestID, &status, &t.Notes, &t.Measurement); err != nil {
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		t.Status = models.TestStatus(status)
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// ReportFilter narrows QueryReports. Zero values mean "no constraint";
// all present filters apply together.
type ReportFilter struct {
	Start  *time.Time
	End    *time.Time
	QAType string
	UnitID int64
}

// QueryReports returns report headers newest-first by QA date, ties broken
// by insertion order. Test rows are loaded per report; checklist sizes are
// small so the extra queries stay cheap.
func (c *Client) QueryReports(filter ReportFilter) ([]models.QAReport, error) {
	query := `SELECT id, date, qa_type, unit_id, performer, witness, comments, signature, created_at, created_by
		FROM qa_reports WHERE 1=1`
	var args []interface{}

	if filter.Start != nil {
		query += ` AND date >= ?`
		args = append(args, formatDate(*filter.Start))
	}
	if filter.End != nil {
		query += ` AND date <= ?`
		args = append(args, formatDate(*filter.End))
	}
	if filter.QAType != "" {
		query += ` AND qa_type = ?`
		args = append(args, filter.QAType)
	}
	if filter.UnitID != 0 {
		query += ` AND unit_id = ?`
		args = append(args, filter.UnitID)
	}
	query += ` ORDER BY date DESC, id ASC`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.QAReport
	for rows.Next() {
		var r models.QAReport
		var date string
		var createdAt int64
		var createdBy sql.NullInt64
		if err := rows.Scan(&r.ID, &date, &r.QAType, &r.UnitID, &r.Performer, &r.Witness,
			&r.Comments, &r.Signature, &createdAt, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Date, err = parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("bad report date %q: %w", date, err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		r.CreatedBy = createdBy.Int64
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reports {
		reports[i].Tests, err = c.getReportTests(reports[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return reports, nil
}

// LastReportDate returns the QA date of the most recent report of the given
// type for a unit, or nil when none exists.
func (c *Client) LastReportDate(unitID int64, qaType string) (*time.Time, error) {
	var date string
	err := c.db.QueryRow(
		`SELECT date FROM qa_reports WHERE unit_id = ? AND qa_type = ? ORDER BY date DESC LIMIT 1`,
		unitID, qaType,
	).Scan(&date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last report date: %w", err)
	}

	d, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("bad report date %q: %w", date, err)
	}
	return &d, nil
}

// RecentReports returns the most recently created report headers.
func (c *Client) RecentReports(limit int) ([]models.QAReport, error) {
	rows, err := c.db.Query(
		`SELECT id, date, qa_type, unit_id, performer, witness, comments, signature, created_at, created_by
		 FROM qa_reports ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reports: %w", err)
	}
	defer rows.Close()

	var reports []models.QAReport
	for rows.Next() {
		var r models.QAReport
		var date string
		var createdAt int64
		var createdBy sql.NullInt64
		if err := rows.Scan(&r.ID, &date, &r.QAType, &r.UnitID, &r.Performer, &r.Witness,
			&r.Comments, &r.Signature, &createdAt, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		var perr error
		r.Date, perr = parseDate(date)
		if perr != nil {
			return nil, fmt.Errorf("bad report date %q: %w", date, perr)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		r.CreatedBy = createdBy.Int64
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (c *Client) CountReports() (int, error) {
	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM qa_reports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}
