package sqlite

import (
	"fmt"
	"time"

	"github.com/linac-qa/backend/internal/storage/models"
)

func (c *Client) InsertReading(r *models.OutputReading) error {
	r.CreatedAt = time.Now()

	res, err := c.db.Exec(
		`INSERT INTO output_readings (date, unit_id, energy, reading, reference, deviation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		formatDate(r.Date), r.UnitID, r.Energy, r.Reading, r.Reference, r.Deviation, r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	r.ID, _ = res.LastInsertId()
	return nil
}

// ListReadings returns readings for a unit and energy with date >= since,
// oldest first. Chronological order is what trend charts plot directly.
func (c *Client) ListReadings(unitID int64, energy string, since time.Time) ([]models.OutputReading, error) {
	rows, err := c.db.Query(
		`SELECT id, date, unit_id, energy, reading, reference, deviation, created_at
		 FROM output_readings
		 WHERE unit_id = ? AND energy = ? AND date >= ?
		 ORDER BY date ASC, id ASC`,
		unitID, energy, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// AllReadings returns every reading, used by the JSON export.
func (c *Client) AllReadings() ([]models.OutputReading, error) {
	rows, err := c.db.Query(
		`SELECT id, date, unit_id, energy, reading, reference, deviation, created_at
		 FROM output_readings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

func scanReadings(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]models.OutputReading, error) {
	var readings []models.OutputReading
	for rows.Next() {
		var r models.OutputReading
		var date string
		var createdAt int64
		if err := rows.Scan(&r.ID, &date, &r.UnitID, &r.Energy, &r.Reading, &r.Reference,
			&r.Deviation, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		d, err := parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("bad reading date %q: %w", date, err)
		}
		r.Date = d
		r.CreatedAt = time.Unix(createdAt, 0)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
