package sqlite

import (
	"fmt"
	"time"

	"github.com/linac-qa/backend/internal/storage/models"
)

// InsertAuditEntry appends to the audit trail. Entries are never updated or
// deleted by normal operation.
func (c *Client) InsertAuditEntry(e *models.AuditEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	res, err := c.db.Exec(
		`INSERT INTO audit_log (timestamp, user, action, details, ip_address) VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp.Unix(), e.User, e.Action, e.Details, e.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	e.ID, _ = res.LastInsertId()
	return nil
}

// ListAuditEntries returns the newest entries first.
func (c *Client) ListAuditEntries(limit int) ([]models.AuditEntry, error) {
	rows, err := c.db.Query(
		`SELECT id, timestamp, user, action, details, ip_address
		 FROM audit_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

// AllAuditEntries returns the whole trail in insertion order for export.
func (c *Client) AllAuditEntries() ([]models.AuditEntry, error) {
	rows, err := c.db.Query(
		`SELECT id, timestamp, user, action, details, ip_address FROM audit_log ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows)
}

func scanAuditEntries(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.User, &e.Action, &e.Details, &e.IPAddress); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
