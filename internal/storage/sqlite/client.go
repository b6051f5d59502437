package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/pkg/logger"
)

// dateLayout is how date-only columns are stored. ISO dates compare
// correctly as text, which the range and ordering queries rely on.
const dateLayout = "2006-01-02"

type Client struct {
	db   *sql.DB
	path string
}

func NewClient(dbPath string) (*Client, error) {
	// Pragmas ride the DSN so every connection database/sql opens gets
	// them. A plain Exec would only reach the one pooled connection that
	// ran it, leaving foreign keys off on the others.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, path: dbPath}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Path returns the database file location, used by backup and restore.
func (c *Client) Path() string {
	return c.path
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		hashed_password TEXT NOT NULL,
		full_name TEXT DEFAULT '',
		role TEXT NOT NULL DEFAULT 'physicist',
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		last_login INTEGER
	);

	CREATE TABLE IF NOT EXISTS units (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		manufacturer TEXT DEFAULT '',
		model TEXT DEFAULT '',
		serial_number TEXT DEFAULT '',
		location TEXT DEFAULT '',
		install_date TEXT,
		photon_energies TEXT NOT NULL DEFAULT '[]',
		electron_energies TEXT NOT NULL DEFAULT '[]',
		fff_energies TEXT NOT NULL DEFAULT '[]',
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS qa_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		qa_type TEXT NOT NULL,
		unit_id INTEGER NOT NULL REFERENCES units(id),
		performer TEXT NOT NULL,
		witness TEXT DEFAULT '',
		comments TEXT DEFAULT '',
		signature TEXT DEFAULT '',
		created_at INTEGER NOT NULL,
		created_by INTEGER REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_reports_date ON qa_reports(date);
	CREATE INDEX IF NOT EXISTS idx_reports_unit_type ON qa_reports(unit_id, qa_type);

	CREATE TABLE IF NOT EXISTS qa_tests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id INTEGER NOT NULL REFERENCES qa_reports(id) ON DELETE CASCADE,
		test_id TEXT NOT NULL,
		status TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		measurement REAL,
		UNIQUE(report_id, test_id)
	);
	CREATE INDEX IF NOT EXISTS idx_tests_report ON qa_tests(report_id);

	CREATE TABLE IF NOT EXISTS output_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		unit_id INTEGER NOT NULL REFERENCES units(id),
		energy TEXT NOT NULL,
		reading REAL NOT NULL,
		reference REAL NOT NULL,
		deviation REAL NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readings_unit_energy ON output_readings(unit_id, energy, date);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		user TEXT DEFAULT '',
		action TEXT NOT NULL,
		details TEXT DEFAULT '',
		ip_address TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
