package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/linac-qa/backend/internal/metrics"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
)

const dateLayout = "2006-01-02"

// Snapshot is the full-database export document. Every record in the
// system appears here; it doubles as an off-site archival format.
type Snapshot struct {
	ExportedAt     string          `json:"exported_at"`
	Units          []UnitRecord    `json:"units"`
	Reports        []ReportRecord  `json:"reports"`
	OutputReadings []ReadingRecord `json:"output_readings"`
	AuditLog       []AuditRecord   `json:"audit_log"`
}

type UnitRecord struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Manufacturer     string   `json:"manufacturer,omitempty"`
	Model            string   `json:"model,omitempty"`
	SerialNumber     string   `json:"serial_number,omitempty"`
	Location         string   `json:"location,omitempty"`
	InstallDate      *string  `json:"install_date"`
	PhotonEnergies   []string `json:"photon_energies"`
	ElectronEnergies []string `json:"electron_energies"`
	FFFEnergies      []string `json:"fff_energies"`
	Active           bool     `json:"active"`
}

type ReportRecord struct {
	ID        int64        `json:"id"`
	Date      string       `json:"date"`
	QAType    string       `json:"qa_type"`
	UnitID    int64        `json:"unit_id"`
	Performer string       `json:"performer,omitempty"`
	Witness   string       `json:"witness,omitempty"`
	Comments  string       `json:"comments,omitempty"`
	Signature string       `json:"signature,omitempty"`
	CreatedAt string       `json:"created_at"`
	Tests     []TestRecord `json:"tests"`
}

type TestRecord struct {
	TestID      string   `json:"test_id"`
	Status      string   `json:"status"`
	Notes       string   `json:"notes,omitempty"`
	Measurement *float64 `json:"measurement"`
}

type ReadingRecord struct {
	ID        int64   `json:"id"`
	Date      string  `json:"date"`
	UnitID    int64   `json:"unit_id"`
	Energy    string  `json:"energy"`
	Reading   float64 `json:"reading"`
	Reference float64 `json:"reference"`
	Deviation float64 `json:"deviation"`
}

type AuditRecord struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// Exporter assembles full-database JSON snapshots.
type Exporter struct {
	store *sqlite.Client
}

func NewExporter(store *sqlite.Client) *Exporter {
	return &Exporter{store: store}
}

// Snapshot gathers every table into one document. Reports carry their
// test rows inline so the export is self-contained.
func (e *Exporter) Snapshot() (*Snapshot, error) {
	units, err := e.store.ListUnits(false)
	if err != nil {
		return nil, fmt.Errorf("failed to export units: %w", err)
	}
	reports, err := e.store.QueryReports(sqlite.ReportFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export reports: %w", err)
	}
	readings, err := e.store.AllReadings()
	if err != nil {
		return nil, fmt.Errorf("failed to export readings: %w", err)
	}
	entries, err := e.store.AllAuditEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to export audit log: %w", err)
	}

	snap := &Snapshot{
		ExportedAt:     time.Now().UTC().Format(time.RFC3339),
		Units:          make([]UnitRecord, 0, len(units)),
		Reports:        make([]ReportRecord, 0, len(reports)),
		OutputReadings: make([]ReadingRecord, 0, len(readings)),
		AuditLog:       make([]AuditRecord, 0, len(entries)),
	}

	for i := range units {
		snap.Units = append(snap.Units, unitRecord(&units[i]))
	}
	for i := range reports {
		snap.Reports = append(snap.Reports, reportRecord(&reports[i]))
	}
	for _, r := range readings {
		snap.OutputReadings = append(snap.OutputReadings, ReadingRecord{
			ID:        r.ID,
			Date:      r.Date.Format(dateLayout),
			UnitID:    r.UnitID,
			Energy:    r.Energy,
			Reading:   r.Reading,
			Reference: r.Reference,
			Deviation: r.Deviation,
		})
	}
	for _, a := range entries {
		snap.AuditLog = append(snap.AuditLog, AuditRecord{
			ID:        a.ID,
			Timestamp: a.Timestamp.UTC().Format(time.RFC3339),
			User:      a.User,
			Action:    a.Action,
			Details:   a.Details,
			IPAddress: a.IPAddress,
		})
	}

	metrics.ExportsServed.Inc()
	return snap, nil
}

// JSON renders a snapshot as indented JSON, ready to serve as a download.
func (e *Exporter) JSON() ([]byte, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

func unitRecord(u *models.Unit) UnitRecord {
	rec := UnitRecord{
		ID:               u.ID,
		Name:             u.Name,
		Manufacturer:     u.Manufacturer,
		Model:            u.Model,
		SerialNumber:     u.SerialNumber,
		Location:         u.Location,
		PhotonEnergies:   u.PhotonEnergies,
		ElectronEnergies: u.ElectronEnergies,
		FFFEnergies:      u.FFFEnergies,
		Active:           u.Active,
	}
	if u.InstallDate != nil {
		d := u.InstallDate.Format(dateLayout)
		rec.InstallDate = &d
	}
	return rec
}

func reportRecord(r *models.QAReport) ReportRecord {
	rec := ReportRecord{
		ID:        r.ID,
		Date:      r.Date.Format(dateLayout),
		QAType:    r.QAType,
		UnitID:    r.UnitID,
		Performer: r.Performer,
		Witness:   r.Witness,
		Comments:  r.Comments,
		Signature: r.Signature,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		Tests:     make([]TestRecord, 0, len(r.Tests)),
	}
	for _, t := range r.Tests {
		rec.Tests = append(rec.Tests, TestRecord{
			TestID:      t.TestID,
			Status:      string(t.Status),
			Notes:       t.Notes,
			Measurement: t.Measurement,
		})
	}
	return rec
}
