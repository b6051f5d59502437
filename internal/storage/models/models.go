package models

import "time"

// TestStatus is the recorded outcome of a single checklist item.
type TestStatus string

const (
	StatusPass  TestStatus = "pass"
	StatusFail  TestStatus = "fail"
	StatusNA    TestStatus = "na"
	StatusUnset TestStatus = ""
)

// KnownStatus reports whether s is a value the store accepts.
func KnownStatus(s TestStatus) bool {
	switch s {
	case StatusPass, StatusFail, StatusNA, StatusUnset:
		return true
	}
	return false
}

type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	Active         bool
	CreatedAt      time.Time
	LastLogin      *time.Time
}

type Unit struct {
	ID               int64
	Name             string
	Manufacturer     string
	Model            string
	SerialNumber     string
	Location         string
	InstallDate      *time.Time
	PhotonEnergies   []string
	ElectronEnergies []string
	FFFEnergies      []string
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AllPhotonEnergies returns conventional photon energies followed by FFF
// energies, in that fixed order. FFF options are always listed after the
// flattened beams, never interleaved.
func (u *Unit) AllPhotonEnergies() []string {
	all := make([]string, 0, len(u.PhotonEnergies)+len(u.FFFEnergies))
	all = append(all, u.PhotonEnergies...)
	all = append(all, u.FFFEnergies...)
	return all
}

// QAReport is one QA session header. Its QATest rows are owned exclusively:
// deleting a report cascades to its tests.
type QAReport struct {
	ID        int64
	Date      time.Time
	QAType    string
	UnitID    int64
	Performer string
	Witness   string
	Comments  string
	Signature string
	CreatedAt time.Time
	CreatedBy int64
	Tests     []QATest
}

// PassCount counts tests recorded as pass.
func (r *QAReport) PassCount() int {
	n := 0
	for _, t := range r.Tests {
		if t.Status == StatusPass {
			n++
		}
	}
	return n
}

// FailCount counts tests recorded as fail.
func (r *QAReport) FailCount() int {
	n := 0
	for _, t := range r.Tests {
		if t.Status == StatusFail {
			n++
		}
	}
	return n
}

// TotalTests counts scored tests, i.e. pass or fail. Not-applicable and
// unset rows are excluded.
func (r *QAReport) TotalTests() int {
	n := 0
	for _, t := range r.Tests {
		if t.Status == StatusPass || t.Status == StatusFail {
			n++
		}
	}
	return n
}

type QATest struct {
	ID          int64
	ReportID    int64
	TestID      string
	Status      TestStatus
	Notes       string
	Measurement *float64
}

// OutputReading is an output constancy measurement. Deviation is computed
// once when the reading is recorded and stored as a historical snapshot.
type OutputReading struct {
	ID        int64
	Date      time.Time
	UnitID    int64
	Energy    string
	Reading   float64
	Reference float64
	Deviation float64
	CreatedAt time.Time
}

// AuditEntry records one action for the compliance trail. User is kept as
// plain text so history survives account deletion.
type AuditEntry struct {
	ID        int64
	Timestamp time.Time
	User      string
	Action    string
	Details   string
	IPAddress string
}
