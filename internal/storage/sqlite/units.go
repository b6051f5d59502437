package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linac-qa/backend/internal/storage/models"
)

func (c *Client) InsertUnit(u *models.Unit) error {
	photon, _ := json.Marshal(u.PhotonEnergies)
	electron, _ := json.Marshal(u.ElectronEnergies)
	fff, _ := json.Marshal(u.FFFEnergies)

	var installDate interface{}
	if u.InstallDate != nil {
		installDate = formatDate(*u.InstallDate)
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := c.db.Exec(
		`INSERT INTO units (name, manufacturer, model, serial_number, location, install_date,
			photon_energies, electron_energies, fff_energies, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Manufacturer, u.Model, u.SerialNumber, u.Location, installDate,
		string(photon), string(electron), string(fff), boolToInt(u.Active),
		now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}

	u.ID, _ = res.LastInsertId()
	return nil
}

func (c *Client) UpdateUnit(u *models.Unit) error {
	photon, _ := json.Marshal(u.PhotonEnergies)
	electron, _ := json.Marshal(u.ElectronEnergies)
	fff, _ := json.Marshal(u.FFFEnergies)

	var installDate interface{}
	if u.InstallDate != nil {
		installDate = formatDate(*u.InstallDate)
	}

	_, err := c.db.Exec(
		`UPDATE units SET name = ?, manufacturer = ?, model = ?, serial_number = ?, location = ?,
			install_date = ?, photon_energies = ?, electron_energies = ?, fff_energies = ?,
			active = ?, updated_at = ?
		 WHERE id = ?`,
		u.Name, u.Manufacturer, u.Model, u.SerialNumber, u.Location, installDate,
		string(photon), string(electron), string(fff), boolToInt(u.Active),
		time.Now().Unix(), u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	return nil
}

func (c *Client) GetUnit(id int64) (*models.Unit, error) {
	row := c.db.QueryRow(
		`SELECT id, name, manufacturer, model, serial_number, location, install_date,
			photon_energies, electron_energies, fff_energies, active, created_at, updated_at
		 FROM units WHERE id = ?`, id)

	u, err := scanUnit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return u, nil
}

// ListUnits returns units in insertion order. With activeOnly set,
// deactivated units are filtered out.
func (c *Client) ListUnits(activeOnly bool) ([]models.Unit, error) {
	query := `SELECT id, name, manufacturer, model, serial_number, location, install_date,
		photon_energies, electron_energies, fff_energies, active, created_at, updated_at
		FROM units`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

// UnitNameExists reports whether any unit other than excludeID carries the
// name, active or not.
func (c *Client) UnitNameExists(name string, excludeID int64) (bool, error) {
	var count int
	err := c.db.QueryRow(
		`SELECT COUNT(*) FROM units WHERE name = ? AND id != ?`, name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check unit name: %w", err)
	}
	return count > 0, nil
}

func (c *Client) CountUnits() (int, error) {
	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM units`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUnit(row rowScanner) (*models.Unit, error) {
	var u models.Unit
	var installDate sql.NullString
	var photon, electron, fff string
	var active int
	var createdAt, updatedAt int64

	err := row.Scan(&u.ID, &u.Name, &u.Manufacturer, &u.Model, &u.SerialNumber, &u.Location,
		&installDate, &photon, &electron, &fff, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if installDate.Valid {
		d, err := parseDate(installDate.String)
		if err != nil {
			return nil, fmt.Errorf("bad install_date %q: %w", installDate.String, err)
		}
		u.InstallDate = &d
	}

	if err := json.Unmarshal([]byte(photon), &u.PhotonEnergies); err != nil {
		return nil, fmt.Errorf("bad photon_energies %q: %w", photon, err)
	}
	if err := json.Unmarshal([]byte(electron), &u.ElectronEnergies); err != nil {
		return nil, fmt.Errorf("bad electron_energies %q: %w", electron, err)
	}
	if err := json.Unmarshal([]byte(fff), &u.FFFEnergies); err != nil {
		return nil, fmt.Errorf("bad fff_energies %q: %w", fff, err)
	}

	u.Active = active != 0
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
