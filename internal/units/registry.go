package units

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/pkg/logger"
)

var (
	ErrNotFound      = errors.New("unit not found")
	ErrDuplicateName = errors.New("unit name already in use")
)

// Registry manages linac unit configuration. Units are never hard-deleted;
// a decommissioned machine is deactivated so its QA history stays intact.
type Registry struct {
	store *sqlite.Client
	trail *audit.Trail
}

func NewRegistry(store *sqlite.Client, trail *audit.Trail) *Registry {
	return &Registry{store: store, trail: trail}
}

func (r *Registry) Create(unit *models.Unit, actingUser, ip string) error {
	taken, err := r.store.UnitNameExists(unit.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateName
	}

	if err := r.store.InsertUnit(unit); err != nil {
		return err
	}

	r.trail.Append(actingUser, audit.ActionSaveUnit,
		fmt.Sprintf("Unit configuration saved: %s (S/N: %s)", unit.Name, unit.SerialNumber), ip)
	logger.Info("Unit created", zap.Int64("unit_id", unit.ID), zap.String("name", unit.Name))
	return nil
}

// UpdateFields holds a partial unit update. Nil pointers leave the current
// value untouched.
type UpdateFields struct {
	Name             *string
	Manufacturer     *string
	Model            *string
	SerialNumber     *string
	Location         *string
	InstallDate      *time.Time
	PhotonEnergies   *[]string
	ElectronEnergies *[]string
	FFFEnergies      *[]string
	Active           *bool
}

func (r *Registry) Update(id int64, fields UpdateFields, actingUser, ip string) (*models.Unit, error) {
	unit, err := r.store.GetUnit(id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, ErrNotFound
	}

	if fields.Name != nil && *fields.Name != unit.Name {
		taken, err := r.store.UnitNameExists(*fields.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateName
		}
		unit.Name = *fields.Name
	}
	if fields.Manufacturer != nil {
		unit.Manufacturer = *fields.Manufacturer
	}
	if fields.Model != nil {
		unit.Model = *fields.Model
	}
	if fields.SerialNumber != nil {
		unit.SerialNumber = *fields.SerialNumber
	}
	if fields.Location != nil {
		unit.Location = *fields.Location
	}
	if fields.InstallDate != nil {
		unit.InstallDate = fields.InstallDate
	}
	if fields.PhotonEnergies != nil {
		unit.PhotonEnergies = *fields.PhotonEnergies
	}
	if fields.ElectronEnergies != nil {
		unit.ElectronEnergies = *fields.ElectronEnergies
	}
	if fields.FFFEnergies != nil {
		unit.FFFEnergies = *fields.FFFEnergies
	}
	if fields.Active != nil {
		unit.Active = *fields.Active
	}

	if err := r.store.UpdateUnit(unit); err != nil {
		return nil, err
	}

	r.trail.Append(actingUser, audit.ActionSaveUnit,
		fmt.Sprintf("Unit configuration saved: %s (S/N: %s)", unit.Name, unit.SerialNumber), ip)
	return unit, nil
}

func (r *Registry) Get(id int64) (*models.Unit, error) {
	unit, err := r.store.GetUnit(id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, ErrNotFound
	}
	return unit, nil
}

func (r *Registry) ListActive() ([]models.Unit, error) {
	return r.store.ListUnits(true)
}

func (r *Registry) ListAll() ([]models.Unit, error) {
	return r.store.ListUnits(false)
}

// AllPhotonEnergies returns the unit's photon energies followed by its FFF
// energies. Selection UIs and trend queries depend on this fixed order.
func (r *Registry) AllPhotonEnergies(id int64) ([]string, error) {
	unit, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return unit.AllPhotonEnergies(), nil
}

// Bootstrap seeds the default unit configuration when the table is empty.
func (r *Registry) Bootstrap() error {
	count, err := r.store.CountUnits()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Unit{
		{
			Name:             "Linac 1",
			Manufacturer:     "Varian",
			Model:            "Clinac",
			PhotonEnergies:   []string{"6MV", "15MV"},
			ElectronEnergies: []string{"6MeV", "9MeV", "12MeV", "15MeV"},
			FFFEnergies:      []string{},
			Active:           true,
		},
		{
			Name:             "TrueBeam",
			Manufacturer:     "Varian",
			Model:            "TrueBeam",
			PhotonEnergies:   []string{"6MV", "10MV", "15MV"},
			ElectronEnergies: []string{"6MeV", "9MeV", "12MeV", "15MeV", "18MeV"},
			FFFEnergies:      []string{"6MV FFF", "10MV FFF"},
			Active:           true,
		},
	}
	for i := range defaults {
		if err := r.store.InsertUnit(&defaults[i]); err != nil {
			return err
		}
	}

	logger.Info("Default units created")
	return nil
}
