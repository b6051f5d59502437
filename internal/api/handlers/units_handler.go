package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	authmw "github.com/linac-qa/backend/internal/middleware/auth"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/units"
	"github.com/linac-qa/backend/pkg/logger"
)

type UnitsHandler struct {
	registry *units.Registry
}

func NewUnitsHandler(registry *units.Registry) *UnitsHandler {
	return &UnitsHandler{registry: registry}
}

type createUnitRequest struct {
	Name             string   `json:"name" validate:"required,max=100"`
	Manufacturer     string   `json:"manufacturer" validate:"max=100"`
	Model            string   `json:"model" validate:"max=100"`
	SerialNumber     string   `json:"serial_number" validate:"max=100"`
	Location         string   `json:"location" validate:"max=200"`
	InstallDate      string   `json:"install_date" validate:"omitempty,datetime=2006-01-02"`
	PhotonEnergies   []string `json:"photon_energies"`
	ElectronEnergies []string `json:"electron_energies"`
	FFFEnergies      []string `json:"fff_energies"`
	Active           *bool    `json:"active"`
}

func (h *UnitsHandler) Create(c *fiber.Ctx) error {
	var req createUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	unit := &models.Unit{
		Name:             req.Name,
		Manufacturer:     req.Manufacturer,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		Location:         req.Location,
		PhotonEnergies:   req.PhotonEnergies,
		ElectronEnergies: req.ElectronEnergies,
		FFFEnergies:      req.FFFEnergies,
		Active:           true,
	}
	if req.Active != nil {
		unit.Active = *req.Active
	}
	if req.InstallDate != "" {
		d, _ := time.Parse("2006-01-02", req.InstallDate)
		unit.InstallDate = &d
	}

	actor := authmw.CurrentUser(c)
	if err := h.registry.Create(unit, actor.Username, c.IP()); err != nil {
		if errors.Is(err, units.ErrDuplicateName) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A unit with that name already exists",
			})
		}
		logger.Error("Failed to create unit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create unit",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(unitView(unit))
}

type updateUnitRequest struct {
	Name             *string   `json:"name" validate:"omitempty,max=100"`
	Manufacturer     *string   `json:"manufacturer" validate:"omitempty,max=100"`
	Model            *string   `json:"model" validate:"omitempty,max=100"`
	SerialNumber     *string   `json:"serial_number" validate:"omitempty,max=100"`
	Location         *string   `json:"location" validate:"omitempty,max=200"`
	InstallDate      *string   `json:"install_date" validate:"omitempty,datetime=2006-01-02"`
	PhotonEnergies   *[]string `json:"photon_energies"`
	ElectronEnergies *[]string `json:"electron_energies"`
	FFFEnergies      *[]string `json:"fff_energies"`
	Active           *bool     `json:"active"`
}

func (h *UnitsHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid unit id",
		})
	}

	var req updateUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	fields := units.UpdateFields{
		Name:             req.Name,
		Manufacturer:     req.Manufacturer,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		Location:         req.Location,
		PhotonEnergies:   req.PhotonEnergies,
		ElectronEnergies: req.ElectronEnergies,
		FFFEnergies:      req.FFFEnergies,
		Active:           req.Active,
	}
	if req.InstallDate != nil {
		d, _ := time.Parse("2006-01-02", *req.InstallDate)
		fields.InstallDate = &d
	}

	actor := authmw.CurrentUser(c)
	unit, err := h.registry.Update(int64(id), fields, actor.Username, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, units.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unit not found",
			})
		case errors.Is(err, units.ErrDuplicateName):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A unit with that name already exists",
			})
		}
		logger.Error("Failed to update unit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update unit",
		})
	}

	return c.JSON(unitView(unit))
}

func (h *UnitsHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid unit id",
		})
	}

	unit, err := h.registry.Get(int64(id))
	if err != nil {
		if errors.Is(err, units.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unit not found",
			})
		}
		logger.Error("Failed to load unit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load unit",
		})
	}

	return c.JSON(unitView(unit))
}

// List returns active units by default; ?all=true includes deactivated
// machines for the admin screen.
func (h *UnitsHandler) List(c *fiber.Ctx) error {
	var (
		list []models.Unit
		err  error
	)
	if c.QueryBool("all") {
		list, err = h.registry.ListAll()
	} else {
		list, err = h.registry.ListActive()
	}
	if err != nil {
		logger.Error("Failed to list units", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list units",
		})
	}

	views := make([]fiber.Map, 0, len(list))
	for i := range list {
		views = append(views, unitView(&list[i]))
	}
	return c.JSON(fiber.Map{"units": views})
}

// Energies returns the energy labels a trend chart can select for the
// unit, photon beams first and FFF options after.
func (h *UnitsHandler) Energies(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid unit id",
		})
	}

	unit, err := h.registry.Get(int64(id))
	if err != nil {
		if errors.Is(err, units.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unit not found",
			})
		}
		logger.Error("Failed to load unit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load unit",
		})
	}

	return c.JSON(fiber.Map{
		"unit_id":           unit.ID,
		"photon_energies":   unit.AllPhotonEnergies(),
		"electron_energies": unit.ElectronEnergies,
	})
}

func unitView(u *models.Unit) fiber.Map {
	view := fiber.Map{
		"id":                  u.ID,
		"name":                u.Name,
		"manufacturer":        u.Manufacturer,
		"model":               u.Model,
		"serial_number":       u.SerialNumber,
		"location":            u.Location,
		"photon_energies":     u.PhotonEnergies,
		"electron_energies":   u.ElectronEnergies,
		"fff_energies":        u.FFFEnergies,
		"all_photon_energies": u.AllPhotonEnergies(),
		"active":              u.Active,
	}
	if u.InstallDate != nil {
		view["install_date"] = u.InstallDate.Format("2006-01-02")
	}
	return view
}
