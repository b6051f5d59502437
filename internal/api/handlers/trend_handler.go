package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	authmw "github.com/linac-qa/backend/internal/middleware/auth"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/trend"
	"github.com/linac-qa/backend/pkg/logger"
)

type TrendHandler struct {
	trends *trend.Store
	hub    *Hub
}

func NewTrendHandler(trends *trend.Store, hub *Hub) *TrendHandler {
	return &TrendHandler{trends: trends, hub: hub}
}

// Reading is a pointer so a measured 0.0 still counts as present; a
// bare float64 with `required` would reject it as missing.
type recordReadingRequest struct {
	UnitID    int64    `json:"unit_id" validate:"required,gt=0"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Energy    string   `json:"energy" validate:"required,max=50"`
	Reading   *float64 `json:"reading" validate:"required"`
	Reference float64  `json:"reference"`
}

func (h *TrendHandler) RecordReading(c *fiber.Ctx) error {
	var req recordReadingRequest
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

	date, _ := time.Parse(dateLayout, req.Date)

	actor := authmw.CurrentUser(c)
	reading, err := h.trends.Record(c.Context(), req.UnitID, date, req.Energy, *req.Reading, req.Reference, actor.Username, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, trend.ErrInvalidReference):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Reference value must be non-zero",
			})
		case errors.Is(err, trend.ErrUnknownUnit):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown unit",
			})
		}
		logger.Error("Failed to record reading", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record reading",
		})
	}

	h.hub.Broadcast(Event{Type: "reading_recorded", Payload: fiber.Map{
		"unit_id":   reading.UnitID,
		"energy":    reading.Energy,
		"date":      reading.Date.Format(dateLayout),
		"deviation": reading.Deviation,
	}})

	return c.Status(fiber.StatusCreated).JSON(readingView(reading))
}

// GetTrend returns the reading series for a unit/energy over the last
// `days` days (default 90), oldest first.
func (h *TrendHandler) GetTrend(c *fiber.Ctx) error {
	unitID := int64(c.QueryInt("unit_id"))
	energy := c.Query("energy")
	if unitID <= 0 || energy == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unit_id and energy are required",
		})
	}

	days := c.QueryInt("days", 90)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}
	since := time.Now().AddDate(0, 0, -days)

	readings, err := h.trends.Trend(c.Context(), unitID, energy, since)
	if err != nil {
		logger.Error("Failed to load trend", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load trend",
		})
	}

	views := make([]fiber.Map, 0, len(readings))
	for i := range readings {
		views = append(views, readingView(&readings[i]))
	}
	return c.JSON(fiber.Map{
		"unit_id":  unitID,
		"energy":   energy,
		"since":    since.Format(dateLayout),
		"readings": views,
	})
}

func readingView(r *models.OutputReading) fiber.Map {
	return fiber.Map{
		"id":        r.ID,
		"date":      r.Date.Format(dateLayout),
		"unit_id":   r.UnitID,
		"energy":    r.Energy,
		"reading":   r.Reading,
		"reference": r.Reference,
		"deviation": r.Deviation,
	}
}
