package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/checklist"
	authmw "github.com/linac-qa/backend/internal/middleware/auth"
	"github.com/linac-qa/backend/internal/qa"
	"github.com/linac-qa/backend/internal/report"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/pkg/logger"
)

const dateLayout = "2006-01-02"

type QAHandler struct {
	sessions *qa.Store
	reports  *report.Generator
	hub      *Hub
}

func NewQAHandler(sessions *qa.Store, reports *report.Generator, hub *Hub) *QAHandler {
	return &QAHandler{sessions: sessions, reports: reports, hub: hub}
}

// ListChecklists returns every session type with its item definitions.
func (h *QAHandler) ListChecklists(c *fiber.Ctx) error {
	checklists := fiber.Map{}
	for _, t := range checklist.Types() {
		items, _ := checklist.ItemsFor(t)
		checklists[string(t)] = items
	}
	return c.JSON(fiber.Map{"checklists": checklists})
}

func (h *QAHandler) GetChecklist(c *fiber.Ctx) error {
	t := checklist.SessionType(c.Params("type"))
	items, err := checklist.ItemsFor(t)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown session type",
		})
	}
	return c.JSON(fiber.Map{"qa_type": t, "items": items})
}

type sessionResultRequest struct {
	Status      string   `json:"status" validate:"omitempty,oneof=pass fail na"`
	Notes       string   `json:"notes"`
	Measurement *float64 `json:"measurement"`
}

type createSessionRequest struct {
	UnitID    int64                           `json:"unit_id" validate:"required,gt=0"`
	QAType    string                          `json:"qa_type" validate:"required"`
	Date      string                          `json:"date" validate:"required,datetime=2006-01-02"`
	Performer string                          `json:"performer" validate:"max=100"`
	Witness   string                          `json:"witness" validate:"max=100"`
	Comments  string                          `json:"comments"`
	Signature string                          `json:"signature" validate:"max=200"`
	Results   map[string]sessionResultRequest `json:"results"`
}

func (h *QAHandler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
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

	results := make(map[string]qa.Result, len(req.Results))
	for id, r := range req.Results {
		results[id] = qa.Result{
			Status:      models.TestStatus(r.Status),
			Notes:       r.Notes,
			Measurement: r.Measurement,
		}
	}

	actor := authmw.CurrentUser(c)
	saved, err := h.sessions.CreateSession(qa.SessionInput{
		UnitID:     req.UnitID,
		QAType:     checklist.SessionType(req.QAType),
		Date:       date,
		Performer:  req.Performer,
		Witness:    req.Witness,
		Comments:   req.Comments,
		Signature:  req.Signature,
		Results:    results,
		ActorID:    actor.ID,
		ActingUser: actor.Username,
		SourceIP:   c.IP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, qa.ErrInvalidSessionType),
			errors.Is(err, qa.ErrUnknownChecklistItem),
			errors.Is(err, qa.ErrInvalidStatus):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, qa.ErrUnknownUnit):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown unit",
			})
		}
		logger.Error("Failed to save QA session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save QA session",
		})
	}

	h.hub.Broadcast(Event{Type: "qa_saved", Payload: fiber.Map{
		"report_id": saved.ID,
		"unit_id":   saved.UnitID,
		"qa_type":   saved.QAType,
		"date":      saved.Date.Format(dateLayout),
	}})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"report_id":   saved.ID,
		"pass_count":  saved.PassCount(),
		"fail_count":  saved.FailCount(),
		"total_tests": saved.TotalTests(),
	})
}

func (h *QAHandler) GetSession(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid report id",
		})
	}

	detail, err := h.sessions.GetReport(int64(id))
	if err != nil {
		if errors.Is(err, qa.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Report not found",
			})
		}
		logger.Error("Failed to load report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load report",
		})
	}

	return c.JSON(sessionDetailView(detail))
}

// QuerySessions filters reports by date range, type and unit. All filters
// are optional; dates are inclusive on both ends.
func (h *QAHandler) QuerySessions(c *fiber.Ctx) error {
	var filter qa.Filter

	if s := c.Query("start"); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid start date, expected YYYY-MM-DD",
			})
		}
		filter.Start = &d
	}
	if s := c.Query("end"); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid end date, expected YYYY-MM-DD",
			})
		}
		filter.End = &d
	}
	if t := c.Query("qa_type"); t != "" {
		if !checklist.Valid(checklist.SessionType(t)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown session type",
			})
		}
		filter.QAType = t
	}
	filter.UnitID = int64(c.QueryInt("unit_id"))

	reports, err := h.sessions.Query(filter)
	if err != nil {
		logger.Error("Failed to query reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to query reports",
		})
	}

	views := make([]fiber.Map, 0, len(reports))
	for i := range reports {
		views = append(views, sessionSummaryView(&reports[i]))
	}
	return c.JSON(fiber.Map{"reports": views})
}

// DownloadReport serves the rendered markdown document for one session.
func (h *QAHandler) DownloadReport(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid report id",
		})
	}

	detail, err := h.sessions.GetReport(int64(id))
	if err != nil {
		if errors.Is(err, qa.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Report not found",
			})
		}
		logger.Error("Failed to load report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load report",
		})
	}

	content, err := h.reports.Markdown(int64(id))
	if err != nil {
		logger.Error("Failed to render report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render report",
		})
	}

	c.Set("Content-Type", "text/markdown; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="`+h.reports.Filename(&detail.Report)+`"`)
	return c.SendString(content)
}

func sessionSummaryView(r *models.QAReport) fiber.Map {
	return fiber.Map{
		"id":          r.ID,
		"date":        r.Date.Format(dateLayout),
		"qa_type":     r.QAType,
		"unit_id":     r.UnitID,
		"performer":   r.Performer,
		"pass_count":  r.PassCount(),
		"fail_count":  r.FailCount(),
		"total_tests": r.TotalTests(),
	}
}

func sessionDetailView(d *qa.ReportDetail) fiber.Map {
	tests := make([]fiber.Map, 0, len(d.Tests))
	for _, t := range d.Tests {
		tests = append(tests, fiber.Map{
			"test_id":     t.TestID,
			"description": t.Description,
			"tolerance":   t.Tolerance,
			"action":      t.Action,
			"status":      string(t.Status),
			"notes":       t.Notes,
			"measurement": t.Measurement,
		})
	}

	view := fiber.Map{
		"id":          d.Report.ID,
		"date":        d.Report.Date.Format(dateLayout),
		"qa_type":     d.Report.QAType,
		"unit_id":     d.Report.UnitID,
		"performer":   d.Report.Performer,
		"witness":     d.Report.Witness,
		"comments":    d.Report.Comments,
		"signature":   d.Report.Signature,
		"pass_count":  d.PassCount,
		"fail_count":  d.FailCount,
		"total_tests": d.TotalTests,
		"tests":       tests,
	}
	if d.Unit != nil {
		view["unit"] = unitView(d.Unit)
	}
	return view
}
