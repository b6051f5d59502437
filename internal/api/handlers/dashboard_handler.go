package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/qa"
	"github.com/linac-qa/backend/internal/schedule"
	"github.com/linac-qa/backend/pkg/logger"
)

const recentReportLimit = 10

type DashboardHandler struct {
	scheduler *schedule.Scheduler
	sessions  *qa.Store
}

func NewDashboardHandler(scheduler *schedule.Scheduler, sessions *qa.Store) *DashboardHandler {
	return &DashboardHandler{scheduler: scheduler, sessions: sessions}
}

// Status serves the landing page payload: per-unit due states plus the
// most recent sessions.
func (h *DashboardHandler) Status(c *fiber.Ctx) error {
	statuses, err := h.scheduler.Status(time.Now())
	if err != nil {
		logger.Error("Failed to compute due status", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute due status",
		})
	}

	recent, err := h.sessions.Recent(recentReportLimit)
	if err != nil {
		logger.Error("Failed to load recent reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load recent reports",
		})
	}

	unitViews := make([]fiber.Map, 0, len(statuses))
	for i := range statuses {
		unitViews = append(unitViews, unitStatusView(&statuses[i]))
	}

	recentViews := make([]fiber.Map, 0, len(recent))
	for i := range recent {
		recentViews = append(recentViews, sessionSummaryView(&recent[i]))
	}

	return c.JSON(fiber.Map{
		"units":          unitViews,
		"recent_reports": recentViews,
	})
}

func unitStatusView(s *schedule.UnitStatus) fiber.Map {
	view := fiber.Map{
		"unit":        unitView(&s.Unit),
		"daily_due":   s.DailyDue,
		"monthly_due": s.MonthlyDue,
	}
	if s.LastDaily != nil {
		view["last_daily"] = s.LastDaily.Format(dateLayout)
	}
	if s.LastMonthly != nil {
		view["last_monthly"] = s.LastMonthly.Format(dateLayout)
	}
	return view
}
