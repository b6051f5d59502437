package handlers

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/auth"
	"github.com/linac-qa/backend/internal/export"
	"github.com/linac-qa/backend/internal/metrics"
	authmw "github.com/linac-qa/backend/internal/middleware/auth"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/pkg/config"
	"github.com/linac-qa/backend/pkg/logger"
)

type AdminHandler struct {
	users    *auth.Service
	trail    *audit.Trail
	store    *sqlite.Client
	exporter *export.Exporter
	backup   config.BackupConfig
}

func NewAdminHandler(users *auth.Service, trail *audit.Trail, store *sqlite.Client, exporter *export.Exporter, backup config.BackupConfig) *AdminHandler {
	return &AdminHandler{
		users:    users,
		trail:    trail,
		store:    store,
		exporter: exporter,
		backup:   backup,
	}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	list, err := h.users.ListUsers()
	if err != nil {
		logger.Error("Failed to list users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}

	views := make([]fiber.Map, 0, len(list))
	for i := range list {
		views = append(views, userView(&list[i]))
	}
	return c.JSON(fiber.Map{"users": views})
}

type saveUserRequest struct {
	ID       int64  `json:"id"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"max=100"`
	Role     string `json:"role" validate:"required"`
	Active   *bool  `json:"active"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

func (h *AdminHandler) SaveUser(c *fiber.Ctx) error {
	var req saveUserRequest
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

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	actor := authmw.CurrentUser(c)
	user, err := h.users.SaveUser(auth.SaveUserInput{
		ID:       req.ID,
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		Active:   active,
		Password: req.Password,
	}, actor.Username, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnknownRole):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown role",
			})
		case errors.Is(err, auth.ErrDuplicateUser):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Username or email already in use",
			})
		case errors.Is(err, auth.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		logger.Error("Failed to save user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save user",
		})
	}

	status := fiber.StatusOK
	if req.ID == 0 {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(userView(user))
}

// AuditLog serves the most recent trail entries, newest first.
func (h *AdminHandler) AuditLog(c *fiber.Ctx) error {
	limit := c.QueryInt("limit")

	entries, err := h.trail.Recent(limit)
	if err != nil {
		logger.Error("Failed to load audit log", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load audit log",
		})
	}

	views := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		views = append(views, fiber.Map{
			"id":         e.ID,
			"timestamp":  e.Timestamp.UTC().Format(time.RFC3339),
			"user":       e.User,
			"action":     e.Action,
			"details":    e.Details,
			"ip_address": e.IPAddress,
		})
	}
	return c.JSON(fiber.Map{"entries": views})
}

func (h *AdminHandler) CreateBackup(c *fiber.Ctx) error {
	var req struct {
		Note string `json:"note" validate:"omitempty,max=50,alphanum"`
	}
	// Body is optional; an empty request makes an unannotated backup.
	_ = c.BodyParser(&req)
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Note must be short and alphanumeric",
		})
	}

	path, err := h.store.Backup(h.backup.Directory, req.Note)
	if err != nil {
		logger.Error("Backup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Backup failed",
		})
	}

	actor := authmw.CurrentUser(c)
	h.trail.Append(actor.Username, audit.ActionBackup, "Database backup created: "+filepath.Base(path), c.IP())
	metrics.BackupsCreated.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"filename": filepath.Base(path),
	})
}

func (h *AdminHandler) ListBackups(c *fiber.Ctx) error {
	backups, err := sqlite.ListBackups(h.backup.Directory)
	if err != nil {
		logger.Error("Failed to list backups", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list backups",
		})
	}
	return c.JSON(fiber.Map{"backups": backups})
}

// RestoreBackup swaps the live database for a named backup. The filename
// must refer to a file inside the backup directory.
func (h *AdminHandler) RestoreBackup(c *fiber.Ctx) error {
	var req struct {
		Filename string `json:"filename" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Filename is required",
		})
	}

	// Reject traversal: the resolved path must stay inside the backup dir.
	if filepath.Base(req.Filename) != req.Filename {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid backup filename",
		})
	}

	backupPath := filepath.Join(h.backup.Directory, req.Filename)
	if err := h.store.Restore(h.backup.Directory, backupPath); err != nil {
		logger.Error("Restore failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Restore failed",
		})
	}

	actor := authmw.CurrentUser(c)
	h.trail.Append(actor.Username, audit.ActionRestore, "Database restored from "+req.Filename, c.IP())

	return c.JSON(fiber.Map{"status": "restored"})
}

// Export serves the full-database JSON snapshot as a download.
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	data, err := h.exporter.JSON()
	if err != nil {
		logger.Error("Export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Export failed",
		})
	}

	actor := authmw.CurrentUser(c)
	h.trail.Append(actor.Username, audit.ActionExport, "Full data export downloaded", c.IP())

	filename := "linac_qa_export_" + time.Now().Format("2006-01-02") + ".json"
	c.Set("Content-Type", "application/json")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
