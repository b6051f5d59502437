package audit

import (
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/pkg/logger"
)

// Action tags recorded in the trail.
const (
	ActionLogin       = "LOGIN"
	ActionLogout      = "LOGOUT"
	ActionSaveQA      = "SAVE_QA"
	ActionSaveReading = "SAVE_READING"
	ActionSaveUnit    = "SAVE_UNIT"
	ActionSaveUser    = "SAVE_USER"
	ActionBackup      = "BACKUP"
	ActionRestore     = "RESTORE"
	ActionExport      = "EXPORT"
)

type Trail struct {
	store *sqlite.Client
}

func NewTrail(store *sqlite.Client) *Trail {
	return &Trail{store: store}
}

// Append records an action. Best effort: a failed append is logged and
// swallowed so it never rolls back the mutation it describes.
func (t *Trail) Append(user, action, details, ipAddress string) {
	entry := &models.AuditEntry{
		User:      user,
		Action:    action,
		Details:   details,
		IPAddress: ipAddress,
	}
	if err := t.store.InsertAuditEntry(entry); err != nil {
		logger.Error("Failed to append audit entry",
			zap.String("action", action),
			zap.String("user", user),
			zap.Error(err),
		)
	}
}

// Recent returns the newest entries for the admin audit view.
func (t *Trail) Recent(limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	return t.store.ListAuditEntries(limit)
}
