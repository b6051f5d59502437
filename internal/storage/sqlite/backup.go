package sqlite

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linac-qa/backend/pkg/logger"
)

type BackupInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	SizeMB   float64   `json:"size_mb"`
	Created  time.Time `json:"created"`
}

// Backup copies the database file into backupDir under a timestamped name.
// Returns the backup path.
func (c *Client) Backup(backupDir, note string) (string, error) {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := fmt.Sprintf("linac_qa_%s", time.Now().Format("2006-01-02_15-04-05"))
	if note != "" {
		name += "_" + note
	}
	name += ".db"

	backupPath := filepath.Join(backupDir, name)
	if err := copyFile(c.path, backupPath); err != nil {
		return "", fmt.Errorf("failed to copy database: %w", err)
	}

	logger.Info("Backup created", zap.String("path", backupPath))
	return backupPath, nil
}

// ListBackups returns backups newest first.
func ListBackups(backupDir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename: entry.Name(),
			Path:     filepath.Join(backupDir, entry.Name()),
			SizeMB:   float64(info.Size()) / (1024 * 1024),
			Created:  info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups, nil
}

// CleanupOldBackups removes backups older than keepDays but always keeps at
// least keepMinimum of the most recent ones.
func CleanupOldBackups(backupDir string, keepDays, keepMinimum int) error {
	backups, err := ListBackups(backupDir)
	if err != nil {
		return err
	}
	if len(backups) <= keepMinimum {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -keepDays)
	for _, b := range backups[keepMinimum:] {
		if b.Created.Before(cutoff) {
			if err := os.Remove(b.Path); err != nil {
				logger.Warn("Failed to remove old backup", zap.String("path", b.Path), zap.Error(err))
				continue
			}
			logger.Info("Removed old backup", zap.String("filename", b.Filename))
		}
	}
	return nil
}

// Restore replaces the database file with a backup. Administrative
// operation: callers must ensure no QA submissions are in flight. The
// current file is snapshotted first.
func (c *Client) Restore(backupDir, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}

	if _, err := c.Backup(backupDir, "pre_restore"); err != nil {
		return err
	}

	if err := copyFile(backupPath, c.path); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}

	logger.Info("Database restored", zap.String("from", backupPath))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
