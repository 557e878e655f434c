package textio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"markdown-repair/internal/logger"
	"markdown-repair/internal/types"
)

// BackupManager keeps timestamped copies of files before they are rewritten
// in place.
type BackupManager struct {
	backupDir string
	now       func() time.Time
}

// NewBackupManager creates a BackupManager. With an empty backupDir backups
// are written next to the original file.
func NewBackupManager(backupDir string) *BackupManager {
	return &BackupManager{backupDir: backupDir, now: time.Now}
}

// CreateBackup copies path to a new backup file and returns the backup path.
func (m *BackupManager) CreateBackup(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrFileNotFound, "file does not exist", path, err)
	}

	name := fmt.Sprintf("%s.backup_%s", filepath.Base(path), m.now().Format("20060102_150405.000"))
	backupPath := filepath.Join(filepath.Dir(path), name)
	if m.backupDir != "" {
		if err := os.MkdirAll(m.backupDir, 0755); err != nil {
			return "", types.NewAppError(types.ErrInternal, "failed to create backup directory", err)
		}
		backupPath = filepath.Join(m.backupDir, name)
	}

	if err := copyFile(path, backupPath); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to copy file", err)
	}
	logger.Debug("backup created", logger.String("path", path), logger.String("backupPath", backupPath))
	return backupPath, nil
}

// Restore copies backupPath over originalPath.
func (m *BackupManager) Restore(backupPath, originalPath string) error {
	if err := copyFile(backupPath, originalPath); err != nil {
		return types.NewAppErrorWithDetails(types.ErrInternal, "failed to restore backup", backupPath, err)
	}
	logger.Info("file restored from backup", logger.String("path", originalPath))
	return nil
}

// ListBackups returns the backups of path, newest first.
func (m *BackupManager) ListBackups(path string) ([]string, error) {
	dir := m.backupDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to read backup directory", err)
	}

	prefix := filepath.Base(path) + ".backup_"
	var backups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, e.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// WriteFile replaces path with text encoded as enc. The old content is backed
// up first and restored if the write fails.
func (m *BackupManager) WriteFile(path, text, enc string) (string, error) {
	data, err := Encode(text, enc)
	if err != nil {
		return "", err
	}
	backup, err := m.CreateBackup(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		if rerr := m.Restore(backup, path); rerr != nil {
			logger.Error("failed to restore after write error", rerr, logger.String("path", path))
		}
		return "", types.NewAppErrorWithDetails(types.ErrInternal, "failed to write file", path, err)
	}
	return backup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
