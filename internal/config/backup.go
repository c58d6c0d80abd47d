package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MaxBackups bounds how many timestamped backups are kept per config.
	MaxBackups = 3

	// BackupSuffix marks a file as a config backup.
	BackupSuffix = ".bak"
)

// backupTimestamp is the layout embedded in backup filenames. It sorts
// lexically in chronological order.
const backupTimestamp = "20060102-150405"

// BackupUserConfig copies the user config to a timestamped sibling file
// and returns its path. When no user config exists there is nothing to
// back up and it returns ("", nil).
func BackupUserConfig() (string, error) {
	if !UserConfigExists() {
		return "", nil
	}

	configPath := GetUserConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backupPath := configPath + BackupSuffix + "." + time.Now().Format(backupTimestamp)
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// the backup itself succeeded; pruning old copies is best effort
	if err := pruneBackups(); err != nil {
		slog.Warn("failed to prune old config backups", slog.Any("error", err))
	}

	return backupPath, nil
}

// ListUserConfigBackups returns the backup files next to the user
// config, newest first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	dir := filepath.Dir(configPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	prefix := filepath.Base(configPath) + BackupSuffix + "."
	type backup struct {
		path    string
		modTime time.Time
	}
	var backups []backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{
			path:    filepath.Join(dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	paths := make([]string, len(backups))
	for i, b := range backups {
		paths[i] = b.path
	}
	return paths, nil
}

// pruneBackups removes everything past the MaxBackups newest copies.
func pruneBackups() error {
	backups, err := ListUserConfigBackups()
	if err != nil {
		return err
	}
	for _, old := range backups[min(MaxBackups, len(backups)):] {
		if err := os.Remove(old); err != nil {
			slog.Warn("failed to remove old config backup",
				slog.String("path", old), slog.Any("error", err))
		}
	}
	return nil
}

// RestoreUserConfig replaces the user config with the named backup. Any
// current config is backed up first so a restore is itself reversible.
func RestoreUserConfig(backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}

	if UserConfigExists() {
		if _, err := BackupUserConfig(); err != nil {
			return fmt.Errorf("failed to backup current config before restore: %w", err)
		}
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	if err := os.MkdirAll(GetUserConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write restored config: %w", err)
	}
	return nil
}
