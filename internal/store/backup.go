package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const backupKeep = 7

// StartBackups copies the database file into dir once a day, pruning old
// copies. No-op for in-memory stores. Blocks until ctx is cancelled.
func (s *Store) StartBackups(ctx context.Context, dir string, logger zerolog.Logger) {
	if s.path == "" || s.path == ":memory:" {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	if err := s.Backup(dir); err != nil {
		logger.Error().Err(err).Msg("initial backup failed")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Backup(dir); err != nil {
				logger.Error().Err(err).Msg("scheduled backup failed")
				continue
			}
			if err := pruneBackups(dir); err != nil {
				logger.Warn().Err(err).Msg("backup cleanup failed")
			}
		}
	}
}

// Backup writes a timestamped copy of the database file into dir.
func (s *Store) Backup(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405"))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer dst.Close()

	src, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}
	return nil
}

// pruneBackups keeps only the newest backupKeep files.
func pruneBackups(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "backup_*.db"))
	if err != nil {
		return err
	}
	if len(matches) <= backupKeep {
		return nil
	}
	sort.Strings(matches) // timestamped names sort chronologically
	for _, path := range matches[:len(matches)-backupKeep] {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
