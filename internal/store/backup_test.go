package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCopiesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state.db")

	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.SetSetting(t.Context(), "k", "v"))
	require.NoError(t, s.Close())

	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, s.Backup(backupDir))

	matches, err := filepath.Glob(filepath.Join(backupDir, "backup_*.db"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	restored, err := Open(matches[0])
	require.NoError(t, err)
	defer restored.Close()
	v, err := restored.GetSetting(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestPruneBackupsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < backupKeep+3; i++ {
		name := fmt.Sprintf("backup_20250101_1200%02d.db", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	require.NoError(t, pruneBackups(dir))

	matches, err := filepath.Glob(filepath.Join(dir, "backup_*.db"))
	require.NoError(t, err)
	assert.Len(t, matches, backupKeep)
	// The oldest files are the ones removed.
	assert.NotContains(t, matches, filepath.Join(dir, "backup_20250101_120000.db"))
}
