package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCopiesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pontual.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite bytes"), 0o644))

	logger := zerolog.Nop()
	s := New(dbPath, Config{Enabled: true, StoragePath: filepath.Join(dir, "backups")}, &logger)

	path, err := s.Snapshot()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(data))
}

func TestCleanupOldRemovesStaleSnapshots(t *testing.T) {
	dir := t.TempDir()
	storage := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(storage, 0o755))

	stale := filepath.Join(storage, "pontual_20200101_000000.db")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(storage, "pontual_20990101_000000.db")
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))

	logger := zerolog.Nop()
	s := New(filepath.Join(dir, "pontual.db"), Config{StoragePath: storage, RetentionDays: 7}, &logger)
	s.CleanupOld()

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}
