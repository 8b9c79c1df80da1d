package keepalive

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeCounter struct {
	calls  atomic.Int64
	tables []string
	err    error
}

func (f *fakeCounter) CountRows(_ context.Context, table string) (int64, error) {
	f.calls.Add(1)
	f.tables = append(f.tables, table)
	if f.err != nil {
		return 0, f.err
	}
	return 42, nil
}

func newTestService(counter Counter, cfg Config) *Service {
	logger := zerolog.Nop()
	s := New(counter, []string{"profiles", "agendamento"}, cfg, &logger)
	s.limiter = rate.NewLimiter(rate.Inf, 1) // no throttling in tests
	return s
}

func TestRunStopsAtQueryBudget(t *testing.T) {
	counter := &fakeCounter{}
	s := newTestService(counter, Config{Interval: time.Millisecond, MaxQueries: 3})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, int64(3), counter.calls.Load())
	// Tables rotate round-robin.
	assert.Equal(t, []string{"profiles", "agendamento", "profiles"}, counter.tables)
}

func TestRunRejectsEmptyTableList(t *testing.T) {
	logger := zerolog.Nop()
	s := New(&fakeCounter{}, nil, Config{Interval: time.Millisecond, MaxQueries: 1}, &logger)

	assert.Error(t, s.Run(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	counter := &fakeCounter{}
	s := newTestService(counter, Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), counter.calls.Load()) // the immediate first ping
}

func TestLogWrittenAndRotated(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "keepalive.log")

	counter := &fakeCounter{}
	s := newTestService(counter, Config{
		Interval:    time.Millisecond,
		MaxQueries:  5,
		LogPath:     logPath,
		MaxLogBytes: 50, // force rotation after the first line or two
	})

	require.NoError(t, s.Run(context.Background()))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "OK table=")

	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err, "rotated log should exist")
}

func TestErrorsAreLoggedNotFatal(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "keepalive.log")

	counter := &fakeCounter{err: assert.AnError}
	s := newTestService(counter, Config{Interval: time.Millisecond, MaxQueries: 2, LogPath: logPath, MaxLogBytes: 1 << 20})

	require.NoError(t, s.Run(context.Background()))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ERROR table=")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("KEEP_ALIVE_INTERVAL", "5m")
	t.Setenv("MAX_KEEP_ALIVE_QUERIES", "12")
	t.Setenv("KEEP_ALIVE_LOG_FILE", "/tmp/ka.log")

	cfg := FromEnv()
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 12, cfg.MaxQueries)
	assert.Equal(t, "/tmp/ka.log", cfg.LogPath)
}

func TestFromEnvPlainSeconds(t *testing.T) {
	t.Setenv("KEEP_ALIVE_INTERVAL", "30")
	cfg := FromEnv()
	assert.Equal(t, 30*time.Second, cfg.Interval)
}
