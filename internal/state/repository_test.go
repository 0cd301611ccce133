package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRepo(t *testing.T) *FileRepository {
	t.Helper()
	return NewFileRepository(filepath.Join(t.TempDir(), ".orchestrator", "session.json"))
}

func TestFileRepository_LoadMissingReturnsDefault(t *testing.T) {
	repo := newTestRepo(t)

	st, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), st)

	_, statErr := os.Stat(repo.Path)
	assert.True(t, os.IsNotExist(statErr), "Load must not create the file")
}

func TestFileRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	want := SessionState{
		Active:                  true,
		DiscoveryRound:          2,
		LastPrompt:              "Please add a login page",
		OrchestrationInProgress: true,
	}

	require.NoError(t, repo.Save(want))

	got, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileRepository_LoadPartialFile(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.Path), 0o755))
	require.NoError(t, os.WriteFile(repo.Path, []byte(`{"active": true, "discovery_round": 7}`), 0o600))

	got, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, SessionState{Active: true, DiscoveryRound: 7}, got)
}

func TestFileRepository_LoadMalformedFallsBackToDefault(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	path := filepath.Join(t.TempDir(), "session.json")
	repo := NewFileRepository(path, WithLogger(zap.New(core)))

	require.NoError(t, os.WriteFile(path, []byte(`{"active": true,`), 0o600))

	got, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
	assert.Equal(t, 1, logs.FilterMessage("ignoring unreadable session state").Len())
}

func TestFileRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Save(SessionState{Active: true}))

	removed, err := repo.Delete()
	require.NoError(t, err)
	assert.True(t, removed)

	st, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), st)

	removed, err = repo.Delete()
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	repo := newTestRepo(t)
	boom := errors.New("boom")

	err := WithLock(context.Background(), repo, func() error {
		_, statErr := os.Stat(repo.Path + ".lock")
		assert.NoError(t, statErr, "lockfile should exist while fn runs")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, statErr := os.Stat(repo.Path + ".lock")
	assert.True(t, os.IsNotExist(statErr), "lockfile should be removed after fn returns")
}

type memRepo struct {
	st SessionState
}

func (m *memRepo) Load() (SessionState, error) { return m.st, nil }
func (m *memRepo) Save(st SessionState) error  { m.st = st; return nil }
func (m *memRepo) Delete() (bool, error)       { m.st = Default(); return true, nil }

func TestWithLock_NonLockerRunsDirectly(t *testing.T) {
	called := false
	err := WithLock(context.Background(), &memRepo{}, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
