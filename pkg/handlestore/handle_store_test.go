package handlestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pricewatch/opsctl/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HandleStoreMockLogger is a no-op Logger implementation for testing
type HandleStoreMockLogger struct{}

func (m *HandleStoreMockLogger) Debugf(format string, args ...interface{}) {}
func (m *HandleStoreMockLogger) Infof(format string, args ...interface{})  {}
func (m *HandleStoreMockLogger) Warnf(format string, args ...interface{})  {}
func (m *HandleStoreMockLogger) Errorf(format string, args ...interface{}) {}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), &HandleStoreMockLogger{})
}

func TestStore_Path(t *testing.T) {
	store := NewStore("/run/opsctl", &HandleStoreMockLogger{})

	path := store.Path("worker")

	assert.Equal(t, filepath.Join("/run/opsctl", "worker.pid"), path)
}

func TestStore_WriteAndRead(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("worker", 4242))

	pid, err := store.Read("worker")
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

func TestStore_WriteContent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("web", 17))

	content, err := os.ReadFile(store.Path("web"))
	require.NoError(t, err)
	assert.Equal(t, "17\n", string(content))
}

func TestStore_WriteOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("worker", 100))
	require.NoError(t, store.Write("worker", 200))

	pid, err := store.Read("worker")
	require.NoError(t, err)
	assert.Equal(t, 200, pid)
}

func TestStore_WriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "run")
	store := NewStore(dir, &HandleStoreMockLogger{})

	require.NoError(t, store.Write("worker", 1))

	_, err := os.Stat(store.Path("worker"))
	assert.NoError(t, err)
}

func TestStore_ReadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read("worker")

	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_ReadGarbage(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path("worker"), []byte("not-a-pid\n"), 0644))

	_, err := store.Read("worker")

	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestStore_ReadNegativePID(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.Path("worker"), []byte("-5\n"), 0644))

	_, err := store.Read("worker")

	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestStore_Remove(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write("worker", 4242))

	require.NoError(t, store.Remove("worker"))

	_, err := store.Read("worker")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_RemoveMissingIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Remove("worker"))
	assert.NoError(t, store.Remove("worker"))
}
