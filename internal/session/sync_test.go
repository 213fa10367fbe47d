package session

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRecorder captures DropRecorder calls for assertions.
type recordingRecorder struct {
	mu       sync.Mutex
	replaced [][]Drop
	cleared  int
}

func (r *recordingRecorder) ReplaceDrops(drops []Drop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]Drop, len(drops))
	copy(snapshot, drops)
	r.replaced = append(r.replaced, snapshot)

	return nil
}

func (r *recordingRecorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cleared++

	return nil
}

func TestSyncDrops_RequiresAuth(t *testing.T) {
	sess, _ := testSession(t, "http://unused")

	err := sess.SyncDrops(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	sess.SetCredentials("me@example.com", "hunter2", "user-1")
	err = sess.SyncDrops(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated, "credentials alone are not enough")
}

func TestSyncDrops_NewestFirst(t *testing.T) {
	backend := newFakeBackend()
	backend.addDrop("d1", "old.png", "http://idrop.link/d/d1", "2026-08-01T10:00:00.000Z")
	backend.addDrop("d2", "new.png", "http://idrop.link/d/d2", "2026-08-30T10:00:00.000Z")
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	drops := sess.Drops()
	require.Len(t, drops, 2)
	assert.Equal(t, "new.png", drops[0].Name)
	assert.Equal(t, "old.png", drops[1].Name)
}

func TestSyncDrops_SkipsIncompleteRecords(t *testing.T) {
	backend := newFakeBackend()
	backend.addDrop("d1", "done.png", "http://idrop.link/d/d1", "2026-08-30T10:00:00.000Z")
	backend.addDrop("d2", "", "", "") // still uploading
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	drops := sess.Drops()
	require.Len(t, drops, 1)
	assert.Equal(t, "done.png", drops[0].Name)
}

func TestSyncDrops_NoDuplicateAccumulation(t *testing.T) {
	backend := newFakeBackend()
	backend.addDrop("d1", "shot.png", "http://idrop.link/d/d1", "2026-08-30T10:00:00.000Z")
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	for range 3 {
		require.NoError(t, sess.SyncDrops(context.Background()))
	}

	assert.Len(t, sess.Drops(), 1)
}

func TestSyncDrops_NotifiesObservers(t *testing.T) {
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	var notified int
	sess.OnDropsChanged(func() { notified++ })

	require.NoError(t, sess.SyncDrops(context.Background()))
	assert.Equal(t, 1, notified)
}

func TestSyncDrops_Recorder(t *testing.T) {
	backend := newFakeBackend()
	backend.addDrop("d1", "shot.png", "http://idrop.link/d/d1", "2026-08-30T10:00:00.000Z")
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	rec := &recordingRecorder{}
	sess, _ := testSession(t, srv.URL)
	sess.recorder = rec
	sess.SetCredentials("me@example.com", "hunter2", "user-1")
	require.NoError(t, sess.Login(context.Background()))

	require.NotEmpty(t, rec.replaced)
	last := rec.replaced[len(rec.replaced)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "shot.png", last[0].Name)

	sess.Logout()
	assert.Equal(t, 1, rec.cleared)
}

func TestDrops_ReturnsSnapshot(t *testing.T) {
	backend := newFakeBackend()
	backend.addDrop("d1", "shot.png", "http://idrop.link/d/d1", "2026-08-30T10:00:00.000Z")
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	snapshot := sess.Drops()
	snapshot[0].Name = "mutated"

	assert.Equal(t, "shot.png", sess.Drops()[0].Name)
}
