package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestUploadDrop(t *testing.T) {
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	filePath := writeTempFile(t, "shot.png", "png bytes")

	var registered *PendingDrop
	var fractions []float64

	pending, err := sess.UploadDrop(context.Background(), filePath, UploadOpts{
		Progress: func(fraction float64) {
			fractions = append(fractions, fraction)
		},
		OnRegistered: func(p PendingDrop) {
			registered = &p
		},
	})
	require.NoError(t, err)
	require.NotNil(t, pending)

	assert.NotEmpty(t, pending.UploadID)
	assert.Equal(t, "drop-1", pending.DropID)
	assert.Equal(t, "http://idrop.link/d/drop-1", pending.URL)

	// The share URL was handed out before the upload finished.
	require.NotNil(t, registered)
	assert.Equal(t, pending.URL, registered.URL)

	// Progress stays within [0,1] and ends complete.
	require.NotEmpty(t, fractions)
	for _, f := range fractions {
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
	assert.InDelta(t, 1.0, fractions[len(fractions)-1], 0.0001)

	// The backend received the file content.
	assert.Equal(t, []byte("png bytes"), backend.uploads["drop-1"])

	// The drop list was resynced after the upload.
	drops := sess.Drops()
	require.Len(t, drops, 1)
	assert.Equal(t, "shot.png", drops[0].Name)
}

func TestUploadDrop_NotAuthenticated(t *testing.T) {
	sess, _ := testSession(t, "http://unused")

	pending, err := sess.UploadDrop(context.Background(), "somefile.png", UploadOpts{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Nil(t, pending)
}

func TestUploadDrop_RegistrationFails(t *testing.T) {
	backend := newFakeBackend()
	mux := http.NewServeMux()
	mux.Handle("/", backend.handler())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/drops") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		mux.ServeHTTP(w, r)
	}))
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	var fractions []float64

	pending, err := sess.UploadDrop(context.Background(), "somefile.png", UploadOpts{
		Progress: func(fraction float64) { fractions = append(fractions, fraction) },
	})
	require.Error(t, err)
	assert.Nil(t, pending)

	// Failed uploads still drive progress to complete.
	require.NotEmpty(t, fractions)
	assert.InDelta(t, 1.0, fractions[len(fractions)-1], 0.0001)
}

func TestUploadDrop_TransferFails(t *testing.T) {
	backend := newFakeBackend()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Registration succeeds; the byte transfer is rejected.
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/drops") {
			backend.handler().ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/drops/") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"quota exceeded"}`))
			return
		}

		backend.handler().ServeHTTP(w, r)
	}))
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	filePath := writeTempFile(t, "shot.png", "png bytes")

	pending, err := sess.UploadDrop(context.Background(), filePath, UploadOpts{})
	require.Error(t, err)

	// The registration data is returned so the caller can correlate the
	// failure with the URL it may already have shared.
	require.NotNil(t, pending)
	assert.Equal(t, "drop-1", pending.DropID)

	assert.Equal(t, "quota exceeded", UserMessage(err))
}

func TestUploadDrop_DistinctUploadIDs(t *testing.T) {
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	sess, _ := loggedInSession(t, srv.URL)

	first, err := sess.UploadDrop(context.Background(), writeTempFile(t, "a.png", "a"), UploadOpts{})
	require.NoError(t, err)

	second, err := sess.UploadDrop(context.Background(), writeTempFile(t, "b.png", "b"), UploadOpts{})
	require.NoError(t, err)

	assert.NotEqual(t, first.UploadID, second.UploadID)
	assert.NotEqual(t, first.DropID, second.DropID)
}
