package api

import (
	"context"
	"io"
	"mime"
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

func TestUploadToDrop(t *testing.T) {
	filePath := writeTempFile(t, "shot.png", "fake png bytes")

	var (
		gotPath     string
		gotAuth     string
		gotBoundary string
		gotField    string
		gotFilename string
		gotContent  []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		gotBoundary = params["boundary"]

		for field, headers := range r.MultipartForm.File {
			gotField = field

			require.Len(t, headers, 1)
			gotFilename = headers[0].Filename

			f, err := headers[0].Open()
			require.NoError(t, err)
			gotContent, err = io.ReadAll(f)
			require.NoError(t, err)
			require.NoError(t, f.Close())
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.UploadToDrop(context.Background(), "user-1", "tok", "drop-1", filePath, nil)
	require.NoError(t, err)

	assert.Equal(t, "/users/user-1/drops/drop-1", gotPath)
	assert.Equal(t, "tok", gotAuth)
	assert.True(t, strings.HasPrefix(gotBoundary, "NET-POST-boundary-"), "boundary %q", gotBoundary)
	assert.Equal(t, uploadFieldName, gotField)
	assert.Equal(t, "shot.png", gotFilename)
	assert.Equal(t, []byte("fake png bytes"), gotContent)
}

func TestUploadToDrop_Progress(t *testing.T) {
	filePath := writeTempFile(t, "big.bin", strings.Repeat("x", 64*1024))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var (
		calls     int
		lastDone  int64
		lastTotal int64
	)

	err := client.UploadToDrop(context.Background(), "user-1", "tok", "drop-1", filePath,
		func(written, total int64) {
			calls++
			assert.GreaterOrEqual(t, written, lastDone, "progress must be monotonic")
			lastDone = written
			lastTotal = total
		})
	require.NoError(t, err)

	assert.Positive(t, calls)
	assert.Equal(t, int64(64*1024), lastDone)
	assert.Equal(t, int64(64*1024), lastTotal)
}

func TestUploadToDrop_ServerError(t *testing.T) {
	filePath := writeTempFile(t, "shot.png", "bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.UploadToDrop(context.Background(), "user-1", "stale", "drop-1", filePath, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "token expired", apiErr.Message)
}

func TestUploadToDrop_MissingFile(t *testing.T) {
	client := newTestClient(t, "http://unused")

	err := client.UploadToDrop(context.Background(), "user-1", "tok", "drop-1",
		filepath.Join(t.TempDir(), "nope.png"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCountingReader(t *testing.T) {
	var reports []int64

	cr := &countingReader{
		r:     strings.NewReader("hello world"),
		total: 11,
		progress: func(written, total int64) {
			assert.Equal(t, int64(11), total)
			reports = append(reports, written)
		},
	}

	out, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))
	require.NotEmpty(t, reports)
	assert.Equal(t, int64(11), reports[len(reports)-1])
}
