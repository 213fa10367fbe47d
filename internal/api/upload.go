package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// ProgressFunc reports upload progress. written counts file bytes handed
// to the transport so far; total is the file size. Both are in bytes.
type ProgressFunc func(written, total int64)

// uploadFieldName is the multipart form field the backend expects the
// file content under.
const uploadFieldName = "data"

// UploadToDrop streams the file at filePath into a previously initialized
// drop as multipart/form-data. progress may be nil. The request is not
// retried: replaying a partially consumed file stream is not safe.
func (c *Client) UploadToDrop(
	ctx context.Context, userID, token, dropID, filePath string, progress ProgressFunc,
) error {
	c.logger.Info("uploading to drop",
		slog.String("user_id", userID),
		slog.String("drop_id", dropID),
		slog.String("file", filepath.Base(filePath)),
	)

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("api: opening %s for upload: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("api: stat %s: %w", filePath, err)
	}

	boundary := fmt.Sprintf("NET-POST-boundary-%d-%d", rand.Uint32(), rand.Uint32()) //nolint:gosec // boundary nonce

	// macOS file systems hand out NFD names; the backend stores whatever
	// it receives, so normalize the display name to NFC.
	name := norm.NFC.String(filepath.Base(filePath))

	body, contentType := multipartBody(f, info.Size(), name, boundary, progress)
	defer body.Close()

	path := fmt.Sprintf("/users/%s/drops/%s", url.PathEscape(userID), url.PathEscape(dropID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: creating upload request: %w", err)
	}

	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("api: upload canceled: %w", ctx.Err())
		}

		c.logger.Error("upload request failed",
			slog.String("drop_id", dropID),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("%w: upload failed: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		return &Error{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	// Drain body to reuse connection.
	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return fmt.Errorf("api: draining upload response body: %w", drainErr)
	}

	c.logger.Debug("upload complete", slog.String("drop_id", dropID))

	return nil
}

// multipartBody builds a streaming multipart/form-data body around the file
// reader. The file part is written through a counting reader so progress
// reflects file bytes consumed by the transport, not multipart framing.
func multipartBody(
	file io.Reader, size int64, filename, boundary string, progress ProgressFunc,
) (io.ReadCloser, string) {
	pr, pw := io.Pipe()

	mw := multipart.NewWriter(pw)
	// SetBoundary only fails on invalid characters; ours is fixed-format.
	_ = mw.SetBoundary(boundary) //nolint:errcheck

	counted := &countingReader{r: file, total: size, progress: progress}

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadFieldName, filename))
		header.Set("Content-Type", "application/octet-stream")

		part, err := mw.CreatePart(header)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("api: creating multipart part: %w", err))
			return
		}

		if _, err := io.Copy(part, counted); err != nil {
			pw.CloseWithError(fmt.Errorf("api: streaming file part: %w", err))
			return
		}

		if err := mw.Close(); err != nil {
			pw.CloseWithError(fmt.Errorf("api: closing multipart writer: %w", err))
			return
		}

		pw.Close()
	}()

	return pr, mw.FormDataContentType()
}

// countingReader invokes progress as bytes flow through it.
type countingReader struct {
	r        io.Reader
	total    int64
	written  int64
	progress ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.written += int64(n)
		if cr.progress != nil {
			cr.progress(cr.written, cr.total)
		}
	}

	return n, err
}
