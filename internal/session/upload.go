package session

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
)

// ProgressFunc reports upload progress as a fraction in [0,1].
type ProgressFunc func(fraction float64)

// PendingDrop is a registered drop whose public URL is already valid even
// though the file bytes may still be in flight.
type PendingDrop struct {
	UploadID string // correlation id for this upload invocation
	DropID   string
	URL      string
}

// UploadOpts configures a single UploadDrop call. Progress and
// OnRegistered are scoped to this invocation, so concurrent uploads never
// share callback state.
type UploadOpts struct {
	// Progress receives fractions in [0,1]. After a failure it is
	// normalized to 1.0 so UI affordances bound to it never stay stuck
	// mid-transfer. May be nil.
	Progress ProgressFunc

	// OnRegistered fires as soon as the drop is registered server-side,
	// before the upload finishes. The public URL is valid at that point
	// (for clipboard copy). May be nil.
	OnRegistered func(PendingDrop)
}

// UploadDrop registers a drop, streams the file into it, and resyncs the
// drop list. Requires an authenticated session; otherwise the upload is
// rejected without touching the backend. Multiple uploads may run
// concurrently; results correlate by the returned PendingDrop.
func (s *Session) UploadDrop(ctx context.Context, filePath string, opts UploadOpts) (*PendingDrop, error) {
	userID, token, err := s.authContext()
	if err != nil {
		return nil, err
	}

	uploadID := uuid.New().String()

	logger := s.logger.With(
		slog.String("upload_id", uploadID),
		slog.String("file", filepath.Base(filePath)),
	)

	logger.Info("starting drop upload")

	reg, err := s.client.InitializeDrop(ctx, userID, token)
	if err != nil {
		logger.Error("drop registration failed", slog.String("error", err.Error()))
		finishProgress(opts.Progress)

		return nil, err
	}

	pending := &PendingDrop{UploadID: uploadID, DropID: reg.ID, URL: reg.URL}

	if opts.OnRegistered != nil {
		opts.OnRegistered(*pending)
	}

	progress := func(written, total int64) {
		if opts.Progress == nil {
			return
		}

		if total <= 0 {
			return
		}

		fraction := float64(written) / float64(total)
		if fraction > 1 {
			fraction = 1
		}

		opts.Progress(fraction)
	}

	if err := s.client.UploadToDrop(ctx, userID, token, reg.ID, filePath, progress); err != nil {
		logger.Error("drop upload failed", slog.String("error", err.Error()))
		finishProgress(opts.Progress)

		return pending, err
	}

	finishProgress(opts.Progress)

	if syncErr := s.SyncDrops(ctx); syncErr != nil {
		// The upload itself succeeded; the local list is stale until the
		// next sync.
		logger.Warn("post-upload sync failed", slog.String("error", syncErr.Error()))
	}

	logger.Info("drop uploaded", slog.String("url", pending.URL))

	return pending, nil
}

// finishProgress normalizes a progress callback to complete.
func finishProgress(progress ProgressFunc) {
	if progress != nil {
		progress(1.0)
	}
}
