// Package watch implements screenshot detection: it watches a directory
// for newly created files matching screenshot naming and uploads each one
// as a drop, reporting the share URL through a callback.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/andinfinity/idroplink-go/internal/session"
)

// Error backoff for sustained watcher errors (e.g. kernel buffer overflow).
const (
	errInitBackoff  = 500 * time.Millisecond
	errMaxBackoff   = 30 * time.Second
	errBackoffMult  = 2
	settlePollEvery = 250 * time.Millisecond
)

// Uploader is the slice of the session the watcher needs.
// Satisfied by *session.Session.
type Uploader interface {
	UploadDrop(ctx context.Context, filePath string, opts session.UploadOpts) (*session.PendingDrop, error)
}

// Config holds the options for New.
type Config struct {
	Dir        string
	Prefixes   []string // filename prefixes that mark screenshots
	Extensions []string // accepted extensions, with leading dot
	Settle     time.Duration
	Parallel   int // max concurrent uploads; 0 means 1

	Uploader Uploader
	Logger   *slog.Logger

	// OnUploaded fires after each successful upload with the pending
	// drop (URL included). May be nil.
	OnUploaded func(path string, drop session.PendingDrop)
}

// Watcher watches one directory for new screenshots and uploads them.
type Watcher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Watcher. Dir must exist when Run is called.
func New(cfg Config) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}

	return &Watcher{cfg: cfg, logger: logger}
}

// Run watches until the context is canceled. Uploads run concurrently,
// bounded by Parallel; Run returns after in-flight uploads finish.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch: watching %s: %w", w.cfg.Dir, err)
	}

	w.logger.Info("watching for screenshots", slog.String("dir", w.cfg.Dir))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Parallel)

	err = w.loop(gctx, fw, g)

	// Let in-flight uploads drain before reporting.
	if waitErr := g.Wait(); waitErr != nil && err == nil {
		err = waitErr
	}

	return err
}

// loop is the main select loop: fsnotify events, watcher errors with
// exponential backoff, and context cancellation.
func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, g *errgroup.Group) error {
	backoff := errInitBackoff

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			w.handleEvent(ctx, event, g)

			backoff = errInitBackoff

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watcher error",
				slog.String("error", watchErr.Error()),
				slog.Duration("backoff", backoff),
			)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}

			backoff *= errBackoffMult
			if backoff > errMaxBackoff {
				backoff = errMaxBackoff
			}
		}
	}
}

// handleEvent filters a single fsnotify event and schedules an upload for
// matching creations.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, g *errgroup.Group) {
	if !event.Has(fsnotify.Create) {
		return
	}

	name := filepath.Base(event.Name)
	if !w.matches(name) {
		w.logger.Debug("ignoring non-screenshot file", slog.String("name", name))
		return
	}

	path := event.Name

	g.Go(func() error {
		w.uploadWhenStable(ctx, path)
		// Upload failures are logged, not fatal to the watch loop.
		return nil
	})
}

// matches reports whether a file name looks like a screenshot: one of the
// configured prefixes and one of the configured extensions.
func (w *Watcher) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))

	extOK := false
	for _, e := range w.cfg.Extensions {
		if ext == strings.ToLower(e) {
			extOK = true
			break
		}
	}

	if !extOK {
		return false
	}

	for _, prefix := range w.cfg.Prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

// uploadWhenStable waits for the file to stop growing, then uploads it.
// Screenshots are written in one burst, but the create event fires before
// the bytes land.
func (w *Watcher) uploadWhenStable(ctx context.Context, path string) {
	if err := w.waitStable(ctx, path); err != nil {
		w.logger.Warn("screenshot never settled",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return
	}

	drop, err := w.cfg.Uploader.UploadDrop(ctx, path, session.UploadOpts{})
	if err != nil {
		w.logger.Error("screenshot upload failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return
	}

	w.logger.Info("screenshot uploaded",
		slog.String("path", path),
		slog.String("url", drop.URL),
	)

	if w.cfg.OnUploaded != nil {
		w.cfg.OnUploaded(path, *drop)
	}
}

// waitStable polls until the file size is unchanged for the settle
// interval. A zero settle interval accepts the file as soon as it stats.
func (w *Watcher) waitStable(ctx context.Context, path string) error {
	var (
		lastSize  int64 = -1
		stableFor time.Duration
	)

	for {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if w.cfg.Settle <= 0 {
			return nil
		}

		if info.Size() == lastSize {
			stableFor += settlePollEvery
			if stableFor >= w.cfg.Settle {
				return nil
			}
		} else {
			lastSize = info.Size()
			stableFor = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePollEvery):
		}
	}
}
