package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andinfinity/idroplink-go/internal/session"
)

// maxParallelDrops bounds concurrent uploads when several files are given.
const maxParallelDrops = 4

func newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <file>...",
		Short: "Upload files and print their share links",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDrop,
	}
}

func runDrop(_ *cobra.Command, args []string) error {
	app := buildApp()
	defer app.Close()

	ctx := context.Background()

	if !app.Session.RestoreCredentials() {
		return fmt.Errorf("%s", session.UserMessage(session.ErrNoCredentials))
	}

	if err := app.Session.TryLogin(ctx); err != nil {
		return fmt.Errorf("%s", session.UserMessage(err))
	}

	showProgress := isatty.IsTerminal(os.Stderr.Fd()) && !flagQuiet && len(args) == 1

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDrops)

	for _, path := range args {
		g.Go(func() error {
			return dropOne(gctx, app, path, showProgress)
		})
	}

	return g.Wait()
}

// dropOne uploads a single file, printing the share URL as soon as the
// drop is registered (before the bytes finish transferring).
func dropOne(ctx context.Context, app *appContext, path string, showProgress bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	opts := session.UploadOpts{
		OnRegistered: func(pending session.PendingDrop) {
			// The link is live before the upload completes.
			fmt.Println(pending.URL)
		},
	}

	if showProgress {
		opts.Progress = func(fraction float64) {
			fmt.Fprintf(os.Stderr, "\ruploading %s: %3.0f%%", path, fraction*100)
			if fraction >= 1 {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	if _, err := app.Session.UploadDrop(ctx, path, opts); err != nil {
		return fmt.Errorf("uploading %s: %s", path, session.UserMessage(err))
	}

	statusf("Uploaded %s (%s)\n", path, formatSize(info.Size()))

	return nil
}
