package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andinfinity/idroplink-go/internal/session"
	"github.com/andinfinity/idroplink-go/internal/watch"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch for new screenshots and upload them automatically",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
}

func runWatch(_ *cobra.Command, _ []string) error {
	app := buildApp()
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !app.Session.RestoreCredentials() {
		return fmt.Errorf("%s", session.UserMessage(session.ErrNoCredentials))
	}

	if err := app.Session.TryLogin(ctx); err != nil {
		return fmt.Errorf("%s", session.UserMessage(err))
	}

	wcfg := resolvedCfg.Watch

	watcher := watch.New(watch.Config{
		Dir:        wcfg.Dir,
		Prefixes:   wcfg.Prefixes,
		Extensions: wcfg.Extensions,
		Settle:     wcfg.SettleDuration(),
		Parallel:   wcfg.Parallel,
		Uploader:   app.Session,
		Logger:     app.Logger,
		OnUploaded: func(path string, drop session.PendingDrop) {
			statusf("%s -> %s\n", path, drop.URL)
		},
	})

	statusf("Watching %s for screenshots. Ctrl-C to stop.\n", wcfg.Dir)

	return watcher.Run(ctx)
}
