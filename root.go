package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andinfinity/idroplink-go/internal/api"
	"github.com/andinfinity/idroplink-go/internal/config"
	"github.com/andinfinity/idroplink-go/internal/history"
	"github.com/andinfinity/idroplink-go/internal/secrets"
	"github.com/andinfinity/idroplink-go/internal/session"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by
// PersistentPreRunE. Available to all subcommands after the root pre-run
// phase completes.
var resolvedCfg *config.Config

// httpClientTimeout is the default timeout for HTTP requests.
// Prevents hung connections from blocking CLI commands indefinitely.
const httpClientTimeout = 30 * time.Second

// defaultHTTPClient returns an HTTP client with a sensible timeout.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "idroplink",
		Short:   "idrop.link command line client",
		Long:    "Upload files to idrop.link and share the resulting links.",
		Version: version,
		// Silence cobra's default error/usage printing; main() handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(flagConfigPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			resolvedCfg = cfg

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newSignupCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newDropCmd())
	cmd.AddCommand(newDropsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// buildLogger creates an slog.Logger configured by the resolved config
// and CLI flags. Config-file log level provides the baseline; --verbose
// and --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// appContext bundles the wired collaborators every command needs.
type appContext struct {
	Logger  *slog.Logger
	Client  *api.Client
	Store   secrets.Store
	History *history.Store // nil when disabled
	Session *session.Session
}

// Close releases held resources.
func (app *appContext) Close() {
	if app.History != nil {
		if err := app.History.Close(); err != nil {
			app.Logger.Warn("closing drop history", slog.String("error", err.Error()))
		}
	}
}

// buildApp wires the session and its collaborators from the resolved
// config. History failures degrade to no caching rather than aborting.
func buildApp() *appContext {
	logger := buildLogger()
	client := api.NewClient(resolvedCfg.API.BaseURL, defaultHTTPClient(), logger)
	store := secrets.NewFileStore(resolvedCfg.Secrets.Dir, resolvedCfg.Secrets.Service)

	var (
		hist     *history.Store
		recorder session.DropRecorder
	)

	if resolvedCfg.History.Enabled {
		var err error

		hist, err = history.Open(resolvedCfg.History.Path, logger)
		if err != nil {
			logger.Warn("drop history unavailable", slog.String("error", err.Error()))
		} else {
			recorder = hist
		}
	}

	sess := session.New(session.Config{
		Client:   client,
		Store:    store,
		Recorder: recorder,
		Logger:   logger,
	})

	return &appContext{
		Logger:  logger,
		Client:  client,
		Store:   store,
		History: hist,
		Session: sess,
	}
}
