package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andinfinity/idroplink-go/internal/session"
)

var flagDropsCached bool

func newDropsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drops",
		Short: "List your drops, newest first",
		Args:  cobra.NoArgs,
		RunE:  runDrops,
	}

	cmd.Flags().BoolVar(&flagDropsCached, "cached", false, "list from the local cache without contacting the backend")

	return cmd
}

func runDrops(_ *cobra.Command, _ []string) error {
	app := buildApp()
	defer app.Close()

	drops, err := fetchDrops(app)
	if err != nil {
		return err
	}

	if len(drops) == 0 {
		statusf("No drops yet.\n")
		return nil
	}

	rows := make([][]string, 0, len(drops))
	for _, d := range drops {
		rows = append(rows, []string{d.Name, d.URL, d.DropDate, strconv.Itoa(d.Views)})
	}

	printTable(os.Stdout, []string{"NAME", "URL", "UPLOADED", "VIEWS"}, rows)

	return nil
}

// fetchDrops returns the drop list, from the backend or the local cache.
func fetchDrops(app *appContext) ([]session.Drop, error) {
	if flagDropsCached {
		if app.History == nil {
			return nil, fmt.Errorf("drop history is disabled, cannot list cached drops")
		}

		return app.History.List()
	}

	ctx := context.Background()

	if !app.Session.RestoreCredentials() {
		return nil, fmt.Errorf("%s", session.UserMessage(session.ErrNoCredentials))
	}

	if err := app.Session.TryLogin(ctx); err != nil {
		return nil, fmt.Errorf("%s", session.UserMessage(err))
	}

	// Login already synced; the session list is current.
	return app.Session.Drops(), nil
}
