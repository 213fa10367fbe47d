package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andinfinity/idroplink-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(config.DefaultConfigPath())
			return nil
		},
	})

	return cmd
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg := resolvedCfg

	fmt.Fprintf(os.Stdout, "[api]\n")
	fmt.Fprintf(os.Stdout, "  base_url   = %s\n", cfg.API.BaseURL)
	fmt.Fprintf(os.Stdout, "[secrets]\n")
	fmt.Fprintf(os.Stdout, "  dir        = %s\n", cfg.Secrets.Dir)
	fmt.Fprintf(os.Stdout, "  service    = %s\n", cfg.Secrets.Service)
	fmt.Fprintf(os.Stdout, "[history]\n")
	fmt.Fprintf(os.Stdout, "  enabled    = %t\n", cfg.History.Enabled)
	fmt.Fprintf(os.Stdout, "  path       = %s\n", cfg.History.Path)
	fmt.Fprintf(os.Stdout, "[logging]\n")
	fmt.Fprintf(os.Stdout, "  log_level  = %s\n", cfg.Logging.LogLevel)
	fmt.Fprintf(os.Stdout, "[watch]\n")
	fmt.Fprintf(os.Stdout, "  dir        = %s\n", cfg.Watch.Dir)
	fmt.Fprintf(os.Stdout, "  prefixes   = %s\n", strings.Join(cfg.Watch.Prefixes, ", "))
	fmt.Fprintf(os.Stdout, "  extensions = %s\n", strings.Join(cfg.Watch.Extensions, ", "))
	fmt.Fprintf(os.Stdout, "  settle     = %s\n", cfg.Watch.Settle)
	fmt.Fprintf(os.Stdout, "  parallel   = %d\n", cfg.Watch.Parallel)

	return nil
}
