// Package main provides the runlog command: the API server plus maintenance
// commands that operate on the store directly.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"run-tracker/internal/app"
	"run-tracker/internal/sessions/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "runlog",
		Short:        "Training log for realized and planned running sessions",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides "+app.EnvConfig+")")

	load := func() (*app.Config, *slog.Logger, error) {
		cfg, err := app.LoadConfig(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg, setupLogging(cfg), nil
	}

	root.AddCommand(newServeCmd(load), newRenumberCmd(load), newSessionsCmd(load))
	return root
}

type loader func() (*app.Config, *slog.Logger, error)

// setupLogging installs a text handler on stderr at the configured level.
func setupLogging(cfg *app.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	return logger
}

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			logger.Info("starting runlog server",
				"db_path", cfg.DBPath,
				"timezone", cfg.Timezone,
				"rate_limit", cfg.RateLimit,
				"port", cfg.Port,
			)

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			errc := make(chan error, 1)
			go func() { errc <- a.Run() }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(quit)

			var runErr error
			select {
			case <-quit:
			case runErr = <-errc:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return errors.Join(runErr, a.Shutdown(ctx))
		},
	}
}

func newRenumberCmd(load loader) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Recompute session numbers and weeks for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			a, err := app.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Shutdown(cmd.Context())

			changed, err := a.Sessions().Renumber(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d sessions renumbered\n", changed)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSessionsCmd(load loader) *cobra.Command {
	var (
		userID   string
		filter   models.ListFilter
		dateFrom string
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Print a user's unified session list as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			a, err := app.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Shutdown(cmd.Context())

			if dateFrom != "" {
				filter.DateFrom = &dateFrom
			}
			page, err := a.Sessions().ListSessions(cmd.Context(), userID, filter)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&filter.Sort, "sort", "", "sort directive, e.g. \"date:desc,distance:asc\"")
	cmd.Flags().StringVar(&filter.Type, "type", "", "session type filter")
	cmd.Flags().StringVar(&filter.Search, "search", "", "substring match on type and comments")
	cmd.Flags().StringVar(&dateFrom, "date-from", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size, 0 for all")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "rows to skip")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
