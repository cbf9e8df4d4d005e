package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "picks-dashboard",
		Short:         "Sports picks performance dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "picks-dashboard.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd(), importCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the config and opens the logger and store every command needs.
func setup() (Config, *zap.Logger, *store, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return cfg, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	l, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, nil, nil, fmt.Errorf("logger: %w", err)
	}
	db, err := openDB(cfg.Database.Path)
	if err != nil {
		l.Sync()
		return cfg, nil, nil, nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	cleanup := func() {
		db.Close()
		l.Sync()
	}
	return cfg, l, newStore(db), cleanup, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, st, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			srv, err := newServer(cfg, st, l)
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Feed.Interval > 0 && len(cfg.Feed.Sources) > 0 {
				go srv.pollFeeds(ctx, cfg.Feed.Interval)
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			l.Info("picks dashboard listening",
				zap.String("addr", cfg.Server.Addr),
				zap.String("backend", cfg.Chart.Backend),
				zap.String("db", cfg.Database.Path),
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	var sport string

	cmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Import daily pick aggregates for one sport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sport == sportAll || !validSport(sport) {
				return fmt.Errorf("invalid sport %q (must be one of %v)", sport, sports)
			}

			cfg, l, st, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			location := args[0]
			payload, err := newFeed(cfg, l).fetch(cmd.Context(), location)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", location, err)
			}
			if err := st.upsertDaily(cmd.Context(), sport, location, payload); err != nil {
				return fmt.Errorf("import %s: %w", location, err)
			}

			l.Info("import complete",
				zap.String("sport", sport),
				zap.String("source", location),
				zap.Int("days", len(payload.Dates)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&sport, "sport", "", "Sport the export belongs to (NBA, NHL, MLB, MarchMadness)")
	cmd.MarkFlagRequired("sport")
	return cmd
}
