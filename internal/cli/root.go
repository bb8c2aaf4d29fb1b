// Package cli implements the survey command line: the HTTP server, the
// interactive kiosk questionnaire, the statistics report, the QR code
// generator and the test-data seeder.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-survey-backend/internal/config"
	"github.com/tbourn/go-survey-backend/internal/storage"
	"github.com/tbourn/go-survey-backend/internal/sysutil"
)

// app carries state shared by every subcommand.
type app struct {
	version  string
	envFile  string
	logLevel string
	testMode bool
	cfg      config.Config

	// openStore is replaced in tests.
	openStore func(ctx context.Context, cfg config.StoreConfig) (storage.Backend, error)
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version, openStore: storage.Open}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "survey",
		Short: "Employee satisfaction survey",
		Long: `Anonymous employee satisfaction survey: ten questions scored 1 to 10
plus an optional comment, one submission per device.

Run "survey serve" for the HTTP API or "survey take" for the interactive
kiosk questionnaire. Configuration comes from the environment and an
optional .env file.`,
		Version:           a.version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "load environment from this file (default .env when present)")
	pf.StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")
	pf.BoolVar(&a.testMode, "test-mode", false, "override TEST_MODE")

	root.AddCommand(
		a.serveCmd(),
		a.takeCmd(),
		a.statsCmd(),
		a.seedCmd(),
		a.qrCmd(),
	)
	return root
}

// setup loads the environment and configuration before any subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("test-mode") {
		cfg.Survey.TestMode = a.testMode
		if os.Getenv("STATS_INCLUDE_TEST") == "" {
			cfg.Survey.StatsIncludeTest = a.testMode
		}
	}
	a.cfg = cfg

	sysutil.SetupLogger(cmd.ErrOrStderr(), sysutil.FirstNonEmpty(a.logLevel, cfg.LogLevel), cfg.LogPretty)
	log.Debug().
		Str("store", cfg.Store.Driver).
		Bool("test_mode", cfg.Survey.TestMode).
		Msg("configuration loaded")
	return nil
}

// withStore opens the configured backend for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(storage.Backend) error) error {
	store, err := a.openStore(ctx, a.cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()
	return fn(store)
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, version string) int {
	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
