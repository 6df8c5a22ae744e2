package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aisavvy/aisavvy/internal/config"
	"github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/logging"
	"github.com/aisavvy/aisavvy/internal/oracle"
	"github.com/aisavvy/aisavvy/internal/pipeline"
	"github.com/aisavvy/aisavvy/internal/schema"
	"github.com/aisavvy/aisavvy/internal/server"
	"github.com/aisavvy/aisavvy/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Start the aisavvy HTTP API. The schema snapshot is taken once at startup;
restart the server to pick up schema changes.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeConfig, "failed to load configuration")
	}

	if err := logging.Initialize(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return errors.Wrap(err, errors.ErrTypeConfig, "failed to initialize logging")
	}

	logger := logging.GetLogger()

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to open database")
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to initialize database schema")
	}

	// The snapshot is taken exactly once; a partial schema is not acceptable,
	// so any failure here aborts startup.
	snapshot, err := schema.Load(ctx, store.DB(), schema.Config{
		Namespace:      cfg.Schema.Namespace,
		HintColumns:    cfg.Schema.HintColumns,
		HintSampleSize: cfg.Schema.HintSampleSize,
		ExcludeTables:  storage.InternalTables(),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to load schema snapshot")
	}

	logger.Infof("schema snapshot loaded: %d tables, hash %s", len(snapshot.Tables), snapshot.Hash[:12])

	oracleClient, err := oracle.NewClient(oracle.Config{
		Provider: cfg.Oracle.Provider,
		Model:    cfg.Oracle.Model,
		BaseURL:  cfg.Oracle.BaseURL,
		APIKey:   cfg.Oracle.APIKey,
		Timeout:  config.MustDuration(cfg.Oracle.Timeout),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeConfig, "failed to configure oracle client")
	}

	orchestrator := pipeline.NewOrchestrator(
		oracleClient,
		store,
		store.Cache(),
		store.Audit(),
		snapshot,
		logger,
		pipeline.Options{
			CacheEnabled:   cfg.Cache.Enabled,
			CacheNoResults: cfg.Cache.NoResults,
		},
	)

	srv := server.NewServer(cfg.Server, orchestrator, store.Audit(), snapshot, logger)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signals
		logger.Info("shutting down")

		if err := srv.Shutdown(); err != nil {
			logger.WithError(err).Error("shutdown failed")
		}
	}()

	return srv.Run()
}
