package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/datenai/datalab/internal/config"
	"github.com/datenai/datalab/internal/dataset"
	"github.com/datenai/datalab/internal/engine"
	"github.com/datenai/datalab/internal/logger"
	"github.com/datenai/datalab/internal/observability"
	"github.com/datenai/datalab/internal/oracle"
	"github.com/datenai/datalab/internal/registry"
	"github.com/datenai/datalab/internal/resultstore"
	"github.com/datenai/datalab/internal/runner"
	"github.com/datenai/datalab/internal/stream"
	"github.com/datenai/datalab/internal/suggest"
	"github.com/datenai/datalab/tui"
	"github.com/datenai/datalab/web/api"
)

var version = "dev"

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	watchCmd.Flags().String("api", "http://127.0.0.1:8080", "base URL of a running datalab server")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis engine and HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log := logger.New(logger.ParseLevel(cfg.Logging.Level))

		metrics, metricsHandler, shutdownMetrics, err := observability.Init()
		if err != nil {
			return err
		}
		defer shutdownMetrics(context.Background())

		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		results, err := resultstore.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening result store: %w", err)
		}
		defer results.Close()

		datasets := dataset.NewStore()
		bus := stream.NewBus()
		orc := oracle.NewClient(cfg.Oracle.BaseURL, cfg.OracleAPIKey(), cfg.Oracle.Model)

		eng := engine.New(engine.Options{
			Registry:       registry.New(),
			Bus:            bus,
			Oracle:         orc,
			Runner:         runner.New(cfg.Runner.Interpreter, cfg.RunnerTimeout()),
			Datasets:       datasets,
			Results:        results,
			Metrics:        metrics,
			Logger:         log,
			MaxFixAttempts: cfg.Engine.MaxFixAttempts,
		})

		if cfg.Engine.DatasetDir != "" {
			watcher, err := dataset.NewWatcher(datasets, cfg.Engine.DatasetDir, log)
			if err != nil {
				return fmt.Errorf("creating dataset watcher: %w", err)
			}
			if err := watcher.Start(context.Background()); err != nil {
				return fmt.Errorf("watching %s: %w", cfg.Engine.DatasetDir, err)
			}
			defer watcher.Stop()
			log.Info("watching dataset directory", "dir", cfg.Engine.DatasetDir)
		}

		sweeper := cron.New()
		datasetTTL := cfg.DatasetTTL()
		resultTTL := 30 * 24 * time.Hour
		_, err = sweeper.AddFunc(cfg.Engine.SweepSchedule, func() {
			if n := datasets.RemoveExpired(datasetTTL); n > 0 {
				log.Info("expired datasets removed", "count", n)
			}
			if n, err := results.RemoveExpired(resultTTL); err == nil && n > 0 {
				log.Info("expired results removed", "count", n)
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling sweep: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()

		suggester := suggest.NewService(orc, log)
		server := api.NewServer(eng, bus, datasets, results, suggester, metricsHandler, log, cfg.Server.Addr)
		return server.Start()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a terminal dashboard for a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiURL, _ := cmd.Flags().GetString("api")
		return tui.Run(apiURL)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the datalab version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}
