package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"monoshift/internal/agents"
	"monoshift/internal/boundary"
	"monoshift/internal/config"
	"monoshift/internal/knowledge"
	"monoshift/internal/llm"
	"monoshift/internal/pipeline"
	"monoshift/internal/repo"
	"monoshift/internal/server"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "monoshift",
	Short: "monoshift - LLM-assisted monolith to microservices migration",
	Long: `monoshift analyzes a monolithic repository, identifies microservice
boundaries, and generates refactored service code for each boundary.

Every source file is accounted for: files no service claims end up in
a SharedOrUnassigned bucket so nothing is silently dropped.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// analyzeCmd runs one migration end to end and prints the report.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url-or-path>",
	Short: "Run a full migration analysis against a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer app.close()

		ctx, cancel := signalContext()
		defer cancel()

		report, err := app.run(ctx, uuid.NewString(), args[0])
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// serveCmd starts the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the migration API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		app, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer app.close()

		store := server.NewRunStore(cfg.Server.RunTTL, cfg.Server.MaxRuns)
		srv := server.New(store, app.run, app.index, logger)

		httpSrv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, cancel := signalContext()
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return httpSrv.Shutdown(shutdownCtx)
		}
	},
}

// app holds the wired collaborators shared across runs.
type app struct {
	cfg    config.Config
	index  *knowledge.Index
	store  *knowledge.Store
	client llm.Client

	analyzer  *agents.Analyzer
	architect *agents.Architect
	developer *agents.Developer
	mapper    *boundary.Mapper
}

func buildApp(cfg config.Config) (*app, error) {
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, client: client}

	if cfg.Embedding.Enabled {
		embedder, err := knowledge.NewGenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model)
		if err != nil {
			logger.Warn("embedding disabled", zap.Error(err))
		} else {
			store, err := knowledge.NewStore(cfg.Embedding.DBPath)
			if err != nil {
				return nil, fmt.Errorf("open knowledge store: %w", err)
			}
			a.store = store
			a.index = knowledge.NewIndex(embedder, store, logger)
		}
	}

	parser := repo.NewParser(logger, cfg.Repo.ScanWorkers)
	a.mapper = boundary.NewMapper(logger)
	a.analyzer = agents.NewAnalyzer(parser, client, a.index, logger)
	a.architect = agents.NewArchitect(client, a.mapper, logger)
	a.developer = agents.NewDeveloper(client, cfg.Developer, logger)
	return a, nil
}

// run executes one migration on a fresh orchestrator.
func (a *app) run(ctx context.Context, runID, repoURL string) (*pipeline.RunReport, error) {
	orch := pipeline.New(a.cfg.Pipeline, a.analyzer, a.architect, a.developer, a.mapper, logger)
	return orch.Run(ctx, runID, repoURL)
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
