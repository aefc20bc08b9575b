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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"job-assistant/config"
	"job-assistant/infrastructure"
	"job-assistant/interfaces"
	"job-assistant/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting the job-assistant", zap.String("version", version))

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("initializing dependencies", zap.Error(err))
		return err
	}
	defer cleanup()

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           interfaces.NewRouter(deps, cfg.Server.BasePath, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr), zap.String("base_path", cfg.Server.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := infrastructure.OpenDatabase(cfg.Database, logger)
	if err != nil {
		return interfaces.Dependencies{}, cleanup, err
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, func() { _ = sqlDB.Close() })
	}
	if cfg.Database.AutoMigrate {
		if err := infrastructure.Migrate(ctx, db, cfg.Database.Seed, logger); err != nil {
			return interfaces.Dependencies{}, cleanup, err
		}
	}

	storage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return interfaces.Dependencies{}, cleanup, err
	}
	text, err := newTextExtractor(storage, cfg.PDF, logger)
	if err != nil {
		return interfaces.Dependencies{}, cleanup, err
	}
	extractor, err := newExtractor(ctx, cfg.LLM, logger)
	if err != nil {
		return interfaces.Dependencies{}, cleanup, err
	}

	opts := pipeline.Options{Logger: logger, MaxLogLength: cfg.LLM.MaxLogLength}
	deps := interfaces.Dependencies{
		Store:          infrastructure.NewStore(db),
		Storage:        storage,
		Resumes:        pipeline.NewResumeParser(text, extractor, opts),
		Jobs:           pipeline.NewJobParser(extractor, opts),
		Matcher:        pipeline.NewMatcher(extractor, opts),
		CoverLetters:   pipeline.NewCoverLetterGenerator(extractor, cfg.LLM.CoverLetterTimeout, opts),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}

	if cfg.Queue.URL != "" {
		rmq, err := infrastructure.NewRabbitMQ(cfg.Queue.URL, cfg.Queue.Name, logger.Named("rabbitmq"))
		if err != nil {
			// Match events are optional; serve without them.
			logger.Warn("match events disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { _ = rmq.Close() })
			deps.Publisher = rmq
		}
	}

	return deps, cleanup, nil
}
