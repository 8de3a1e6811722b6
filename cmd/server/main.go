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

	"go.uber.org/zap"

	"github.com/kebapps/pagesmith/internal/bundler"
	"github.com/kebapps/pagesmith/internal/config"
	"github.com/kebapps/pagesmith/internal/logger"
	"github.com/kebapps/pagesmith/internal/pipeline"
	"github.com/kebapps/pagesmith/internal/publish"
	"github.com/kebapps/pagesmith/internal/registry"
	"github.com/kebapps/pagesmith/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Load(cfg.Templates.Dir)
	if err != nil {
		return err
	}
	log.Info("templates loaded",
		zap.String("dir", cfg.Templates.Dir),
		zap.Int("count", reg.Len()))

	if err := os.MkdirAll(cfg.Build.Dir, 0o755); err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}

	publishers := []pipeline.Publisher{publish.NewLocalPublisher(cfg.Publish.Dir)}
	if cfg.S3.Enabled {
		s3pub, err := publish.NewS3Publisher(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region)
		if err != nil {
			return fmt.Errorf("init s3 publisher: %w", err)
		}
		publishers = append(publishers, s3pub)
		log.Info("s3 publishing enabled", zap.String("bucket", cfg.S3.Bucket))
	}

	engine := bundler.NewEngine(log, cfg.Build.NodeModules)
	svc := pipeline.NewService(log, reg, engine, publishers, cfg.Build.Dir, cfg.Build.Timeout())
	srv := server.New(log, svc, reg, cfg.Server.CORSOrigins)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
