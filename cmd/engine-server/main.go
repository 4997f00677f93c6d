// cmd/engine-server/main.go
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
	"golang.org/x/sync/errgroup"

	"opportunity-engine/internal/api"
	"opportunity-engine/internal/common/camunda"
	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/common/observability"
)

const drainTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	if err := run(cfg, logger.NewZapAdapter(zapLog)); err != nil {
		zapLog.Fatal("engine server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	log.Info("Starting engine server...", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("otel meter provider unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
	}
	defer obs.Shutdown(context.Background())

	b, err := connectBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	reg, err := loadRegistry(cfg)
	if err != nil {
		return fmt.Errorf("model registry: %w", err)
	}
	if reg.HasPlaceholders() {
		log.Warn("serving placeholder models", map[string]interface{}{"models": reg.Names()})
	}
	log.Info("model registry loaded", map[string]interface{}{
		"version": reg.Version(),
		"models":  reg.Names(),
	})

	app, err := buildApp(cfg, b, reg, obs, log)
	if err != nil {
		return err
	}

	var zeebe *camunda.Client
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			return err
		}
		defer zeebe.Close()
		log.Info("Zeebe client connected successfully", nil)

		for _, h := range app.handlers {
			if !h.IsEnabled() {
				log.Info("worker disabled", map[string]interface{}{"taskType": h.TaskType()})
				continue
			}
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), h.TaskType(), h.Options(), h, log))
		}
		log.Info("workers registered", map[string]interface{}{"count": len(workers)})
	}

	checks := b.checks()
	for name, check := range app.checks {
		checks[name] = check
	}
	if zeebe != nil {
		checks["zeebe"] = zeebe.HealthCheck
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewServer(api.Options{
			Services: app.services,
			Server:   cfg.Server,
			Version:  cfg.App.Version,
			Logger:   log,
			Checks:   checks,
		}).Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutdown signal received, draining...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()

		for _, w := range workers {
			w.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Engine server stopped gracefully", nil)
	return nil
}
