package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/adapter/postgres"
	redis_adapter "github.com/Yasuno-5555/investidabh/internal/adapter/redis"
	"github.com/Yasuno-5555/investidabh/internal/delivery/http/handler"
	"github.com/Yasuno-5555/investidabh/internal/delivery/http/router"
	"github.com/Yasuno-5555/investidabh/internal/usecase"
	"github.com/Yasuno-5555/investidabh/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// NewWorkerCmd creates the command that runs the queue consumer and its HTTP endpoints.
func NewWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume collection tasks until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(parent context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	if err := cfg.ValidateConnections(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info("redis connection established")

	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("postgres connection pool established")

	objects, err := newObjectStore(cfg)
	if err != nil {
		return err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return err
	}
	log.Info("object storage ready", zap.String("bucket", cfg.MinioBucket))

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Repositories ---
	queue := redis_adapter.NewQueueRepo(rdb, cfg.QueuePollTimeout())
	events := redis_adapter.NewEventRepo(rdb)
	submissions := redis_adapter.NewSubmissionRepo(rdb)
	artifacts := postgres.NewArtifactRepo(pool)
	investigations := postgres.NewInvestigationRepo(pool)

	// --- Collection ---
	outbound, err := newCollection(cfg, log)
	if err != nil {
		return err
	}
	if cfg.RotationEnabled && !outbound.proxies.Enabled() {
		// Not fatal at startup; every task fails closed until a proxy is configured.
		log.Error("TOR_ROTATION_ENABLED is set but TOR_PROXY_URL is empty, tasks will be rejected")
	}

	// --- Use Cases ---
	store := usecase.NewArtifactStore(objects, artifacts, m, log)
	dispatcher := usecase.NewDispatcher(usecase.DispatcherDeps{
		Queue:          queue,
		Validator:      newValidator(cfg, log),
		Rotator:        newController(cfg, log),
		Fetcher:        outbound.fetcher,
		Collectors:     outbound.collectors,
		Store:          store,
		Investigations: investigations,
		Events:         events,
		Metrics:        m,
		Logger:         log,
	}, usecase.DispatcherOptions{
		MaxRetries:      cfg.MaxRetries,
		Concurrency:     cfg.WorkerConcurrency,
		Proxy:           outbound.proxies.ProxyURL(),
		RotationEnabled: cfg.RotationEnabled,
		RotationStrict:  cfg.RotationStrict,
	})
	submitter := usecase.NewTaskSubmitter(queue, submissions, log)

	// --- HTTP Server ---
	h := handler.NewHandler(submitter, queue, investigations, m, log)
	server := newHTTPServer(cfg, router.New(h, m, reg, log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	err = g.Wait()
	log.Info("worker exiting")
	return err
}
