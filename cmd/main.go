package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/artchsh/portfolio/internal/adapters/http/api"
	"github.com/artchsh/portfolio/internal/adapters/http/site"
	"github.com/artchsh/portfolio/internal/adapters/http/swagger"
	"github.com/artchsh/portfolio/internal/adapters/relay"
	app "github.com/artchsh/portfolio/internal/app"
	"github.com/artchsh/portfolio/internal/config"
	"github.com/artchsh/portfolio/pkg/logger"
	"github.com/artchsh/portfolio/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if cfg.LogJSON {
		_ = logger.Init(logger.WithJSON(true))
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server exited", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run starts the submission service and the HTTP server and blocks until ctx
// ends, then shuts both down.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	relayClient := relay.New(cfg.RelayURL,
		relay.WithTimeout(cfg.RelayTimeout()),
		relay.WithLogger(log.Named("relay")),
	)
	svc := app.New(
		app.WithRelay(relayClient),
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	mux, err := newMux(ctx, cfg, svc)
	if err != nil {
		_ = svc.Stop(context.Background())
		return err
	}
	srv := newHTTPServer(cfg.Addr, mux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("relay", relayClient.Endpoint()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Stop taking requests first, then let queued submissions drain.
		err := srv.Shutdown(shutdownCtx)
		if serr := svc.Stop(shutdownCtx); serr != nil {
			err = errors.Join(err, serr)
		}
		log.Info(context.Background(), "server stopped")
		return err
	})
	return g.Wait()
}

// newMux registers every route of the site on a fresh mux.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	// API docs at /api-docs and /openapi.yaml
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, api.WithMaxBodyBytes(cfg.MaxBodyBytes))
	apiServer.Register(ctx, mux)

	pages, err := site.NewHandler(svc,
		site.WithSiteURL(cfg.SiteURL),
		site.WithAnalytics(cfg.AnalyticsScriptURL, cfg.AnalyticsWebsiteID),
		site.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	if err != nil {
		return nil, err
	}
	site.Register(ctx, mux, pages)
	return mux, nil
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		// No WriteTimeout: a contact post waits on the relay, which has its
		// own timeout.
	}
}

// startSystemMetricsUpdater updates system metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater updates service metrics until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes queue and worker gauges from the service.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
