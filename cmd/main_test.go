package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artchsh/portfolio/internal/adapters/relay"
	app "github.com/artchsh/portfolio/internal/app"
	"github.com/artchsh/portfolio/internal/config"
	"github.com/artchsh/portfolio/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig(relayURL string) *config.Config {
	cfg := config.New(context.Background())
	cfg.Addr = "127.0.0.1:0"
	cfg.RelayURL = relayURL
	cfg.RelayTimeoutMS = 1000
	cfg.WorkerCount = 2
	cfg.QueueSize = 8
	return cfg
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("PORTFOLIO_ADDR", ":9090")
		t.Setenv("PORTFOLIO_QUEUE_SIZE", "1000")
		t.Setenv("PORTFOLIO_WORKER_COUNT", "4")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("PORTFOLIO_ADDR", " ")

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the full route table backed by a live relay", t, func() {
		var relayed atomic.Int32
		relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			relayed.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer relaySrv.Close()

		ctx := context.Background()
		cfg := testConfig(relaySrv.URL)
		svc := app.New(
			app.WithRelay(relay.New(cfg.RelayURL, relay.WithTimeout(cfg.RelayTimeout()))),
			app.WithWorkerCount(cfg.WorkerCount),
			app.WithQueueSize(cfg.QueueSize),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux, err := newMux(ctx, cfg, svc)
		convey.So(err, convey.ShouldBeNil)

		routes := []struct {
			method, path string
			want         int
		}{
			{http.MethodGet, "/", http.StatusOK},
			{http.MethodGet, "/static/site.css", http.StatusOK},
			{http.MethodGet, "/healthz", http.StatusOK},
			{http.MethodGet, "/stats", http.StatusOK},
			{http.MethodGet, "/openapi.yaml", http.StatusOK},
			{http.MethodGet, "/api-docs", http.StatusOK},
			{http.MethodGet, "/nope", http.StatusNotFound},
		}
		for _, rt := range routes {
			convey.Convey("Then "+rt.method+" "+rt.path+" answers", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, rt.want)
			})
		}

		convey.Convey("When a contact submission is posted to the API", func() {
			body := `{"name":"Artyom","email":"artyom@example.com","message":"Hello, I'd like to collaborate."}`
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body)))

			convey.Convey("Then it reaches the relay", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)
				convey.So(relayed.Load(), convey.ShouldEqual, int32(1))
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration listening on a free port", t, func() {
		relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		defer relaySrv.Close()
		cfg := testConfig(relaySrv.URL)

		convey.Convey("When the root context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return")
				}
			})
		})

		convey.Convey("When the address cannot be bound", func() {
			cfg.Addr = "256.0.0.1:1"
			err := run(context.Background(), cfg)

			convey.Convey("Then run reports the listen error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "http server")
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		svc := app.New(app.WithRelay(relay.New("http://127.0.0.1:1")))

		convey.Convey("When their context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then they return", func() {
				convey.So(func() {
					startSystemMetricsUpdater(ctx)
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("Then a single update does not panic", func() {
			convey.So(func() {
				updateSystemMetrics()
				updateServiceMetrics(svc)
			}, convey.ShouldNotPanic)
		})
	})
}
