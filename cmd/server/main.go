// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for the scuttle audio server.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: load settings from environment variables and a
//     config file (Koanf v2).
//  2. Event bus: the synchronous (source, action) -> handlers broker
//     every mutating component publishes through.
//  3. Catalog: open the DuckDB-backed library/playlist store, seed it
//     from a bootstrap CSV on first run, and sweep orphaned downloads.
//  4. Queues: the observable play and download queues, each publishing
//     its mutations onto the event bus.
//  5. Broadcaster: the websocket hub fanning bus events out to clients,
//     wired to the bus via the predefined subscription list.
//  6. Fetcher, post-processing pipeline, download worker: the pipeline
//     that turns a queued download job into a committed, playable file.
//  7. Streamer: the byte-range HTTP file server.
//  8. Supervisor tree: a suture v4 goroutine tree running the worker,
//     broadcaster, and HTTP server as independently-restartable
//     services.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, an optional config file, and
// built-in defaults. See internal/config for the full key set.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the root
// context is canceled, the supervisor tree drains each service in
// dependency order, and the catalog connection is checkpointed and
// closed last.
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	gorilla "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/whimsypingu/scuttle-go/internal/catalog"
	"github.com/whimsypingu/scuttle-go/internal/config"
	"github.com/whimsypingu/scuttle-go/internal/eventbus"
	"github.com/whimsypingu/scuttle-go/internal/fetcher"
	"github.com/whimsypingu/scuttle-go/internal/logging"
	"github.com/whimsypingu/scuttle-go/internal/middleware"
	"github.com/whimsypingu/scuttle-go/internal/postprocess"
	"github.com/whimsypingu/scuttle-go/internal/queue"
	"github.com/whimsypingu/scuttle-go/internal/streamer"
	"github.com/whimsypingu/scuttle-go/internal/supervisor"
	"github.com/whimsypingu/scuttle-go/internal/supervisor/services"
	ws "github.com/whimsypingu/scuttle-go/internal/websocket"
	"github.com/whimsypingu/scuttle-go/internal/wiring"
	"github.com/whimsypingu/scuttle-go/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().Str("root", cfg.Root.Dir).Msg("starting scuttle server")

	bus := eventbus.New()

	cat, err := catalog.Open(catalog.Config{
		Path:      cfg.Root.CatalogPath(),
		MaxMemory: cfg.Catalog.MaxMemory,
	}, bus.Publish)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open catalog")
	}
	defer func() {
		if err := cat.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing catalog")
		}
	}()

	seedPath := cfg.Root.SeedCSVPath()
	if _, err := os.Stat(seedPath); err == nil {
		if err := cat.SeedFromCSV(seedPath); err != nil {
			logging.Warn().Err(err).Str("path", seedPath).Msg("seed CSV import failed")
		}
	}
	if err := cat.SweepOrphans(cfg.Root.DownloadDir()); err != nil {
		logging.Warn().Err(err).Msg("orphan download sweep failed")
	}

	playQueue := queue.NewPlayQueue(wiring.SourcePlayQueue, bus.Publish)
	downloadQueue := queue.NewDownloadQueue(wiring.SourceDownloadQueue, bus.Publish)

	hub := ws.NewHub()
	wiring.Subscribe(bus, hub)

	ft := fetcher.New(fetcher.Config{
		BinPath:        cfg.Fetcher.BinPath,
		DownloadDir:    cfg.Root.DownloadDir(),
		SourceTag:      cfg.Fetcher.SourceTag,
		SearchLimit:    cfg.Fetcher.SearchLimit,
		Timeout:        cfg.Fetcher.Timeout,
		RatePerSecond:  cfg.Fetcher.RatePerSecond,
		BreakerTimeout: cfg.Fetcher.BreakerTimeout,
	}, bus.Publish)

	pipeline := postprocess.New(postprocess.Config{
		FFmpegBin:   cfg.Post.FFmpegBin,
		FFprobeBin:  cfg.Post.FFprobeBin,
		TargetCodec: cfg.Post.TargetCodec,
	})

	w := worker.New(worker.Config{
		DownloadQueue: downloadQueue,
		PlayQueue:     playQueue,
		Fetcher:       ft,
		Catalog:       cat,
		Pipeline:      pipeline,
		SentinelQuery: cfg.Worker.ShutdownSentinelQuery,
	})

	str := streamer.New(cfg.Root.DownloadDir())

	router := buildRouter(str, hub)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Streamer.Host, cfg.Streamer.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddFetchWorkerService(services.NewWorkerService(w))
	tree.AddBroadcastService(services.NewBroadcastService(hub))
	tree.AddProcessService(services.NewHTTPServerService(httpServer, 10*time.Second))

	logging.Info().Str("addr", httpServer.Addr).Msg("http server service added to supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("scuttle server stopped")
}

// buildRouter mounts the streamer's byte-range routes, the websocket
// upgrade endpoint, and the Prometheus /metrics endpoint, wrapping the
// whole mux in the ambient middleware stack.
func buildRouter(str *streamer.Streamer, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowCredentials: false,
	}))
	r.Use(httprate.LimitAll(120, time.Minute))

	str.Routes(r)

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		client := ws.NewClient(hub, conn)
		hub.Connect(client)
		client.Start()
	})

	r.Handle("/metrics", promhttp.Handler())

	handler := middleware.RequestID(middleware.Compression(middleware.PrometheusMetrics(r.ServeHTTP)))
	return handler
}

var wsUpgrader = gorilla.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
