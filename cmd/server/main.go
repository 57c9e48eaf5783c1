// Command server is gridwar's composition root: it loads configuration,
// builds the world, wires session/security/metrics/engine/transport, and
// serves the websocket and metrics endpoints until signaled to stop —
// the same load-build-serve-wait-for-signal shape as the teacher's
// cmd/server/main.go, generalized from flag.* to pkg/config's koanf
// loader and from a raw TCP listener to pkg/transport's websocket
// server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/StoreStation/gridwar/pkg/config"
	"github.com/StoreStation/gridwar/pkg/game"
	"github.com/StoreStation/gridwar/pkg/gamelog"
	"github.com/StoreStation/gridwar/pkg/metrics"
	"github.com/StoreStation/gridwar/pkg/security"
	"github.com/StoreStation/gridwar/pkg/session"
	"github.com/StoreStation/gridwar/pkg/transport"
	"github.com/StoreStation/gridwar/pkg/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := gamelog.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	seed := cfg.Seed()
	log.Info("generating world", zap.Int("size", cfg.World.Size), zap.Int64("seed", seed))
	w := world.Generate(cfg.World.ToGenConfig(), seed)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// engine and trans forward-reference each other: the session
	// manager's eviction callback and the engine's publisher both need
	// to reach components constructed after them. Capturing these
	// pointer variables (not their zero values) in closures resolves it,
	// same as the teacher's Server holding a pointer to itself across
	// its own goroutines.
	var engine *game.Engine
	var trans *transport.Server

	sessions := session.NewManager([]byte(cfg.Session.Secret), func(playerID, sessionID string) {
		engine.EvictPlayer(playerID, sessionID)
	})
	limiter := security.NewRateLimiter(security.DefaultRateLimitConfig())
	guard := security.NewGuard(security.DefaultReplayConfig())
	dashboard := security.NewDashboard(guard)

	engine = game.New(game.Config{
		World:    w,
		Sessions: sessions,
		Limiter:  limiter,
		Guard:    guard,
		Metrics:  collector,
		Publish:  func(b game.Broadcast) { trans.Publish(b) },
	})

	trans = transport.New(transport.Config{Addr: cfg.Listen.Addr, Path: cfg.Listen.Path}, engine, log, cfg.Admin.Key, dashboard)

	sessions.Start()
	limiter.Start()
	guard.Start()

	if err := trans.Start(); err != nil {
		log.Fatal("failed to start transport", zap.Error(err))
	}
	log.Info("gridwar server started", zap.String("listen", cfg.Listen.Addr), zap.String("metrics", cfg.Metrics.Addr))

	metricsMux := http.NewServeMux()
	metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", zap.String("signal", sig.String()))

	trans.Stop()
	metricsSrv.Shutdown(context.Background())
	guard.Stop()
	limiter.Stop()
	sessions.Stop()

	log.Info("gridwar server stopped")
}
