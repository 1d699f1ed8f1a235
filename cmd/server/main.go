// Command server runs the authoritative dedicated server: binds the
// replication socket, drains it once per tick, and serves Prometheus
// metrics alongside it. Grounded on source/server/server.go's
// bind-then-update-loop shape and core/main.go's config-then-signal-
// wait structure, replacing the SA-MP RakNet stack with the
// deterministic replication core.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/deceiver-net/deceiver-net/internal/config"
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/navmesh"
	"github.com/deceiver-net/deceiver-net/internal/session"
	"github.com/deceiver-net/deceiver-net/internal/telemetry"
	"github.com/deceiver-net/deceiver-net/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to server config JSON")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return err
	}

	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting server",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Int("max_clients", cfg.MaxClients),
		zap.Float64("tick_rate", cfg.TickRate),
	)

	world := entity.NewWorld()
	srv := session.NewServer(world, cfg.MaxClients)

	counters := telemetry.NewCounters()
	srv.OnPacketSent = counters.AddSent
	collector := telemetry.NewCollector(counters)

	sock, err := transport.Listen(cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	defer sock.Close()

	if compiled, ok := loadNavmesh(logger, cfg.NavmeshPath); ok {
		logger.Info("navmesh loaded",
			zap.Int("samples", len(compiled.Graph.Samples)),
			zap.Int("reverb_cells", len(compiled.Reverb.Cells)),
		)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go sock.Run(ctx)
	go func() {
		if err := telemetry.ServeMetrics(ctx, cfg.MetricsAddr, collector); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	tick := time.Duration(float64(time.Second) / cfg.TickRate)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	start := time.Now()
	known := make(map[int]bool)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			now := time.Since(start).Seconds()

			for _, d := range sock.Drain() {
				counters.AddReceived(len(d.Data))
				if err := srv.HandlePacket(d.Addr, d.Data, now); err != nil {
					counters.AddDropped()
					logger.Warn("packet rejected", zap.String("addr", d.Addr.String()), zap.Error(err))
				}
			}

			srv.Tick(sock, now)
			reportSessions(logger, srv, counters, known)
		}
	}
}

// reportSessions logs connect/disconnect transitions by diffing the
// slot set it saw last tick against this tick's, since session.Server
// exposes no event stream of its own.
func reportSessions(logger *zap.Logger, srv *session.Server, counters *telemetry.Counters, known map[int]bool) {
	seen := make(map[int]bool, len(srv.Sessions()))
	for i, cs := range srv.Sessions() {
		if cs == nil {
			continue
		}
		seen[i] = true
		if !known[i] {
			logger.Info("client connected",
				zap.Int("client_id", i),
				zap.String("log_id", cs.LogID),
				zap.String("addr", cs.Addr.String()),
			)
		}
	}
	for i := range known {
		if !seen[i] {
			logger.Info("client disconnected", zap.Int("client_id", i))
			counters.ClearSession(i)
		}
	}
	for i := range known {
		delete(known, i)
	}
	for i := range seen {
		known[i] = true
	}
}

func loadNavmesh(logger *zap.Logger, path string) (*navmesh.Compiled, bool) {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("navmesh not loaded", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	defer f.Close()

	compiled, err := navmesh.ReadFile(f)
	if err != nil {
		logger.Warn("navmesh read failed", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return compiled, true
}
