// Command client is the headless replication client used by bots and
// integration tests, and the same net layer the real game client links
// against. Grounded on the same core/main.go config-then-signal-wait
// shape as cmd/server, generating its own player identity the way
// Atsika-aznet's connection handler mints a connection id with
// uuid.New().
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deceiver-net/deceiver-net/internal/config"
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/session"
	"github.com/deceiver-net/deceiver-net/internal/telemetry"
	"github.com/deceiver-net/deceiver-net/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to client config JSON")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return err
	}

	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logger.Sync()

	serverAddr, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}

	sock, err := transport.Listen(":0")
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	defer sock.Close()

	world := entity.NewWorld()
	playerUUID := uuid.New()
	c := session.NewClient(world, [16]byte(playerUUID))

	counters := telemetry.NewCounters()
	c.OnPacketSent = counters.AddSent

	logger.Info("connecting",
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("player_uuid", playerUUID.String()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go sock.Run(ctx)

	start := time.Now()
	c.Connect(serverAddr, time.Since(start).Seconds())

	ticker := time.NewTicker(time.Duration(float64(time.Second) * session.TickRate))
	defer ticker.Stop()

	lastState := c.State
	for {
		select {
		case <-ctx.Done():
			logger.Info("disconnecting")
			return nil
		case <-ticker.C:
			now := time.Since(start).Seconds()

			for _, d := range sock.Drain() {
				counters.AddReceived(len(d.Data))
				if err := c.HandlePacket(d.Data, now); err != nil {
					counters.AddDropped()
					logger.Warn("packet rejected", zap.Error(err))
				}
			}

			if err := c.Tick(sock, now); err != nil {
				logger.Warn("tick error", zap.Error(err))
			}

			if c.State != lastState {
				logger.Info("state transition", zap.String("from", lastState.String()), zap.String("to", c.State.String()))
				lastState = c.State
			}
			if c.State == session.Disconnected {
				logger.Warn("connection timed out")
				return nil
			}
		}
	}
}
