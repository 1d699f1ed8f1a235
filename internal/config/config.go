// Package config loads the JSON configuration files the server and
// client binaries start from, the way cppla-moto's config package loads
// setting.json: package-level LoadServer/LoadClient functions, an
// environment variable supplying the file path when none is given, and
// per-section default-filling and validation that returns descriptive
// errors instead of panicking.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// EnvOverride is the environment variable LoadServer/LoadClient read the
// config file path from when they are given an empty path, mirroring
// cppla-moto's MOTO_CONFIG.
const EnvOverride = "DECEIVER_NET_CONFIG"

// Log holds the telemetry section shared by both binaries.
type Log struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

// Server is the dedicated server's configuration.
type Server struct {
	ListenAddr     string  `json:"listen_addr"`
	MaxClients     int     `json:"max_clients"`
	TickRate       float64 `json:"tick_rate"`
	Log            Log     `json:"log"`
	MetricsAddr    string  `json:"metrics_addr"`
	NavmeshPath    string  `json:"navmesh_path"`
	ReverbBakePath string  `json:"reverb_bake_path"`
}

// Client is the game client's net-layer configuration.
type Client struct {
	ServerAddr string `json:"server_addr"`
	Log        Log    `json:"log"`
}

func defaultServer() Server {
	return Server{
		ListenAddr:     ":7777",
		MaxClients:     8,
		TickRate:       60,
		Log:            Log{Level: "info", Path: "log/server.log"},
		MetricsAddr:    ":9090",
		NavmeshPath:    "mod/nav.bin",
		ReverbBakePath: "mod/reverb.bin",
	}
}

func defaultClient() Client {
	return Client{
		ServerAddr: "127.0.0.1:7777",
		Log:        Log{Level: "info", Path: "log/client.log"},
	}
}

// LoadServer reads path (or the EnvOverride path if path is empty) over
// the values of defaultServer, restores an empty listen address, a
// non-positive tick rate and an empty log level to their defaults, and
// rejects a non-positive max_clients. Other fields set empty in the file
// stay empty.
func LoadServer(path string) (Server, error) {
	cfg := defaultServer()
	if err := loadJSON(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultServer().ListenAddr
	}
	if cfg.MaxClients <= 0 {
		return cfg, fmt.Errorf("config: max_clients must be positive, got %d", cfg.MaxClients)
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultServer().TickRate
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}

// LoadClient is LoadServer's client counterpart.
func LoadClient(path string) (Client, error) {
	cfg := defaultClient()
	if err := loadJSON(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ServerAddr == "" {
		return cfg, fmt.Errorf("config: server_addr must not be empty")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}

func loadJSON(path string, out any) error {
	if path == "" {
		path = os.Getenv(EnvOverride)
	}
	if path == "" {
		return nil // no file given; caller's defaults stand
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}
