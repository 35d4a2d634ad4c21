package config

import (
	"log/slog"
	"net"
	"strconv"
)

// ServerConfig is the root configuration for shardkv-server.
type ServerConfig struct {
	Port        int    `koanf:"port"`
	Bind        string `koanf:"bind"`
	AOFFile     string `koanf:"aof_file"`
	AOFEnabled  bool   `koanf:"aof_enabled"`
	AOFFsync    string `koanf:"aof_fsync"`
	Shards      int    `koanf:"shards"`
	Workers     int    `koanf:"workers"`
	MaxClients  int    `koanf:"max_clients"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// ListenAddr returns the host:port the server binds.
func (c *ServerConfig) ListenAddr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// LogValue implements slog.LogValuer.
func (c *ServerConfig) LogValue() slog.Value {
	aofFile := c.AOFFile
	if !c.AOFEnabled {
		aofFile = ""
	}
	return slog.GroupValue(
		slog.String("listen", c.ListenAddr()),
		slog.Bool("aof_enabled", c.AOFEnabled),
		slog.String("aof_file", aofFile),
		slog.String("aof_fsync", c.AOFFsync),
		slog.Int("shards", c.Shards),
		slog.Int("workers", c.Workers),
		slog.Int("max_clients", c.MaxClients),
		slog.String("log_level", c.LogLevel),
		slog.String("log_format", c.LogFormat),
		slog.String("metrics_addr", c.MetricsAddr),
	)
}
