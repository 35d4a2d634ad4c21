package config

import (
	"log/slog"

	"github.com/yndnr/shardkv/internal/server/redisserver"
	"github.com/yndnr/shardkv/internal/storage"
	"github.com/yndnr/shardkv/internal/storage/aof"
)

// ToStorageConfig maps the server configuration onto the storage engine.
func ToStorageConfig(cfg *ServerConfig, logger *slog.Logger) storage.Config {
	sc := storage.DefaultConfig()
	sc.ShardCount = cfg.Shards
	sc.AOFEnabled = cfg.AOFEnabled
	sc.AOF = aof.DefaultConfig(cfg.AOFFile)
	if mode, ok := aof.ParseSyncMode(cfg.AOFFsync); ok {
		sc.AOF.SyncMode = mode
	}
	sc.Logger = logger
	return sc
}

// ToRedisConfig maps the server configuration onto the protocol server.
func ToRedisConfig(cfg *ServerConfig) *redisserver.Config {
	rc := redisserver.DefaultConfig()
	rc.Host = cfg.Bind
	rc.Port = cfg.Port
	rc.Workers = cfg.Workers
	rc.MaxClients = cfg.MaxClients
	return rc
}
