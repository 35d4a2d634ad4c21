package config

// Default configuration values.
const (
	DefaultPort        = 6379
	DefaultBind        = "0.0.0.0"
	DefaultAOFFile     = "aof.log"
	DefaultAOFEnabled  = true
	DefaultAOFFsync    = "always"
	DefaultShards      = 64
	DefaultWorkers     = 4
	DefaultMaxClients  = 0
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsAddr = ""
)

// Accepted ranges.
const (
	MinPort    = 1
	MaxPort    = 65535
	MaxShards  = 1024
	MaxWorkers = 1024
)

// Keys lists every recognized setting.
var Keys = []string{
	"port", "bind", "aof_file", "aof_enabled", "aof_fsync", "shards",
	"workers", "max_clients", "log_level", "log_format", "metrics_addr",
}

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Port:        DefaultPort,
		Bind:        DefaultBind,
		AOFFile:     DefaultAOFFile,
		AOFEnabled:  DefaultAOFEnabled,
		AOFFsync:    DefaultAOFFsync,
		Shards:      DefaultShards,
		Workers:     DefaultWorkers,
		MaxClients:  DefaultMaxClients,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		MetricsAddr: DefaultMetricsAddr,
	}
}
