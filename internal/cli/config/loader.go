package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/shardkv/internal/infra/confloader"
)

// EnvPrefix is the environment prefix for CLI settings.
const EnvPrefix = "SHARDKV_CLI_"

// Load reads the CLI configuration file and environment. An empty path
// uses DefaultConfigPath. A missing file yields the defaults. Values that
// do not parse keep their defaults and are returned as warnings.
func Load(path string) (*CLIConfig, []string, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	loader := confloader.NewLoader(
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithConfigFile(path),
	)
	if err := loader.Load(); err != nil {
		return Default(), nil, err
	}

	cfg := Default()
	var warnings []string
	for key, v := range loader.All() {
		raw := strings.TrimSpace(fmt.Sprint(v))
		if msg := apply(cfg, key, raw); msg != "" {
			warnings = append(warnings, fmt.Sprintf("%s=%q: %s", key, raw, msg))
		}
	}
	return cfg, warnings, nil
}

func apply(cfg *CLIConfig, key, raw string) string {
	switch key {
	case "host":
		if raw == "" {
			return "empty host"
		}
		cfg.Host = raw
	case "port":
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 65535 {
			return "want 1..65535"
		}
		cfg.Port = n
	case "output":
		switch raw {
		case "text", "raw", "json":
			cfg.Output = raw
		default:
			return "want text, raw or json"
		}
	case "history_file":
		cfg.HistoryFile = raw
	case "timeout":
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return "not a duration"
		}
		cfg.Timeout = d
	default:
		return "unknown setting"
	}
	return ""
}
