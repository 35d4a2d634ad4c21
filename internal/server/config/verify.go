package config

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/yndnr/shardkv/internal/storage/aof"
)

// Issue describes a raw setting that was ignored.
type Issue struct {
	Key    string
	Value  string
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s=%q: %s", i.Key, i.Value, i.Reason)
}

// Normalize builds a ServerConfig from raw loaded values. Each recognized
// key that parses and falls in range overrides its default; everything
// else keeps the default and is reported. Issues are sorted by key.
func Normalize(values map[string]any) (*ServerConfig, []Issue) {
	cfg := Default()
	var issues []Issue

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := strings.TrimSpace(fmt.Sprint(values[key]))
		if reason := apply(cfg, strings.ToLower(key), raw); reason != "" {
			issues = append(issues, Issue{Key: key, Value: raw, Reason: reason})
		}
	}

	return cfg, issues
}

func apply(cfg *ServerConfig, key, raw string) string {
	switch key {
	case "port":
		return setInt(&cfg.Port, raw, MinPort, MaxPort)
	case "shards":
		return setInt(&cfg.Shards, raw, 1, MaxShards)
	case "workers":
		return setInt(&cfg.Workers, raw, 1, MaxWorkers)
	case "max_clients":
		return setInt(&cfg.MaxClients, raw, 0, int(^uint32(0)>>1))
	case "bind":
		if raw == "" {
			return "empty address"
		}
		if raw != "localhost" && net.ParseIP(raw) == nil {
			return "not an IP address"
		}
		cfg.Bind = raw
	case "aof_file":
		if raw == "" {
			return "empty path"
		}
		cfg.AOFFile = raw
	case "aof_enabled":
		b, ok := parseBool(raw)
		if !ok {
			return "not a boolean"
		}
		cfg.AOFEnabled = b
	case "aof_fsync":
		mode, ok := aof.ParseSyncMode(raw)
		if !ok {
			return "want always, everysec or no"
		}
		cfg.AOFFsync = string(mode)
	case "log_level":
		switch v := strings.ToLower(raw); v {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = v
		default:
			return "want debug, info, warn or error"
		}
	case "log_format":
		switch v := strings.ToLower(raw); v {
		case "json", "text":
			cfg.LogFormat = v
		default:
			return "want json or text"
		}
	case "metrics_addr":
		if raw != "" {
			if _, _, err := net.SplitHostPort(raw); err != nil {
				return "not host:port"
			}
		}
		cfg.MetricsAddr = raw
	default:
		return "unknown setting"
	}
	return ""
}

func setInt(dst *int, raw string, lo, hi int) string {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return "not an integer"
	}
	if n < lo || n > hi {
		return fmt.Sprintf("out of range [%d, %d]", lo, hi)
	}
	*dst = n
	return ""
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "yes", "on":
		return true, true
	case "no", "off":
		return false, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}
