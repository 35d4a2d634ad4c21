package config

import (
	"os"
	"path/filepath"
	"time"
)

// CLIConfig is the configuration for shardkv-cli.
type CLIConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Output      string        `koanf:"output"` // text, raw, json
	HistoryFile string        `koanf:"history_file"`
	Timeout     time.Duration `koanf:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Host:        "127.0.0.1",
		Port:        6379,
		Output:      "text",
		HistoryFile: defaultHistoryFile(),
		Timeout:     5 * time.Second,
	}
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".shardkv", "cli.yaml")
}

func defaultHistoryFile() string {
	return filepath.Join(homeDir(), ".shardkv", "history")
}

func homeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
