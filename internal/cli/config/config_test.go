package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Host != "127.0.0.1" || cfg.Port != 6379 {
		t.Errorf("address = %s:%d, want 127.0.0.1:6379", cfg.Host, cfg.Port)
	}
	if cfg.Output != "text" {
		t.Errorf("Output = %q, want text", cfg.Output)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if !strings.HasSuffix(cfg.HistoryFile, filepath.Join(".shardkv", "history")) {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if p := DefaultConfigPath(); !strings.HasSuffix(p, filepath.Join(".shardkv", "cli.yaml")) {
		t.Errorf("DefaultConfigPath() = %q", p)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, warnings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "host: 10.0.0.5\nport: 7000\noutput: json\ntimeout: 250ms\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("SHARDKV_CLI_PORT", "7001")

	cfg, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	if cfg.Host != "10.0.0.5" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Port != 7001 {
		t.Errorf("Port = %d, want env override 7001", cfg.Port)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoad_BadValuesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.conf")
	content := "port = 0\noutput = table\ntimeout = soon\ncolour = red\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}

	sort.Strings(warnings)
	if len(warnings) != 4 {
		t.Fatalf("warnings = %v, want 4", warnings)
	}
	if !strings.HasPrefix(warnings[0], "colour=") {
		t.Errorf("warnings[0] = %q", warnings[0])
	}
}
