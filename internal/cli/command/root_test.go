package command

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/shardkv/internal/cli/output"
)

// ============================================================================
// shardkv-cli
// ============================================================================

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "shardkv-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "shardkv-cli")
	}
	if !app.HideHelp {
		t.Error("HideHelp should be set so -h can select the host")
	}

	aliases := make(map[string]string)
	for _, f := range app.Flags {
		names := f.Names()
		for _, n := range names[1:] {
			aliases[n] = names[0]
		}
	}
	for alias, name := range map[string]string{"h": "host", "p": "port", "o": "output"} {
		if aliases[alias] != name {
			t.Errorf("alias -%s = %q, want %q", alias, aliases[alias], name)
		}
	}
}

func TestParseGlobalFlags(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "cli.yaml")
	content := "host: 10.0.0.1\nport: 7000\noutput: raw\ntimeout: 2s\nhistory_file: " + filepath.Join(dir, "hist") + "\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name   string
		args   []string
		addr   string
		format output.Format
		tmo    time.Duration
	}{
		{"file only", nil, "10.0.0.1:7000", output.FormatRaw, 2 * time.Second},
		{"flags override", []string{"-h", "127.0.0.1", "-p", "6380", "-o", "json", "--timeout", "1s"}, "127.0.0.1:6380", output.FormatJSON, time.Second},
		{"port only", []string{"-p", "6390"}, "10.0.0.1:6390", output.FormatRaw, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *GlobalFlags
			app := &cli.App{
				HideHelp:  true,
				Flags:     globalFlags(),
				Writer:    &bytes.Buffer{},
				ErrWriter: &bytes.Buffer{},
				Action: func(c *cli.Context) error {
					var err error
					got, err = ParseGlobalFlags(c)
					return err
				},
			}

			args := append([]string{"test", "--config", cfgFile}, tt.args...)
			if err := app.Run(args); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got.Addr != tt.addr {
				t.Errorf("Addr = %q, want %q", got.Addr, tt.addr)
			}
			if got.Output != tt.format {
				t.Errorf("Output = %q, want %q", got.Output, tt.format)
			}
			if got.Timeout != tt.tmo {
				t.Errorf("Timeout = %v, want %v", got.Timeout, tt.tmo)
			}
		})
	}
}

func TestParseGlobalFlags_Warnings(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(cfgFile, []byte("port: 99999\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var stderr bytes.Buffer
	var got *GlobalFlags
	app := &cli.App{
		HideHelp:  true,
		Flags:     globalFlags(),
		Writer:    &bytes.Buffer{},
		ErrWriter: &stderr,
		Action: func(c *cli.Context) error {
			var err error
			got, err = ParseGlobalFlags(c)
			return err
		},
	}
	if err := app.Run([]string{"test", "--config", cfgFile}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasSuffix(got.Addr, ":6379") {
		t.Errorf("Addr = %q, want default port", got.Addr)
	}
	if !strings.Contains(stderr.String(), "port") {
		t.Errorf("stderr = %q, want a port warning", stderr.String())
	}
}

// ============================================================================
// shardkv-benchmark
// ============================================================================

func TestBenchApp(t *testing.T) {
	app := BenchApp()
	if app.Name != "shardkv-benchmark" {
		t.Errorf("Name = %q, want %q", app.Name, "shardkv-benchmark")
	}

	names := make(map[string]bool)
	for _, f := range app.Flags {
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	for _, n := range []string{"c", "n", "P", "rate", "t", "h", "p", "q"} {
		if !names[n] {
			t.Errorf("missing flag %q", n)
		}
	}
}

func TestBenchConfig(t *testing.T) {
	app := BenchApp()
	var cfgAddr string
	var cfgTests []string
	var cfgRate float64
	var cfgPipeline int
	app.Action = func(c *cli.Context) error {
		cfg := benchConfig(c)
		cfgAddr, cfgTests, cfgRate, cfgPipeline = cfg.Addr, cfg.Tests, cfg.Rate, cfg.Pipeline
		return nil
	}

	args := []string{"shardkv-benchmark", "-h", "10.1.1.1", "-P", "16", "--rate", "500", "-t", "SET, get,,ping"}
	if err := app.Run(args); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if cfgAddr != "10.1.1.1:6379" {
		t.Errorf("Addr = %q, want %q", cfgAddr, "10.1.1.1:6379")
	}
	if strings.Join(cfgTests, ",") != "set,get,ping" {
		t.Errorf("Tests = %v, want [set get ping]", cfgTests)
	}
	if cfgRate != 500 || cfgPipeline != 16 {
		t.Errorf("Rate, Pipeline = %v, %d, want 500, 16", cfgRate, cfgPipeline)
	}
}

func TestBenchAction_UnknownTest(t *testing.T) {
	app := BenchApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run([]string{"shardkv-benchmark", "-t", "flushall"})
	var exitErr cli.ExitCoder
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 2 {
		t.Errorf("error = %v, want exit code 2", err)
	}
}
