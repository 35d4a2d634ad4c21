package command

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/shardkv/internal/cli/bench"
	"github.com/yndnr/shardkv/internal/cli/output"
	"github.com/yndnr/shardkv/internal/infra/buildinfo"
)

// BenchApp creates the shardkv-benchmark application.
func BenchApp() *cli.App {
	def := bench.DefaultConfig()
	host, port, _ := net.SplitHostPort(def.Addr)
	portNum, _ := strconv.Atoi(port)

	return &cli.App{
		Name:      "shardkv-benchmark",
		Usage:     "shardkv load generator",
		UsageText: "shardkv-benchmark [-h host] [-p port] [-c clients] [-n requests] [-P pipeline] [--rate r] [-t tests]",
		Version:   buildinfo.String(),
		HideHelp:  true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Aliases: []string{"h"}, Usage: "Server hostname", Value: host},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Server port", Value: portNum},
			&cli.IntFlag{Name: "clients", Aliases: []string{"c"}, Usage: "Number of parallel connections", Value: def.Clients},
			&cli.IntFlag{Name: "requests", Aliases: []string{"n"}, Usage: "Total requests per test", Value: def.Requests},
			&cli.IntFlag{Name: "pipeline", Aliases: []string{"P"}, Usage: "Requests per pipelined batch", Value: def.Pipeline},
			&cli.Float64Flag{Name: "rate", Usage: "Maximum requests per second, 0 for unlimited"},
			&cli.StringFlag{
				Name:    "tests",
				Aliases: []string{"t"},
				Usage:   "Comma separated tests: " + strings.Join(bench.Tests, ","),
				Value:   strings.Join(def.Tests, ","),
			},
			&cli.IntFlag{Name: "keyspace", Aliases: []string{"r"}, Usage: "Number of distinct keys", Value: def.KeySpace},
			&cli.IntFlag{Name: "datasize", Aliases: []string{"d"}, Usage: "Value size in bytes", Value: def.DataSize},
			&cli.DurationFlag{Name: "timeout", Usage: "Dial and reply timeout", Value: def.Timeout},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Print only the summary lines"},
			&cli.BoolFlag{Name: "help", Usage: "Show help"},
		},
		Action: benchAction,
	}
}

func benchConfig(c *cli.Context) bench.Config {
	var tests []string
	for _, t := range strings.Split(c.String("tests"), ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tests = append(tests, t)
		}
	}
	return bench.Config{
		Addr:     net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port"))),
		Clients:  c.Int("clients"),
		Requests: c.Int("requests"),
		Pipeline: c.Int("pipeline"),
		Rate:     c.Float64("rate"),
		Tests:    tests,
		KeySpace: c.Int("keyspace"),
		DataSize: c.Int("datasize"),
		Timeout:  c.Duration("timeout"),
	}
}

func benchAction(c *cli.Context) error {
	if c.Bool("help") {
		return cli.ShowAppHelp(c)
	}

	cfg := benchConfig(c)
	quiet := c.Bool("quiet")

	var bar *output.ProgressBar
	runner, err := bench.NewRunner(cfg, func(_ string, done int64) {
		if bar != nil {
			bar.Set(done)
		}
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	w := c.App.Writer
	if !quiet {
		fmt.Fprintf(w, "%s: %d clients, %d requests, pipeline %d, %d byte values\n",
			cfg.Addr, cfg.Clients, cfg.Requests, cfg.Pipeline, cfg.DataSize)
	}
	for _, test := range cfg.Tests {
		if !quiet {
			bar = output.NewProgressBar(w, strings.ToUpper(test), int64(cfg.Requests))
		}
		res, err := runner.RunTest(c.Context, test)
		if err != nil {
			return cli.Exit(fmt.Sprintf("%s: %v", test, err), 1)
		}
		if bar != nil {
			bar.Finish()
		}
		fmt.Fprintln(w, res.String())
	}
	return nil
}
