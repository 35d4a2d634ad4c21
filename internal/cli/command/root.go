package command

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/shardkv/internal/cli/config"
	"github.com/yndnr/shardkv/internal/cli/connection"
	"github.com/yndnr/shardkv/internal/cli/output"
	"github.com/yndnr/shardkv/internal/cli/repl"
	"github.com/yndnr/shardkv/internal/infra/buildinfo"
)

// App creates the shardkv-cli application.
func App() *cli.App {
	return &cli.App{
		Name:      "shardkv-cli",
		Usage:     "shardkv command-line client",
		UsageText: "shardkv-cli [-h host] [-p port] [command [args...]]",
		Version:   buildinfo.String(),
		// -h is the host, as in redis-cli.
		HideHelp: true,
		Flags:    globalFlags(),
		Action:   clientAction,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"h"},
			Usage:   "Server hostname",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Server port",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, raw, json",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to CLI configuration file",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial and reply timeout",
		},
		&cli.BoolFlag{
			Name:  "help",
			Usage: "Show help",
		},
	}
}

// GlobalFlags holds the resolved client settings.
type GlobalFlags struct {
	Addr        string
	Output      output.Format
	HistoryFile string
	Timeout     time.Duration
}

// ParseGlobalFlags merges the configuration file with the flags that
// were set explicitly. Config warnings are printed to the error writer.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, warnings, err := cliconfig.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, w := range warnings {
		fmt.Fprintf(c.App.ErrWriter, "warning: config %s\n", w)
	}

	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	return &GlobalFlags{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Output:      output.Format(cfg.Output),
		HistoryFile: cfg.HistoryFile,
		Timeout:     cfg.Timeout,
	}, nil
}

func clientAction(c *cli.Context) error {
	if c.Bool("help") {
		return cli.ShowAppHelp(c)
	}

	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	client, err := connection.Dial(c.Context, flags.Addr, connection.WithTimeout(flags.Timeout))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not connect to %s: %v", flags.Addr, err), 1)
	}
	defer client.Close()

	formatter := output.NewFormatter(flags.Output)

	if c.NArg() > 0 {
		reply, err := client.Do(c.Args().Slice()...)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		return formatter.Format(c.App.Writer, reply)
	}

	history := repl.NewHistory(flags.HistoryFile)
	if err := history.Load(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "warning: save history: %v\n", err)
		}
	}()

	r := repl.New(client, flags.Addr,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(history),
		repl.WithFormatter(formatter),
	)
	if err := r.Run(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	return nil
}
