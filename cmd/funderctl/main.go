package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/funderdex/internal/config"
	logpkg "github.com/kailas-cloud/funderdex/internal/logger"
	"github.com/kailas-cloud/funderdex/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "funderctl:", err)
		os.Exit(1)
	}
}

// ctl carries the configuration and logger resolved by the global flags.
type ctl struct {
	cfg    config.Config
	logger *zap.Logger
}

func newApp() *cli.App {
	x := &ctl{logger: zap.NewNop()}

	collectionFlag := &cli.StringSliceFlag{
		Name:    "collection",
		Aliases: []string{"c"},
		Usage:   "Collection id (repeatable). Defaults to every configured collection",
	}

	return &cli.App{
		Name:    "funderctl",
		Usage:   "Manage funderdex indexes, seed data and registry lookups",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Environment name, selects config/<env>.yaml",
				Value:   config.GetEnv(),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a config file, overrides --env lookup",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Before: x.setup,
		After: func(*cli.Context) error {
			_ = x.logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "Create or drop collection indexes",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create missing collection indexes",
						Action: x.indexCreate,
						Flags:  []cli.Flag{collectionFlag},
					},
					{
						Name:   "drop",
						Usage:  "Drop collection indexes",
						Action: x.indexDrop,
						Flags: []cli.Flag{
							collectionFlag,
							&cli.BoolFlag{
								Name:  "all",
								Usage: "Drop every configured collection index",
							},
						},
					},
				},
			},
			{
				Name:      "load",
				Usage:     "Load funder records from a JSON array or JSON lines file",
				ArgsUsage: "<file|->",
				Action:    x.load,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "collection",
						Aliases:  []string{"c"},
						Usage:    "Target collection id",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records per store write",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding requests for semantic collections",
						Value: 4,
					},
				},
			},
			{
				Name:      "lookup",
				Usage:     "Fetch a nonprofit registry profile by EIN or organization name",
				ArgsUsage: "<ein|name>",
				Action:    x.lookup,
			},
		},
	}
}

func (x *ctl) setup(c *cli.Context) error {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger, err := logpkg.NewLogger(c.String("env"), level)
	if err != nil {
		return err
	}

	x.cfg = cfg
	x.logger = logger
	return nil
}
