package main

import (
	"github.com/urfave/cli/v2"

	"github.com/Variations9/srcfacts/internal/cache"
	"github.com/Variations9/srcfacts/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the persisted result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count and size",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached results",
				Action: runCacheClear,
			},
		},
	}
}

func runCacheStats(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(stats)
}

func runCacheClear(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	return store.Clear()
}
