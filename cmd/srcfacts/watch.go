package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Variations9/srcfacts/internal/output"
	"github.com/Variations9/srcfacts/pkg/dispatch"
	"github.com/Variations9/srcfacts/pkg/facts"
	"github.com/Variations9/srcfacts/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-analyze source files as they change",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: 500 * time.Millisecond,
				Usage: "Quiet period before a changed file is re-analyzed",
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	path := "."
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	session, err := dispatch.NewSession(cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), "", cfg.Output.Color)
	if err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(path, cfg, c.Duration("debounce"))
	if err != nil {
		return err
	}
	defer watcher.Stop()

	watcher.SetCallback(func(changed string) {
		src, err := os.ReadFile(changed)
		if err != nil {
			formatter.Error("read %s: %v", changed, err)
			return
		}
		result, diag := session.Dispatch(c.Context, facts.SourceUnit{Path: changed, Raw: string(src)})
		if err := formatter.Output(output.FileDetail(output.NewFileFacts(changed, result, diag))); err != nil {
			formatter.Error("render %s: %v", changed, err)
		}
	})

	if err := watcher.Start(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
