package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Variations9/srcfacts/internal/output"
	"github.com/Variations9/srcfacts/pkg/dispatch"
	"github.com/Variations9/srcfacts/pkg/facts"
	"github.com/Variations9/srcfacts/pkg/parser"
)

func fileCmd() *cli.Command {
	return &cli.Command{
		Name:      "file",
		Usage:     "Extract facts from a single source file",
		ArgsUsage: "<path>",
		Action:    runFile,
	}
}

func runFile(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one path, got %d", c.Args().Len())
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	session, err := dispatch.NewSession(cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	if parser.DetectLanguage(path) == parser.LangPython {
		if err := session.PythonAvailable(c.Context); err != nil {
			return err
		}
	}

	result, diag := session.Dispatch(c.Context, facts.SourceUnit{Path: path, Raw: string(src)})

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.FileDetail(output.NewFileFacts(path, result, diag)))
}
