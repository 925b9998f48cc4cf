package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/Variations9/srcfacts/internal/cache"
	"github.com/Variations9/srcfacts/internal/fileproc"
	"github.com/Variations9/srcfacts/internal/output"
	"github.com/Variations9/srcfacts/internal/progress"
	"github.com/Variations9/srcfacts/internal/scanner"
	"github.com/Variations9/srcfacts/pkg/analyzer/python"
	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/dispatch"
	"github.com/Variations9/srcfacts/pkg/facts"
	"github.com/Variations9/srcfacts/pkg/parser"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Extract facts from every source file under the given paths",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "max-file-size",
				Usage: "Skip files larger than this many bytes (0 = no limit)",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}

	spinner := progress.NewSpinner("Scanning...")
	files, err := collectFiles(c, cfg)
	spinner.FinishSuccess()
	if err != nil {
		return err
	}

	if maxSize := c.Int64("max-file-size"); maxSize > 0 {
		var skipped int
		files, skipped = scanner.FilterBySize(files, maxSize)
		if skipped > 0 {
			color.Yellow("Skipped %d file(s) over %d bytes", skipped, maxSize)
		}
	}

	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	report, failures, err := analyzeFiles(c.Context, cfg, files, c.Int("jobs"))
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(report); err != nil {
		return err
	}

	for _, fe := range failures {
		formatter.Warning("failed: %s", fe.Error())
	}
	return nil
}

// collectFiles scans every positional path, files and directories both.
func collectFiles(c *cli.Context, cfg *config.Config) ([]string, error) {
	paths := getPaths(c)
	scan := scanner.NewScanner(cfg)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		if !info.IsDir() {
			ok, err := scan.ScanFile(path)
			if err != nil {
				return nil, err
			}
			if ok {
				files = append(files, path)
			}
			continue
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", path, err)
		}
		found, err := scan.ScanDir(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// analyzeFiles runs the batch: content hashing and cache lookups first,
// then the pool over whatever remains, then rows merged back in input
// order. One python session spans the whole batch, so interpreter
// discovery happens at most once per run.
func analyzeFiles(ctx context.Context, cfg *config.Config, files []string, jobs int) (*output.FactsReport, []fileproc.ProcessingError, error) {
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	hashes, hashErrs := fileproc.ForEachFile(ctx, files, cache.HashFile)
	hashErrByPath := make(map[string]error)
	if hashErrs != nil {
		for _, he := range hashErrs.Errors {
			hashErrByPath[he.Path] = he.Err
		}
	}

	rows := make([]output.FileFacts, len(files))
	hashByPath := make(map[string]string, len(files))

	var toAnalyze []string
	var toAnalyzeIdx []int

	for i, path := range files {
		if err := hashErrByPath[path]; err != nil {
			rows[i] = output.FileFacts{Path: path, Diagnostic: err.Error()}
			continue
		}
		hashByPath[path] = hashes[i]

		if row, ok := store.Get(path, hashes[i]); ok {
			row.Path = path
			rows[i] = row
			continue
		}

		toAnalyze = append(toAnalyze, path)
		toAnalyzeIdx = append(toAnalyzeIdx, i)
	}

	py, err := python.NewSession(cfg.Python)
	if err != nil {
		return nil, nil, err
	}

	// A missing interpreter fails the whole batch before any work
	// starts; every python file would fail the same way. The probe
	// result stays cached in py for the workers.
	groups := scanner.NewScanner(cfg).GroupByLanguage(toAnalyze)
	if len(groups[parser.LangPython]) > 0 {
		if _, err := py.Interpreter(ctx); err != nil {
			return nil, nil, fmt.Errorf("python sources present: %w", err)
		}
	}

	var failures []fileproc.ProcessingError
	if len(toAnalyze) > 0 {
		tracker := progress.NewTracker("Analyzing...", len(toAnalyze))
		analyzed, errs := fileproc.MapSessionsN(ctx, cfg, toAnalyze, jobs, py, analyzeOne, tracker.Tick)
		tracker.FinishSuccess()

		failed := make(map[string]bool)
		if errs != nil {
			failures = append(failures, errs.Errors...)
			for _, pe := range errs.Errors {
				failed[pe.Path] = true
			}
		}

		for j, idx := range toAnalyzeIdx {
			row := analyzed[j]
			if row.Path == "" {
				row = output.FileFacts{Path: toAnalyze[j]}
			}
			rows[idx] = row
			if failed[row.Path] || row.Diagnostic != "" {
				continue
			}
			if err := store.Put(row.Path, hashByPath[row.Path], row); err != nil {
				failures = append(failures, fileproc.ProcessingError{Path: row.Path, Err: err})
			}
		}
	}

	return &output.FactsReport{Files: rows}, failures, nil
}

// analyzeOne reads and dispatches a single file inside the pool.
func analyzeOne(ctx context.Context, s *dispatch.Session, path string) (output.FileFacts, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return output.FileFacts{}, err
	}
	result, diag := s.Dispatch(ctx, facts.SourceUnit{Path: path, Raw: string(src)})
	return output.NewFileFacts(path, result, diag), nil
}
