// Package fileproc provides concurrent file processing utilities for
// the batch CLI path. Analysis of a single file stays sequential; the
// pool only pipelines across files.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/Variations9/srcfacts/pkg/analyzer/python"
	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/dispatch"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x suits the mixed I/O, CGO, and subprocess workload.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// MapSessions processes files in parallel, calling fn for each file with
// an analysis session drawn from a per-worker pool. Results are indexed
// by input position, so output order matches input order; a nil slot
// marks a file whose fn returned an error.
func MapSessions[T any](ctx context.Context, cfg *config.Config, files []string, fn func(context.Context, *dispatch.Session, string) (T, error)) ([]T, *ProcessingErrors) {
	return MapSessionsN(ctx, cfg, files, 0, nil, fn, nil)
}

// MapSessionsN processes files with configurable worker count and an
// optional progress callback. If maxWorkers is <= 0, defaults to 2x
// NumCPU. py, when non-nil, is the run-wide python session shared by
// every worker; a nil py gets one created for the batch.
func MapSessionsN[T any](ctx context.Context, cfg *config.Config, files []string, maxWorkers int, py *python.Session, fn func(context.Context, *dispatch.Session, string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}

	errs := &ProcessingErrors{}
	if py == nil {
		created, err := python.NewSession(cfg.Python)
		if err != nil {
			errs.Add("", err)
			return nil, errs
		}
		py = created
	}

	// Tree-sitter parsers are not safe for concurrent use, so each
	// worker slot gets its own session. The python session is shared:
	// interpreter discovery and the per-path cache are run-scoped, not
	// worker-scoped.
	sessions := make(chan *dispatch.Session, maxWorkers)
	created := make([]*dispatch.Session, 0, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		s := dispatch.NewSessionSharing(cfg, py)
		created = append(created, s)
		sessions <- s
	}
	defer func() {
		for _, s := range created {
			s.Close()
		}
	}()

	results := make([]T, len(files))

	p := pool.New().WithMaxGoroutines(len(created)).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			s := <-sessions
			defer func() { sessions <- s }()

			result, err := fn(ctx, s, path)

			if onProgress != nil {
				onProgress()
			}

			if err != nil {
				errs.Add(path, err)
				return nil
			}

			results[i] = result
			return nil
		})
	}
	_ = p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

// ForEachFile processes files in parallel, calling fn for each file.
// No session is provided; use this for non-analysis operations.
func ForEachFile[T any](ctx context.Context, files []string, fn func(string) (T, error)) ([]T, *ProcessingErrors) {
	return ForEachFileN(ctx, files, 0, fn, nil)
}

// ForEachFileN processes files with configurable worker count and callbacks.
// If maxWorkers is <= 0, defaults to 2x NumCPU. Results are indexed by
// input position.
func ForEachFileN[T any](ctx context.Context, files []string, maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	results := make([]T, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			result, err := fn(path)

			if onProgress != nil {
				onProgress()
			}

			if err != nil {
				errs.Add(path, err)
				return nil
			}

			results[i] = result
			return nil
		})
	}
	_ = p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
