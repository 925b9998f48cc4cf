package fileproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Variations9/srcfacts/pkg/analyzer/python"
	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/dispatch"
	"github.com/Variations9/srcfacts/pkg/facts"
)

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestMapSessionsPreservesOrder(t *testing.T) {
	tmpDir := t.TempDir()

	files := make([]string, 40)
	for i := range files {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.js", i), "function f() {}")
	}

	results, errs := MapSessions(context.Background(), nil, files, func(ctx context.Context, s *dispatch.Session, path string) (string, error) {
		return filepath.Base(path), nil
	})

	if errs != nil && errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != len(files) {
		t.Fatalf("expected %d results, got %d", len(files), len(results))
	}
	for i, r := range results {
		if want := fmt.Sprintf("file%d.js", i); r != want {
			t.Errorf("result[%d] = %q, want %q", i, r, want)
		}
	}
}

func TestMapSessionsAnalyzesSources(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFile(t, tmpDir, "app.js", "function greet() { console.log('hi'); }\ngreet();\n")

	results, errs := MapSessions(context.Background(), nil, []string{path}, func(ctx context.Context, s *dispatch.Session, path string) (*facts.Result, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		r, _ := s.Dispatch(ctx, facts.SourceUnit{Path: path, Raw: string(src)})
		return r, nil
	})

	if errs != nil && errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 1 || results[0] == nil {
		t.Fatalf("expected one result, got %v", results)
	}
	if got := results[0].FunctionsCell(); got != "greet" {
		t.Errorf("functions cell = %q, want %q", got, "greet")
	}
}

func TestMapSessionsCollectsErrors(t *testing.T) {
	tmpDir := t.TempDir()
	files := []string{
		createTestFile(t, tmpDir, "a.js", "let a = 1;"),
		createTestFile(t, tmpDir, "b.js", "let b = 2;"),
		createTestFile(t, tmpDir, "c.js", "let c = 3;"),
	}

	sentinel := errors.New("bad file")
	results, errs := MapSessions(context.Background(), nil, files, func(ctx context.Context, s *dispatch.Session, path string) (string, error) {
		if strings.HasSuffix(path, "b.js") {
			return "", sentinel
		}
		return filepath.Base(path), nil
	})

	if errs == nil || !errs.HasErrors() {
		t.Fatal("expected collected errors")
	}
	if len(errs.Errors) != 1 || !errors.Is(errs.Errors[0].Err, sentinel) {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if results[0] != "a.js" || results[1] != "" || results[2] != "c.js" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestMapSessionsProgress(t *testing.T) {
	tmpDir := t.TempDir()
	files := make([]string, 10)
	for i := range files {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("f%d.js", i), "let x = 1;")
	}

	var calls atomic.Int64
	_, errs := MapSessionsN(context.Background(), nil, files, 4, nil, func(ctx context.Context, s *dispatch.Session, path string) (struct{}, error) {
		return struct{}{}, nil
	}, func() { calls.Add(1) })

	if errs != nil && errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := calls.Load(); got != int64(len(files)) {
		t.Errorf("progress called %d times, want %d", got, len(files))
	}
}

// A shared python session means interpreter discovery runs once per
// batch, no matter how many workers dispatch python files.
func TestMapSessionsSharedInterpreterDiscovery(t *testing.T) {
	tmpDir := t.TempDir()
	marker := filepath.Join(tmpDir, "smoke-runs")

	reply := `{"functions":["main"],"call_order":[],"dependencies":[],` +
		`"data_flow":{"globals_written":[],"globals_read":[],"shared_state":[]},` +
		`"io_summary":{"inputs":[],"outputs":[]},"side_effects":[]}`
	stub := filepath.Join(tmpDir, "fakepython")
	script := "#!/bin/sh\n" +
		"if [ \"$2\" = \"print(0)\" ]; then echo smoke >> " + marker + "; exit 0; fi\n" +
		"cat >/dev/null\nprintf '%s' '" + reply + "'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Python.Interpreters = []string{stub}

	files := []string{
		createTestFile(t, tmpDir, "a.py", "print('a')\n"),
		createTestFile(t, tmpDir, "b.py", "print('b')\n"),
	}

	py, err := python.NewSession(cfg.Python)
	if err != nil {
		t.Fatalf("python session: %v", err)
	}

	results, errs := MapSessionsN(context.Background(), cfg, files, 2, py, func(ctx context.Context, s *dispatch.Session, path string) (string, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		r, diag := s.Dispatch(ctx, facts.SourceUnit{Path: path, Raw: string(src)})
		if diag != "" {
			return "", errors.New(diag)
		}
		return r.FunctionsCell(), nil
	}, nil)

	if errs != nil && errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for i, r := range results {
		if r != "main" {
			t.Errorf("result[%d] = %q, want %q", i, r, "main")
		}
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if got := strings.Count(string(data), "smoke"); got != 1 {
		t.Errorf("interpreter smoke test ran %d times, want 1", got)
	}
}

func TestForEachFile(t *testing.T) {
	files := []string{"x", "y", "z"}

	results, errs := ForEachFile(context.Background(), files, func(path string) (string, error) {
		return path + "!", nil
	})
	if errs != nil && errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{"x!", "y!", "z!"}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result[%d] = %q, want %q", i, results[i], want[i])
		}
	}
}

func TestForEachFileCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := ForEachFile(ctx, []string{"a", "b"}, func(path string) (string, error) {
		return path, nil
	})
	if errs == nil || !errs.HasErrors() {
		t.Fatal("expected context errors")
	}
}

func TestEmptyInput(t *testing.T) {
	results, errs := MapSessions(context.Background(), nil, nil, func(ctx context.Context, s *dispatch.Session, path string) (int, error) {
		return 0, nil
	})
	if results != nil || errs != nil {
		t.Errorf("expected nil results and errors, got %v %v", results, errs)
	}
}
