package python

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Variations9/srcfacts/pkg/config"
)

// writeStub creates an executable script standing in for the
// interpreter. The probe invocation (`-c "print(0)"`) must succeed for
// every stub or discovery fails before the scenario under test runs.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakepython")
	full := "#!/bin/sh\nif [ \"$2\" = \"print(0)\" ]; then exit 0; fi\n" + script
	require.NoError(t, os.WriteFile(path, []byte(full), 0o755))
	return path
}

func newStubSession(t *testing.T, stub string) *Session {
	t.Helper()
	cfg := config.DefaultConfig().Python
	cfg.Interpreters = []string{stub}
	s, err := NewSession(cfg)
	require.NoError(t, err)
	return s
}

const validReply = `{"functions":["Greeter.hello","main"],"call_order":["print","main"],` +
	`"dependencies":["os","sys"],"data_flow":{"globals_written":["counter"],` +
	`"globals_read":[],"shared_state":[]},"io_summary":{"inputs":[],` +
	`"outputs":["LOG:print()"]},"side_effects":["LOG:print"]}`

func TestAnalyze_ValidReply(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\nprintf '%s' '"+validReply+"'\n")
	s := newStubSession(t, stub)

	result, err := s.Analyze(context.Background(), "tool.py", "print('x')\n")
	require.NoError(t, err)

	assert.True(t, result.Analyzed)
	assert.True(t, result.Functions.Has("Greeter.hello"))
	assert.True(t, result.Functions.Has("main"))
	assert.Equal(t, []string{"print", "main"}, result.CallOrder)
	assert.Equal(t, "os, sys", result.DependenciesCell())
	assert.True(t, result.DataFlow.GlobalsWritten.Has("counter"))
	assert.Equal(t, "SideEffects{LOG:print}", result.SideEffectsCell())
}

func TestAnalyze_CachesByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "invocations")
	stub := writeStub(t,
		"cat >/dev/null\necho run >> "+marker+"\nprintf '%s' '"+validReply+"'\n")
	s := newStubSession(t, stub)

	src := "print('x')\n"
	_, err := s.Analyze(context.Background(), "cached.py", src)
	require.NoError(t, err)
	_, err = s.Analyze(context.Background(), "cached.py", src)
	require.NoError(t, err)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "run"), "second call must hit the cache")
}

func TestAnalyze_CacheInvalidatedOnContentChange(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "invocations")
	stub := writeStub(t,
		"cat >/dev/null\necho run >> "+marker+"\nprintf '%s' '"+validReply+"'\n")
	s := newStubSession(t, stub)

	_, err := s.Analyze(context.Background(), "changed.py", "print('a')\n")
	require.NoError(t, err)
	_, err = s.Analyze(context.Background(), "changed.py", "print('b')\n")
	require.NoError(t, err)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "run"))
}

func TestAnalyze_NonJSONReplyIsPerFileError(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\necho 'this is not json'\n")
	s := newStubSession(t, stub)

	_, err := s.Analyze(context.Background(), "first.py", "x = 1\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not JSON")

	// The failure is local to one unit; the next file still runs.
	_, err = s.Analyze(context.Background(), "second.py", "y = 2\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second.py")
}

func TestAnalyze_ExplicitErrorField(t *testing.T) {
	stub := writeStub(t,
		`cat >/dev/null`+"\n"+`printf '%s' '{"error": "syntax error: line 3"}'`+"\n")
	s := newStubSession(t, stub)

	_, err := s.Analyze(context.Background(), "bad.py", "def (:\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestAnalyze_NonZeroExit(t *testing.T) {
	stub := writeStub(t, "cat >/dev/null\necho boom >&2\nexit 3\n")
	s := newStubSession(t, stub)

	_, err := s.Analyze(context.Background(), "crash.py", "x = 1\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAnalyze_RejectsWrongShape(t *testing.T) {
	stub := writeStub(t, `cat >/dev/null`+"\n"+`printf '%s' '{"functions": "oops"}'`+"\n")
	s := newStubSession(t, stub)

	_, err := s.Analyze(context.Background(), "shape.py", "x = 1\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestInterpreterNotFound(t *testing.T) {
	cfg := config.DefaultConfig().Python
	cfg.Interpreters = []string{"srcfacts-no-such-interpreter"}
	s, err := NewSession(cfg)
	require.NoError(t, err)

	_, err = s.Analyze(context.Background(), "any.py", "x = 1\n")
	assert.True(t, errors.Is(err, ErrInterpreterNotFound))
}

// TestVisitorEndToEnd exercises the real embedded program when an
// interpreter is installed.
func TestVisitorEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}

	cfg := config.DefaultConfig().Python
	cfg.Interpreters = []string{"python3"}
	s, err := NewSession(cfg)
	require.NoError(t, err)

	src := `import os
import json

counter = 0

class Greeter:
    def hello(self, name):
        print("hi " + name)

def bump():
    global counter
    counter += 1

data = open("in.txt").read()
`
	result, err := s.Analyze(context.Background(), "sample.py", src)
	require.NoError(t, err)

	assert.True(t, result.Functions.Has("Greeter.hello"))
	assert.True(t, result.Functions.Has("bump"))
	assert.True(t, result.Dependencies.Has("os"))
	assert.True(t, result.Dependencies.Has("json"))
	assert.True(t, result.DataFlow.GlobalsWritten.Has("counter"))
	assert.True(t, result.DataFlow.GlobalsWritten.Has("data"))
	assert.True(t, result.IO.Inputs.Has("FILE:open()"))
	assert.True(t, result.SideEffects.Has("FILE:read"))
	assert.True(t, result.SideEffects.Has("LOG:print"))
}
