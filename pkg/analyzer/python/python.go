// Package python is the out-of-process front end for Python source. It
// delegates analysis to an interpreter subprocess running the embedded
// visitor program over a one-shot request/response protocol: source on
// stdin, one JSON reply on stdout.
package python

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/facts"
)

// ErrInterpreterNotFound is returned when no candidate interpreter
// passes the smoke test. Unlike every other failure in this package it
// is batch-fatal: there is no fallback front end for the language.
var ErrInterpreterNotFound = errors.New("no working python interpreter found")

// replySchema validates the subprocess reply before it is trusted.
const replySchema = `{
  "type": "object",
  "properties": {
    "functions":    {"type": "array", "items": {"type": "string"}},
    "call_order":   {"type": "array", "items": {"type": "string"}},
    "dependencies": {"type": "array", "items": {"type": "string"}},
    "data_flow": {
      "type": "object",
      "properties": {
        "globals_written": {"type": "array", "items": {"type": "string"}},
        "globals_read":    {"type": "array", "items": {"type": "string"}},
        "shared_state":    {"type": "array", "items": {"type": "string"}}
      }
    },
    "io_summary": {
      "type": "object",
      "properties": {
        "inputs":  {"type": "array", "items": {"type": "string"}},
        "outputs": {"type": "array", "items": {"type": "string"}}
      }
    },
    "side_effects": {"type": "array", "items": {"type": "string"}},
    "error":        {"type": "string"}
  },
  "required": ["functions", "call_order", "dependencies", "data_flow", "io_summary", "side_effects"]
}`

// reply mirrors the JSON object the visitor program writes.
type reply struct {
	Functions    []string `json:"functions"`
	CallOrder    []string `json:"call_order"`
	Dependencies []string `json:"dependencies"`
	DataFlow     struct {
		GlobalsWritten []string `json:"globals_written"`
		GlobalsRead    []string `json:"globals_read"`
		SharedState    []string `json:"shared_state"`
	} `json:"data_flow"`
	IOSummary struct {
		Inputs  []string `json:"inputs"`
		Outputs []string `json:"outputs"`
	} `json:"io_summary"`
	SideEffects []string `json:"side_effects"`
	Error       string   `json:"error"`
}

type cacheEntry struct {
	contentHash uint64
	result      *facts.Result
}

// Session owns the per-run mutable state: the discovered interpreter
// and the per-path result cache. Create one at run start and discard it
// at run end; results must never outlive the run.
type Session struct {
	cfg    config.PythonConfig
	schema *jsonschema.Schema

	discoverOnce sync.Once
	interp       string
	discoverErr  error

	cache *lru.Cache[string, cacheEntry]
}

// NewSession creates a session with an empty cache.
func NewSession(cfg config.PythonConfig) (*Session, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(replySchema))
	if err != nil {
		return nil, fmt.Errorf("reply schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("reply.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("reply schema: %w", err)
	}
	schema, err := compiler.Compile("reply.json")
	if err != nil {
		return nil, fmt.Errorf("reply schema: %w", err)
	}

	return &Session{cfg: cfg, schema: schema, cache: cache}, nil
}

// Interpreter returns the discovered interpreter command. Candidates
// are probed once per session with a trivial invocation; concurrent
// callers share the single probe.
func (s *Session) Interpreter(ctx context.Context) (string, error) {
	s.discoverOnce.Do(func() {
		for _, cand := range s.cfg.Interpreters {
			if err := exec.CommandContext(ctx, cand, "-c", "print(0)").Run(); err == nil {
				s.interp = cand
				return
			}
		}
		s.discoverErr = fmt.Errorf("%w: tried %s",
			ErrInterpreterNotFound, strings.Join(s.cfg.Interpreters, ", "))
	})
	return s.interp, s.discoverErr
}

// Analyze runs the visitor program over one source unit. Results are
// cached by absolute path for the session's lifetime; the cached entry
// is ignored when the source content changed. All failures except
// interpreter discovery are per-file errors.
func (s *Session) Analyze(ctx context.Context, path, src string) (*facts.Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	contentHash := xxhash.Sum64String(src)

	if entry, ok := s.cache.Get(abs); ok && entry.contentHash == contentHash {
		return entry.result, nil
	}

	interp, err := s.Interpreter(ctx)
	if err != nil {
		return nil, err
	}

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, interp, "-c", visitorProgram, abs)
	cmd.Stdin = strings.NewReader(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: visitor subprocess: %w (stderr: %s)",
			path, err, strings.TrimSpace(stderr.String()))
	}

	result, err := s.decodeReply(path, stdout.Bytes())
	if err != nil {
		return nil, err
	}

	s.cache.Add(abs, cacheEntry{contentHash: contentHash, result: result})
	return result, nil
}

// decodeReply parses and validates the subprocess payload.
func (s *Session) decodeReply(path string, payload []byte) (*facts.Result, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: visitor reply is not JSON: %w", path, err)
	}

	// An explicit error field short-circuits shape validation: the
	// visitor reports its own failures as {"error": ...}.
	if obj, ok := doc.(map[string]any); ok {
		if msg, ok := obj["error"].(string); ok && msg != "" {
			return nil, fmt.Errorf("%s: visitor: %s", path, msg)
		}
	}

	if err := s.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: visitor reply rejected: %w", path, err)
	}

	var r reply
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%s: visitor reply: %w", path, err)
	}

	result := facts.NewResult()
	result.Analyzed = true
	for _, fn := range r.Functions {
		result.Functions.Add(fn)
	}
	result.CallOrder = append(result.CallOrder, r.CallOrder...)
	for _, dep := range r.Dependencies {
		result.Dependencies.Add(dep)
	}
	for _, name := range r.DataFlow.GlobalsWritten {
		result.DataFlow.GlobalsWritten.Add(name)
	}
	for _, name := range r.DataFlow.GlobalsRead {
		result.DataFlow.GlobalsRead.Add(name)
	}
	for _, name := range r.DataFlow.SharedState {
		result.DataFlow.SharedState.Add(name)
	}
	for _, item := range r.IOSummary.Inputs {
		result.IO.Inputs.Add(item)
	}
	for _, item := range r.IOSummary.Outputs {
		result.IO.Outputs.Add(item)
	}
	for _, tag := range r.SideEffects {
		result.SideEffects.Add(tag)
	}
	return result, nil
}
