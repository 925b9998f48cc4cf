// Package dispatch routes source units to the language front ends and
// normalizes their output. A session owns every per-run resource: the
// in-process parsers and the python subprocess state. Create one per
// run and close it when the run ends; nothing analyzed in one session
// may be reused by the next.
package dispatch

import (
	"context"
	"fmt"

	"github.com/Variations9/srcfacts/pkg/analyzer/csharp"
	"github.com/Variations9/srcfacts/pkg/analyzer/ecmascript"
	"github.com/Variations9/srcfacts/pkg/analyzer/markup"
	"github.com/Variations9/srcfacts/pkg/analyzer/python"
	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/facts"
	"github.com/Variations9/srcfacts/pkg/parser"
)

// Session holds the front ends for one analysis run.
type Session struct {
	ecma   *ecmascript.Analyzer
	csharp *csharp.Analyzer
	python *python.Session
	markup *markup.Analyzer
}

// NewSession creates the front ends from one configuration.
func NewSession(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	py, err := python.NewSession(cfg.Python)
	if err != nil {
		return nil, fmt.Errorf("python front end: %w", err)
	}
	return NewSessionSharing(cfg, py), nil
}

// NewSessionSharing creates the in-process front ends around an
// existing python session. Worker sessions in one batch share it, so
// interpreter discovery runs once per batch and the per-path result
// cache covers the whole run.
func NewSessionSharing(cfg *config.Config, py *python.Session) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Session{
		ecma:   ecmascript.New(),
		csharp: csharp.New(cfg.Heuristics),
		python: py,
		markup: markup.New(),
	}
}

// Close releases parser resources.
func (s *Session) Close() {
	s.ecma.Close()
	s.markup.Close()
}

// PythonAvailable probes interpreter discovery. The returned error, if
// any, wraps python.ErrInterpreterNotFound and is fatal for every
// python unit in the run; callers should check it once up front when
// the batch contains python sources.
func (s *Session) PythonAvailable(ctx context.Context) error {
	_, err := s.python.Interpreter(ctx)
	return err
}

// Dispatch routes one source unit to its front end. It never fails for
// per-file problems: the result is always usable (possibly all-empty)
// and the diagnostic string carries anything worth logging.
func (s *Session) Dispatch(ctx context.Context, unit facts.SourceUnit) (*facts.Result, string) {
	lang := parser.Language(unit.Language)
	if lang == "" || lang == parser.LangUnknown {
		lang = parser.DetectLanguage(unit.Path)
	}

	switch lang {
	case parser.LangJavaScript, parser.LangTypeScript, parser.LangTSX:
		return s.ecma.Analyze(ctx, unit.Path, unit.Raw, lang)

	case parser.LangCSharp:
		return s.csharp.Analyze(unit.Path, unit.Raw)

	case parser.LangPython:
		result, err := s.python.Analyze(ctx, unit.Path, unit.Raw)
		if err != nil {
			return facts.NewResult(), err.Error()
		}
		return result, ""

	case parser.LangHTML, parser.LangCSS, parser.LangJSON,
		parser.LangYAML, parser.LangXML, parser.LangMarkdown:
		return s.markup.Analyze(ctx, unit.Path, unit.Raw, lang)

	default:
		return facts.NewResult(), fmt.Sprintf("%s: unsupported language %q", unit.Path, unit.Language)
	}
}
