package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Variations9/srcfacts/pkg/config"
)

func TestAnalyzeFilesBatch(t *testing.T) {
	dir := t.TempDir()
	jsPath := filepath.Join(dir, "app.js")
	htmlPath := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(jsPath, []byte("function greet() { console.log('hi'); }\n"), 0o644))
	require.NoError(t, os.WriteFile(htmlPath, []byte(`<script src="app.js"></script>`), 0o644))

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false

	report, failures, err := analyzeFiles(context.Background(), cfg, []string{jsPath, htmlPath}, 1)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, report.Files, 2)

	assert.Equal(t, jsPath, report.Files[0].Path)
	assert.Equal(t, "greet", report.Files[0].Functions)
	assert.Equal(t, "SideEffects{LOG:print}", report.Files[0].SideEffects)

	assert.Equal(t, htmlPath, report.Files[1].Path)
	assert.Equal(t, "app.js", report.Files[1].Dependencies)
	assert.Equal(t, "", report.Files[1].SideEffects)
}

func TestAnalyzeFilesCachesResults(t *testing.T) {
	dir := t.TempDir()
	jsPath := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(jsPath, []byte("function run() {}\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Cache.TTL = 1

	first, _, err := analyzeFiles(context.Background(), cfg, []string{jsPath}, 1)
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.Cache.Dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	second, _, err := analyzeFiles(context.Background(), cfg, []string{jsPath}, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Files, second.Files)
}

func TestAnalyzeFilesMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false

	missing := filepath.Join(t.TempDir(), "gone.js")
	report, _, err := analyzeFiles(context.Background(), cfg, []string{missing}, 1)
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.NotEmpty(t, report.Files[0].Diagnostic)
}
