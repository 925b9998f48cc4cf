package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/parser"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.js"), "function main() {}")
	writeFile(t, filepath.Join(dir, "src", "util.ts"), "export const x = 1;")
	writeFile(t, filepath.Join(dir, "src", "Program.cs"), "class Program {}")
	writeFile(t, filepath.Join(dir, "tool.py"), "def run(): pass")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not source")
	writeFile(t, filepath.Join(dir, "node_modules", "dep", "index.js"), "module.exports = {};")
	writeFile(t, filepath.Join(dir, "bundle.min.js"), "!function(){}();")

	s := NewScanner(nil)
	files, err := s.ScanDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}

	assert.ElementsMatch(t, []string{
		"app.js",
		"src/util.ts",
		"src/Program.cs",
		"tool.py",
	}, names)
}

func TestScanDirExcludedDirsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.js"), "let a = 1;")
	writeFile(t, filepath.Join(dir, "vendor", "lib.js"), "let b = 2;")
	writeFile(t, filepath.Join(dir, "__pycache__", "mod.py"), "x = 1")

	s := NewScanner(nil)
	files, err := s.ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.js", filepath.Base(files[0]))
}

func TestScanDirHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, filepath.Join(dir, ".gitignore"), "generated/\nsecret.js\n")
	writeFile(t, filepath.Join(dir, "keep.js"), "let a = 1;")
	writeFile(t, filepath.Join(dir, "secret.js"), "let b = 2;")
	writeFile(t, filepath.Join(dir, "generated", "out.js"), "let c = 3;")

	files, err := NewScanner(nil).ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.js", filepath.Base(files[0]))

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	files, err = NewScanner(cfg).ScanDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestScanDirOutsideRepositoryIgnoresNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "secret.js\n")
	writeFile(t, filepath.Join(dir, "secret.js"), "let b = 2;")

	// Without a .git directory the .gitignore has no effect.
	files, err := NewScanner(nil).ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "secret.js", filepath.Base(files[0]))
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.py")
	txt := filepath.Join(dir, "readme.txt")
	writeFile(t, src, "print('hi')")
	writeFile(t, txt, "hello")

	s := NewScanner(nil)

	ok, err := s.ScanFile(src)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ScanFile(txt)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ScanFile(dir)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ScanFile(filepath.Join(dir, "missing.js"))
	assert.Error(t, err)
}

func TestGroupByLanguage(t *testing.T) {
	s := NewScanner(nil)
	groups := s.GroupByLanguage([]string{
		"a.js", "b.js", "c.ts", "d.cs", "e.py", "f.html", "g.unknownext",
	})

	assert.Len(t, groups[parser.LangJavaScript], 2)
	assert.Len(t, groups[parser.LangTypeScript], 1)
	assert.Len(t, groups[parser.LangCSharp], 1)
	assert.Len(t, groups[parser.LangPython], 1)
	assert.Len(t, groups[parser.LangHTML], 1)
	_, hasUnknown := groups[parser.LangUnknown]
	assert.False(t, hasUnknown)
}

func TestFilterBySize(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.js")
	big := filepath.Join(dir, "big.js")
	writeFile(t, small, "x")
	writeFile(t, big, string(make([]byte, 2048)))

	kept, skipped := FilterBySize([]string{small, big}, 1024)
	assert.Equal(t, []string{small}, kept)
	assert.Equal(t, 1, skipped)

	kept, skipped = FilterBySize([]string{small, big}, 0)
	assert.Len(t, kept, 2)
	assert.Equal(t, 0, skipped)
}
