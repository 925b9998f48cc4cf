// Package scanner finds analyzable source files under a root.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/parser"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config  *config.Config
	matcher gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot walks up from start looking for a .git directory.
// Returns empty string outside a repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore in the enclosing repository.
// Outside a repository, or with gitignore handling disabled, only the
// config patterns apply.
func (s *Scanner) loadGitignore(root string) {
	if !s.config.Exclude.Gitignore || s.matcher != nil {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matcher = gitignore.NewMatcher(patterns)
}

func (s *Scanner) ignored(relPath string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	return s.matcher.Match(strings.Split(relPath, string(filepath.Separator)), isDir)
}

// ScanDir recursively scans a directory for source files with a known
// language. Symlinks that escape the root are skipped so a hostile
// tree cannot pull outside files into the batch.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if s.config.ShouldExclude(relPath+string(filepath.Separator)) || s.ignored(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.config.ShouldExclude(relPath) || s.ignored(relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}

		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if s.config.ShouldExclude(filepath.Base(path)) {
		return false, nil
	}
	s.loadGitignore(filepath.Dir(path))
	if s.ignored(filepath.Base(path), false) {
		return false, nil
	}
	return parser.DetectLanguage(path) != parser.LangUnknown, nil
}

// GroupByLanguage groups files by their detected language.
func (s *Scanner) GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		lang := parser.DetectLanguage(f)
		if lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}

// FilterBySize drops files larger than maxSize bytes, returning the
// kept list and the skipped count. A zero maxSize keeps everything.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}
