package watch

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const gitignoreFileNameConstant = ".gitignore"

// alwaysIgnoredNamesConstant lists path segments skipped regardless of
// project ignore rules.
var alwaysIgnoredNamesConstant = []string{
	".git",
	"__pycache__",
	".venv",
	"venv",
	"node_modules",
	".idea",
	".vscode",
	".DS_Store",
	".pytest_cache",
	".mypy_cache",
}

var alwaysIgnoredSuffixesConstant = []string{
	".pyc",
	".swp",
	"~",
}

// IgnoreFilter decides which change events qualify for re-execution.
type IgnoreFilter struct {
	ignoredNames    map[string]struct{}
	ignoredPatterns []string
}

// NewIgnoreFilter builds a filter from the fixed ignore set plus the
// project's .gitignore when one exists. Negation rules are not supported;
// negated lines are skipped.
func NewIgnoreFilter(projectRootPath string) *IgnoreFilter {
	filter := &IgnoreFilter{ignoredNames: make(map[string]struct{}, len(alwaysIgnoredNamesConstant))}
	for _, ignoredName := range alwaysIgnoredNamesConstant {
		filter.ignoredNames[ignoredName] = struct{}{}
	}
	filter.loadGitignore(filepath.Join(projectRootPath, gitignoreFileNameConstant))
	return filter
}

// ShouldIgnore reports whether the path matches any ignore rule. Every path
// segment is checked so events inside ignored directories are skipped too.
func (filter *IgnoreFilter) ShouldIgnore(changedPath string) bool {
	for _, suffix := range alwaysIgnoredSuffixesConstant {
		if strings.HasSuffix(changedPath, suffix) {
			return true
		}
	}

	for _, segment := range strings.Split(filepath.ToSlash(changedPath), "/") {
		if len(segment) == 0 {
			continue
		}
		if _, ignored := filter.ignoredNames[segment]; ignored {
			return true
		}
		for _, pattern := range filter.ignoredPatterns {
			if matched, matchError := filepath.Match(pattern, segment); matchError == nil && matched {
				return true
			}
		}
	}
	return false
}

func (filter *IgnoreFilter) loadGitignore(gitignorePath string) {
	gitignoreFile, openError := os.Open(gitignorePath)
	if openError != nil {
		return
	}
	defer func() { _ = gitignoreFile.Close() }()

	lineScanner := bufio.NewScanner(gitignoreFile)
	for lineScanner.Scan() {
		line := strings.TrimSpace(lineScanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimSuffix(line, "/")
		line = strings.TrimPrefix(line, "/")
		if strings.ContainsAny(line, "*?[") {
			filter.ignoredPatterns = append(filter.ignoredPatterns, line)
			continue
		}
		filter.ignoredNames[line] = struct{}{}
	}
}
