// Package search implements the glob and grep tools: pattern-based file
// discovery and content search scoped to a workspace root.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kaelorun/agentcore/internal/workspace"
)

const maxMatches = 100
const maxGrepDepth = 64

// Search implements the glob and grep tools against a workspace root.
type Search struct {
	root workspace.Root
}

// New returns a Search scoped to root.
func New(root workspace.Root) *Search {
	return &Search{root: root}
}

func (s *Search) basePath(path *string) (string, error) {
	if path == nil || *path == "" {
		return s.root.Join(".")
	}
	return s.root.Join(*path)
}

// Glob returns files under basePath (or the workspace root) matching a
// shell-style pattern, including "**" for recursive descent.
func (s *Search) Glob(pattern string, path *string) (string, error) {
	base, err := s.basePath(path)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	baseDisplay := displayBase(path, base)

	info, statErr := os.Stat(base)
	if statErr != nil || !info.IsDir() {
		return fmt.Sprintf("Path '%s' is not a valid directory", baseDisplay), nil
	}

	var fullPattern string
	if filepath.IsAbs(pattern) {
		fullPattern = pattern
	} else {
		fullPattern = filepath.Join(base, pattern)
	}

	matches, err := globMatch(fullPattern)
	if err != nil {
		return fmt.Sprintf("Error: Invalid glob pattern '%s': %v", pattern, err), nil
	}

	truncated := false
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
		truncated = true
	}
	sort.Strings(matches)

	count := len(matches)
	if count == 0 {
		return fmt.Sprintf("No files found matching pattern '%s' in directory '%s'", pattern, baseDisplay), nil
	}

	output := fmt.Sprintf("Found %d file(s) matching pattern '%s' in '%s':\n%s", count, pattern, baseDisplay, strings.Join(matches, "\n"))
	if truncated {
		output += "\n\n[Results truncated to first 100 files. Consider using a more specific pattern.]"
	}
	return output, nil
}

// globMatch expands a pattern that may contain "**" for recursive descent,
// falling back to filepath.Glob for patterns without it.
func globMatch(pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		return filepath.Glob(pattern)
	}

	idx := strings.Index(pattern, "**")
	prefix := strings.TrimRight(pattern[:idx], "/")
	rest := strings.TrimPrefix(pattern[idx+2:], "/")
	if rest == "" {
		rest = "*"
	}

	var matches []string
	root := prefix
	if root == "" {
		root = "."
	}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			if ok, _ := filepath.Match(rest, filepath.Base(rel)); ok {
				matches = append(matches, path)
			} else if ok, _ := filepath.Match(rest, rel); ok {
				matches = append(matches, path)
			}
			if len(matches) >= maxMatches+1 {
				return filepath.SkipAll
			}
		}
		return nil
	})
	return matches, err
}

// Grep returns files under basePath (or the workspace root) whose content
// matches a regular expression, optionally filtered by an include glob.
func (s *Search) Grep(pattern string, path *string, include *string) (string, error) {
	base, err := s.basePath(path)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	baseDisplay := displayBase(path, base)

	info, statErr := os.Stat(base)
	if statErr != nil || !info.IsDir() {
		return fmt.Sprintf("Path '%s' is not a valid directory", baseDisplay), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Sprintf("Error: Invalid regex pattern '%s': %v", pattern, err), nil
	}

	if include != nil {
		if _, err := filepath.Match(*include, "probe"); err != nil {
			return fmt.Sprintf("Error: Invalid include glob pattern '%s': %v", *include, err), nil
		}
	}

	var matches []string
	walkErr := filepath.Walk(base, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if len(matches) >= maxMatches {
			return filepath.SkipAll
		}
		if fi.IsDir() {
			return nil
		}
		if include != nil {
			if ok, _ := filepath.Match(*include, filepath.Base(p)); !ok {
				return nil
			}
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		if re.Match(data) {
			matches = append(matches, p)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Sprintf("Error: Failed to walk directory %s: %v", baseDisplay, walkErr), nil
	}

	truncated := len(matches) >= maxMatches
	count := len(matches)
	suffix := ""
	if include != nil {
		suffix = fmt.Sprintf(" (filtered by '%s')", *include)
	}

	if count == 0 {
		return fmt.Sprintf("No files found containing pattern '%s' in directory '%s'%s", pattern, baseDisplay, suffix), nil
	}

	output := fmt.Sprintf("Found %d file(s) containing pattern '%s' in '%s'%s:\n%s", count, pattern, baseDisplay, suffix, strings.Join(matches, "\n"))
	if truncated {
		output += "\n\n[Results truncated to first 100 files. Consider using a more specific pattern.]"
	}
	return output, nil
}

func displayBase(path *string, resolved string) string {
	if path == nil || *path == "" {
		return resolved
	}
	return workspace.Display(*path)
}
