// Package workspace joins tool-supplied paths onto a workspace root.
package workspace

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Root joins relative and absolute paths onto a base directory.
//
// Unlike a sandboxing resolver, Root does not reject paths that escape the
// base directory via ".." segments or that are already absolute: whether a
// command is allowed to touch a given path is a concern of the Runtime a
// tool executes under (a container boundary, a chroot, a remote peer's own
// filesystem permissions), not of this package. Root only answers "where is
// this path relative to my base," the same way workspace_dir.join(&path)
// does in the reference implementation this module is modeled on.
type Root struct {
	Base string
}

// New returns a Root anchored at base. An empty base resolves to the
// current working directory.
func New(base string) Root {
	if strings.TrimSpace(base) == "" {
		base = "."
	}
	return Root{Base: base}
}

// Join resolves path against the root, returning a cleaned absolute path.
func (r Root) Join(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	base := r.Base
	if strings.TrimSpace(base) == "" {
		base = "."
	}
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Clean(filepath.Join(baseAbs, path)), nil
}

// Display renders a path the way it should be shown back to a model: the
// original, tool-supplied form rather than the resolved absolute one.
func Display(original string) string {
	return filepath.Clean(original)
}
