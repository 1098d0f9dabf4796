// Package fileops implements the read_file, write_file, list_files, and
// delete_file tools: plain filesystem access scoped to a workspace root.
package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kaelorun/agentcore/internal/workspace"
)

const maxLinesPerRead = 1000
const maxListEntries = 1000
const maxWalkDepth = 2

// Ops implements the four file-operation tools against a workspace root.
type Ops struct {
	root workspace.Root
}

// New returns an Ops scoped to root.
func New(root workspace.Root) *Ops {
	return &Ops{root: root}
}

func linesOf(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func makeNumberedOutput(content string, startLine int) string {
	lines := linesOf(content)
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%6d\t%s", i+startLine, line)
	}
	return strings.Join(numbered, "\n")
}

// ReadFile returns a line-numbered view of path, paginated by offset/limit.
func (o *Ops) ReadFile(path string, offset, limit *uint64) (string, error) {
	full, err := o.root.Join(path)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	disp := workspace.Display(path)

	info, statErr := os.Stat(full)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return fmt.Sprintf("Error: File not found: %s. Please check the path and try again.", disp), nil
		}
		return fmt.Sprintf("Error reading file %s: %v", disp, statErr), nil
	}
	if info.IsDir() {
		return fmt.Sprintf("Error: Path is a directory, not a file: %s. Use list_files instead.", disp), nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Sprintf("Error reading file %s: %v", disp, err), nil
	}

	lines := linesOf(string(data))
	totalLines := len(lines)
	off := uint64(0)
	if offset != nil {
		off = *offset
	}

	if off >= uint64(totalLines) && totalLines > 0 {
		return fmt.Sprintf("Error: Offset %d is beyond file length (%d lines). Use a smaller offset.", off, totalLines), nil
	}

	lim := uint64(maxLinesPerRead)
	if limit != nil {
		lim = *limit
	}
	end := off + lim
	if end > uint64(totalLines) {
		end = uint64(totalLines)
	}

	var shown []string
	if off < uint64(totalLines) {
		shown = lines[off:end]
	}
	contentToShow := strings.Join(shown, "\n")
	numbered := makeNumberedOutput(contentToShow, int(off)+1)

	isTruncated := end < uint64(totalLines)
	header := fmt.Sprintf("Read file: %s", disp)
	if isTruncated {
		header += fmt.Sprintf(" (showing lines %d-%d of %d)", off+1, end, totalLines)
		header += fmt.Sprintf("\nTo read more, use: read_file(path='%s', offset=%d, limit=%d)", path, end, lim)
	}

	return fmt.Sprintf("%s\n\n%s", header, numbered), nil
}

// WriteFile writes content to path, creating parent directories as needed.
func (o *Ops) WriteFile(path, content string) (string, error) {
	full, err := o.root.Join(path)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	disp := workspace.Display(path)

	if info, statErr := os.Stat(full); statErr == nil && info.IsDir() {
		return fmt.Sprintf("Error: Path is a directory, not a file: %s. Cannot write to a directory.", disp), nil
	}
	isNewFile := true
	if _, statErr := os.Stat(full); statErr == nil {
		isNewFile = false
	}

	if parent := filepath.Dir(full); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Sprintf("Error creating parent directory for %s: %v", disp, err), nil
		}
	}

	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Sprintf("Error writing file %s: %v", disp, err), nil
	}

	verb := "Updated"
	if isNewFile {
		verb = "Created"
	}
	return fmt.Sprintf("%s file: %s", verb, disp), nil
}

// ListFiles lists directory entries at path, optionally recursing up to two levels.
func (o *Ops) ListFiles(path string, recursive bool) (string, error) {
	full, err := o.root.Join(path)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	disp := workspace.Display(path)

	info, statErr := os.Stat(full)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return fmt.Sprintf("Error: Directory not found: %s. Please check the path.", disp), nil
		}
		return fmt.Sprintf("Error: Failed to list directory %s: %v", disp, statErr), nil
	}
	if !info.IsDir() {
		return fmt.Sprintf("Error: Path is not a directory: %s. Use read_file for files.", disp), nil
	}

	var entries []string
	if recursive {
		entries, err = walkEntries(full)
		if err != nil {
			return fmt.Sprintf("Error: Failed to list directory %s: %v", disp, err), nil
		}
	} else {
		dirEntries, err := os.ReadDir(full)
		if err != nil {
			return fmt.Sprintf("Error: Failed to list directory %s: %v", disp, err), nil
		}
		for _, de := range dirEntries {
			typeStr := "file"
			if de.IsDir() {
				typeStr = "dir"
			}
			entries = append(entries, fmt.Sprintf("%s (%s)", de.Name(), typeStr))
			if len(entries) >= maxListEntries {
				break
			}
		}
	}

	sort.Strings(entries)
	totalCount := len(entries)
	truncated := totalCount >= maxListEntries

	header := fmt.Sprintf("Listed directory: %s (%d entries", disp, totalCount)
	if truncated {
		header += ", truncated to 1000"
	}
	header += ")"

	return fmt.Sprintf("%s\n%s", header, strings.Join(entries, "\n")), nil
}

func walkEntries(root string) ([]string, error) {
	var entries []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if len(entries) >= maxListEntries {
			return filepath.SkipDir
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if depth > maxWalkDepth {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		typeStr := "file"
		if info.IsDir() {
			typeStr = "dir"
		}
		entries = append(entries, fmt.Sprintf("%s (%s)", rel, typeStr))
		if len(entries) >= maxListEntries {
			return nil
		}
		return nil
	})
	return entries, err
}

// DeleteFile removes a file or, recursively, a directory at path.
func (o *Ops) DeleteFile(path string) (string, error) {
	full, err := o.root.Join(path)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	disp := workspace.Display(path)

	info, statErr := os.Stat(full)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return fmt.Sprintf("Error: File not found: %s. Cannot delete a file that doesn't exist.", disp), nil
		}
		return fmt.Sprintf("Error deleting file %s: %v", disp, statErr), nil
	}

	if info.IsDir() {
		if err := os.RemoveAll(full); err != nil {
			return fmt.Sprintf("Error deleting directory %s: %v", disp, err), nil
		}
		return fmt.Sprintf("Deleted directory: %s", disp), nil
	}

	if err := os.Remove(full); err != nil {
		return fmt.Sprintf("Error deleting file %s: %v", disp, err), nil
	}
	return fmt.Sprintf("Deleted file: %s", disp), nil
}
