// Package fileeditor implements the "file_editor" tool: structured
// view/create/str_replace/insert/undo_edit operations over workspace files,
// with a per-path undo history.
package fileeditor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kaelorun/agentcore/internal/workspace"
)

// snippetContextWindow is how many lines of surrounding context a
// str_replace/insert snippet shows on either side of the edit.
const snippetContextWindow = 4

// Editor owns the per-path undo history for a workspace root. The zero
// value is not usable; build one with New.
type Editor struct {
	root workspace.Root

	mu      sync.Mutex
	history map[string][]string
}

// New returns an Editor scoped to root.
func New(root workspace.Root) *Editor {
	return &Editor{root: root, history: make(map[string][]string)}
}

func (e *Editor) pushHistory(path, content string) {
	e.mu.Lock()
	e.history[path] = append(e.history[path], content)
	e.mu.Unlock()
}

func (e *Editor) popHistory(path string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	versions := e.history[path]
	if len(versions) == 0 {
		return "", false
	}
	prev := versions[len(versions)-1]
	e.history[path] = versions[:len(versions)-1]
	return prev, true
}

// linesOf mirrors Rust's str::lines(): splitting on "\n" without producing
// a trailing empty element for a file that ends in a newline.
func linesOf(s string) []string {
	parts := strings.Split(s, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func makeOutput(snippetContent, snippetDescription string, startLine int) string {
	lines := linesOf(snippetContent)
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%6d\t%s", i+startLine, line)
	}
	return fmt.Sprintf("Here's the result of running `cat -n` on %s:\n%s\n", snippetDescription, strings.Join(numbered, "\n"))
}

// Args mirrors the file_editor tool's JSON argument shape.
type Args struct {
	Command    string `json:"command"`
	Path       string `json:"path"`
	FileText   *string `json:"file_text"`
	ViewRange  []int64 `json:"view_range"`
	OldStr     *string `json:"old_str"`
	NewStr     *string `json:"new_str"`
	InsertLine *uint64 `json:"insert_line"`
}

// Run dispatches one file_editor subcommand and returns its rendered text,
// including the "Error: " prefix for validation/user-domain failures. A
// non-nil error means an infrastructure failure (I/O after validation
// passed), which the caller should surface as a tool failure rather than a
// successful "Error: " output.
func (e *Editor) Run(args Args) (string, error) {
	resolved, err := e.root.Join(args.Path)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	display := workspace.Display(args.Path)

	switch args.Command {
	case "view":
		return e.view(resolved, display, args.ViewRange)
	case "create":
		return e.create(resolved, display, args.FileText)
	case "str_replace":
		return e.strReplace(resolved, display, args.OldStr, args.NewStr)
	case "insert":
		return e.insert(resolved, display, args.InsertLine, args.NewStr, args.FileText)
	case "undo_edit":
		return e.undo(resolved, display)
	default:
		return fmt.Sprintf("Error: Unrecognized command '%s'. Use view, create, str_replace, insert, or undo_edit.", args.Command), nil
	}
}

func (e *Editor) view(resolved, display string, viewRange []int64) (string, error) {
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Sprintf("Error: The path %s does not exist. Please provide a valid path.", display), nil
	}

	if info.IsDir() {
		entries, err := os.ReadDir(resolved)
		if err != nil {
			return fmt.Sprintf("Error: Failed to list directory %s: %v", display, err), nil
		}
		var names []string
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			if entry.IsDir() {
				names = append(names, name+"/")
			} else {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		return fmt.Sprintf("Here's the files and directories in %s, excluding hidden items:\n%s", display, strings.Join(names, "\n")), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Sprintf("Error: Failed to read file %s: %v", display, err), nil
	}
	lines := linesOf(string(data))
	numLines := len(lines)

	startLine, endLine := 1, numLines
	if viewRange != nil {
		if len(viewRange) != 2 {
			return "Error: view_range should be a list of two integers.", nil
		}
		s, e := int(viewRange[0]), int(viewRange[1])
		if s < 1 || s > numLines {
			return fmt.Sprintf("Error: Its first element `%d` should be within the range of lines of the file: [1, %d].", s, numLines), nil
		}
		if e < s {
			return fmt.Sprintf("Error: Its second element `%d` should be greater than or equal to the first element `%d`.", e, s), nil
		}
		startLine, endLine = s, e
	}
	if endLine > numLines {
		endLine = numLines
	}

	snippet := strings.Join(lines[startLine-1:endLine], "\n")
	return makeOutput(snippet, display, startLine), nil
}

func (e *Editor) create(resolved, display string, fileText *string) (string, error) {
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Sprintf("Error: File already exists at: %s. Cannot overwrite files using command `create`. Use `str_replace` to edit the file instead.", display), nil
	}
	if fileText == nil {
		return "Error: Missing file_text parameter for create command.", nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Sprintf("Error: Failed to create parent directories for %s: %v", display, err), nil
	}
	if err := os.WriteFile(resolved, []byte(*fileText), 0o644); err != nil {
		return fmt.Sprintf("Error: Failed to write to %s: %v", display, err), nil
	}
	return fmt.Sprintf("File created successfully at: %s", display), nil
}

func (e *Editor) strReplace(resolved, display string, oldStr, newStr *string) (string, error) {
	if _, err := os.Stat(resolved); err != nil {
		return fmt.Sprintf("Error: The path %s does not exist. Please check the file path.", display), nil
	}
	if oldStr == nil {
		return "Error: Missing old_str parameter for str_replace command.", nil
	}
	if newStr == nil {
		return "Error: Missing new_str parameter for str_replace command.", nil
	}
	if *oldStr == *newStr {
		return "Error: No replacement was performed. `new_str` and `old_str` must be different. Please provide different values.", nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	content := string(data)

	indices := matchIndices(content, *oldStr)
	if len(indices) == 0 {
		return fmt.Sprintf("Error: No replacement was performed, old_str `%s` did not appear verbatim in %s. Please check the file content and try again with the correct string.", *oldStr, display), nil
	}
	if len(indices) > 1 {
		lineNumbers := make([]string, len(indices))
		for i, idx := range indices {
			lineNumbers[i] = strconv.Itoa(strings.Count(content[:idx], "\n") + 1)
		}
		return fmt.Sprintf("Error: No replacement was performed. Multiple occurrences of old_str `%s` in lines [%s]. Please provide more context to make the match unique.", *oldStr, strings.Join(lineNumbers, ", ")), nil
	}

	idx := indices[0]
	replacementLine := strings.Count(content[:idx], "\n") + 1
	newContent := content[:idx] + *newStr + content[idx+len(*oldStr):]

	e.pushHistory(resolved, content)

	if err := os.WriteFile(resolved, []byte(newContent), 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	startLine := replacementLine - snippetContextWindow
	if startLine < 0 {
		startLine = 0
	}
	endLine := replacementLine + snippetContextWindow + strings.Count(*newStr, "\n")

	lines := linesOf(newContent)
	snippet := sliceJoin(lines, startLine, endLine)
	rendered := makeOutput(snippet, "a snippet of "+display, startLine+1)

	return fmt.Sprintf("The file %s has been edited. %sReview the changes and make sure they are as expected. Edit the file again if necessary.", display, rendered), nil
}

func (e *Editor) insert(resolved, display string, insertLine *uint64, newStr, fileText *string) (string, error) {
	if insertLine == nil {
		return "Error: Missing insert_line parameter for insert command.", nil
	}
	var textToInsert string
	switch {
	case newStr != nil:
		textToInsert = *newStr
	case fileText != nil:
		textToInsert = *fileText
	default:
		return "Error: Missing new_str (or file_text) for insert command.", nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Sprintf("Error: Failed to read file %s: %v", display, err), nil
	}
	content := string(data)
	e.pushHistory(resolved, content)

	lines := linesOf(content)
	idx := 0
	if *insertLine > 0 {
		idx = int(*insertLine) - 1
	}
	if idx > len(lines) {
		return fmt.Sprintf("Error: insert_line %d should be within the range of allowed values: [0, %d]", *insertLine, len(lines)), nil
	}

	insertedLinesCount := len(linesOf(textToInsert))

	if idx == len(lines) {
		lines = append(lines, textToInsert)
	} else {
		lines = append(lines[:idx], append([]string{textToInsert}, lines[idx:]...)...)
	}
	newContent := strings.Join(lines, "\n")

	if err := os.WriteFile(resolved, []byte(newContent), 0o644); err != nil {
		return fmt.Sprintf("Error: Failed to write file %s: %v", display, err), nil
	}

	startLine := int(*insertLine) - snippetContextWindow
	if startLine < 0 {
		startLine = 0
	}
	endLine := int(*insertLine) + snippetContextWindow + insertedLinesCount

	newLines := linesOf(newContent)
	snippet := sliceJoin(newLines, startLine, endLine)
	rendered := makeOutput(snippet, "a snippet of the edited file", startLine+1)

	return fmt.Sprintf("The file %s has been edited. %sReview the changes and make sure they are as expected (correct indentation, no duplicate lines, etc). Edit the file again if necessary.", display, rendered), nil
}

func (e *Editor) undo(resolved, display string) (string, error) {
	prev, ok := e.popHistory(resolved)
	if !ok {
		return fmt.Sprintf("Error: No edit history found for %s", display), nil
	}
	if err := os.WriteFile(resolved, []byte(prev), 0o644); err != nil {
		return fmt.Sprintf("Error: Failed to restore file %s: %v", display, err), nil
	}
	return fmt.Sprintf("Last edit to %s undone successfully. %s", display, makeOutput(prev, display, 1)), nil
}

// matchIndices returns the byte offsets of every non-overlapping occurrence
// of sub in s, scanning left to right (matching Rust's match_indices).
func matchIndices(s, sub string) []int {
	if sub == "" {
		return nil
	}
	var out []int
	offset := 0
	for {
		i := strings.Index(s[offset:], sub)
		if i < 0 {
			break
		}
		out = append(out, offset+i)
		offset += i + len(sub)
	}
	return out
}

func sliceJoin(lines []string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if start > len(lines) {
		start = len(lines)
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	return strings.Join(lines[start:end], "\n")
}
