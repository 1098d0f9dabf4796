// Package patch implements the bespoke "*** Begin Patch" dialect: a linewise
// format with per-file actions (Add, Delete, Update) and, for Update, a
// sequence of @@-delimited sections matched against the target file with
// three-pass fuzzy context matching.
package patch

import (
	"fmt"
	"strings"
)

type actionType int

const (
	actionAdd actionType = iota
	actionDelete
	actionUpdate
)

// Chunk is a contiguous (delete, insert) pair anchored at an absolute line
// index in the target file.
type Chunk struct {
	OrigIndex int
	DelLines  []string
	InsLines  []string
}

type patchAction struct {
	kind     actionType
	newFile  *string
	chunks   []Chunk
	movePath *string
}

// Error reports a patch that failed to parse or apply, carrying the exact
// message text the caller should surface to the model.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func errorf(format string, args ...interface{}) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

type parser struct {
	currentFiles map[string]string
	lines        []string
	index        int
	actions      map[string]*patchAction
	order        []string
	fuzz         int
}

func newParser(currentFiles map[string]string, lines []string) *parser {
	return &parser{
		currentFiles: currentFiles,
		lines:        lines,
		index:        1, // skip "*** Begin Patch", checked by the caller
		actions:      make(map[string]*patchAction),
	}
}

func (p *parser) isDone(prefixes ...string) bool {
	if p.index >= len(p.lines) {
		return true
	}
	line := p.lines[p.index]
	for _, prefix := range prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func (p *parser) readStr(prefix string) (string, bool) {
	if p.index >= len(p.lines) {
		return "", false
	}
	line := p.lines[p.index]
	if strings.HasPrefix(line, prefix) {
		text := line[len(prefix):]
		p.index++
		return text, true
	}
	return "", false
}

func (p *parser) insertAction(path string, action *patchAction) {
	if _, exists := p.actions[path]; !exists {
		p.order = append(p.order, path)
	}
	p.actions[path] = action
}

func (p *parser) parse() error {
	for !p.isDone("*** End Patch") {
		if path, ok := p.readStr("*** Update File: "); ok {
			if _, exists := p.actions[path]; exists {
				return errorf("Update File Error: Duplicate Path: %s", path)
			}
			moveTo, hasMove := p.readStr("*** Move to: ")

			text, ok := p.currentFiles[path]
			if !ok {
				return errorf("Update File Error: Missing File: %s", path)
			}

			action, err := p.parseUpdateFile(text)
			if err != nil {
				return err
			}
			if hasMove {
				action.movePath = &moveTo
			}
			p.insertAction(path, action)
			continue
		}
		if path, ok := p.readStr("*** Delete File: "); ok {
			if _, exists := p.actions[path]; exists {
				return errorf("Delete File Error: Duplicate Path: %s", path)
			}
			if _, ok := p.currentFiles[path]; !ok {
				return errorf("Delete File Error: Missing File: %s", path)
			}
			p.insertAction(path, &patchAction{kind: actionDelete})
			continue
		}
		if path, ok := p.readStr("*** Add File: "); ok {
			if _, exists := p.actions[path]; exists {
				return errorf("Add File Error: Duplicate Path: %s", path)
			}
			action, err := p.parseAddFile()
			if err != nil {
				return err
			}
			p.insertAction(path, action)
			continue
		}
		return errorf("Unknown Line: %s", p.lines[p.index])
	}
	if p.index >= len(p.lines) || p.lines[p.index] != "*** End Patch" {
		return errorf("Missing End Patch")
	}
	p.index++
	return nil
}

func (p *parser) parseUpdateFile(text string) (*patchAction, error) {
	action := &patchAction{kind: actionUpdate}
	lines := strings.Split(text, "\n")
	index := 0

	terminators := []string{
		"*** End Patch",
		"*** Update File:",
		"*** Delete File:",
		"*** Add File:",
		"*** End of File",
	}

	for !p.isDone(terminators...) {
		defStr, hasDef := p.readStr("@@ ")
		sectionBare := false
		if !hasDef && p.index < len(p.lines) && p.lines[p.index] == "@@" {
			sectionBare = true
			p.index++
		}

		if !hasDef && !sectionBare && index != 0 {
			return nil, errorf("Invalid Line:\n%s", p.lines[p.index])
		}

		if hasDef && strings.TrimSpace(defStr) != "" {
			found := false
			for i := index; i < len(lines); i++ {
				if lines[i] == defStr {
					index = i + 1
					found = true
					break
				}
			}
			if !found {
				for i := index; i < len(lines); i++ {
					if strings.TrimSpace(lines[i]) == strings.TrimSpace(defStr) {
						index = i + 1
						p.fuzz++
						break
					}
				}
			}
		}

		nextChunkContext, chunks, endPatchIndex, eof, err := peekNextSection(p.lines, p.index)
		if err != nil {
			return nil, err
		}

		newIndex, fuzz := findContext(lines, nextChunkContext, index, eof)
		if newIndex < 0 {
			return nil, errorf("Invalid Context %d:\n%s", index, strings.Join(nextChunkContext, "\n"))
		}

		p.fuzz += fuzz
		for _, ch := range chunks {
			ch.OrigIndex += newIndex
			action.chunks = append(action.chunks, ch)
		}
		index = newIndex + len(nextChunkContext)
		p.index = endPatchIndex
	}
	return action, nil
}

func (p *parser) parseAddFile() (*patchAction, error) {
	var lines []string
	terminators := []string{
		"*** End Patch",
		"*** Update File:",
		"*** Delete File:",
		"*** Add File:",
	}
	for !p.isDone(terminators...) {
		line := p.lines[p.index]
		if !strings.HasPrefix(line, "+") {
			return nil, errorf("Invalid Add File Line: %s", line)
		}
		lines = append(lines, line[1:])
		p.index++
	}
	body := strings.Join(lines, "\n")
	return &patchAction{kind: actionAdd, newFile: &body}, nil
}

// peekNextSection scans a single @@ section starting at index, returning the
// old-side context lines, the chunks coalesced from it, the index just past
// the section (and any trailing "*** End of File" marker), and whether that
// marker was present.
func peekNextSection(lines []string, index int) (old []string, chunks []Chunk, next int, eof bool, err error) {
	var delLines, insLines []string
	mode := "keep"
	origIndex := index

	for index < len(lines) {
		s := lines[index]
		if strings.HasPrefix(s, "@@") ||
			strings.HasPrefix(s, "*** End Patch") ||
			strings.HasPrefix(s, "*** Update File:") ||
			strings.HasPrefix(s, "*** Delete File:") ||
			strings.HasPrefix(s, "*** Add File:") ||
			strings.HasPrefix(s, "*** End of File") {
			break
		}
		if s == "***" {
			break
		} else if strings.HasPrefix(s, "***") {
			return nil, nil, 0, false, errorf("Invalid Line: %s", s)
		}

		index++
		lastMode := mode
		lineContent := s
		if lineContent == "" {
			lineContent = " "
		}

		char0 := lineContent[0]
		content := ""
		if len(lineContent) > 1 {
			content = lineContent[1:]
		}

		switch char0 {
		case '+':
			mode = "add"
		case '-':
			mode = "delete"
		case ' ':
			mode = "keep"
		default:
			return nil, nil, 0, false, errorf("Invalid Line: %s", s)
		}

		if mode == "keep" && lastMode != mode {
			if len(insLines) > 0 || len(delLines) > 0 {
				chunks = append(chunks, Chunk{
					OrigIndex: len(old) - len(delLines),
					DelLines:  append([]string(nil), delLines...),
					InsLines:  append([]string(nil), insLines...),
				})
			}
			delLines = nil
			insLines = nil
		}

		switch mode {
		case "add":
			insLines = append(insLines, content)
		case "delete":
			delLines = append(delLines, content)
			old = append(old, content)
		case "keep":
			old = append(old, content)
		}
	}

	if len(insLines) > 0 || len(delLines) > 0 {
		chunks = append(chunks, Chunk{
			OrigIndex: len(old) - len(delLines),
			DelLines:  append([]string(nil), delLines...),
			InsLines:  append([]string(nil), insLines...),
		})
	}

	if index < len(lines) && lines[index] == "*** End of File" {
		index++
		eof = true
	}

	if index == origIndex {
		return nil, nil, 0, false, errorf("Nothing in this section - index=%d", index)
	}

	return old, chunks, index, eof, nil
}

// findContext tries, when eof is set, to anchor against the file's tail
// before falling back to a forward scan from start; a successful fallback
// match is penalized with the 10000 EOF-mismatch fuzz weight.
func findContext(lines []string, context []string, start int, eof bool) (int, int) {
	if eof {
		tailStart := len(lines) - len(context)
		if tailStart < 0 {
			tailStart = 0
		}
		if idx, fuzz := findContextCore(lines, context, tailStart); idx >= 0 {
			return idx, fuzz
		}
		if idx, fuzz := findContextCore(lines, context, start); idx >= 0 {
			return idx, fuzz + 10000
		}
	}
	return findContextCore(lines, context, start)
}

// findContextCore tries exact, right-trim, then full-trim equality in turn,
// returning the first hit's index and its fuzz weight, or (-1, 0).
func findContextCore(lines []string, context []string, start int) (int, int) {
	if len(context) == 0 {
		return start, 0
	}

	for i := start; i+len(context) <= len(lines); i++ {
		if linesEqual(lines[i:i+len(context)], context, same) {
			return i, 0
		}
	}
	for i := start; i+len(context) <= len(lines); i++ {
		if linesEqual(lines[i:i+len(context)], context, rightTrimEqual) {
			return i, 1
		}
	}
	for i := start; i+len(context) <= len(lines); i++ {
		if linesEqual(lines[i:i+len(context)], context, fullTrimEqual) {
			return i, 100
		}
	}
	return -1, 0
}

func linesEqual(a, b []string, eq func(string, string) bool) bool {
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

func same(a, b string) bool           { return a == b }
func rightTrimEqual(a, b string) bool { return strings.TrimRight(a, " \t") == strings.TrimRight(b, " \t") }
func fullTrimEqual(a, b string) bool  { return strings.TrimSpace(a) == strings.TrimSpace(b) }

// getUpdatedFile walks text's lines, copying verbatim between chunks,
// substituting each chunk's insert lines, and skipping its delete lines.
func getUpdatedFile(text string, action *patchAction, path string) (string, error) {
	origLines := strings.Split(text, "\n")
	var dest []string
	origIndex := 0

	for _, chunk := range action.chunks {
		if chunk.OrigIndex > len(origLines) {
			return "", errorf("%s: chunk.orig_index %d > len(lines) %d", path, chunk.OrigIndex, len(origLines))
		}
		if origIndex > chunk.OrigIndex {
			return "", errorf("%s: orig_index %d > chunk.orig_index %d", path, origIndex, chunk.OrigIndex)
		}

		dest = append(dest, origLines[origIndex:chunk.OrigIndex]...)
		origIndex = chunk.OrigIndex

		dest = append(dest, chunk.InsLines...)
		origIndex += len(chunk.DelLines)
	}

	dest = append(dest, origLines[origIndex:]...)
	return strings.Join(dest, "\n"), nil
}

// Result is the outcome of a successful ProcessPatch: Files maps each
// touched path to its new content, or nil to mean "delete this path".
type Result struct {
	Message string
	Fuzz    int
	Files   map[string]*string
}

// ProcessPatch parses and applies text against origFiles (the pre-read
// content of every path named by a prior IdentifyFilesNeeded call).
func ProcessPatch(text string, origFiles map[string]string) (Result, error) {
	if !strings.HasPrefix(text, "*** Begin Patch") {
		return Result{}, errorf("Invalid patch text")
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || lines[len(lines)-1] != "*** End Patch" {
		return Result{}, errorf("Missing End Patch")
	}

	p := newParser(origFiles, lines)
	if err := p.parse(); err != nil {
		return Result{}, err
	}

	resultFiles := make(map[string]*string)
	for _, path := range p.order {
		action := p.actions[path]
		switch action.kind {
		case actionDelete:
			resultFiles[path] = nil
		case actionAdd:
			resultFiles[path] = action.newFile
		case actionUpdate:
			orig := origFiles[path]
			newContent, err := getUpdatedFile(orig, action, path)
			if err != nil {
				return Result{}, err
			}
			if action.movePath != nil {
				resultFiles[path] = nil
				resultFiles[*action.movePath] = &newContent
			} else {
				resultFiles[path] = &newContent
			}
		}
	}

	return Result{Message: "Done!", Fuzz: p.fuzz, Files: resultFiles}, nil
}

// IdentifyFilesNeeded scans for "*** Update File:" and "*** Delete File:"
// headers and returns the referenced paths. Add targets are excluded since
// they carry no original content to read.
func IdentifyFilesNeeded(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if path, ok := strings.CutPrefix(line, "*** Update File: "); ok {
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
		if path, ok := strings.CutPrefix(line, "*** Delete File: "); ok {
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	return out
}
