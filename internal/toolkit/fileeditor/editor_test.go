package fileeditor

import (
	"strings"
	"testing"

	"github.com/kaelorun/agentcore/internal/workspace"
)

func strp(s string) *string { return &s }
func u64p(v uint64) *uint64 { return &v }

func TestCreateAndView(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))

	out, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("hello world")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "created successfully") {
		t.Fatalf("got %q", out)
	}

	out, err = e.Run(Args{Command: "view", Path: "test.txt"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(out, "hello world") || !strings.Contains(out, "cat -n") {
		t.Fatalf("got %q", out)
	}
}

func TestStrReplaceAndUndo(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))
	if _, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("hello world")}); err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := e.Run(Args{Command: "str_replace", Path: "test.txt", OldStr: strp("world"), NewStr: strp("agentcore")})
	if err != nil {
		t.Fatalf("str_replace: %v", err)
	}
	if !strings.Contains(out, "edited") {
		t.Fatalf("got %q", out)
	}
	if !strings.Contains(out, "     1\thello agentcore") {
		t.Fatalf("expected numbered snippet line, got %q", out)
	}

	out, err = e.Run(Args{Command: "undo_edit", Path: "test.txt"})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !strings.Contains(out, "undone successfully") {
		t.Fatalf("got %q", out)
	}

	view, err := e.Run(Args{Command: "view", Path: "test.txt"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(view, "hello world") {
		t.Fatalf("expected original content restored, got %q", view)
	}
}

func TestViewMissingPath(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))
	out, err := e.Run(Args{Command: "view", Path: "nonexistent.txt"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(out, "Error:") || !strings.Contains(out, "does not exist") {
		t.Fatalf("got %q", out)
	}
}

func TestCreateExistingFile(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))
	if _, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("existing")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("new")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "Error:") || !strings.Contains(out, "already exists") {
		t.Fatalf("got %q", out)
	}
}

func TestStrReplaceMultipleOccurrences(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))
	if _, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("hello hello hello")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := e.Run(Args{Command: "str_replace", Path: "test.txt", OldStr: strp("hello"), NewStr: strp("world")})
	if err != nil {
		t.Fatalf("str_replace: %v", err)
	}
	if !strings.Contains(out, "Error:") || !strings.Contains(out, "Multiple occurrences") {
		t.Fatalf("got %q", out)
	}
}

func TestStrReplaceNoMatch(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))
	if _, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("hello world")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := e.Run(Args{Command: "str_replace", Path: "test.txt", OldStr: strp("nope"), NewStr: strp("x")})
	if err != nil {
		t.Fatalf("str_replace: %v", err)
	}
	if !strings.Contains(out, "did not appear verbatim") {
		t.Fatalf("got %q", out)
	}
}

func TestInsertLine(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))
	if _, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("a\nb\nc")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := e.Run(Args{Command: "insert", Path: "test.txt", InsertLine: u64p(1), NewStr: strp("inserted")})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !strings.Contains(out, "edited") {
		t.Fatalf("got %q", out)
	}

	view, err := e.Run(Args{Command: "view", Path: "test.txt"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(view, "a\n") || !strings.Contains(view, "inserted") {
		t.Fatalf("got %q", view)
	}
}

func TestUndoWithoutHistory(t *testing.T) {
	dir := t.TempDir()
	e := New(workspace.New(dir))
	if _, err := e.Run(Args{Command: "create", Path: "test.txt", FileText: strp("x")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := e.Run(Args{Command: "undo_edit", Path: "test.txt"})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !strings.Contains(out, "No edit history found") {
		t.Fatalf("got %q", out)
	}
}
