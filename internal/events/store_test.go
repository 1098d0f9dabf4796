package events

import (
	"testing"
)

func TestSaveGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	cmd := NewBashCommand("echo hello", nil, 5)
	if err := store.Save(cmd); err != nil {
		t.Fatalf("save command: %v", err)
	}

	got, ok, err := store.Get(cmd.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected command to be found")
	}
	if got.Command != "echo hello" {
		t.Fatalf("got command %q", got.Command)
	}
}

func TestSearchByCommandIDSortedByTimestamp(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	cmd := NewBashCommand("echo hi", nil, 5)
	if err := store.Save(cmd); err != nil {
		t.Fatalf("save command: %v", err)
	}
	out := NewBashOutput(cmd.ID, 0, 0, StrPtr("hi\n"), nil)
	if err := store.Save(out); err != nil {
		t.Fatalf("save output: %v", err)
	}

	page, err := store.Search(&cmd.ID)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page.Items))
	}
	if page.Items[0].Type != KindBashCommand || page.Items[1].Type != KindBashOutput {
		t.Fatalf("expected command before output, got %v then %v", page.Items[0].Type, page.Items[1].Type)
	}
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, ok, err := store.Get(NewBashCommand("noop", nil, 1).ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}
