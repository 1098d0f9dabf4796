package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Store persists events as one file per event under a directory, matching
// the filename convention YYYYMMDDHHMMSS_Kind_<ids>. It never mutates a
// file once written.
type Store struct {
	dir string
}

// NewStore ensures dir exists and returns a Store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bash events dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func hex(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

func (s *Store) filename(ev Event) string {
	ts := ev.Timestamp.UTC().Format("20060102150405")
	switch ev.Type {
	case KindBashCommand:
		return fmt.Sprintf("%s_%s_%s", ts, ev.Type, hex(ev.ID))
	case KindBashOutput:
		return fmt.Sprintf("%s_%s_%s_%s", ts, ev.Type, hex(ev.CommandID), hex(ev.ID))
	default:
		return fmt.Sprintf("%s_%s_%s", ts, ev.Type, hex(ev.ID))
	}
}

// Save writes ev as a single, whole file. The write is durable before Save
// returns: content is written to a temp file in the same directory and
// renamed into place, so a reader never observes a partial file under the
// final name.
func (s *Store) Save(ev Event) error {
	payload, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	final := filepath.Join(s.dir, s.filename(ev))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("finalize event: %w", err)
	}
	return nil
}

// Get resolves an event by its own id via a filename glob. It returns
// (nil, false, nil) if no matching, parseable file exists.
func (s *Store) Get(id uuid.UUID) (*Event, bool, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*_"+hex(id)))
	if err != nil {
		return nil, false, fmt.Errorf("glob events: %w", err)
	}
	for _, path := range matches {
		ev, ok := loadEvent(path)
		if ok {
			return &ev, true, nil
		}
	}
	return nil, false, nil
}

// Page mirrors the core's declared-but-unpopulated pagination cursor.
type Page struct {
	Items      []Event
	NextPageID *string
}

// Search returns all events, or those whose command_id matches when
// commandID is non-nil, sorted by timestamp ascending. Files that fail to
// deserialize are skipped silently: a concurrent writer may be mid-rename
// on some filesystems and that is not treated as an error.
func (s *Store) Search(commandID *uuid.UUID) (Page, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Page{}, nil
		}
		return Page{}, fmt.Errorf("read events dir: %w", err)
	}

	var out []Event
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		ev, ok := loadEvent(filepath.Join(s.dir, entry.Name()))
		if !ok {
			continue
		}
		if commandID != nil {
			matches := false
			switch ev.Type {
			case KindBashCommand:
				matches = ev.ID == *commandID
			case KindBashOutput:
				matches = ev.CommandID == *commandID
			}
			if !matches {
				continue
			}
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return Page{Items: out}, nil
}

func loadEvent(path string) (Event, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}
