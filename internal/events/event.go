// Package events defines the append-only bash event record and its
// on-disk file-per-event store.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two event shapes persisted by the store.
type Kind string

const (
	KindBashCommand Kind = "BashCommand"
	KindBashOutput  Kind = "BashOutput"
)

// Event is the tagged bash-layer record. Only the fields relevant to Type
// are populated; the others are left zero and omitted from JSON.
type Event struct {
	Type      Kind      `json:"type"`
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	// BashCommand fields.
	Command        string  `json:"command,omitempty"`
	Cwd            *string `json:"cwd,omitempty"`
	TimeoutSeconds uint64  `json:"timeout_seconds,omitempty"`

	// BashOutput fields.
	CommandID uuid.UUID `json:"command_id,omitempty"`
	Order     int32     `json:"order,omitempty"`
	ExitCode  *int32    `json:"exit_code,omitempty"`
	Stdout    *string   `json:"stdout,omitempty"`
	Stderr    *string   `json:"stderr,omitempty"`
}

// DefaultTimeoutSeconds is used by a BashCommand when the caller does not
// supply one.
const DefaultTimeoutSeconds = 300

// NewBashCommand builds a command event with a fresh id and the current
// timestamp.
func NewBashCommand(command string, cwd *string, timeoutSeconds uint64) Event {
	if timeoutSeconds == 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}
	return Event{
		Type:           KindBashCommand,
		ID:             uuid.New(),
		Timestamp:      time.Now().UTC(),
		Command:        command,
		Cwd:            cwd,
		TimeoutSeconds: timeoutSeconds,
	}
}

// NewBashOutput builds the terminal output event for commandID.
func NewBashOutput(commandID uuid.UUID, order int32, exitCode int32, stdout, stderr *string) Event {
	code := exitCode
	return Event{
		Type:      KindBashOutput,
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		CommandID: commandID,
		Order:     order,
		ExitCode:  &code,
		Stdout:    stdout,
		Stderr:    stderr,
	}
}

// StrPtr is a small helper for building optional string fields; it returns
// nil for an empty string so JSON encodes it as absent rather than "".
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
