// Package bashexec spawns shell commands in the background and records
// their terminal output through an events.Store.
package bashexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaelorun/agentcore/internal/events"
)

// Executor runs "sh -c <command>" in the background, enforcing a per-command
// deadline, and persists exactly one terminal BashOutput per BashCommand.
type Executor struct {
	store *events.Store

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

// NewExecutor returns an Executor that persists through store.
func NewExecutor(store *events.Store) *Executor {
	return &Executor{
		store:   store,
		running: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start synchronously persists the initial BashCommand event, then spawns a
// background goroutine that runs the command and eventually persists exactly
// one terminal BashOutput. It returns the command event immediately.
func (e *Executor) Start(command string, cwd *string, timeoutSeconds uint64) (events.Event, error) {
	cmdEvent := events.NewBashCommand(command, cwd, timeoutSeconds)
	if err := e.store.Save(cmdEvent); err != nil {
		return cmdEvent, fmt.Errorf("persist command event: %w", err)
	}
	go e.run(cmdEvent)
	return cmdEvent, nil
}

// IsRunning reports whether commandID's background goroutine has not yet
// persisted a terminal output.
func (e *Executor) IsRunning(commandID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[commandID]
	return ok
}

func (e *Executor) trackRunning(id uuid.UUID, cancel context.CancelFunc) {
	e.mu.Lock()
	e.running[id] = cancel
	e.mu.Unlock()
}

func (e *Executor) untrackRunning(id uuid.UUID) {
	e.mu.Lock()
	delete(e.running, id)
	e.mu.Unlock()
}

func (e *Executor) run(cmdEvent events.Event) {
	timeout := time.Duration(cmdEvent.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	e.trackRunning(cmdEvent.ID, cancel)
	defer e.untrackRunning(cmdEvent.ID)

	cmd := exec.Command("sh", "-c", cmdEvent.Command)
	if cmdEvent.Cwd != nil {
		cmd.Dir = *cmdEvent.Cwd
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	output := e.runAndWait(ctx, cmd, cmdEvent.ID, &stdout, &stderr)
	// Best-effort persistence: a failure to write the terminal event is not
	// itself observable to the caller of Start, matching the store's
	// fire-and-forget write contract.
	_ = e.store.Save(output)
}

func (e *Executor) runAndWait(ctx context.Context, cmd *exec.Cmd, commandID uuid.UUID, stdout, stderr *bytes.Buffer) events.Event {
	if err := cmd.Start(); err != nil {
		return events.NewBashOutput(commandID, 0, -1, nil, events.StrPtr(fmt.Sprintf("Failed to spawn: %v", err)))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-done:
		exitCode := cmd.ProcessState.ExitCode()
		return events.NewBashOutput(commandID, 0, int32(exitCode), optionalString(stdout), optionalString(stderr))
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		return events.NewBashOutput(commandID, 0, -1, optionalString(stdout), events.StrPtr("Command timed out"))
	}
}

func optionalString(buf *bytes.Buffer) *string {
	if buf.Len() == 0 {
		return nil
	}
	s := buf.String()
	return &s
}
