package bashexec

import (
	"context"
	"time"

	"github.com/kaelorun/agentcore/internal/events"
)

// PollInterval is how often ExecuteAndWait re-checks the event store.
const PollInterval = 100 * time.Millisecond

// PollCeiling bounds how long ExecuteAndWait will wait before giving up.
// It deliberately sits a narrow margin above events.DefaultTimeoutSeconds:
// a command run with the default 300s timeout can still, in the worst
// case, take slightly longer than its own deadline to persist its output
// event, and the ceiling must outlive that.
const PollCeiling = 5 * time.Minute

// ExecuteAndWait starts command and polls the store for its terminal output,
// returning the last BashOutput seen for it. If PollCeiling elapses first it
// returns a synthetic -1/"Polling timed out" output without cancelling the
// underlying command.
func (e *Executor) ExecuteAndWait(ctx context.Context, command string, cwd *string, timeoutSeconds uint64) (events.Event, events.Event, error) {
	cmdEvent, err := e.Start(command, cwd, timeoutSeconds)
	if err != nil {
		return cmdEvent, events.Event{}, err
	}

	deadline := time.Now().Add(PollCeiling)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		page, err := e.store.Search(&cmdEvent.ID)
		if err != nil {
			return cmdEvent, events.Event{}, err
		}
		for _, ev := range page.Items {
			if ev.Type == events.KindBashOutput {
				return cmdEvent, ev, nil
			}
		}

		if time.Now().After(deadline) {
			return cmdEvent, syntheticTimeout(cmdEvent), nil
		}

		select {
		case <-ctx.Done():
			return cmdEvent, events.Event{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func syntheticTimeout(cmdEvent events.Event) events.Event {
	return events.NewBashOutput(cmdEvent.ID, 0, -1, nil, events.StrPtr("Polling timed out"))
}
