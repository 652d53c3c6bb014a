package api

import (
	"context"
	"time"
)

// PollFunc fetches the current status of a long-running backend job.
type PollFunc func(ctx context.Context) (status string, message string, err error)

// PollResult is the terminal observation of a polling loop.
type PollResult struct {
	Status   string
	Message  string
	Attempts int
}

// IsTerminal reports whether a job status ends a polling loop.
// "running" keeps polling; everything else (success, error, idle) stops.
func IsTerminal(status string) bool {
	return status != StatusRunning
}

// Poll calls fetch on a fixed delay until the job reports a terminal status
// or a request fails. Attempts are unbounded; the caller's context is the
// only upper bound. Each observation is passed to onTick when non-nil.
func Poll(ctx context.Context, interval time.Duration, fetch PollFunc, onTick func(status, message string)) (*PollResult, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	attempts := 0
	for {
		attempts++
		status, message, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if onTick != nil {
			onTick(status, message)
		}
		if IsTerminal(status) {
			return &PollResult{Status: status, Message: message, Attempts: attempts}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
