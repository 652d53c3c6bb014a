package api

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestPollStopsOnTerminalStatus(t *testing.T) {
	script := []string{StatusRunning, StatusRunning, StatusSuccess}
	i := 0
	var ticks []string

	result, err := Poll(context.Background(), time.Millisecond,
		func(ctx context.Context) (string, string, error) {
			status := script[i]
			i++
			return status, "msg " + status, nil
		},
		func(status, message string) { ticks = append(ticks, status) },
	)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Status != StatusSuccess || result.Attempts != 3 {
		t.Fatalf("result = %+v", result)
	}
	if len(ticks) != 3 || ticks[2] != StatusSuccess {
		t.Fatalf("ticks = %v", ticks)
	}
}

func TestPollAnyNonRunningStatusIsTerminal(t *testing.T) {
	for _, status := range []string{StatusSuccess, StatusError, StatusIdle, "weird"} {
		if !IsTerminal(status) {
			t.Fatalf("IsTerminal(%q) = false", status)
		}
	}
	if IsTerminal(StatusRunning) {
		t.Fatal("running must keep polling")
	}
}

func TestPollFetchErrorStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Poll(context.Background(), time.Millisecond,
		func(ctx context.Context) (string, string, error) {
			calls++
			return "", "", fmt.Errorf("backend gone")
		}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestPollContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Poll(ctx, time.Hour,
		func(ctx context.Context) (string, string, error) {
			return StatusRunning, "", nil
		}, nil)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
