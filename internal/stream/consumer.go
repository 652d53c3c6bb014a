package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// dataPrefix marks records of interest in the server-sent event body.
const dataPrefix = "data:"

// maxFrameSize bounds a single frame. final_html frames carry a whole
// rendered report, so this is generous.
const maxFrameSize = 4 * 1024 * 1024

// Consumer reads one analysis stream and pushes decoded events to handlers.
// It holds no state between invocations of Stream.
type Consumer struct {
	client *resty.Client
}

// NewConsumer creates a stream consumer sharing the API client's transport.
func NewConsumer(client *resty.Client) *Consumer {
	return &Consumer{client: client}
}

// Stream opens the analysis stream for (symbol, mode, date) and dispatches
// each decoded frame in arrival order. It blocks until the stream ends.
//
// Failure to establish the connection is returned as an error (no frame was
// delivered yet). Once the body is open, all faults are surfaced exactly once
// through h.OnError and Stream returns nil; the stream is never retried here.
func (c *Consumer) Stream(ctx context.Context, symbol, mode, date string, h Handlers) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("stream: symbol is empty")
	}

	params := map[string]string{"mode": mode}
	if date != "" {
		params["date"] = date
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParams(params).
		SetHeader("Accept", "text/event-stream").
		Get("/api/analyze/" + symbol + "/stream")
	if err != nil {
		return fmt.Errorf("stream %s: %w", symbol, err)
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		return fmt.Errorf("stream %s: status %d", symbol, resp.StatusCode())
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if payload == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// Malformed frames are skipped, not errors: a partial buffer can
			// produce a broken record that the next chunk re-completes.
			continue
		}
		dispatch(ev, h)
	}

	if err := scanner.Err(); err != nil {
		deliver(h.OnError, Event{Type: TypeError, Message: err.Error()})
	}
	return nil
}

// dispatch routes one frame to its handler. Unrecognized tags are dropped.
func dispatch(ev Event, h Handlers) {
	switch {
	case ev.IsProgress():
		deliver(h.OnProgress, ev)
	case ev.IsComplete():
		deliver(h.OnComplete, ev)
	case ev.IsError():
		deliver(h.OnError, ev)
	}
}

func deliver(fn func(Event), ev Event) {
	if fn != nil {
		fn(ev)
	}
}
