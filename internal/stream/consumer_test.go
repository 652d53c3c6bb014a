package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

type recorded struct {
	kind string
	ev   Event
}

func recordingHandlers(out *[]recorded) Handlers {
	return Handlers{
		OnProgress: func(ev Event) { *out = append(*out, recorded{"progress", ev}) },
		OnComplete: func(ev Event) { *out = append(*out, recorded{"complete", ev}) },
		OnError:    func(ev Event) { *out = append(*out, recorded{"error", ev}) },
	}
}

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/analyze/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprint(w, line)
			flusher.Flush()
		}
	}))
}

func newTestConsumer(baseURL string) *Consumer {
	return NewConsumer(resty.New().SetBaseURL(baseURL))
}

func TestStreamDispatchOrder(t *testing.T) {
	srv := sseServer(t, []string{
		"data: {\"type\":\"progress\",\"value\":10,\"message\":\"fetching data\"}\n",
		"data: {\"type\":\"token\",\"content\":\"Hel\"}\n",
		"data: {\"type\":\"token\",\"content\":\"lo\"}\n",
		"data: {\"type\":\"complete\"}\n",
	})
	defer srv.Close()

	var got []recorded
	err := newTestConsumer(srv.URL).Stream(context.Background(), "600519", "multi_agent", "", recordingHandlers(&got))
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	want := []recorded{
		{"progress", Event{Type: TypeProgress, Value: 10, Message: "fetching data"}},
		{"progress", Event{Type: TypeToken, Content: "Hel"}},
		{"progress", Event{Type: TypeToken, Content: "lo"}},
		{"complete", Event{Type: TypeComplete}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStreamSplitFrameAcrossFlushes(t *testing.T) {
	// One frame split mid-payload over two writes. The line reader must
	// reassemble it into a single event.
	srv := sseServer(t, []string{
		"data: {\"type\":\"token\",\"con",
		"tent\":\"whole\"}\n",
		"data: {\"type\":\"complete\"}\n",
	})
	defer srv.Close()

	var got []recorded
	if err := newTestConsumer(srv.URL).Stream(context.Background(), "600519", "multi_agent", "", recordingHandlers(&got)); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].ev.Content != "whole" {
		t.Fatalf("reassembled content = %q, want %q", got[0].ev.Content, "whole")
	}
}

func TestStreamSkipsMalformedAndUnknownFrames(t *testing.T) {
	srv := sseServer(t, []string{
		": keepalive\n",
		"event: message\n",
		"data: {not json}\n",
		"data: {\"type\":\"heartbeat\"}\n",
		"data:\n",
		"data: {\"type\":\"token\",\"content\":\"ok\"}\n",
	})
	defer srv.Close()

	var got []recorded
	if err := newTestConsumer(srv.URL).Stream(context.Background(), "600519", "multi_agent", "", recordingHandlers(&got)); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	if len(got) != 1 || got[0].ev.Content != "ok" {
		t.Fatalf("noise frames should be dropped silently, got %+v", got)
	}
}

func TestStreamErrorFrameGoesToOnError(t *testing.T) {
	srv := sseServer(t, []string{
		"data: {\"type\":\"token\",\"content\":\"partial\"}\n",
		"data: {\"type\":\"error\",\"message\":\"model unavailable\"}\n",
	})
	defer srv.Close()

	var got []recorded
	if err := newTestConsumer(srv.URL).Stream(context.Background(), "600519", "multi_agent", "", recordingHandlers(&got)); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	if len(got) != 2 || got[1].kind != "error" || got[1].ev.Message != "model unavailable" {
		t.Fatalf("expected error frame dispatch, got %+v", got)
	}
}

func TestStreamConnectionFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse the connection

	var got []recorded
	err := newTestConsumer(srv.URL).Stream(context.Background(), "600519", "multi_agent", "", recordingHandlers(&got))
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if len(got) != 0 {
		t.Fatalf("no handler should run before the body opens, got %+v", got)
	}
}

func TestStreamNon200ReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newTestConsumer(srv.URL).Stream(context.Background(), "600519", "multi_agent", "", Handlers{})
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestStreamEmptySymbolRejected(t *testing.T) {
	err := newTestConsumer("http://127.0.0.1:0").Stream(context.Background(), "  ", "multi_agent", "", Handlers{})
	if err == nil {
		t.Fatal("expected error for empty symbol")
	}
}

func TestStreamTransportFaultSurfacesOnceViaOnError(t *testing.T) {
	// Abort the chunked body mid-stream so the client sees an unexpected EOF.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, bufrw, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		bufrw.WriteString("HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nTransfer-Encoding: chunked\r\n\r\n")
		frame := "data: {\"type\":\"token\",\"content\":\"partial\"}\n"
		fmt.Fprintf(bufrw, "%x\r\n%s\r\n", len(frame), frame)
		bufrw.Flush()
		time.Sleep(50 * time.Millisecond)
		// close without the terminating 0-length chunk
	}))
	defer srv.Close()

	var got []recorded
	if err := newTestConsumer(srv.URL).Stream(context.Background(), "600519", "multi_agent", "", recordingHandlers(&got)); err != nil {
		t.Fatalf("faults after the body opens must not return an error, got %v", err)
	}

	errors := 0
	for _, r := range got {
		if r.kind == "error" {
			errors++
		}
	}
	if errors != 1 {
		t.Fatalf("transport fault must surface exactly once, got %d error events: %+v", errors, got)
	}
	if got[0].ev.Content != "partial" {
		t.Fatalf("frames before the fault must still be delivered, got %+v", got)
	}
}

func TestStreamQueryParams(t *testing.T) {
	var gotPath, gotMode, gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMode = r.URL.Query().Get("mode")
		gotDate = r.URL.Query().Get("date")
		fmt.Fprint(w, "data: {\"type\":\"complete\"}\n")
	}))
	defer srv.Close()

	if err := newTestConsumer(srv.URL).Stream(context.Background(), "AAPL", "single_expert", "2025-08-15", Handlers{}); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if gotPath != "/api/analyze/AAPL/stream" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotMode != "single_expert" || gotDate != "2025-08-15" {
		t.Fatalf("query mode=%q date=%q", gotMode, gotDate)
	}
}
