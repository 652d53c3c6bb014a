package analysis

import (
	"context"
	"log"
	"sync"

	"github.com/leeduo/marketdeck/internal/api"
	"github.com/leeduo/marketdeck/internal/stream"
)

// Streamer opens one analysis stream and blocks until it ends.
// *stream.Consumer satisfies this.
type Streamer interface {
	Stream(ctx context.Context, symbol, mode, date string, h stream.Handlers) error
}

// Fetcher retrieves the durably persisted analysis after stream completion.
// *api.Client satisfies this.
type Fetcher interface {
	GetLatestAnalysis(ctx context.Context, symbol string) (*api.AnalysisResult, error)
	GetAnalysisHistory(ctx context.Context, symbol, date string) (*api.AnalysisResult, error)
}

// Recorder persists settled sessions locally. *sqlite.Store is adapted to
// this through the historyRecorder in the cli package.
type Recorder interface {
	Record(ctx context.Context, sel Selection, status SessionStatus, markdown string) error
}

// RenderFunc renders accumulated markdown for display.
type RenderFunc func(markdown string) string

// HTMLRenderFunc renders server-side HTML for display.
type HTMLRenderFunc func(html string) string

// ErrorRenderFunc produces a failure presentation that keeps partial
// content visible.
type ErrorRenderFunc func(message, partial string) string

// Controller owns exactly one current analysis session and folds stream
// events into it. Supersession is by token: every handler is bound to the
// token issued at Begin, and events whose token no longer matches the
// current session are dropped on arrival. A single mutex serializes all
// mutation paths, which preserves the one-turn atomicity the token check
// requires.
type Controller struct {
	mu     sync.Mutex
	token  uint64
	cur    Session
	cancel context.CancelFunc

	streamer   Streamer
	fetcher    Fetcher
	recorder   Recorder
	render     RenderFunc
	renderErr  ErrorRenderFunc
	htmlRender HTMLRenderFunc
	onChange   func(Session)
}

// Option configures a Controller.
type Option func(*Controller)

// WithRender sets the markdown renderer for accumulated stream text.
func WithRender(fn RenderFunc) Option {
	return func(c *Controller) { c.render = fn }
}

// WithHTMLRender sets the renderer for server-side HTML content.
func WithHTMLRender(fn HTMLRenderFunc) Option {
	return func(c *Controller) { c.htmlRender = fn }
}

// WithErrorRender sets the failure presentation renderer.
func WithErrorRender(fn ErrorRenderFunc) Option {
	return func(c *Controller) { c.renderErr = fn }
}

// WithRecorder enables best-effort local history of settled sessions.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithOnChange registers a view callback invoked with a session copy after
// every state change.
func WithOnChange(fn func(Session)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// NewController creates a controller over a stream consumer and a
// reconciliation fetcher.
func NewController(streamer Streamer, fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		streamer:   streamer,
		fetcher:    fetcher,
		render:     func(s string) string { return s },
		htmlRender: func(s string) string { return s },
		renderErr:  func(msg, partial string) string { return partial + "\n[error] " + msg },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts a streaming session for sel. If a session for the same
// selection is already streaming this is a no-op, so a repeated user action
// never duplicates the underlying connection. Otherwise the previous
// session is superseded: a new token is issued, its transport is closed
// opportunistically, and any of its events still in flight become inert.
func (c *Controller) Begin(ctx context.Context, sel Selection) {
	c.mu.Lock()
	if c.cur.Status == StatusStreaming && c.cur.Selection == sel {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}

	c.token++
	token := c.token
	c.cur = Session{
		Selection:     sel,
		Token:         token,
		Status:        StatusStreaming,
		ProgressLabel: "Initializing analysis...",
	}
	streamCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	snapshot := c.cur
	c.mu.Unlock()

	c.notify(snapshot)

	handlers := stream.Handlers{
		OnProgress: func(ev stream.Event) { c.fold(token, ev) },
		OnComplete: func(ev stream.Event) { c.fold(token, ev) },
		OnError:    func(ev stream.Event) { c.fold(token, ev) },
	}

	go func() {
		defer cancel()
		if err := c.streamer.Stream(streamCtx, sel.Symbol, string(sel.Mode), sel.Date, handlers); err != nil {
			// Connection never opened; fold it the same way an error frame
			// would arrive so callers have a single failure path.
			c.fold(token, stream.Event{Type: stream.TypeError, Message: err.Error()})
			return
		}

		// The stream can end cleanly without a terminal frame (backend shut
		// down mid-analysis). Fail the session rather than leaving it
		// streaming forever; fold re-checks the token, so a session that
		// completed or was superseded is untouched.
		c.mu.Lock()
		stillStreaming := token == c.cur.Token && c.cur.Status == StatusStreaming
		c.mu.Unlock()
		if stillStreaming {
			c.fold(token, stream.Event{Type: stream.TypeError, Message: "stream ended before completion"})
		}
	}()
}

// SwitchMode begins a fresh session with the mode changed. Accumulation is
// always reset; there is no cross-mode merge.
func (c *Controller) SwitchMode(ctx context.Context, mode Mode) {
	c.mu.Lock()
	sel := c.cur.Selection
	c.mu.Unlock()
	sel.Mode = mode
	c.Begin(ctx, sel)
}

// SwitchDate begins a fresh session with the date changed.
func (c *Controller) SwitchDate(ctx context.Context, date string) {
	c.mu.Lock()
	sel := c.cur.Selection
	c.mu.Unlock()
	sel.Date = date
	c.Begin(ctx, sel)
}

// Snapshot returns a copy of the current session for display.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// fold applies one stream event to the current session. Events from a
// superseded session are discarded outright.
func (c *Controller) fold(token uint64, ev stream.Event) {
	c.mu.Lock()
	if token != c.cur.Token || c.cur.Status.Terminal() {
		c.mu.Unlock()
		return
	}

	switch ev.Type {
	case stream.TypeProgress, stream.TypeStep:
		// step frames carry their text in content, progress frames in message.
		if label := ev.Label(); label != "" {
			c.cur.ProgressLabel = label
		}
		if ev.Value > 0 {
			c.cur.Progress = ev.Value
		}

	case stream.TypeToken:
		c.cur.Accumulated += ev.Content
		c.cur.Rendered = c.render(c.cur.Accumulated)

	case stream.TypeFinalHTML:
		// Server-authoritative final render replaces local accumulation.
		c.cur.Rendered = c.htmlRender(ev.Content)

	case stream.TypeResult:
		if c.cur.Status == StatusReconciling {
			c.mu.Unlock()
			return
		}
		if ev.Content != "" {
			c.cur.Rendered = c.htmlRender(ev.Content)
		}
		c.reconcileLocked(token)
		return

	case stream.TypeComplete:
		if c.cur.Status == StatusReconciling {
			c.mu.Unlock()
			return
		}
		c.reconcileLocked(token)
		return

	case stream.TypeError:
		// Completion already won; a trailing transport fault must not
		// demote the session.
		if c.cur.Status == StatusReconciling {
			c.mu.Unlock()
			return
		}
		c.cur.Status = StatusFailed
		c.cur.Rendered = c.renderErr(ev.Message, c.cur.Rendered)
	}

	snapshot := c.cur
	c.mu.Unlock()
	c.notify(snapshot)
}

// reconcileLocked transitions to Reconciling, releases the lock for the
// durable-state fetch, and settles. Reconciliation is best effort: when the
// fetch fails or the backend has nothing persisted, the locally streamed
// render stays and the session settles anyway. The token is re-checked
// after the fetch since the user may have switched away during it.
// Called with c.mu held; always releases it.
func (c *Controller) reconcileLocked(token uint64) {
	c.cur.Status = StatusReconciling
	sel := c.cur.Selection
	snapshot := c.cur
	c.mu.Unlock()
	c.notify(snapshot)

	result, err := c.fetchPersisted(sel)

	c.mu.Lock()
	if token != c.cur.Token {
		c.mu.Unlock()
		return
	}

	markdown := c.cur.Accumulated
	switch {
	case err != nil:
		log.Printf("reconciliation fetch for %s failed, keeping streamed render: %v", sel.Symbol, err)
	case result.Status == api.StatusSuccess && result.Data != nil:
		if result.Data.HTML != "" {
			c.cur.Rendered = c.htmlRender(result.Data.HTML)
		} else {
			c.cur.Rendered = c.render(result.Data.AIAnalysis)
		}
		if result.Data.AIAnalysis != "" {
			markdown = result.Data.AIAnalysis
		}
	default:
		// no_data / not_found: nothing persisted, streamed render stays.
	}
	c.cur.Status = StatusSettled
	snapshot = c.cur
	c.mu.Unlock()
	c.notify(snapshot)

	if c.recorder != nil {
		if err := c.recorder.Record(context.Background(), sel, StatusSettled, markdown); err != nil {
			log.Printf("record analysis history for %s: %v", sel.Symbol, err)
		}
	}
}

func (c *Controller) fetchPersisted(sel Selection) (*api.AnalysisResult, error) {
	ctx := context.Background()
	if sel.Date != "" {
		return c.fetcher.GetAnalysisHistory(ctx, sel.Symbol, sel.Date)
	}
	return c.fetcher.GetLatestAnalysis(ctx, sel.Symbol)
}

func (c *Controller) notify(s Session) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
