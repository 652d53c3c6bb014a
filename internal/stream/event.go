package stream

// Frame type discriminators emitted by the analysis stream endpoint.
const (
	TypeProgress  = "progress"
	TypeStep      = "step"
	TypeToken     = "token"
	TypeFinalHTML = "final_html"
	TypeResult    = "result"
	TypeComplete  = "complete"
	TypeError     = "error"
)

// Event is one decoded frame from the analysis stream. Exactly one type
// tag is set per frame; Message or Content is populated depending on it.
type Event struct {
	Type    string `json:"type"`
	Value   int    `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
}

// Label returns the frame's display text. progress frames put it in
// message, step frames in content.
func (e Event) Label() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Content
}

// IsProgress reports whether the frame carries incremental progress
// (status messages and streamed text tokens).
func (e Event) IsProgress() bool {
	return e.Type == TypeProgress || e.Type == TypeStep || e.Type == TypeToken
}

// IsComplete reports whether the frame is a terminal success frame.
func (e Event) IsComplete() bool {
	return e.Type == TypeFinalHTML || e.Type == TypeResult || e.Type == TypeComplete
}

// IsError reports whether the frame is an explicit error frame.
func (e Event) IsError() bool {
	return e.Type == TypeError
}

// Handlers receives decoded frames as they arrive. Dispatch is synchronous:
// the read loop does not advance until the handler returns.
type Handlers struct {
	OnProgress func(Event)
	OnComplete func(Event)
	OnError    func(Event)
}
