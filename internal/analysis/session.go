package analysis

// Mode selects the backend analysis strategy for a session.
type Mode string

const (
	ModeMultiAgent   Mode = "multi_agent"
	ModeSingleExpert Mode = "single_expert"
)

// DisplayName returns a user-friendly name for the mode.
func (m Mode) DisplayName() string {
	switch m {
	case ModeMultiAgent:
		return "Multi-Agent Debate"
	case ModeSingleExpert:
		return "Single Expert"
	default:
		return string(m)
	}
}

// SessionStatus tracks a session through its lifecycle. Transitions only
// move forward; the only reset is a fresh session on selection change.
type SessionStatus int

const (
	StatusIdle SessionStatus = iota
	StatusStreaming
	StatusReconciling
	StatusSettled
	StatusFailed
)

func (s SessionStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusReconciling:
		return "reconciling"
	case StatusSettled:
		return "settled"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the session has finished.
func (s SessionStatus) Terminal() bool {
	return s == StatusSettled || s == StatusFailed
}

// Selection is the active (symbol, mode, date) triple. An empty Date means
// "latest". Changing any field invalidates the previous session.
type Selection struct {
	Symbol string
	Mode   Mode
	Date   string
}

// Session is the transient state of one streaming analysis request.
// Rendered is always recomputed from Accumulated on token arrival, except
// when the server's final render or the reconciled persisted report
// replaces it wholesale.
type Session struct {
	Selection     Selection
	Token         uint64
	Accumulated   string
	Rendered      string
	ProgressLabel string
	Progress      int
	Status        SessionStatus
}
