package schema

import "time"

// State is a node of the iteration state machine.
type State string

const (
	StateStart         State = "start"
	StateExtracting    State = "extracting"
	StateCritiquing    State = "critiquing"
	StateAutoForwarded State = "auto_forwarded"
	StateWarnedForward State = "warned_forward"
	StateAwaitingHuman State = "awaiting_human"
	StateRefining      State = "refining"
	StateAborted       State = "aborted"
)

// IsTerminal reports whether no transition may leave s.
func (s State) IsTerminal() bool {
	switch s {
	case StateAutoForwarded, StateWarnedForward, StateAborted:
		return true
	}
	return false
}

// Transition is one recorded edge of a session's path through the machine.
type Transition struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Iteration int       `json:"iteration"`
	At        time.Time `json:"at"`
	Note      string    `json:"note,omitempty"`
}

// Outcome is the payload a session emits once it reaches a terminal state.
// It is also used for a progress snapshot of a live session, in which case
// State is non-terminal.
type Outcome struct {
	Tool          string              `json:"tool"`
	Version       string              `json:"version"`
	SessionID     string              `json:"session_id"`
	Input         Input               `json:"input"`
	LoanType      string              `json:"loan_type"`
	DetectedTypes []string            `json:"detected_types,omitempty"`
	State         State               `json:"state"`
	Iterations    int                 `json:"iterations"`
	MaxIterations int                 `json:"max_iterations"`
	Score         ConfidenceScore     `json:"score"`
	Summary       Summary             `json:"summary"`
	Record        *RequirementsRecord `json:"record,omitempty"`
	Gaps          []Gap               `json:"gaps"`
	Questions     []Question          `json:"questions"`
	Critique      string              `json:"critique,omitempty"`
	Warnings      []string            `json:"warnings,omitempty"`
	AbortReason   string              `json:"abort_reason,omitempty"`
	Transitions   []Transition        `json:"transitions"`
	Meta          Meta                `json:"meta"`
}

// Input captures where the requirements text came from.
type Input struct {
	File string `json:"file,omitempty"`
	Hash string `json:"hash,omitempty"` // SHA-256 of the original file, computed before redaction
}

// Summary holds gap counts by priority and severity.
type Summary struct {
	ChecklistSize  int `json:"checklist_size"`
	MissingCount   int `json:"missing_count"`
	AmbiguousCount int `json:"ambiguous_count"`
	CriticalCount  int `json:"critical_count"`
	HighCount      int `json:"high_count"`
	MediumCount    int `json:"medium_count"`
	LowCount       int `json:"low_count"`
}

// Meta holds runtime metadata about the extraction backend.
type Meta struct {
	Extractor   string  `json:"extractor"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}
