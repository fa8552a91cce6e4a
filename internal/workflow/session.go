package workflow

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

// Revision is the input and record of one successful extraction.
type Revision struct {
	Iteration int                        `json:"iteration"`
	Text      string                     `json:"text"`
	Record    *schema.RequirementsRecord `json:"record"`
	Score     schema.ConfidenceScore     `json:"score"`
}

// Session is the state owned by one Controller. Callers only ever see
// copies returned by Controller.Session.
type Session struct {
	ID            string
	LoanType      loan.Type
	Detected      []loan.Type
	Text          string
	Record        *schema.RequirementsRecord
	Gaps          []schema.Gap
	Score         schema.ConfidenceScore
	Questions     []schema.Question
	Critique      string
	Warnings      []string
	Iteration     int
	MaxIterations int
	State         schema.State
	Transitions   []schema.Transition
	Revisions     []Revision
	AbortReason   string
	Abandoned     bool
	// LastError is the most recent extraction failure, cleared on success.
	LastError string
}

func (s Session) clone() Session {
	out := s
	out.Detected = append([]loan.Type(nil), s.Detected...)
	out.Gaps = append([]schema.Gap(nil), s.Gaps...)
	out.Questions = append([]schema.Question(nil), s.Questions...)
	out.Warnings = append([]string(nil), s.Warnings...)
	out.Transitions = append([]schema.Transition(nil), s.Transitions...)
	out.Revisions = append([]Revision(nil), s.Revisions...)
	return out
}

// Terminal reports whether the session finished or was abandoned.
func (s Session) Terminal() bool {
	return s.Abandoned || s.State.IsTerminal()
}
