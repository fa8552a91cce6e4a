package workflow

import "errors"

var (
	// ErrExtractionFailed is recoverable: the session stays in extracting
	// until the caller retries or abandons it.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrIterationBudgetExceeded is returned with the session in aborted.
	ErrIterationBudgetExceeded = errors.New("could not reach sufficient confidence within the iteration budget")
	// ErrInvalidGateDecision leaves the session in awaiting_human.
	ErrInvalidGateDecision = errors.New("invalid gate decision")
	// ErrInvalidTransition means the operation is not valid in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrTerminal means the session has already finished.
	ErrTerminal = errors.New("session is terminal")
	// ErrAbandoned means the caller stopped the session.
	ErrAbandoned = errors.New("session abandoned")
	// ErrEmptyInput rejects blank requirements text before any transition.
	ErrEmptyInput = errors.New("requirements text is empty")
)
