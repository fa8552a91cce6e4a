package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dshills/reqguard/internal/input"
	"github.com/dshills/reqguard/internal/workflow"
)

// CreateRequest is the body of POST /v1/sessions.
type CreateRequest struct {
	Text string `json:"text"`
	// Name labels the document on the outcome.
	Name string `json:"name,omitempty"`
	// Format is "md", "txt" or "html"; empty sniffs the content.
	Format   string `json:"format,omitempty"`
	NoRedact bool   `json:"no_redact,omitempty"`
}

// DecisionRequest is the body of POST /v1/sessions/{id}/decision.
type DecisionRequest struct {
	Action   string `json:"action"`
	Feedback string `json:"feedback,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

func writeNotFound(w http.ResponseWriter, id string) {
	writeErrorCode(w, http.StatusNotFound, "not_found", fmt.Sprintf("session %q not found", id))
}

// writeError maps workflow sentinels to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, ErrorResponse{Error: code, Message: err.Error()})
}

// writeSessionError is writeError with the session ID attached, so a client
// can retry or inspect a session whose operation failed.
func writeSessionError(w http.ResponseWriter, c *workflow.Controller, err error) {
	status, code := classify(err)
	writeJSON(w, status, ErrorResponse{Error: code, Message: err.Error(), SessionID: c.ID()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrEmptyInput):
		return http.StatusBadRequest, "empty_input"
	case errors.Is(err, workflow.ErrInvalidGateDecision):
		return http.StatusBadRequest, "invalid_decision"
	case errors.Is(err, workflow.ErrExtractionFailed):
		return http.StatusBadGateway, "extraction_failed"
	case errors.Is(err, workflow.ErrTerminal):
		return http.StatusConflict, "terminal"
	case errors.Is(err, workflow.ErrAbandoned):
		return http.StatusConflict, "abandoned"
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads a JSON body of at most input.MaxBytes plus envelope slack.
func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, input.MaxBytes+64*1024)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return v, false
	}
	return v, true
}
