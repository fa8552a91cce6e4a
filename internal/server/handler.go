package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/input"
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/revision"
	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/sessions"
	"github.com/dshills/reqguard/internal/workflow"
)

// Handler serves the /v1 session and checklist endpoints.
type Handler struct {
	sessions *sessions.Manager
	registry *checklist.Registry
	logger   *slog.Logger
}

// NewHandler constructs a Handler with its dependencies.
func NewHandler(mgr *sessions.Manager, registry *checklist.Registry, logger *slog.Logger) *Handler {
	if registry == nil {
		registry = checklist.Default()
	}
	return &Handler{sessions: mgr, registry: registry, logger: logger}
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Get("/sessions/{id}", h.handleGet)
	r.Post("/sessions/{id}/decision", h.handleDecision)
	r.Post("/sessions/{id}/retry", h.handleRetry)
	r.Get("/sessions/{id}/diff", h.handleDiff)
	r.Delete("/sessions/{id}", h.handleDelete)
	r.Get("/checklists", h.handleChecklistTypes)
	r.Get("/checklists/{loanType}", h.handleChecklist)
}

// handleCreate handles POST /sessions: it starts a session and runs the
// first extraction.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decode[CreateRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, workflow.ErrEmptyInput)
		return
	}

	name := req.Name
	if name == "" {
		name = "request"
	}
	if req.Format != "" {
		name += "." + req.Format
	}
	doc, err := input.Parse(name, []byte(req.Text), input.Options{NoRedact: req.NoRedact})
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	c := h.sessions.Create(workflow.WithInput(schema.Input{File: req.Name, Hash: doc.Hash}))
	err = c.Submit(ctx, doc.Text)
	h.logger.InfoContext(ctx, "session created",
		"request_id", middleware.GetReqID(ctx),
		"session_id", c.ID(),
		"state", c.Session().State,
		"error", err,
	)
	if err != nil {
		writeSessionError(w, c, err)
		return
	}
	writeJSON(w, http.StatusCreated, c.View())
}

// handleGet handles GET /sessions/{id}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// handleDecision handles POST /sessions/{id}/decision.
func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := decode[DecisionRequest](w, r)
	if !ok {
		return
	}

	err := c.Decide(ctx, workflow.GateDecision{
		Action:   workflow.Action(strings.ToLower(req.Action)),
		Feedback: req.Feedback,
	})
	h.logger.InfoContext(ctx, "decision applied",
		"request_id", middleware.GetReqID(ctx),
		"session_id", c.ID(),
		"action", req.Action,
		"state", c.Session().State,
		"error", err,
	)
	if err != nil && !errors.Is(err, workflow.ErrIterationBudgetExceeded) {
		writeSessionError(w, c, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// handleRetry handles POST /sessions/{id}/retry.
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := c.Retry(r.Context()); err != nil {
		writeSessionError(w, c, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// handleDiff handles GET /sessions/{id}/diff. ?format=json returns the
// per-field changes instead of the patch text.
func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, revision.Steps(c.Session().Revisions))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(revision.GenerateDiff(c.Session().Revisions)))
}

// handleDelete handles DELETE /sessions/{id}.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Delete(id) {
		writeNotFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChecklistTypes handles GET /checklists.
func (h *Handler) handleChecklistTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]loan.Type{"loan_types": h.registry.Types()})
}

// handleChecklist handles GET /checklists/{loanType}.
func (h *Handler) handleChecklist(w http.ResponseWriter, r *http.Request) {
	t, err := loan.Parse(chi.URLParam(r, "loanType"))
	if err != nil {
		writeErrorCode(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.registry.For(t))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*workflow.Controller, bool) {
	id := chi.URLParam(r, "id")
	c, ok := h.sessions.Get(id)
	if !ok {
		writeNotFound(w, id)
	}
	return c, ok
}
