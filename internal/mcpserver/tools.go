package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/input"
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/render"
	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/sessions"
	"github.com/dshills/reqguard/internal/workflow"
)

var formatParam = mcp.WithString("format",
	mcp.Description("Output format: md (default) or json."),
)

// ValidateTool handles the reqguard_validate MCP tool.
type ValidateTool struct {
	sessions *sessions.Manager
}

// NewValidateTool creates a ValidateTool backed by mgr.
func NewValidateTool(mgr *sessions.Manager) *ValidateTool {
	return &ValidateTool{sessions: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("reqguard_validate",
		mcp.WithDescription(
			"Start a validation session for a mortgage requirements document. "+
				"Classifies the loan type, extracts requirements and scores them against the checklist. "+
				"Returns the session state, score, gaps and clarifying questions.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The requirements document (markdown, plain text or HTML)."),
		),
		mcp.WithString("name",
			mcp.Description("Optional document name shown on the report."),
		),
		formatParam,
	)
}

// Handle processes the reqguard_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	name := req.GetString("name", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required: provide the requirements document"), nil
	}

	docName := name
	if docName == "" {
		docName = "document"
	}
	doc, err := input.Parse(docName, []byte(text), input.Options{})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c := t.sessions.Create(workflow.WithInput(schema.Input{File: name, Hash: doc.Hash}))
	if err := c.Submit(ctx, doc.Text); err != nil {
		return sessionError(c, err), nil
	}
	return result(c.View(), req.GetString("format", "md"))
}

// DecideTool handles the reqguard_decide MCP tool.
type DecideTool struct {
	sessions *sessions.Manager
}

// NewDecideTool creates a DecideTool backed by mgr.
func NewDecideTool(mgr *sessions.Manager) *DecideTool {
	return &DecideTool{sessions: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *DecideTool) Definition() mcp.Tool {
	return mcp.NewTool("reqguard_decide",
		mcp.WithDescription(
			"Answer a session that is awaiting_human. "+
				"'approve' forwards the document with a warning; "+
				"'refine' appends the feedback to the document and re-validates it. "+
				"Refinements are limited per session.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID returned by reqguard_validate."),
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("approve or refine."),
		),
		mcp.WithString("feedback",
			mcp.Description("Answers to the clarifying questions. Required for refine."),
		),
		formatParam,
	)
}

// Handle processes the reqguard_decide tool call.
func (t *DecideTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errResult := lookup(t.sessions, req)
	if errResult != nil {
		return errResult, nil
	}
	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	err := c.Decide(ctx, workflow.GateDecision{
		Action:   workflow.Action(action),
		Feedback: req.GetString("feedback", ""),
	})
	if err != nil && !errors.Is(err, workflow.ErrIterationBudgetExceeded) {
		return sessionError(c, err), nil
	}
	return result(c.View(), req.GetString("format", "md"))
}

// RetryTool handles the reqguard_retry MCP tool.
type RetryTool struct {
	sessions *sessions.Manager
}

// NewRetryTool creates a RetryTool backed by mgr.
func NewRetryTool(mgr *sessions.Manager) *RetryTool {
	return &RetryTool{sessions: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *RetryTool) Definition() mcp.Tool {
	return mcp.NewTool("reqguard_retry",
		mcp.WithDescription(
			"Re-run the extraction of a session whose last extraction failed. "+
				"The session stays in extracting until it is retried or abandoned.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from the failed reqguard_validate or reqguard_decide call."),
		),
		formatParam,
	)
}

// Handle processes the reqguard_retry tool call.
func (t *RetryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errResult := lookup(t.sessions, req)
	if errResult != nil {
		return errResult, nil
	}
	if err := c.Retry(ctx); err != nil {
		return sessionError(c, err), nil
	}
	return result(c.View(), req.GetString("format", "md"))
}

// AbandonTool handles the reqguard_abandon MCP tool.
type AbandonTool struct {
	sessions *sessions.Manager
}

// NewAbandonTool creates an AbandonTool backed by mgr.
func NewAbandonTool(mgr *sessions.Manager) *AbandonTool {
	return &AbandonTool{sessions: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *AbandonTool) Definition() mcp.Tool {
	return mcp.NewTool("reqguard_abandon",
		mcp.WithDescription("Abandon a validation session and discard it. No outcome is produced."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID returned by reqguard_validate."),
		),
	)
}

// Handle processes the reqguard_abandon tool call.
func (t *AbandonTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("session_id", ""))
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if !t.sessions.Delete(id) {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found or expired", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("session %s abandoned", id)), nil
}

// SessionTool handles the reqguard_session MCP tool.
type SessionTool struct {
	sessions *sessions.Manager
}

// NewSessionTool creates a SessionTool backed by mgr.
func NewSessionTool(mgr *sessions.Manager) *SessionTool {
	return &SessionTool{sessions: mgr}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionTool) Definition() mcp.Tool {
	return mcp.NewTool("reqguard_session",
		mcp.WithDescription("Show the current state, score, gaps and questions of a validation session."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID returned by reqguard_validate."),
		),
		formatParam,
	)
}

// Handle processes the reqguard_session tool call.
func (t *SessionTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errResult := lookup(t.sessions, req)
	if errResult != nil {
		return errResult, nil
	}
	return result(c.View(), req.GetString("format", "md"))
}

// ChecklistTool handles the reqguard_checklist MCP tool.
type ChecklistTool struct {
	registry *checklist.Registry
}

// NewChecklistTool creates a ChecklistTool reading from registry.
func NewChecklistTool(registry *checklist.Registry) *ChecklistTool {
	return &ChecklistTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *ChecklistTool) Definition() mcp.Tool {
	return mcp.NewTool("reqguard_checklist",
		mcp.WithDescription("List the checklist items a requirements document for the given loan type must cover."),
		mcp.WithString("loan_type",
			mcp.Required(),
			mcp.Description("FHA, VA, Conventional, USDA, Jumbo, Reverse or Unknown."),
		),
	)
}

// Handle processes the reqguard_checklist tool call.
func (t *ChecklistTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lt, err := loan.Parse(strings.TrimSpace(req.GetString("loan_type", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c := t.registry.For(lt)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s checklist (%d items, %d required)\n\n", c.LoanType, c.Len(), c.RequiredCount())
	sb.WriteString(c.FormatForPrompt())
	return mcp.NewToolResultText(sb.String()), nil
}

func lookup(mgr *sessions.Manager, req mcp.CallToolRequest) (*workflow.Controller, *mcp.CallToolResult) {
	id := strings.TrimSpace(req.GetString("session_id", ""))
	if id == "" {
		return nil, mcp.NewToolResultError("'session_id' is required")
	}
	c, ok := mgr.Get(id)
	if !ok {
		return nil, mcp.NewToolResultError(fmt.Sprintf("session %q not found or expired", id))
	}
	return c, nil
}

// sessionError reports a failed operation. The session ID is included so
// the caller can inspect the session or retry.
func sessionError(c *workflow.Controller, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("session %s (state %s): %v", c.ID(), c.Session().State, err))
}

func result(o *schema.Outcome, format string) (*mcp.CallToolResult, error) {
	r, err := render.NewRenderer(format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := r.Render(o)
	if err != nil {
		return nil, fmt.Errorf("rendering session %s: %w", o.SessionID, err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
