// Package mcpserver exposes validation sessions as MCP tools over stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/sessions"
)

const instructions = `ReqGuard validates mortgage requirements documents against a per-loan-type checklist.
Call reqguard_validate with the document text. If the result state is "awaiting_human",
show the questions to the user, then call reqguard_decide with action "refine" and the
user's answers as feedback, or action "approve" to forward the document as is.
If a call fails with "extraction failed", the session keeps its ID: call reqguard_retry
to extract again or reqguard_abandon to discard it.
Terminal states are auto_forwarded, warned_forward and aborted.`

// New creates the MCP server with every reqguard tool registered. Sessions
// live in mgr, shared with any other transport.
func New(mgr *sessions.Manager, registry *checklist.Registry, version string) *server.MCPServer {
	if registry == nil {
		registry = checklist.Default()
	}
	s := server.NewMCPServer(
		"reqguard",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	validate := NewValidateTool(mgr)
	s.AddTool(validate.Definition(), validate.Handle)

	decide := NewDecideTool(mgr)
	s.AddTool(decide.Definition(), decide.Handle)

	retry := NewRetryTool(mgr)
	s.AddTool(retry.Definition(), retry.Handle)

	abandon := NewAbandonTool(mgr)
	s.AddTool(abandon.Definition(), abandon.Handle)

	session := NewSessionTool(mgr)
	s.AddTool(session.Definition(), session.Handle)

	list := NewChecklistTool(registry)
	s.AddTool(list.Definition(), list.Handle)

	return s
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
