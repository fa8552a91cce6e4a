package gate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/workflow"
)

func request() workflow.GateRequest {
	return workflow.GateRequest{
		LoanType:      loan.FHA,
		Score:         schema.ConfidenceScore{Value: 0.4, Tier: schema.TierClarify},
		Questions:     []schema.Question{{Key: "mip_calculation", Question: "How should MIP be calculated?", Priority: schema.PriorityCritical}},
		MaxIterations: 3,
	}
}

func TestStatic(t *testing.T) {
	d, err := NewStatic("").Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, workflow.ActionApprove, d.Action)

	d, err = NewStatic("MIP is 1.75%").Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, workflow.Refine("MIP is 1.75%"), d)
}

func TestStatic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStatic("").Decide(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsole_Approve(t *testing.T) {
	var out bytes.Buffer
	d, err := NewConsole(strings.NewReader("a\n"), &out).Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, workflow.Approve(), d)
	assert.Contains(t, out.String(), "Score: 40% (clarify)")
	assert.Contains(t, out.String(), "1. [critical] How should MIP be calculated?")
	assert.Contains(t, out.String(), "Refinements left: 3")
}

func TestConsole_Refine(t *testing.T) {
	in := "r\nUpfront MIP 1.75%\nAnnual MIP 0.55%\n\n"
	d, err := NewConsole(strings.NewReader(in), io.Discard).Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, workflow.ActionRefine, d.Action)
	assert.Equal(t, "Upfront MIP 1.75%\nAnnual MIP 0.55%", d.Feedback)
}

func TestConsole_RefineAtEOF(t *testing.T) {
	d, err := NewConsole(strings.NewReader("refine\nDTI 31/43%"), io.Discard).Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "DTI 31/43%", d.Feedback)
}

func TestConsole_UnknownChoice(t *testing.T) {
	d, err := NewConsole(strings.NewReader("x\n"), io.Discard).Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, workflow.Action("x"), d.Action)
}

func TestConsole_EmptyInput(t *testing.T) {
	_, err := NewConsole(strings.NewReader(""), io.Discard).Decide(context.Background(), request())
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.EOF))
}
