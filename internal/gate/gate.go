// Package gate provides human-gate implementations for the workflow
// controller.
package gate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/reqguard/internal/workflow"
)

// Static answers every request the same way. It is used in CI, where no
// human is present.
type Static struct {
	Decision workflow.GateDecision
}

// NewStatic returns a gate that always approves, or always refines with
// feedback when feedback is non-empty.
func NewStatic(feedback string) *Static {
	if strings.TrimSpace(feedback) == "" {
		return &Static{Decision: workflow.Approve()}
	}
	return &Static{Decision: workflow.Refine(feedback)}
}

func (s *Static) Decide(ctx context.Context, _ workflow.GateRequest) (workflow.GateDecision, error) {
	if err := ctx.Err(); err != nil {
		return workflow.GateDecision{}, err
	}
	return s.Decision, nil
}

// Console prompts on Out and reads the answer from In.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole returns an interactive gate.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Decide prints the score and questions, then reads a choice. "a" approves;
// "r" reads feedback lines until an empty line. An empty or unreadable choice
// is returned as an error.
func (c *Console) Decide(ctx context.Context, req workflow.GateRequest) (workflow.GateDecision, error) {
	if err := ctx.Err(); err != nil {
		return workflow.GateDecision{}, err
	}

	fmt.Fprintf(c.out, "\nLoan type: %s   Score: %.0f%% (%s)   Refinements left: %d\n",
		req.LoanType, req.Score.Value*100, req.Score.Tier, req.RemainingRefinements())
	if len(req.Questions) > 0 {
		fmt.Fprintln(c.out, "\nClarifying questions:")
		for i, q := range req.Questions {
			fmt.Fprintf(c.out, "  %d. [%s] %s\n", i+1, q.Priority, q.Question)
		}
	}
	if req.Critique != "" {
		fmt.Fprintf(c.out, "\nCritique:\n%s\n", req.Critique)
	}
	fmt.Fprint(c.out, "\n[a]pprove as-is or [r]efine with answers? ")

	choice, err := c.readLine()
	if err != nil {
		return workflow.GateDecision{}, fmt.Errorf("reading choice: %w", err)
	}
	switch strings.ToLower(choice) {
	case "a", "approve":
		return workflow.Approve(), nil
	case "r", "refine":
		fmt.Fprintln(c.out, "Enter answers (finish with an empty line):")
		var lines []string
		for {
			line, err := c.readLine()
			if line != "" {
				lines = append(lines, line)
			}
			if line == "" || err != nil {
				break
			}
		}
		// Empty feedback is passed through; the controller rejects it and the
		// driver asks again.
		return workflow.Refine(strings.Join(lines, "\n")), nil
	default:
		return workflow.GateDecision{Action: workflow.Action(choice)}, nil
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (err != io.EOF || line == "") {
		return line, err
	}
	return line, nil
}
