package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/reqguard/internal/config"
	"github.com/dshills/reqguard/internal/gate"
	"github.com/dshills/reqguard/internal/input"
	"github.com/dshills/reqguard/internal/render"
	"github.com/dshills/reqguard/internal/revision"
	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/workflow"
)

// checkFlags holds the parsed flags for the check command.
type checkFlags struct {
	format         string
	out            string
	diffOut        string
	failOn         string
	model          string
	offline        bool
	critic         bool
	feedback       string
	interactive    bool
	noRedact       bool
	maxIterations  int
	temperature    float64
	maxTokens      int
	concurrency    int
	checklistsFile string
}

// fileResult is the outcome of checking one file.
type fileResult struct {
	path    string
	outcome *schema.Outcome
	diff    string
	err     error
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	var flags checkFlags
	cmd := &cobra.Command{
		Use:   "check <file|glob>...",
		Short: "Validate requirements documents and report gaps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), g, args, flags, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.format, "format", "json", "Output format: json or md")
	f.StringVar(&flags.out, "out", "", "Write output to this file (a directory when checking several files)")
	f.StringVar(&flags.diffOut, "diff-out", "", "Write the iteration diff to this file (a directory when checking several files)")
	f.StringVar(&flags.failOn, "fail-on", "", "Exit 2 if the final tier is at or below this level (partial or clarify)")
	f.StringVar(&flags.model, "model", "", "LLM provider:model, e.g. anthropic:claude-sonnet-4-6 (overrides REQGUARD_MODEL)")
	f.BoolVar(&flags.offline, "offline", false, "Use the offline heuristic extractor; no LLM calls are made")
	f.BoolVar(&flags.critic, "critic", false, "Ask the LLM for an advisory critique of each iteration")
	f.StringVar(&flags.feedback, "feedback", "", "Answer every clarification with this text instead of approving")
	f.BoolVar(&flags.interactive, "interactive", false, "Ask for approve/refine decisions on the terminal")
	f.BoolVar(&flags.noRedact, "no-redact", false, "Do not mask PII and secrets before extraction")
	f.IntVar(&flags.maxIterations, "max-iterations", 0, "Refinement budget per document (default from config: 3)")
	f.Float64Var(&flags.temperature, "temperature", 0, "LLM temperature (default from config: 0.2)")
	f.IntVar(&flags.maxTokens, "max-tokens", 0, "Maximum response tokens (default from config: 4096)")
	f.IntVar(&flags.concurrency, "concurrency", 0, "Files checked in parallel (default from config: 4)")
	f.StringVar(&flags.checklistsFile, "checklists", "", "YAML file overriding the built-in checklists")
	return cmd
}

func runCheck(ctx context.Context, g *globalFlags, args []string, flags checkFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// --- Step 1: Validate flags ---
	if err := validateFlags(flags); err != nil {
		return codeError(exitUsage, "invalid flags: %s", err)
	}

	// --- Step 2: Resolve configuration; flags win over the file ---
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	applyCheckFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return codeError(exitUsage, "invalid config: %s", err)
	}
	logger := newLogger(g)

	// --- Step 3: Expand file arguments ---
	paths, err := input.Expand(args)
	if err != nil {
		return codeError(exitUsage, "%s", err)
	}
	concurrency := cfg.Batch.Concurrency
	if flags.interactive {
		// One terminal, one conversation at a time.
		concurrency = 1
	}

	// --- Step 4: Build the extraction backend ---
	b, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}
	var gt workflow.Gate = gate.NewStatic(flags.feedback)
	if flags.interactive {
		gt = gate.NewConsole(stdin, stderr)
	}

	// --- Step 5: Check every file ---
	results := make([]fileResult, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, p := range paths {
		eg.Go(func() error {
			results[i] = checkFile(egCtx, cfg, b, gt, p, flags, logger)
			// A failed file never cancels the others.
			return nil
		})
	}
	_ = eg.Wait()

	// --- Step 6: Render and write output ---
	if err := writeResults(results, flags, stdout); err != nil {
		return err
	}

	// --- Step 7: Exit code ---
	return exitStatus(results, flags.failOn)
}

func checkFile(ctx context.Context, cfg *config.Config, b *backend, gt workflow.Gate, path string, flags checkFlags, logger *slog.Logger) fileResult {
	res := fileResult{path: path}
	logger.Info("loading requirements", "path", path)
	doc, err := input.Load(path, input.Options{NoRedact: flags.noRedact})
	if err != nil {
		res.err = codeError(exitUsage, "%s", err)
		return res
	}
	for rule, n := range doc.Redactions {
		logger.Info("redacted", "path", path, "rule", rule, "count", n)
	}

	opts := controllerOptions(cfg, b, logger.With("path", path), nil)
	opts = append(opts, workflow.WithInput(schema.Input{File: path, Hash: doc.Hash}))
	c := workflow.New(workflow.Deps{Registry: b.registry, Extractor: b.extractor}, opts...)

	o, err := workflow.Run(ctx, c, doc.Text, gt, runOptions(cfg))
	if o != nil && b.model != "" {
		o.Meta.Temperature = cfg.Model.Temperature
	}
	res.outcome = o
	res.diff = revision.GenerateDiff(c.Session().Revisions)
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrIterationBudgetExceeded):
		res.err = codeError(exitAborted, "%s: %s", path, err)
	case errors.Is(err, workflow.ErrExtractionFailed):
		res.err = codeError(exitExtraction, "%s: %s", path, err)
	default:
		res.err = codeError(exitUsage, "%s: %s", path, err)
	}
	return res
}

// applyCheckFlags overlays explicitly set flags on the configuration.
func applyCheckFlags(cfg *config.Config, flags checkFlags) {
	over := &config.Config{
		Model: config.ModelConfig{
			Provider:    flags.model,
			Temperature: flags.temperature,
			MaxTokens:   flags.maxTokens,
			Critic:      flags.critic,
		},
		Workflow:   config.WorkflowConfig{MaxIterations: flags.maxIterations},
		Checklists: config.ChecklistsConfig{Overrides: flags.checklistsFile},
		Batch:      config.BatchConfig{Concurrency: flags.concurrency},
	}
	if flags.offline {
		over.Extractor = config.ExtractorHeuristic
	}
	cfg.Merge(over)
}

func writeResults(results []fileResult, flags checkFlags, stdout io.Writer) error {
	renderer, err := render.NewRenderer(flags.format)
	if err != nil {
		return codeError(exitUsage, "invalid format: %s", err)
	}
	multi := len(results) > 1
	for _, dir := range []string{flags.out, flags.diffOut} {
		if multi && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return codeError(exitUsage, "creating output directory: %s", err)
			}
		}
	}

	for _, r := range results {
		if r.outcome == nil {
			continue
		}
		out, err := renderer.Render(r.outcome)
		if err != nil {
			return codeError(exitUsage, "rendering output: %s", err)
		}

		switch {
		case flags.out == "":
			if _, err := stdout.Write(out); err != nil {
				return codeError(exitUsage, "writing output: %s", err)
			}
			// Ensure output ends with a newline for terminal friendliness.
			if len(out) > 0 && out[len(out)-1] != '\n' {
				fmt.Fprintln(stdout)
			}
		default:
			dest := flags.out
			if multi {
				dest = filepath.Join(flags.out, outputName(r.path, flags.format))
			}
			if err := os.WriteFile(dest, out, 0o644); err != nil {
				return codeError(exitUsage, "writing output file: %s", err)
			}
		}

		if flags.diffOut != "" {
			dest := flags.diffOut
			if multi {
				dest = filepath.Join(flags.diffOut, outputName(r.path, "diff"))
			}
			// The diff is advisory; a write failure does not fail the run.
			if err := os.WriteFile(dest, []byte(r.diff), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "WARN: diff write failed: %s\n", err)
			}
		}
	}
	return nil
}

// outputName maps docs/fha.md to fha.<ext>.
func outputName(path, ext string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + ext
}

// exitStatus picks the exit code for a batch: extraction failures first,
// then aborted sessions, input errors, and finally --fail-on.
func exitStatus(results []fileResult, failOn string) error {
	codes := map[int]bool{}
	var msgs []string
	for _, r := range results {
		if r.err == nil {
			continue
		}
		var ee *exitErr
		if errors.As(r.err, &ee) {
			codes[ee.code] = true
		}
		msgs = append(msgs, r.err.Error())
	}
	for _, code := range []int{exitExtraction, exitAborted, exitUsage} {
		if codes[code] {
			return codeError(code, "%s", strings.Join(msgs, "; "))
		}
	}

	if failOn == "" {
		return nil
	}
	threshold := schema.Tier(failOn)
	var hits []string
	for _, r := range results {
		if r.outcome == nil {
			continue
		}
		if schema.TierOrdinal(r.outcome.Score.Tier) >= schema.TierOrdinal(threshold) {
			hits = append(hits, fmt.Sprintf("%s: tier %s", r.path, r.outcome.Score.Tier))
		}
	}
	if len(hits) > 0 {
		return codeError(exitFailOn, "tier meets --fail-on threshold %s (%s)", threshold, strings.Join(hits, ", "))
	}
	return nil
}

// validateFlags returns an error if any flag value is invalid.
func validateFlags(flags checkFlags) error {
	switch flags.format {
	case "json", "md":
	default:
		return fmt.Errorf("--format must be json or md, got %q", flags.format)
	}

	if flags.failOn != "" {
		switch schema.Tier(flags.failOn) {
		case schema.TierPartial, schema.TierClarify:
		default:
			return fmt.Errorf("--fail-on must be partial or clarify, got %q", flags.failOn)
		}
	}

	if flags.temperature < 0 || flags.temperature > 1 {
		return fmt.Errorf("--temperature must be between 0.0 and 1.0, got %g", flags.temperature)
	}

	if flags.maxTokens < 0 {
		return fmt.Errorf("--max-tokens must be > 0, got %d", flags.maxTokens)
	}

	if flags.maxIterations < 0 {
		return fmt.Errorf("--max-iterations must be >= 0, got %d", flags.maxIterations)
	}

	if flags.interactive && strings.TrimSpace(flags.feedback) != "" {
		return fmt.Errorf("--interactive and --feedback are mutually exclusive")
	}

	return nil
}
