package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	llmpkg "github.com/dshills/reqguard/internal/llm"
	"github.com/dshills/reqguard/internal/schema"
)

// setupMockAnthropicServer starts a test HTTP server that returns the given
// responses in sequence; after the last one it repeats the last entry. It
// points the Anthropic provider at the server and restores it on cleanup.
func setupMockAnthropicServer(t *testing.T, status int, responses ...[]byte) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(responses[n]) //nolint:errcheck
	}))
	original := llmpkg.AnthropicAPIURL()
	llmpkg.SetAnthropicAPIURL(srv.URL)
	t.Cleanup(func() {
		srv.Close()
		llmpkg.SetAnthropicAPIURL(original)
	})
	return &calls
}

// readFixture reads a file from testdata/llm/.
func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "llm", name))
	if err != nil {
		t.Fatalf("readFixture %s: %v", name, err)
	}
	return data
}

// docPath returns the path to a file in testdata/docs/.
func docPath(name string) string {
	return filepath.Join("testdata", "docs", name)
}

// setTestEnv isolates the test from the caller's environment and points the
// default provider at Anthropic.
func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REQGUARD_MODEL", "anthropic:claude-sonnet-4-6")
	t.Setenv("REQGUARD_EXTRACTOR", "")
	t.Setenv("ANTHROPIC_API_KEY", "test-key-for-integration-tests")
}

// offlineFlags returns checkFlags for the heuristic extractor.
func offlineFlags() checkFlags {
	return checkFlags{format: "json", offline: true}
}

func check(t *testing.T, flags checkFlags, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := runCheck(context.Background(), &globalFlags{}, args, flags, strings.NewReader(""), &stdout, &bytes.Buffer{})
	return stdout.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqguard.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readOutcome(t *testing.T, path string) schema.Outcome {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var o schema.Outcome
	if err := json.Unmarshal(data, &o); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, data)
	}
	return o
}

func asExitErr(t *testing.T, err error, code int) {
	t.Helper()
	ee, ok := err.(*exitErr)
	if !ok {
		t.Fatalf("expected *exitErr with code %d, got %T: %v", code, err, err)
	}
	if ee.code != code {
		t.Errorf("exit code = %d, want %d (%s)", ee.code, code, ee.msg)
	}
}

// --- Tests ---

func TestRunCheck_Offline_ConventionalAutoForwarded(t *testing.T) {
	setTestEnv(t)
	flags := offlineFlags()
	flags.out = filepath.Join(t.TempDir(), "out.json")

	if _, err := check(t, flags, docPath("conventional.md")); err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}

	o := readOutcome(t, flags.out)
	if o.State != schema.StateAutoForwarded {
		t.Errorf("state = %s, want auto_forwarded", o.State)
	}
	if o.LoanType != "Conventional" {
		t.Errorf("loan type = %s, want Conventional", o.LoanType)
	}
	if o.Meta.Extractor != "heuristic" {
		t.Errorf("extractor = %s, want heuristic", o.Meta.Extractor)
	}
	if o.Input.File != docPath("conventional.md") || !strings.HasPrefix(o.Input.Hash, "sha256:") {
		t.Errorf("input metadata not populated: %+v", o.Input)
	}
	if o.Version != version || o.Tool != "reqguard" {
		t.Errorf("tool/version = %s/%s", o.Tool, o.Version)
	}
}

func TestRunCheck_Offline_FHAApprovedWithWarning(t *testing.T) {
	setTestEnv(t)
	out, err := check(t, offlineFlags(), docPath("fha.md"))
	if err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}
	var o schema.Outcome
	if err := json.Unmarshal([]byte(out), &o); err != nil {
		t.Fatalf("stdout is not valid JSON: %v\n%s", err, out)
	}
	if o.State != schema.StateWarnedForward || o.Score.Tier != schema.TierClarify {
		t.Errorf("got %s/%s, want warned_forward/clarify", o.State, o.Score.Tier)
	}
}

func TestRunCheck_FailOn(t *testing.T) {
	setTestEnv(t)
	flags := offlineFlags()
	flags.failOn = "clarify"
	_, err := check(t, flags, docPath("fha.md"))
	asExitErr(t, err, exitFailOn)

	_, err = check(t, flags, docPath("conventional.md"))
	if err != nil {
		t.Errorf("complete document should not trip --fail-on clarify: %v", err)
	}
}

func TestRunCheck_FeedbackExhaustsBudget(t *testing.T) {
	setTestEnv(t)
	flags := offlineFlags()
	flags.feedback = "Please proceed."
	flags.out = filepath.Join(t.TempDir(), "out.json")
	flags.diffOut = filepath.Join(t.TempDir(), "iterations.diff")

	_, err := check(t, flags, docPath("fha.md"))
	asExitErr(t, err, exitAborted)

	o := readOutcome(t, flags.out)
	if o.State != schema.StateAborted {
		t.Errorf("state = %s, want aborted", o.State)
	}
	if o.Iterations != 3 {
		t.Errorf("iterations = %d, want 3", o.Iterations)
	}
	diff, err := os.ReadFile(flags.diffOut)
	if err != nil {
		t.Fatalf("reading diff: %v", err)
	}
	if !strings.Contains(string(diff), "iteration 0 -> 1") {
		t.Errorf("diff missing first refinement:\n%s", diff)
	}
}

func TestRunCheck_MarkdownFormat(t *testing.T) {
	setTestEnv(t)
	flags := offlineFlags()
	flags.format = "md"
	out, err := check(t, flags, docPath("fha.md"))
	if err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}
	for _, want := range []string{"# ReqGuard Report", "**Loan type:** FHA", "MIP calculation rules"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestRunCheck_Batch(t *testing.T) {
	setTestEnv(t)
	dir := t.TempDir()
	flags := offlineFlags()
	flags.out = filepath.Join(dir, "reports")
	flags.concurrency = 2

	if _, err := check(t, flags, filepath.Join("testdata", "docs", "*")); err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}

	want := map[string]string{"conventional.json": "Conventional", "fha.json": "FHA", "va.json": "VA"}
	for name, loanType := range want {
		o := readOutcome(t, filepath.Join(flags.out, name))
		if o.LoanType != loanType {
			t.Errorf("%s: loan type = %s, want %s", name, o.LoanType, loanType)
		}
	}
}

func TestRunCheck_LLM(t *testing.T) {
	setTestEnv(t)
	setupMockAnthropicServer(t, http.StatusOK, readFixture(t, "anthropic_conventional.json"))
	flags := checkFlags{format: "json", out: filepath.Join(t.TempDir(), "out.json")}

	if _, err := check(t, flags, docPath("conventional.md")); err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}
	o := readOutcome(t, flags.out)
	if o.State != schema.StateAutoForwarded || o.Score.Value != 1 {
		t.Errorf("got %s score %.2f, want auto_forwarded at 1.0", o.State, o.Score.Value)
	}
	if o.Meta.Extractor != "llm" || o.Meta.Model != "anthropic:claude-sonnet-4-6" {
		t.Errorf("meta = %+v", o.Meta)
	}
	if o.Meta.Temperature != 0.2 {
		t.Errorf("temperature = %g, want 0.2", o.Meta.Temperature)
	}
}

func TestRunCheck_LLM_RepairsInvalidResponse(t *testing.T) {
	setTestEnv(t)
	calls := setupMockAnthropicServer(t, http.StatusOK,
		readFixture(t, "anthropic_invalid.json"),
		readFixture(t, "anthropic_conventional.json"),
	)
	if _, err := check(t, checkFlags{format: "json"}, docPath("conventional.md")); err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("provider calls = %d, want 2", calls.Load())
	}
}

func TestRunCheck_LLM_ExtractionFailed(t *testing.T) {
	setTestEnv(t)
	calls := setupMockAnthropicServer(t, http.StatusOK, readFixture(t, "anthropic_invalid.json"))
	g := &globalFlags{configPath: writeConfig(t, "workflow:\n  retry_delay: 1ms\n")}

	var stdout bytes.Buffer
	err := runCheck(context.Background(), g, []string{docPath("fha.md")}, checkFlags{format: "json"}, strings.NewReader(""), &stdout, &bytes.Buffer{})
	out := stdout.String()
	asExitErr(t, err, exitExtraction)
	if out != "" {
		t.Errorf("no outcome expected on extraction failure, got:\n%s", out)
	}
	// First attempt plus two retries, each with one repair call.
	if calls.Load() != 6 {
		t.Errorf("provider calls = %d, want 6", calls.Load())
	}
}

func TestRunCheck_ProviderError_ExitsCode4(t *testing.T) {
	setTestEnv(t)
	flags := checkFlags{format: "json", model: "bogus:model"}
	_, err := check(t, flags, docPath("fha.md"))
	asExitErr(t, err, exitProvider)
}

func TestRunCheck_InvalidFlags_ExitsCode3(t *testing.T) {
	setTestEnv(t)
	for name, flags := range map[string]checkFlags{
		"format":      {format: "xml", offline: true},
		"fail-on":     {format: "json", failOn: "complete", offline: true},
		"temperature": {format: "json", temperature: 3, offline: true},
		"gates":       {format: "json", interactive: true, feedback: "x", offline: true},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := check(t, flags, docPath("fha.md"))
			asExitErr(t, err, exitUsage)
		})
	}
}

func TestRunCheck_MissingFile_ExitsCode3(t *testing.T) {
	setTestEnv(t)
	_, err := check(t, offlineFlags(), docPath("does-not-exist.md"))
	asExitErr(t, err, exitUsage)
}

func TestRunCheck_Interactive(t *testing.T) {
	setTestEnv(t)
	flags := offlineFlags()
	flags.interactive = true

	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader("a\n")
	err := runCheck(context.Background(), &globalFlags{}, []string{docPath("fha.md")}, flags, stdin, &stdout, &stderr)
	if err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}
	if !strings.Contains(stderr.String(), "Clarifying questions") {
		t.Errorf("gate prompt not shown:\n%s", stderr.String())
	}
	if !strings.Contains(stdout.String(), `"state": "warned_forward"`) {
		t.Errorf("expected warned_forward outcome:\n%s", stdout.String())
	}
}

func TestRunCheck_ConfigFile(t *testing.T) {
	setTestEnv(t)
	cfgPath := writeConfig(t, "extractor: heuristic\nscoring:\n  thresholds:\n    complete: 0.99\n    partial: 0.01\n")
	var stdout bytes.Buffer
	err := runCheck(context.Background(), &globalFlags{configPath: cfgPath}, []string{docPath("fha.md")}, checkFlags{format: "json"}, strings.NewReader(""), &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}
	var o schema.Outcome
	if err := json.Unmarshal(stdout.Bytes(), &o); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if o.Score.Tier != schema.TierPartial {
		t.Errorf("tier = %s, want partial under the configured thresholds", o.Score.Tier)
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestChecklistCmd(t *testing.T) {
	setTestEnv(t)
	out, err := runRoot(t, "checklist")
	if err != nil {
		t.Fatalf("checklist: %v", err)
	}
	for _, want := range []string{"LOAN TYPE", "FHA", "Reverse", "Unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("type list missing %q:\n%s", want, out)
		}
	}

	out, err = runRoot(t, "checklist", "fha")
	if err != nil {
		t.Fatalf("checklist fha: %v", err)
	}
	if !strings.Contains(out, "mip_calculation") {
		t.Errorf("FHA checklist missing mip_calculation:\n%s", out)
	}

	_, err = runRoot(t, "checklist", "balloon")
	asExitErr(t, err, exitUsage)
}

func TestClassifyCmd(t *testing.T) {
	setTestEnv(t)
	out, err := runRoot(t, "classify", docPath("va.html"))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.HasPrefix(out, "VA\n") {
		t.Errorf("classify output = %q, want VA first", out)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "reqguard dev\n" {
		t.Errorf("version output = %q", out)
	}
}
