package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/reqguard/internal/config"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// Exit codes.
const (
	exitFailOn     = 2
	exitUsage      = 3
	exitProvider   = 4
	exitExtraction = 5
	exitAborted    = 6
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "reqguard",
		Short:         "Validate mortgage requirements documents before they reach development",
		Long:          "ReqGuard classifies a mortgage requirements document by loan type, checks it against that type's regulatory checklist, and asks for clarification until it is complete enough to forward.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default: reqguard.yaml in the working directory)")
	pf.BoolVar(&g.verbose, "verbose", false, "Log processing steps to stderr")
	pf.BoolVar(&g.debug, "debug", false, "Log debug detail, including full prompts, to stderr; use only in trusted environments")

	root.AddCommand(
		newCheckCmd(&g),
		newChecklistCmd(&g),
		newClassifyCmd(&g),
		newServeCmd(&g),
		newMCPCmd(&g),
		newWatchCmd(&g),
		newVersionCmd(),
	)
	return root
}

// newLogger builds the stderr text logger: WARN by default, INFO with
// --verbose, DEBUG with --debug.
func newLogger(g *globalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case g.debug:
		level = slog.LevelDebug
	case g.verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves and validates the configuration.
func loadConfig(g *globalFlags) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, codeError(exitUsage, "resolving working directory: %s", err)
	}
	cfg, err := config.Load(g.configPath, wd)
	if err != nil {
		return nil, codeError(exitUsage, "loading config: %s", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reqguard %s\n", version)
		},
	}
}
