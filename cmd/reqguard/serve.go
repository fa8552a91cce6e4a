package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dshills/reqguard/internal/config"
	"github.com/dshills/reqguard/internal/input"
	"github.com/dshills/reqguard/internal/mcpserver"
	"github.com/dshills/reqguard/internal/metrics"
	"github.com/dshills/reqguard/internal/render"
	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/server"
	"github.com/dshills/reqguard/internal/sessions"
	"github.com/dshills/reqguard/internal/watch"
	"github.com/dshills/reqguard/internal/workflow"
)

// serverFlags are shared by serve and mcp.
type serverFlags struct {
	addr    string
	offline bool
	model   string
}

func (f serverFlags) apply(cfg *config.Config) error {
	over := &config.Config{
		Model:  config.ModelConfig{Provider: f.model},
		Server: config.ServerConfig{Addr: f.addr},
	}
	if f.offline {
		over.Extractor = config.ExtractorHeuristic
	}
	cfg.Merge(over)
	if err := cfg.Validate(); err != nil {
		return codeError(exitUsage, "invalid config: %s", err)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var flags serverFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve validation sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := flags.apply(cfg); err != nil {
				return err
			}
			logger := newLogger(g)
			b, err := newBackend(cfg, logger)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			mgr := sessions.New(newFactory(cfg, b, logger, m), cfg.Server.SessionTTL,
				sessions.WithLogger(logger), sessions.WithGauge(m))

			ctx, stop := signalContext()
			defer stop()
			go mgr.Run(ctx)

			srv := server.New(mgr, b.registry, reg, logger)
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				return codeError(exitUsage, "%s", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", "", "Listen address (default from config: :8080)")
	f.BoolVar(&flags.offline, "offline", false, "Use the offline heuristic extractor")
	f.StringVar(&flags.model, "model", "", "LLM provider:model")
	return cmd
}

func newMCPCmd(g *globalFlags) *cobra.Command {
	var flags serverFlags
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve validation tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := flags.apply(cfg); err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr only.
			logger := newLogger(g)
			b, err := newBackend(cfg, logger)
			if err != nil {
				return err
			}

			mgr := sessions.New(newFactory(cfg, b, logger, nil), cfg.Server.SessionTTL, sessions.WithLogger(logger))
			ctx, stop := signalContext()
			defer stop()
			go mgr.Run(ctx)

			return mcpserver.Serve(mcpserver.New(mgr, b.registry, version))
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.offline, "offline", false, "Use the offline heuristic extractor")
	f.StringVar(&flags.model, "model", "", "LLM provider:model")
	return cmd
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		flags    serverFlags
		format   string
		noRedact bool
	)
	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-validate documents whenever they are saved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := flags.apply(cfg); err != nil {
				return err
			}
			renderer, err := render.NewRenderer(format)
			if err != nil {
				return codeError(exitUsage, "invalid format: %s", err)
			}
			paths, err := input.Expand(args)
			if err != nil {
				return codeError(exitUsage, "%s", err)
			}
			logger := newLogger(g)
			b, err := newBackend(cfg, logger)
			if err != nil {
				return err
			}

			// Each save is validated once without a human: clarify results
			// are reported, not refined.
			factory := newFactory(cfg, b, logger, nil)
			out := cmd.OutOrStdout()
			w, err := watch.New(watch.Config{Paths: paths, Input: input.Options{NoRedact: noRedact}, Logger: logger},
				func(ctx context.Context, doc *input.Document) error {
					c := factory(workflow.WithInput(schema.Input{File: doc.Path, Hash: doc.Hash}))
					if err := c.Submit(ctx, doc.Text); err != nil {
						return err
					}
					data, err := renderer.Render(c.View())
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(out, "%s\n", data)
					return err
				})
			if err != nil {
				return codeError(exitUsage, "%s", err)
			}

			ctx, stop := signalContext()
			defer stop()
			if err := w.Run(ctx); err != nil {
				return codeError(exitUsage, "%s", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", "md", "Output format: json or md")
	f.BoolVar(&noRedact, "no-redact", false, "Do not mask PII and secrets before extraction")
	f.BoolVar(&flags.offline, "offline", false, "Use the offline heuristic extractor")
	f.StringVar(&flags.model, "model", "", "LLM provider:model")
	return cmd
}
