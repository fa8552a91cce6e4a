package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/input"
	"github.com/dshills/reqguard/internal/loan"
)

func newChecklistCmd(g *globalFlags) *cobra.Command {
	var format, overrides string
	cmd := &cobra.Command{
		Use:   "checklist [loan-type]",
		Short: "Show the checklist for a loan type, or list loan types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if overrides != "" {
				cfg.Checklists.Overrides = overrides
			}
			reg, err := newRegistry(cfg)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return listTypes(cmd.OutOrStdout(), reg)
			}
			t, err := loan.Parse(args[0])
			if err != nil {
				return codeError(exitUsage, "%s", err)
			}
			return showChecklist(cmd.OutOrStdout(), reg.For(t), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&overrides, "checklists", "", "YAML file overriding the built-in checklists")
	return cmd
}

func listTypes(w io.Writer, reg *checklist.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOAN TYPE\tITEMS\tREQUIRED")
	for _, t := range reg.Types() {
		c := reg.For(t)
		fmt.Fprintf(tw, "%s\t%d\t%d\n", t, c.Len(), c.RequiredCount())
	}
	return tw.Flush()
}

func showChecklist(w io.Writer, c checklist.Checklist, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case "text", "":
	default:
		return codeError(exitUsage, "--format must be text or json, got %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tCATEGORY\tPRIORITY\tREQUIRED\tKIND")
	for _, it := range c.Items {
		req := "no"
		if it.Required {
			req = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", it.Key, it.Label, it.Category, it.Priority, req, it.Kind)
	}
	return tw.Flush()
}

func newClassifyCmd(g *globalFlags) *cobra.Command {
	var noRedact bool
	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Detect the loan type of a requirements document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := input.Load(args[0], input.Options{NoRedact: noRedact})
			if err != nil {
				return codeError(exitUsage, "%s", err)
			}
			newLogger(g).Info("classifying", "path", doc.Path, "format", doc.Format)
			d := loan.Detect(doc.Text)

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, d.Primary)
			for _, m := range d.Matches {
				fmt.Fprintf(w, "  %s: %s\n", m.Type, strings.Join(m.Signals, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRedact, "no-redact", false, "Do not mask PII and secrets before classifying")
	return cmd
}
