package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/meshcheck/pkg/cache"
	"github.com/ormasoftchile/meshcheck/pkg/present"
	"github.com/ormasoftchile/meshcheck/pkg/report"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// --- validate ---

func (a *app) validateCmd() *cobra.Command {
	var deploy, asJSON bool
	cmd := &cobra.Command{
		Use:   "validate [solution.yaml]",
		Short: "Validate a solution topology",
		Long: `Validate a solution document against the schema and the cross-skill checks.
With --deploy, implementation skills, connectors and the mcp-store are read
from the store and the connector binding checks run as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := solution.LoadFile(args[0])
			if err != nil {
				return err
			}
			var dc *validate.DeployContext
			if deploy {
				if dc, err = a.store().DeployContext(cmd.Context(), sol); err != nil {
					return fmt.Errorf("deploy context: %w", err)
				}
			}
			res, err := validate.ValidateSolution(sol, a.validateOptions(dc)...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else {
				present.New(out).Result(displayName(sol, args[0]), res)
			}
			if !res.Valid {
				return fmt.Errorf("validation failed with %d error(s)", len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deploy, "deploy", false, "Resolve the deploy payload from the store and check connector bindings")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the result as JSON")
	return cmd
}

func displayName(sol *solution.Solution, path string) string {
	switch {
	case sol.Name != "":
		return sol.Name
	case sol.ID != "":
		return sol.ID
	default:
		return filepath.Base(path)
	}
}

// --- report ---

func (a *app) reportCmd() *cobra.Command {
	var (
		file     string
		gate     string
		findings string
		markdown bool
		asJSON   bool
		record   bool
		width    int
	)
	cmd := &cobra.Command{
		Use:   "report [solution-id]",
		Short: "Generate the leveled validation report for a stored solution",
		Long: `Generate a report with technical, completeness and intelligent findings,
a quality score and per-skill results. The solution is read from the store by
id, or from --file; implementation skills and connectors always come from the
store. The command fails when the release gate does not pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (file != "") {
				return errors.New("pass either a solution id or --file")
			}
			ctx := cmd.Context()
			st := a.store()

			var (
				sol *solution.Solution
				err error
			)
			if file != "" {
				sol, err = solution.LoadFile(file)
			} else {
				sol, err = st.LoadSolution(args[0])
			}
			if err != nil {
				return err
			}
			dc, err := st.DeployContext(ctx, sol)
			if err != nil {
				return fmt.Errorf("deploy context: %w", err)
			}
			in := report.Input{Skills: dc.Skills}
			if findings != "" {
				if in.Intelligent, err = loadFindings(findings); err != nil {
					return err
				}
			}
			r, err := report.Generate(sol, in, a.validateOptions(dc)...)
			if err != nil {
				return err
			}

			if record {
				if err := a.record(cmd, r, sol, dc); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			p := present.New(out)
			switch {
			case asJSON:
				if err := printJSON(out, r); err != nil {
					return err
				}
			case markdown:
				p.Markdown(report.Markdown(r), width)
			default:
				p.Report(r)
			}

			if gate == "" {
				gate = a.cfg.Report.Gate
			}
			pass, err := report.Gate(gate, r)
			if err != nil {
				return err
			}
			if !asJSON {
				p.Gate(gate, pass)
			}
			if !pass {
				return fmt.Errorf("release gate failed: %s", gate)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Solution file to report on instead of a stored id")
	cmd.Flags().StringVar(&gate, "gate", "", "Release gate expression (default: report.gate from config)")
	cmd.Flags().StringVar(&findings, "findings", "", "JSON file of intelligent findings merged into level 3")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the report as markdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&record, "record", false, "Record the report in the history database")
	cmd.Flags().IntVar(&width, "width", 100, "Markdown wrap width (0 disables wrapping)")
	return cmd
}

func (a *app) record(cmd *cobra.Command, r *report.Report, sol *solution.Solution, dc *validate.DeployContext) error {
	db, err := a.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()
	digest, err := cache.Digest(sol, dc, a.cfg.Validate.ReservedRoots)
	if err != nil {
		return err
	}
	if err := db.Record(cmd.Context(), r, digest); err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	return nil
}

func loadFindings(path string) ([]validate.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read findings: %w", err)
	}
	var issues []validate.Issue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("parse findings %s: %w", path, err)
	}
	return issues, nil
}
