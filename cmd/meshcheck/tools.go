package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/meshcheck/pkg/diagram"
	"github.com/ormasoftchile/meshcheck/pkg/mutate"
	"github.com/ormasoftchile/meshcheck/pkg/present"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// --- diagram ---

func (a *app) diagramCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "diagram [solution.yaml]",
		Short: "Render the handoff graph as Mermaid or ASCII",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := diagram.ParseFormat(format)
			if err != nil {
				return err
			}
			sol, err := solution.LoadFile(args[0])
			if err != nil {
				return err
			}
			out, err := diagram.Generate(sol, f)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "mermaid", "Output format: mermaid or ascii")
	return cmd
}

// --- schema export ---

func (a *app) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Schema operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "export [solution|skill]",
		Short:     "Export the JSON Schema for solution or skill documents",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"solution", "skill"},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := solution.GenerateJSONSchema
			if len(args) == 1 && args[0] == "skill" {
				gen = solution.GenerateSkillJSONSchema
			}
			data, err := gen()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})
	return cmd
}

// --- mutate ---

func (a *app) mutateCmd() *cobra.Command {
	var (
		ops     string
		out     string
		skill   bool
		inPlace bool
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "mutate [document.yaml]",
		Short: "Apply an update file to a solution or skill document",
		Long: `Apply suffix-keyed updates (key, key_push, key_delete, key_update,
key_rename) to a document and write the result as YAML. Mutated solutions are
re-validated; an invalid result is not written unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ops == "" {
				return fmt.Errorf("--ops is required")
			}
			if inPlace && out != "" {
				return fmt.Errorf("--in-place and --out are mutually exclusive")
			}
			updates, err := mutate.LoadOpsFile(ops)
			if err != nil {
				return err
			}

			var (
				doc     any
				outcome *mutate.Outcome
				res     *validate.Result
			)
			if skill {
				sk, err := solution.LoadSkillFile(args[0])
				if err != nil {
					return err
				}
				if doc, outcome, err = mutate.ApplyToSkill(sk, updates); err != nil {
					return err
				}
			} else {
				sol, err := solution.LoadFile(args[0])
				if err != nil {
					return err
				}
				next, o, err := mutate.ApplyToSolution(sol, updates)
				if err != nil {
					return err
				}
				doc, outcome = next, o
				if res, err = validate.ValidateSolution(next, a.validateOptions(nil)...); err != nil {
					return err
				}
			}

			stderr := cmd.ErrOrStderr()
			for _, c := range outcome.Applied {
				fmt.Fprintf(stderr, "  %s %s\n", present.GlyphPass, c)
			}
			for _, r := range outcome.Rejected {
				fmt.Fprintf(stderr, "  %s %s: %s\n", present.GlyphWarning, r.Command, r.Reason)
			}
			if res != nil && !res.Valid {
				present.New(stderr).Issues(res.Errors)
				if !force {
					return fmt.Errorf("mutated solution is invalid: %d error(s)", len(res.Errors))
				}
			}

			data, err := encodeDocument(doc)
			if err != nil {
				return err
			}
			switch {
			case inPlace:
				out = args[0]
			case out == "":
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(stderr, "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&ops, "ops", "", "YAML or JSON file of updates (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the result to this path instead of stdout")
	cmd.Flags().BoolVar(&skill, "skill", false, "The document is an implementation skill")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "Overwrite the input document")
	cmd.Flags().BoolVar(&force, "force", false, "Write an invalid solution anyway")
	return cmd
}

func encodeDocument(doc any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
