package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mughesh/HVAC-VRB-sub000/sequence"
)

var errInvalidProgram = errors.New("program has errors")

type validateOptions struct {
	Scene    string
	Profiles []string
	Strict   bool
}

type issueJSON struct {
	Severity string `json:"severity"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

type validateResult struct {
	Program string      `json:"program"`
	Valid   bool        `json:"valid"`
	Steps   int         `json:"steps"`
	Issues  []issueJSON `json:"issues,omitempty"`
}

func NewValidateCommand(root *RootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <program.yaml>",
		Short: "Check a training program, optionally against a scene",
		Long: `Validate loads a program and reports structural problems: unknown step
types, missing targets, bad wait lists, conditions that do not compile and
overrides that do not fit the step. With --scene every object reference is
resolved and checked for the capability its step waits on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(root, opts, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Scene, "scene", "s", "", "scene file to resolve references against")
	cmd.Flags().StringSliceVarP(&opts.Profiles, "profiles", "p", nil, "extra profile directories")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")
	return cmd
}

func runValidate(root *RootOptions, opts *validateOptions, path string, out io.Writer) error {
	prog, err := sequence.LoadFile(path)
	if err != nil {
		return err
	}

	var issues []sequence.Issue
	if opts.Scene != "" {
		lib, err := root.loadLibrary(opts.Profiles...)
		if err != nil {
			return err
		}
		sc, err := root.buildScene(opts.Scene, lib)
		if err != nil {
			return err
		}
		issues = sequence.ValidateScene(prog, sc)
	} else {
		issues = sequence.Validate(prog)
	}

	valid := !sequence.HasErrors(issues)
	if opts.Strict && len(issues) > 0 {
		valid = false
	}
	res := validateResult{Program: prog.Name, Valid: valid, Steps: prog.StepCount()}
	for _, i := range issues {
		res.Issues = append(res.Issues, issueJSON{Severity: i.Severity.String(), Location: i.Location, Message: i.Message})
	}

	if root.Output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		for _, i := range issues {
			fmt.Fprintln(out, i.String())
		}
		if valid {
			fmt.Fprintf(out, "%s: ok (%d steps)\n", prog.Name, res.Steps)
		}
	}
	if !valid {
		return fmt.Errorf("%s: %w", path, errInvalidProgram)
	}
	return nil
}
