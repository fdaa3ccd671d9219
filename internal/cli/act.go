// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/cliff/internal/diff"
	"github.com/jeranaias/cliff/internal/plan"
	"github.com/jeranaias/cliff/internal/storage"
	"github.com/jeranaias/cliff/internal/tools"
	"github.com/jeranaias/cliff/internal/ui"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrPlanFailed is returned when an executed plan had failing steps.
var ErrPlanFailed = errors.New("plan finished with failed steps")

type actOptions struct {
	autoConfirm   bool
	stopOnFailure bool
	dryRun        bool
	recover       int
	format        string
}

func newActCmd(a *app) *cobra.Command {
	opts := &actOptions{}

	cmd := &cobra.Command{
		Use:   "act <instruction>",
		Short: "Let the model plan actions, review them, then run them",
		Long: `Asks the selected model for a plan that carries out the instruction. The
plan can create files, run shell commands and ask you questions. It is shown
in full and runs only after you confirm it.

A failing step does not stop the steps after it unless --stop-on-failure is
set. With --recover N, a plan that did not fully succeed is sent back to the
model, together with what already ran, for up to N follow-up plans.`,
		Example: `  cliff act "create a hello world Go program and run it"
  cliff act -c go.mod --stop-on-failure "add a Makefile with build and test targets"
  cliff act --dry-run --format json "set up a Python virtualenv"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAct(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.autoConfirm, "auto-confirm", "y", false, "Execute the plan without asking for confirmation")
	cmd.Flags().BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "Skip the remaining steps after the first failure")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show the plan without executing it")
	cmd.Flags().IntVar(&opts.recover, "recover", 0, "Follow-up plans to request when a plan does not fully succeed")
	cmd.Flags().StringVar(&opts.format, "format", FormatText, "Output format: text, json or yaml")

	return cmd
}

// actReport is the --format json|yaml document.
type actReport struct {
	Instruction string          `json:"instruction" yaml:"instruction"`
	Model       string          `json:"model" yaml:"model"`
	DryRun      bool            `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Success     bool            `json:"success" yaml:"success"`
	Plans       []*plan.Plan    `json:"plans" yaml:"plans"`
	Summaries   []*plan.Summary `json:"summaries" yaml:"summaries"`
}

func (a *app) runAct(cmd *cobra.Command, instruction string, opts *actOptions) error {
	ctx := cmd.Context()

	switch opts.format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", opts.format)
	}
	if opts.recover < 0 {
		return fmt.Errorf("--recover must not be negative")
	}

	bound, err := a.bind()
	if err != nil {
		return err
	}
	pctx, err := a.gather(ctx)
	if err != nil {
		return err
	}

	gen := plan.NewGenerator(bound, a.component("planner"))
	history := &plan.History{}
	report := &actReport{Instruction: instruction, Model: bound.Model().Name, DryRun: opts.dryRun}

	var (
		p   *plan.Plan
		raw string
	)
	a.spin("Planning", func() {
		p, raw, err = gen.Generate(ctx, instruction, pctx, history)
	})
	if err != nil {
		return a.planError(err, raw)
	}

	executor := a.newExecutor(opts)
	executor.SetHistory(history)

	for attempt := 0; ; attempt++ {
		report.Plans = append(report.Plans, p)
		a.reviewPlan(p, opts.format)
		if opts.dryRun {
			break
		}

		summary := executor.Execute(ctx, p, a.confirmFunc(opts.autoConfirm), a.askUser)
		report.Summaries = append(report.Summaries, summary)
		if opts.format == FormatText {
			fmt.Fprint(a.out, "\n"+ui.RenderSummary(summary, a.theme()))
		}

		if summary.State == plan.StateAborted || summary.Success || attempt >= opts.recover || ctx.Err() != nil {
			break
		}

		fmt.Fprintf(a.errOut, "\nPlan did not fully succeed; requesting a follow-up plan (%d of %d)\n", attempt+1, opts.recover)
		a.spin("Planning", func() {
			p, raw, err = gen.Recover(ctx, instruction, summary, history)
		})
		if err != nil {
			_ = a.finishAct(ctx, report, opts.format)
			return a.planError(err, raw)
		}
		if p.IsEmpty() {
			a.reviewPlan(p, opts.format)
			break
		}
	}

	return a.finishAct(ctx, report, opts.format)
}

// newExecutor builds an executor from the execution config and flags.
func (a *app) newExecutor(opts *actOptions) *plan.Executor {
	settings := a.cfg.Execution
	shell := &tools.ShellRunner{
		Shell:         settings.Shell,
		WorkDir:       a.workDir,
		Timeout:       time.Duration(settings.CommandTimeoutSecs) * time.Second,
		MaxOutputSize: settings.MaxOutputBytes,
	}
	files := &tools.FileWriter{BaseDir: a.workDir}

	e := plan.NewExecutor(files, shell, a.component("executor"))
	e.SetStopOnFailure(opts.stopOnFailure || settings.StopOnFailure)
	if opts.format == FormatText {
		e.SetProgressCallback(a.progress)
	}
	return e
}

// progress reports each step on stderr as it starts.
func (a *app) progress(index, total int, step plan.Step, state plan.State) {
	if state != plan.StateRunning {
		return
	}
	fmt.Fprintf(a.errOut, "[%d/%d] %s\n", index+1, total, step)
}

// reviewPlan shows the plan. Structured formats keep stdout for the report,
// so the review goes to stderr.
func (a *app) reviewPlan(p *plan.Plan, format string) {
	if format == FormatText {
		fmt.Fprint(a.out, ui.RenderPlan(p, a.theme(), a.overwrites(p)))
		return
	}
	profile := termenv.Ascii
	if a.stderrTTY {
		profile = ui.ColorProfile()
	}
	fmt.Fprint(a.errOut, ui.RenderPlan(p, ui.NewTheme(a.errOut, profile), a.overwrites(p)))
}

// maxReviewDiffSize bounds the existing files read to describe an overwrite.
const maxReviewDiffSize = 1 << 20

// overwrites diffs the CREATE_FILE steps that would replace an existing file.
func (a *app) overwrites(p *plan.Plan) ui.Overwrites {
	files := &tools.FileWriter{BaseDir: a.workDir}
	existing := ui.Overwrites{}
	for i, s := range p.Steps {
		if s.Kind != plan.KindCreateFile {
			continue
		}
		target, err := files.Resolve(s.Path)
		if err != nil {
			continue
		}
		info, err := os.Stat(target)
		if err != nil || info.IsDir() || info.Size() > maxReviewDiffSize {
			continue
		}
		data, err := os.ReadFile(target)
		if err != nil {
			continue
		}
		existing[i] = diff.Compute(string(data), s.Content)
	}
	return existing
}

// planError shows what the model said when it could not be parsed.
func (a *app) planError(err error, raw string) error {
	var perr *plan.ParseError
	if errors.As(err, &perr) && raw != "" {
		fmt.Fprintf(a.errOut, "The model's answer is not a valid plan:\n\n%s\n\n", strings.TrimRight(raw, "\n"))
	}
	return err
}

// finishAct writes the report, records the run and maps the outcome to an
// error. A declined plan is not an error.
func (a *app) finishAct(ctx context.Context, report *actReport, format string) error {
	var last *plan.Summary
	if n := len(report.Summaries); n > 0 {
		last = report.Summaries[n-1]
	}
	report.Success = last != nil && last.Success

	if err := writeReport(a.out, report, format); err != nil {
		return err
	}
	if report.DryRun || last == nil {
		return nil
	}

	steps, failed := 0, 0
	var response strings.Builder
	for _, s := range report.Summaries {
		steps += len(s.Entries)
		failed += s.Failed()
		response.WriteString(plan.FormatSummary(s))
	}
	a.record(ctx, &storage.Record{
		Kind:     storage.KindAct,
		Model:    report.Model,
		Prompt:   report.Instruction,
		Response: response.String(),
		Success:  report.Success,
		Steps:    steps,
		Failed:   failed,
	})

	if last.State == plan.StateCompleted && !last.Success {
		return ErrPlanFailed
	}
	return nil
}

func writeReport(w io.Writer, report *actReport, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	return nil
}
