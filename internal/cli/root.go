// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/cliff/internal/cloud"
	"github.com/jeranaias/cliff/internal/config"
	promptctx "github.com/jeranaias/cliff/internal/context"
	"github.com/jeranaias/cliff/internal/logging"
	"github.com/jeranaias/cliff/internal/storage"
	"github.com/jeranaias/cliff/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes returned by Execute.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// globalOptions holds the persistent flags.
type globalOptions struct {
	model      string
	context    []string
	configPath string
	verbose    bool
}

// app carries what every command needs: streams, flags, configuration and
// the logger. Tests build one with their own streams.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// Terminal detection, captured once so tests can override it.
	stdinTTY  bool
	stdoutTTY bool
	stderrTTY bool

	// workDir resolves relative context and plan paths; empty means the
	// current directory.
	workDir string

	// httpClient overrides the model and context HTTP clients.
	httpClient *http.Client

	opts globalOptions

	cfg     *config.Config
	cfgPath string
	// cfgErr is a validation error from loading; commands that need a
	// model refuse to run with it, config commands repair it.
	cfgErr error

	logger *logrus.Logger
	reader *bufio.Reader
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

// NewRootCmd builds the command tree bound to the process streams.
func NewRootCmd() *cobra.Command {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	a.stdinTTY = ui.IsTTY()
	a.stdoutTTY = ui.IsStdoutTTY()
	a.stderrTTY = ui.IsStderrTTY()
	return newRootCmd(a)
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cliff",
		Short: "Ask an LLM, or let it plan and run actions",
		Long: `cliff talks to any HTTP LLM backend described in its configuration.

"ask" and "session" answer questions. "act" asks the model for a plan of
file writes, shell commands and questions, shows it for review and runs it
only after confirmation.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.opts.model, "model", "m", "", "Model to use for this invocation")
	flags.StringSliceVarP(&a.opts.context, "context", "c", nil, "Files or URLs to include as context (comma-separated or repeated)")
	flags.StringVar(&a.opts.configPath, "config", "", "Configuration file (default ~/.cliff/config.toml, or $CLIFF_CONFIG)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Verbose logging on stderr")

	cmd.AddCommand(newAskCmd(a))
	cmd.AddCommand(newSessionCmd(a))
	cmd.AddCommand(newActCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newHistoryCmd(a))

	return cmd
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	return ExitSuccess
}

// =============================================================================
// SETUP
// =============================================================================

// setup loads the configuration and builds the logger. Config commands
// edit the file without environment overrides.
func (a *app) setup(cmd *cobra.Command) error {
	path, err := config.ResolvePath(a.opts.configPath)
	if err != nil {
		return err
	}
	a.cfgPath = path

	load := config.Load
	if isConfigCommand(cmd) {
		load = config.LoadForEdit
	}
	cfg, err := load(path)
	if cfg == nil {
		return err
	}
	a.cfg, a.cfgErr = cfg, err

	a.logger = logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Verbose: a.opts.verbose,
		Output:  a.errOut,
	})
	a.logger.WithFields(logrus.Fields{
		"config":  path,
		"command": cmd.Name(),
	}).Debug("configuration loaded")
	return nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.HasParent() && !c.Parent().HasParent() {
			return true
		}
	}
	return false
}

func (a *app) component(name string) *logrus.Entry {
	return logging.Component(a.logger, name)
}

// resolveModel picks the model for this invocation.
func (a *app) resolveModel() (config.ResolvedModel, error) {
	if a.cfgErr != nil {
		return config.ResolvedModel{}, a.cfgErr
	}
	m, err := a.cfg.Resolve(a.opts.model)
	if err != nil {
		return config.ResolvedModel{}, err
	}
	a.component("cli").WithFields(logrus.Fields{
		"model":  m.Name,
		"source": m.Source,
	}).Debug("model resolved")
	return m, nil
}

// bind returns a client bound to the resolved model.
func (a *app) bind() (*cloud.Bound, error) {
	m, err := a.resolveModel()
	if err != nil {
		return nil, err
	}
	client := cloud.NewClient(a.component("cloud"))
	if a.httpClient != nil {
		client = client.WithHTTPClient(a.httpClient)
	}
	return cloud.Bind(client, m), nil
}

// gather reads the --context sources.
func (a *app) gather(ctx context.Context) (promptctx.PromptContext, error) {
	if len(a.opts.context) == 0 {
		return promptctx.PromptContext{}, nil
	}
	g := promptctx.NewGatherer(promptctx.Options{
		MaxSourceBytes: a.cfg.Context.MaxSourceBytes,
		FetchTimeout:   time.Duration(a.cfg.Context.FetchTimeoutSecs) * time.Second,
		URLsPerSecond:  a.cfg.Context.URLsPerSecond,
		WorkDir:        a.workDir,
		HTTPClient:     a.httpClient,
	}, a.component("context"))
	return g.Gather(ctx, a.opts.context)
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

// theme returns the stdout theme, plain when stdout is not a terminal.
func (a *app) theme() *ui.Theme {
	profile := termenv.Ascii
	if a.stdoutTTY {
		profile = ui.ColorProfile()
	}
	return ui.NewTheme(a.out, profile)
}

// spin shows a spinner on stderr while fn runs, when stderr is a terminal.
func (a *app) spin(message string, fn func()) {
	var w io.Writer
	if a.stderrTTY {
		w = a.errOut
	}
	s := ui.StartSpinner(w, message)
	fn()
	s.Stop()
}

// renderAnswer prints an answer, as markdown on a terminal.
func (a *app) renderAnswer(answer string) {
	if a.stdoutTTY {
		fmt.Fprint(a.out, ui.RenderMarkdown(answer))
		return
	}
	fmt.Fprintln(a.out, answer)
}

// =============================================================================
// HISTORY
// =============================================================================

var errHistoryDisabled = errors.New("history is disabled (set history.enabled = true in the config)")

func (a *app) openHistory() (*storage.HistoryStore, error) {
	if !a.cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	path, err := a.cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return storage.Open(path)
}

// record logs an interaction. Failures only warn: history must never make
// a command fail.
func (a *app) record(ctx context.Context, r *storage.Record) {
	store, err := a.openHistory()
	if errors.Is(err, errHistoryDisabled) {
		return
	}
	log := a.component("history")
	if err != nil {
		log.WithError(err).Warn("failed to open history")
		return
	}
	defer store.Close()

	if err := store.Record(ctx, r); err != nil {
		log.WithError(err).Warn("failed to record history")
	}
}
