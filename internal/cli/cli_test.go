// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/cliff/internal/config"
	"github.com/jeranaias/cliff/internal/plan"
	"github.com/jeranaias/cliff/internal/storage"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

// backend is a fake LLM endpoint that answers {"q": prompt} requests with
// {"answer": ...} in order and records the prompts it saw.
type backend struct {
	mu      sync.Mutex
	answers []string
	status  []int
	prompts []string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q string `json:"q"`
	}
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.prompts = append(b.prompts, req.Q)

	status := http.StatusOK
	if len(b.status) > 0 {
		status, b.status = b.status[0], b.status[1:]
	}
	answer := "no more answers"
	if len(b.answers) > 0 {
		answer, b.answers = b.answers[0], b.answers[1:]
	}
	if status != http.StatusOK {
		http.Error(w, "backend unavailable", status)
		return
	}
	resp, _ := json.Marshal(map[string]string{"answer": answer})
	w.Header().Set("Content-Type", "application/json")
	w.Write(resp)
}

func (b *backend) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}

type harness struct {
	t       *testing.T
	work    string
	cfgPath string
	histDB  string
	backend *backend
	tty     bool

	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T, answers ...string) *harness {
	t.Helper()
	for _, k := range []string{config.EnvConfig, config.EnvModel, config.EnvStopOnFailure, config.EnvShell, config.EnvLogLevel} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	h := &harness{
		t:       t,
		work:    filepath.Join(dir, "work"),
		cfgPath: filepath.Join(dir, "config.toml"),
		histDB:  filepath.Join(dir, "history.db"),
		backend: &backend{answers: answers},
	}
	require.NoError(t, os.MkdirAll(h.work, 0755))

	srv := httptest.NewServer(h.backend)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	require.NoError(t, cfg.AddModel(config.ModelConfig{
		Name:          "test",
		APIURL:        srv.URL,
		RequestFormat: `{"q":"{{prompt}}"}`,
		ResponsePath:  "$.answer",
	}, false))
	cfg.History.Path = h.histDB
	cfg.Execution.Shell = "/bin/sh"
	require.NoError(t, config.Save(cfg, h.cfgPath))
	return h
}

func (h *harness) editConfig(change func(*config.Config)) {
	h.t.Helper()
	cfg, err := config.LoadForEdit(h.cfgPath)
	require.NoError(h.t, err)
	change(cfg)
	require.NoError(h.t, config.Save(cfg, h.cfgPath))
}

func (h *harness) run(input string, args ...string) error {
	h.out.Reset()
	h.errOut.Reset()

	a := newApp(strings.NewReader(input), &h.out, &h.errOut)
	a.workDir = h.work
	a.stdinTTY = h.tty

	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	return cmd.ExecuteContext(context.Background())
}

func (h *harness) history() []storage.Record {
	h.t.Helper()
	store, err := storage.Open(h.histDB)
	require.NoError(h.t, err)
	defer store.Close()
	records, err := store.Recent(context.Background(), 100)
	require.NoError(h.t, err)
	return records
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("plans use POSIX shell syntax")
	}
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsAnswerAndRecordsHistory(t *testing.T) {
	h := newHarness(t, "Hello there")

	require.NoError(t, h.run("", "ask", "how", "are", "you?"))
	assert.Equal(t, "Hello there\n", h.out.String())
	assert.Equal(t, []string{"Question: how are you?\n\nContext: "}, h.backend.seen())

	records := h.history()
	require.Len(t, records, 1)
	assert.Equal(t, storage.KindAsk, records[0].Kind)
	assert.Equal(t, "test", records[0].Model)
	assert.Equal(t, "how are you?", records[0].Prompt)
	assert.Equal(t, "Hello there", records[0].Response)
	assert.True(t, records[0].Success)
}

func TestAsk_IncludesContextSources(t *testing.T) {
	h := newHarness(t, "ok")
	require.NoError(t, os.WriteFile(filepath.Join(h.work, "notes.txt"), []byte("note body"), 0644))

	require.NoError(t, h.run("", "ask", "-c", "notes.txt", "summarise"))
	assert.Equal(t, []string{"Question: summarise\n\nContext: Context from notes.txt:\nnote body\n"}, h.backend.seen())

	// Only the question is stored, never the gathered context
	assert.Equal(t, "summarise", h.history()[0].Prompt)
}

func TestAsk_MissingContextFails(t *testing.T) {
	h := newHarness(t, "unused")

	err := h.run("", "ask", "-c", "missing.txt", "q")
	require.Error(t, err)
	assert.Empty(t, h.backend.seen())
}

func TestAsk_ModelSelection(t *testing.T) {
	h := newHarness(t, "unused")

	err := h.run("", "ask", "-m", "nope", "q")
	assert.ErrorIs(t, err, config.ErrModelNotFound)

	h.editConfig(func(c *config.Config) {
		require.NoError(t, c.DeleteModel("test"))
	})
	err = h.run("", "ask", "q")
	assert.ErrorIs(t, err, config.ErrNoActiveModel)
	assert.Empty(t, h.backend.seen())
}

func TestAsk_BackendErrorNotRecorded(t *testing.T) {
	h := newHarness(t)
	h.backend.status = []int{http.StatusInternalServerError}

	err := h.run("", "ask", "q")
	require.Error(t, err)
	assert.Empty(t, h.out.String())
	assert.Empty(t, h.history())
}

func TestAsk_HistoryDisabled(t *testing.T) {
	h := newHarness(t, "answer")
	h.editConfig(func(c *config.Config) { c.History.Enabled = false })

	require.NoError(t, h.run("", "ask", "q"))
	assert.NoFileExists(t, h.histDB)

	err := h.run("", "history")
	assert.ErrorIs(t, err, errHistoryDisabled)
}

// =============================================================================
// SESSION
// =============================================================================

func TestSession_ReplaysConversation(t *testing.T) {
	h := newHarness(t, "A1", "A2")

	require.NoError(t, h.run("first\n\nsecond\nexit\nnever sent\n", "session"))

	prompts := h.backend.seen()
	require.Len(t, prompts, 2)
	assert.Equal(t, "Question: first\n\nContext: ", prompts[0])
	assert.Equal(t, "Question: second\nConversation History:\nUser: first\nLLM: A1\n\nContext: ", prompts[1])
	assert.Equal(t, "A1\nA2\n", h.out.String())

	records := h.history()
	require.Len(t, records, 2)
	assert.Equal(t, storage.KindSession, records[0].Kind)
}

func TestSession_FailedTurnContinues(t *testing.T) {
	h := newHarness(t, "lost", "A2")
	h.backend.status = []int{http.StatusBadGateway}

	require.NoError(t, h.run("first\nsecond", "session"))

	prompts := h.backend.seen()
	require.Len(t, prompts, 2)
	// The failed turn is not part of the history
	assert.Equal(t, "Question: second\n\nContext: ", prompts[1])
	assert.Contains(t, h.errOut.String(), "Error:")
	assert.Equal(t, "A2\n", h.out.String())
}

func TestSession_EndsOnQuitAndEOF(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("QUIT\n", "session"))
	require.NoError(t, h.run("", "session"))
	assert.Empty(t, h.backend.seen())
}

// =============================================================================
// ACT
// =============================================================================

const helloPlan = "THOUGHT: write a file and read it back\n" +
	"CREATE_FILE path=hello.txt\n" +
	"hi\n" +
	"END\n" +
	"RUN_COMMAND command=cat hello.txt\n"

func TestAct_AutoConfirmRunsPlan(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t, helloPlan)

	require.NoError(t, h.run("", "act", "--auto-confirm", "make", "hello"))

	data, err := os.ReadFile(filepath.Join(h.work, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))

	out := h.out.String()
	assert.Contains(t, out, "Thought: write a file and read it back")
	assert.Contains(t, out, "Plan (2 steps):")
	assert.Contains(t, out, "2 steps: 2 succeeded")
	assert.Contains(t, h.errOut.String(), "[2/2] RUN_COMMAND cat hello.txt")

	prompts := h.backend.seen()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Question: make hello")

	records := h.history()
	require.Len(t, records, 1)
	assert.Equal(t, storage.KindAct, records[0].Kind)
	assert.Equal(t, 2, records[0].Steps)
	assert.Equal(t, 0, records[0].Failed)
	assert.True(t, records[0].Success)
}

func TestAct_NonTerminalDeclines(t *testing.T) {
	h := newHarness(t, helloPlan)

	require.NoError(t, h.run("y\n", "act", "make hello"))

	assert.NoFileExists(t, filepath.Join(h.work, "hello.txt"))
	assert.Contains(t, h.out.String(), "aborted: 2 steps not confirmed")
	assert.Contains(t, h.errOut.String(), "--auto-confirm")
	assert.False(t, h.history()[0].Success)
}

func TestAct_ConfirmPrompt(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		input string
		runs  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			h := newHarness(t, helloPlan)
			h.tty = true

			require.NoError(t, h.run(tt.input, "act", "make hello"))
			assert.Contains(t, h.errOut.String(), "Execute 2 steps? [y/N]")
			if tt.runs {
				assert.FileExists(t, filepath.Join(h.work, "hello.txt"))
			} else {
				assert.NoFileExists(t, filepath.Join(h.work, "hello.txt"))
			}
		})
	}
}

func TestAct_AskUserAnswersInJSONReport(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t, "ASK_USER question=What is your name?\nRUN_COMMAND command=echo done\n")

	require.NoError(t, h.run("Ada\n", "act", "-y", "--format", "json", "greet me"))

	out := h.out.String()
	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, "greet me", gjson.Get(out, "instruction").String())
	assert.True(t, gjson.Get(out, "success").Bool())
	assert.Equal(t, "Ada", gjson.Get(out, "summaries.0.answers.0.answer").String())
	assert.Equal(t, "completed", gjson.Get(out, "summaries.0.state").String())
	assert.Equal(t, "ask_user", gjson.Get(out, "plans.0.steps.0.type").String())
	assert.Equal(t, "done", gjson.Get(out, "summaries.0.entries.1.result.output").String())

	// The plan review and the question go to stderr
	assert.Contains(t, h.errOut.String(), "What is your name?")
}

func TestAct_AskUserWithoutInputFails(t *testing.T) {
	h := newHarness(t, "ASK_USER question=Which port?\n")

	err := h.run("", "act", "-y", "configure")
	assert.ErrorIs(t, err, ErrPlanFailed)
	assert.Contains(t, h.out.String(), ErrNoAnswer.Error())
}

func TestAct_FailedStepReturnsError(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t, "RUN_COMMAND command=exit 3\nCREATE_FILE path=after.txt\nx\nEND\n")

	err := h.run("", "act", "-y", "try")
	assert.ErrorIs(t, err, ErrPlanFailed)
	assert.Contains(t, h.out.String(), "exit code 3")
	// Later steps still run by default
	assert.FileExists(t, filepath.Join(h.work, "after.txt"))

	records := h.history()
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Failed)
	assert.False(t, records[0].Success)
}

func TestAct_StopOnFailure(t *testing.T) {
	skipOnWindows(t)
	answer := "RUN_COMMAND command=exit 1\nCREATE_FILE path=after.txt\nx\nEND\n"

	h := newHarness(t, answer)
	err := h.run("", "act", "-y", "--stop-on-failure", "try")
	assert.ErrorIs(t, err, ErrPlanFailed)
	assert.NoFileExists(t, filepath.Join(h.work, "after.txt"))
	assert.Contains(t, h.out.String(), plan.ReasonPreviousFailed)

	// The config setting has the same effect
	h = newHarness(t, answer)
	h.editConfig(func(c *config.Config) { c.Execution.StopOnFailure = true })
	err = h.run("", "act", "-y", "try")
	assert.ErrorIs(t, err, ErrPlanFailed)
	assert.NoFileExists(t, filepath.Join(h.work, "after.txt"))
}

func TestAct_ParseErrorShowsRawAnswer(t *testing.T) {
	h := newHarness(t, "Sure! First I would create the file.")

	err := h.run("", "act", "-y", "do it")
	var perr *plan.ParseError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Contains(t, h.errOut.String(), "Sure! First I would create the file.")
	assert.Empty(t, h.history())
}

func TestAct_RecoverRequestsFollowUpPlan(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t,
		"RUN_COMMAND command=cat missing.txt\n",
		"CREATE_FILE path=missing.txt\nrecovered\nEND\nRUN_COMMAND command=cat missing.txt\n",
	)

	require.NoError(t, h.run("", "act", "-y", "--recover", "2", "show missing.txt"))

	prompts := h.backend.seen()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "did not fully succeed")
	assert.Contains(t, prompts[1], "cat missing.txt")
	assert.Contains(t, h.errOut.String(), "requesting a follow-up plan (1 of 2)")

	data, err := os.ReadFile(filepath.Join(h.work, "missing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "recovered\n", string(data))

	records := h.history()
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Steps)
	assert.Equal(t, 1, records[0].Failed)
	assert.True(t, records[0].Success)
}

func TestAct_WithoutRecoverAsksOnce(t *testing.T) {
	skipOnWindows(t)
	h := newHarness(t, "RUN_COMMAND command=false\n", "unused")

	assert.ErrorIs(t, h.run("", "act", "-y", "fail"), ErrPlanFailed)
	assert.Len(t, h.backend.seen(), 1)
}

func TestAct_DryRunYAML(t *testing.T) {
	h := newHarness(t, helloPlan)

	require.NoError(t, h.run("", "act", "--dry-run", "--format", "yaml", "make hello"))
	assert.NoFileExists(t, filepath.Join(h.work, "hello.txt"))
	assert.Empty(t, h.history())

	var report struct {
		Instruction string `yaml:"instruction"`
		DryRun      bool   `yaml:"dry_run"`
		Plans       []struct {
			Steps []struct {
				Type string `yaml:"type"`
				Path string `yaml:"path"`
			} `yaml:"steps"`
		} `yaml:"plans"`
	}
	require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &report))
	assert.Equal(t, "make hello", report.Instruction)
	assert.True(t, report.DryRun)
	require.Len(t, report.Plans, 1)
	require.Len(t, report.Plans[0].Steps, 2)
	assert.Equal(t, "create_file", report.Plans[0].Steps[0].Type)
	assert.Equal(t, "hello.txt", report.Plans[0].Steps[0].Path)

	assert.Contains(t, h.errOut.String(), "Plan (2 steps):")
}

func TestAct_ReviewFlagsOverwrittenFiles(t *testing.T) {
	h := newHarness(t, helloPlan)
	require.NoError(t, os.WriteFile(filepath.Join(h.work, "hello.txt"), []byte("old\n"), 0644))

	require.NoError(t, h.run("", "act", "--dry-run", "make hello"))
	assert.Contains(t, h.out.String(), "overwrites existing file: +1 -1")

	data, err := os.ReadFile(filepath.Join(h.work, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))
}

func TestAct_RejectsBadFlags(t *testing.T) {
	h := newHarness(t, helloPlan)

	assert.Error(t, h.run("", "act", "--format", "xml", "x"))
	assert.Error(t, h.run("", "act", "--recover", "-1", "x"))
	assert.Error(t, h.run("", "act"))
	assert.Empty(t, h.backend.seen())
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("", "config", "add",
		"--name", "second",
		"--api-url", "https://api.example.com/v1/chat",
		"--api-key", "sk-secret-value",
		"--api-key-header", "Authorization: Bearer {{api_key}}",
		"--model-identifier", "m-1",
		"--request-format", `{"model":"{{model}}","input":"{{prompt}}"}`,
		"--response-json-path", "$.output",
	))
	assert.Equal(t, "Model 'second' added.\n", h.out.String())

	require.NoError(t, h.run("", "config", "list"))
	out := h.out.String()
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "test (default)")
	assert.Contains(t, out, "Active model for the next command: test (default)")
	assert.NotContains(t, out, "sk-secret-value")

	require.NoError(t, h.run("", "config", "set-current", "second"))
	cfg, err := config.LoadForEdit(h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.CurrentModel)
	assert.Equal(t, "sk-secret-value", cfg.Models["second"].APIKey)

	require.NoError(t, h.run("", "config", "list"))
	assert.Contains(t, h.out.String(), "Active model for the next command: second (current)")

	require.NoError(t, h.run("", "config", "clear-current"))
	require.NoError(t, h.run("", "config", "set-default", "second"))
	require.NoError(t, h.run("", "config", "delete", "test"))

	cfg, err = config.LoadForEdit(h.cfgPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.CurrentModel)
	assert.Equal(t, "second", cfg.DefaultModel)
	assert.Equal(t, []string{"second"}, cfg.ModelNames())

	require.NoError(t, h.run("", "config", "path"))
	assert.Equal(t, h.cfgPath+"\n", h.out.String())
}

func TestConfigAdd_Rejections(t *testing.T) {
	h := newHarness(t)

	// Missing {{prompt}}
	err := h.run("", "config", "add", "--name", "bad",
		"--api-url", "https://api.example.com",
		"--request-format", `{"q":"static"}`,
		"--response-json-path", "$.a")
	require.Error(t, err)

	// Duplicate without --replace
	err = h.run("", "config", "add", "--name", "test",
		"--api-url", "https://api.example.com",
		"--request-format", `{"q":"{{prompt}}"}`,
		"--response-json-path", "$.a")
	assert.ErrorIs(t, err, config.ErrModelExists)

	// Required flags
	assert.Error(t, h.run("", "config", "add", "--name", "x"))

	cfg, err := config.LoadForEdit(h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"test"}, cfg.ModelNames())

	assert.ErrorIs(t, h.run("", "config", "set-default", "nope"), config.ErrModelNotFound)
}

func TestConfig_DoesNotPersistEnvironment(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.EnvShell, "/bin/zsh")
	t.Setenv(config.EnvModel, "test")

	require.NoError(t, h.run("", "config", "clear-current"))

	cfg, err := config.LoadForEdit(h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", cfg.Execution.Shell)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistoryCommand(t *testing.T) {
	h := newHarness(t, "first answer", "second answer")
	require.NoError(t, h.run("", "ask", "alpha question"))
	require.NoError(t, h.run("", "ask", "beta question"))

	require.NoError(t, h.run("", "history"))
	out := h.out.String()
	assert.Contains(t, out, "alpha question")
	assert.Contains(t, out, "beta question")
	assert.Less(t, strings.Index(out, "beta"), strings.Index(out, "alpha"), "newest first")

	require.NoError(t, h.run("", "history", "-n", "1"))
	assert.NotContains(t, h.out.String(), "alpha")

	require.NoError(t, h.run("", "history", "--search", "alpha"))
	assert.Contains(t, h.out.String(), "alpha question")
	assert.NotContains(t, h.out.String(), "beta")

	id := h.history()[0].ID
	require.NoError(t, h.run("", "history", "show", id[:8]))
	assert.Contains(t, h.out.String(), "second answer")
	assert.Contains(t, h.out.String(), "Kind:    ask")

	require.NoError(t, h.run("", "history", "--clear"))
	assert.Equal(t, "Deleted 2 history entries.\n", h.out.String())

	require.NoError(t, h.run("", "history"))
	assert.Equal(t, "No history yet.\n", h.out.String())

	assert.ErrorIs(t, h.run("", "history", "show", "zzzz"), storage.ErrRecordNotFound)
}

// =============================================================================
// PROMPTS
// =============================================================================

func TestHistoryExport(t *testing.T) {
	h := newHarness(t, "first answer", "second answer")
	require.NoError(t, h.run("", "ask", "alpha question"))
	require.NoError(t, h.run("", "ask", "beta question"))

	require.NoError(t, h.run("", "history", "export"))
	out := h.out.String()
	assert.Contains(t, out, "## Ask: alpha question")
	assert.Less(t, strings.Index(out, "alpha"), strings.Index(out, "beta"), "oldest first")

	require.NoError(t, h.run("", "history", "export", "--format", "json", "-n", "1"))
	records := gjson.Get(h.out.String(), "records")
	require.Len(t, records.Array(), 1)
	assert.Equal(t, "beta question", records.Get("0.prompt").String())
	assert.Equal(t, "second answer", records.Get("0.response").String())

	dir := filepath.Join(h.work, "exports")
	require.NoError(t, h.run("", "history", "export", "-f", "yaml", "-o", dir))
	assert.Contains(t, h.out.String(), "Exported 2 history entries to "+dir)
	assert.Contains(t, h.out.String(), "(application/yaml)")
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	assert.Error(t, h.run("", "history", "export", "--format", "html"))

	require.NoError(t, h.run("", "history", "--clear"))
	assert.Error(t, h.run("", "history", "export"))
}

func TestAskUser(t *testing.T) {
	var errOut bytes.Buffer
	a := newApp(strings.NewReader("  blue  \nlast line"), io.Discard, &errOut)

	answer, err := a.askUser("Favourite colour?")
	require.NoError(t, err)
	assert.Equal(t, "blue", answer)
	assert.Contains(t, errOut.String(), "Favourite colour?")

	answer, err = a.askUser("Again?")
	require.NoError(t, err)
	assert.Equal(t, "last line", answer)

	_, err = a.askUser("Anything else?")
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestConfirmFunc(t *testing.T) {
	p := &plan.Plan{Steps: []plan.Step{{Kind: plan.KindRunCommand, Command: "ls"}}}

	a := newApp(strings.NewReader(""), io.Discard, io.Discard)
	assert.True(t, a.confirmFunc(true)(p))
	assert.False(t, a.confirmFunc(false)(p))

	var errOut bytes.Buffer
	a = newApp(strings.NewReader("y\n"), io.Discard, &errOut)
	a.stdinTTY = true
	assert.True(t, a.confirmFunc(false)(p))
	assert.Contains(t, errOut.String(), "Execute 1 step? [y/N]")
}
