package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qdesigner/internal/container"
	"qdesigner/internal/frontmatter"
	"qdesigner/internal/generate"
	"qdesigner/internal/plugin"
	"qdesigner/internal/preview"
	"qdesigner/internal/settings"
)

const samplePath = "../../testdata/sample.json"

const dangling = `{"project_summary":{"research_objective":"R"},"sections":[
	{"id":"S1","title":"A","questions":[{"id":"Q1","type":"single_choice","text":"?",
		"options":[{"code":1,"text":"Yes","routing":"S9"}]}]}]}`

// setup isolates the project home and resets command globals.
func setup(t *testing.T) {
	t.Helper()
	t.Setenv(container.HomeEnv, t.TempDir())
	logger = zap.NewNop()
	cfg = settings.Default()
	workspace = t.TempDir()
	now = func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }

	prompt, editor := runPrompt, runEditor
	t.Cleanup(func() {
		runPrompt, runEditor = prompt, editor
		stdin = os.Stdin
		now = time.Now
		workspace = ""
		validateProject, validatePrint = "", ""
		previewProject, previewMarkdown, previewInteractive = "", false, false
		exportProject, exportOut, exportDate = "", "", ""
		exportFormats = []string{"docx"}
		genFiles, genDirs, genContext, genNote = nil, nil, "", ""
		groqURL = generate.GroqBaseURL
		editImport, editNote = false, ""
		initFrom, initConfigure, initPlatform = "", false, ""
	})
}

func newCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	return cmd, &out, &errb
}

func sampleJSON(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(samplePath)
	require.NoError(t, err)
	return string(data)
}

// fakeGroq answers every chat completion with reply wrapped in prose.
func fakeGroq(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body := map[string]any{
			"choices": []any{map[string]any{
				"message": map[string]string{
					"role":    "assistant",
					"content": "Here is the questionnaire:\n```json\n" + reply + "\n```",
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// ---------------------------------------------------------------------------
// Command tree
// ---------------------------------------------------------------------------

func TestHelpListsAllCommands(t *testing.T) {
	usage := rootCmd.UsageString()
	for _, c := range rootCmd.Commands() {
		if !strings.Contains(usage, c.Name()) {
			t.Errorf("usage missing command %q", c.Name())
		}
	}
}

func TestCommandsHaveRequiredFields(t *testing.T) {
	want := []string{"init", "validate", "preview", "export", "generate", "refine", "edit", "history", "serve", "watch"}
	have := map[string]*cobra.Command{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = c
	}
	for _, name := range want {
		c, ok := have[name]
		if !ok {
			t.Errorf("command %q not registered", name)
			continue
		}
		if c.Short == "" {
			t.Errorf("command %q has empty short description", name)
		}
		if c.RunE == nil {
			t.Errorf("command %q has nil RunE", name)
		}
	}
}

func TestSubcommandBadArgs(t *testing.T) {
	for _, c := range []*cobra.Command{initCmd, generateCmd, refineCmd, editCmd, historyCmd} {
		t.Run(c.Name(), func(t *testing.T) {
			if err := c.Args(c, nil); err == nil {
				t.Errorf("%s with no args should be rejected", c.Name())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// validate / preview / export
// ---------------------------------------------------------------------------

func TestValidateCmd(t *testing.T) {
	setup(t)
	cmd, out, _ := newCmd()
	require.NoError(t, runValidate(cmd, []string{samplePath}))
	assert.Equal(t, "OK: 3 sections, 8 questions\n", out.String())
}

func TestValidateCmd_Violations(t *testing.T) {
	setup(t)
	stdin = strings.NewReader(dangling)
	cmd, out, _ := newCmd()
	err := runValidate(cmd, []string{"-"})
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out.String(), "1 violation(s):")
	assert.Contains(t, out.String(), "S1/Q1/option:1")
}

func TestValidateCmd_YAMLOnStdin(t *testing.T) {
	setup(t)
	stdin = strings.NewReader(`project_summary:
  research_objective: Piped
sections:
  - id: S1
    title: Only
    questions:
      - id: Q1
        type: single_choice
        text: "Continue?"
        options:
          - {code: 1, text: "Yes"}
          - {code: 2, text: "No", routing: TERMINATE}
`)
	cmd, out, _ := newCmd()
	require.NoError(t, runValidate(cmd, []string{"-"}))
	assert.Equal(t, "OK: 1 sections, 1 questions\n", out.String())
}

func TestValidateCmd_PrintYAML(t *testing.T) {
	setup(t)
	validatePrint = "yaml"
	cmd, out, _ := newCmd()
	require.NoError(t, runValidate(cmd, []string{samplePath}))
	assert.Contains(t, out.String(), "project_summary:")
}

func TestPreviewCmd_Markdown(t *testing.T) {
	setup(t)
	previewMarkdown = true
	cmd, out, _ := newCmd()
	require.NoError(t, runPreview(cmd, []string{samplePath}))
	assert.Contains(t, out.String(), "S1. Screener")
}

func TestExportCmd_AllFormats(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	exportOut = dir
	exportDate = "2025-01-02"
	exportFormats = []string{"docx", "vault", "json", "yaml", "json"}

	cmd, out, _ := newCmd()
	require.NoError(t, runExport(cmd, []string{samplePath}))

	for _, pattern := range []string{"*_20250102.docx", "*_20250102.json", "*_20250102.yaml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		require.NoError(t, err)
		assert.Len(t, m, 1, pattern)
	}
	_, err := os.Stat(filepath.Join(dir, "vault", "routing.md"))
	assert.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out.String(), "wrote "))
}

func TestExportCmd_CancelledWritesNothing(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	exportOut = dir
	exportFormats = []string{"docx", "json"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd, out, _ := newCmd()
	cmd.SetContext(ctx)
	err := runExport(cmd, []string{samplePath})
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, out.String())
}

func TestExportCmd_UnknownFormat(t *testing.T) {
	setup(t)
	exportFormats = []string{"pdf"}
	cmd, _, _ := newCmd()
	err := runExport(cmd, []string{samplePath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf")
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

func TestInitAndProjects(t *testing.T) {
	setup(t)
	initPlatform = "Qualtrics"
	cmd, out, _ := newCmd()
	require.NoError(t, runInit(cmd, []string{"churn"}))
	assert.Contains(t, out.String(), `created project "churn"`)

	p, err := container.Open("churn")
	require.NoError(t, err)
	data, err := os.ReadFile(p.Path(container.BriefsDir, frontmatter.BriefFile))
	require.NoError(t, err)
	b, _, err := frontmatter.ReadBrief(data)
	require.NoError(t, err)
	assert.Equal(t, "Qualtrics", b.Platform)

	cmd, out, _ = newCmd()
	require.NoError(t, runProjects(cmd, nil))
	assert.Contains(t, out.String(), "churn")
	assert.Contains(t, out.String(), "no questionnaire yet")

	initPlatform = ""
	initFrom = "churn"
	cmd, _, _ = newCmd()
	require.NoError(t, runInit(cmd, []string{"churn-v2"}))
	_, err = container.Open("churn-v2")
	assert.NoError(t, err)
}

func TestInitConfigureWritesEnv(t *testing.T) {
	setup(t)
	initConfigure = true
	runPrompt = func(qs []plugin.ConfigQuestion) (map[string]string, error) {
		require.Len(t, qs, 2)
		return map[string]string{"GROQ_API_KEY": " gsk-test ", "model": "llama-small"}, nil
	}
	cmd, _, _ := newCmd()
	require.NoError(t, runInit(cmd, []string{"keyed"}))

	env, err := godotenv.Read(filepath.Join(workspace, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "gsk-test", env["GROQ_API_KEY"])

	p, err := container.Open("keyed")
	require.NoError(t, err)
	pc, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "llama-small", pc.Model)
}

// ---------------------------------------------------------------------------
// generate / refine / edit / history
// ---------------------------------------------------------------------------

func TestGenerateRefineHistory(t *testing.T) {
	setup(t)
	srv, calls := fakeGroq(t, sampleJSON(t))
	groqURL = srv.URL
	cfg.GroqAPIKey = "gsk-test"

	cmd, _, _ := newCmd()
	require.NoError(t, runInit(cmd, []string{"bikes"}))
	p, err := container.Open("bikes")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.Path(container.BriefsDir, "notes.txt"), []byte("Commuters in Lisbon."), 0o644))

	cmd, out, _ := newCmd()
	require.NoError(t, runGenerate(cmd, []string{"bikes"}))
	assert.Equal(t, "revision 1: 3 sections, 8 questions\n", out.String())
	assert.Equal(t, int32(1), calls.Load())

	q, err := p.LoadCurrent()
	require.NoError(t, err)
	assert.Equal(t, 8, q.QuestionCount())

	cmd, out, errb := newCmd()
	require.NoError(t, runRefine(cmd, []string{"bikes", "shorten", "the", "screener"}))
	assert.Contains(t, out.String(), "revision 2:")
	assert.Contains(t, errb.String(), "user: shorten the screener")
	assert.Contains(t, errb.String(), "assistant: Questionnaire updated.")

	cmd, out, _ = newCmd()
	require.NoError(t, runHistory(cmd, []string{"bikes"}))
	assert.Contains(t, out.String(), "generate")
	assert.Contains(t, out.String(), "refine")
	assert.Contains(t, out.String(), "shorten the screener")
}

func TestRefinePromptsForFeedback(t *testing.T) {
	setup(t)
	srv, _ := fakeGroq(t, sampleJSON(t))
	groqURL = srv.URL
	cfg.GroqAPIKey = "gsk-test"
	runPrompt = func([]plugin.ConfigQuestion) (map[string]string, error) {
		return map[string]string{"feedback": "add an age quota"}, nil
	}

	cmd, _, _ := newCmd()
	require.NoError(t, runInit(cmd, []string{"q"}))
	stdin = strings.NewReader(sampleJSON(t))
	cmd, _, _ = newCmd()
	require.NoError(t, runEdit(cmd, []string{"q", "-"}))

	cmd, _, errb := newCmd()
	require.NoError(t, runRefine(cmd, []string{"q"}))
	assert.Contains(t, errb.String(), "user: add an age quota")
}

func TestGenerateMissingKey(t *testing.T) {
	setup(t)
	cmd, _, _ := newCmd()
	require.NoError(t, runInit(cmd, []string{"nokey"}))

	cmd, _, _ = newCmd()
	err := runGenerate(cmd, []string{"nokey"})
	assert.ErrorIs(t, err, generate.ErrMissingKey)

	p, _ := container.Open("nokey")
	_, err = p.LoadCurrent()
	assert.ErrorIs(t, err, container.ErrNoCurrent)
}

func TestEditRejectsInvalid(t *testing.T) {
	setup(t)
	cmd, _, _ := newCmd()
	require.NoError(t, runInit(cmd, []string{"e"}))
	stdin = strings.NewReader(sampleJSON(t))
	cmd, _, _ = newCmd()
	require.NoError(t, runEdit(cmd, []string{"e", "-"}))

	stdin = strings.NewReader(dangling)
	cmd, _, errb := newCmd()
	require.Error(t, runEdit(cmd, []string{"e", "-"}))
	assert.Contains(t, errb.String(), "S1/Q1/option:1")

	p, _ := container.Open("e")
	q, err := p.LoadCurrent()
	require.NoError(t, err)
	assert.Equal(t, 8, q.QuestionCount())
}

func TestEditImportAndEditor(t *testing.T) {
	setup(t)
	cmd, _, _ := newCmd()
	require.NoError(t, runInit(cmd, []string{"imp"}))

	editImport = true
	stdin = strings.NewReader("Sure! Here it is:\n" + sampleJSON(t) + "\nAnything else?")
	cmd, out, _ := newCmd()
	require.NoError(t, runEdit(cmd, []string{"imp", "-"}))
	assert.Contains(t, out.String(), "revision 1 (import)")

	editImport = false
	runEditor = func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		edited := strings.Replace(string(data), "Screener", "Qualification", 1)
		return os.WriteFile(path, []byte(edited), 0o644)
	}
	cmd, out, _ = newCmd()
	require.NoError(t, runEdit(cmd, []string{"imp"}))
	assert.Contains(t, out.String(), "revision 2 (edit)")

	p, _ := container.Open("imp")
	q, err := p.LoadCurrent()
	require.NoError(t, err)
	assert.Equal(t, "Qualification", q.Sections[0].Title)

	cmd, out, _ = newCmd()
	require.NoError(t, runHistoryRestore(cmd, []string{"imp", "1"}))
	assert.Equal(t, "restored revision 1 as revision 3\n", out.String())
	q, err = p.LoadCurrent()
	require.NoError(t, err)
	assert.Equal(t, "Screener", q.Sections[0].Title)

	cmd, out, _ = newCmd()
	require.NoError(t, runHistoryShow(cmd, []string{"imp", "2"}))
	assert.Contains(t, out.String(), `"Qualification"`)
}

// ---------------------------------------------------------------------------
// TUI models
// ---------------------------------------------------------------------------

func TestPromptModel(t *testing.T) {
	m := newPromptModel([]plugin.ConfigQuestion{
		{Key: "GROQ_API_KEY", Prompt: "Key", Type: "secret"},
		{Key: "model", Prompt: "Model", Type: "text"},
	})
	step := func(msg tea.Msg) {
		next, _ := m.Update(msg)
		m = next.(promptModel)
	}
	step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("gsk")})
	step(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, m.idx)
	assert.False(t, m.done)
	step(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("llama")})
	step(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.done)
	assert.Equal(t, map[string]string{"GROQ_API_KEY": "gsk", "model": "llama"}, m.answers())
	assert.Empty(t, m.View())
}

func TestBrowserModel(t *testing.T) {
	setup(t)
	q, err := readSource(samplePath)
	require.NoError(t, err)
	v, err := preview.Build(q)
	require.NoError(t, err)

	var m tea.Model = newBrowserModel(v, "notty")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Contains(t, m.View(), "[1/3]")
	assert.Contains(t, m.View(), "(collapsed)")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "(expanded)")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), fmt.Sprintf("[2/%d]", len(v.Sections)))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
