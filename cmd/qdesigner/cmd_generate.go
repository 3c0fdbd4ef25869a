package main

// cmd_generate.go — generate and refine: LLM drafting of a project's
// questionnaire, recorded in the revision history.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qdesigner/internal/container"
	"qdesigner/internal/content"
	"qdesigner/internal/frontmatter"
	"qdesigner/internal/generate"
	"qdesigner/internal/model"
	"qdesigner/internal/session"
	"qdesigner/internal/store"
)

var (
	genFiles   []string
	genDirs    []string
	genContext string
	genNote    string
	groqURL    string
)

var generateCmd = &cobra.Command{
	Use:   "generate <project>",
	Short: "Draft the project's questionnaire with the configured provider",
	Long: `Build the project context from the brief body, every reference file in
the project's briefs/ directory, and any --file/--dir/--context given, then
ask the provider for a complete questionnaire. The reply is extracted,
validated, saved as the project's current questionnaire and recorded in
its history.

Generation settings (research type, audience, maximum LOI, platform,
additional instructions) come from the brief's frontmatter.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var refineCmd = &cobra.Command{
	Use:   "refine <project> [feedback...]",
	Short: "Revise the current questionnaire from feedback",
	Long: `Send natural-language feedback about the current questionnaire. On
success the revised questionnaire replaces the current one and is recorded
in the history; on failure the current questionnaire is kept.

Without feedback arguments an interactive prompt asks for it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRefine,
}

func init() {
	generateCmd.Flags().StringSliceVar(&genFiles, "file", nil, "Reference file to include (repeatable)")
	generateCmd.Flags().StringSliceVar(&genDirs, "dir", nil, "Directory of reference files to include (repeatable)")
	generateCmd.Flags().StringVar(&genContext, "context", "", "Extra context text")
	generateCmd.Flags().StringVar(&genNote, "note", "", "Note stored with the revision")
	for _, c := range []*cobra.Command{generateCmd, refineCmd} {
		c.Flags().StringVar(&groqURL, "groq-url", generate.GroqBaseURL, "Groq-compatible API base URL")
		_ = c.Flags().MarkHidden("groq-url")
	}
}

// projectBrief reads briefs/brief.md, falling back to the project config
// brief when the file is absent.
func projectBrief(p *container.Project, pc *container.Config) (generate.Brief, string, error) {
	data, err := os.ReadFile(p.Path(container.BriefsDir, frontmatter.BriefFile))
	if errors.Is(err, fs.ErrNotExist) {
		return pc.Brief, "", nil
	}
	if err != nil {
		return generate.Brief{}, "", err
	}
	return frontmatter.ReadBrief(data)
}

// projectSession starts a session whose context holds the reference
// documents followed by free text. Skipped files are reported on stderr.
func projectSession(cmd *cobra.Command, p *container.Project, briefBody string) (session.State, error) {
	loader := content.Loader{Settings: cfg, Logger: logger}
	docs, warnings, err := loader.LoadDir(p.Path(container.BriefsDir))
	if err != nil {
		return session.State{}, err
	}
	kept := docs[:0]
	for _, d := range docs {
		if d.Name != frontmatter.BriefFile {
			kept = append(kept, d)
		}
	}
	docs = kept
	for _, dir := range genDirs {
		d, w, err := loader.LoadDir(dir)
		if err != nil {
			return session.State{}, err
		}
		docs, warnings = append(docs, d...), append(warnings, w...)
	}
	d, w := loader.LoadFiles(genFiles)
	docs, warnings = append(docs, d...), append(warnings, w...)

	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", w)
	}

	st := session.New()
	if len(docs) > 0 {
		st = st.AddContext(content.Combine(docs))
	}
	return st.AddContext(briefBody).AddContext(genContext), nil
}

func newService(pc *container.Config) (*generate.Service, error) {
	provider, err := generate.NewProvider(rootContext(), providerSettings(pc), groqURL, logger)
	if err != nil {
		return nil, err
	}
	return generate.NewService(provider, logger), nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := rootContext()
	p, err := container.Open(args[0])
	if err != nil {
		return err
	}
	pc, err := p.LoadConfig()
	if err != nil {
		return err
	}
	brief, body, err := projectBrief(p, pc)
	if err != nil {
		return err
	}
	st, err := projectSession(cmd, p, body)
	if err != nil {
		return err
	}
	svc, err := newService(pc)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "generating with %s…\n", svc.Provider().Name())
	st, err = st.Generate(ctx, svc, brief)
	if err != nil {
		printViolations(cmd.ErrOrStderr(), err)
		return err
	}
	rev, err := commit(p, st.Current, store.SourceGenerate, genNote)
	if err != nil {
		return err
	}
	logger.Info("questionnaire generated",
		zap.String("project", p.Name), zap.String("session", st.ID.String()), zap.Int("seq", rev.Seq))
	fmt.Fprintf(cmd.OutOrStdout(), "revision %d: %d sections, %d questions\n",
		rev.Seq, len(st.Current.Sections), st.Current.QuestionCount())
	return nil
}

func runRefine(cmd *cobra.Command, args []string) error {
	ctx := rootContext()
	p, err := container.Open(args[0])
	if err != nil {
		return err
	}
	pc, err := p.LoadConfig()
	if err != nil {
		return err
	}
	current, err := p.LoadCurrent()
	if err != nil {
		return err
	}

	feedback := strings.Join(args[1:], " ")
	if strings.TrimSpace(feedback) == "" {
		feedback, err = promptFeedback()
		if err != nil {
			return err
		}
	}

	svc, err := newService(pc)
	if err != nil {
		return err
	}
	st := session.New()
	st.Current = current
	st, err = st.Refine(ctx, svc, feedback)
	for _, m := range st.Chat {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", m.Role, m.Content)
	}
	if err != nil {
		return err
	}
	rev, err := commit(p, st.Current, store.SourceRefine, feedback)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revision %d: %d sections, %d questions\n",
		rev.Seq, len(st.Current.Sections), st.Current.QuestionCount())
	return nil
}

// commit makes q the project's current questionnaire and records it.
func commit(p *container.Project, q *model.Questionnaire, src store.Source, note string) (*store.Revision, error) {
	if err := p.SaveCurrent(q); err != nil {
		return nil, err
	}
	s, err := openHistory(p)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Save(rootContext(), p.Name, src, note, q, now())
}
