package main

// cmd_history.go — edit and history: direct edits of the current
// questionnaire and browsing of stored revisions.

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"qdesigner/internal/container"
	"qdesigner/internal/extract"
	"qdesigner/internal/model"
	"qdesigner/internal/session"
	"qdesigner/internal/store"
)

var (
	editImport bool
	editNote   string
)

var editCmd = &cobra.Command{
	Use:   "edit <project> [file|-]",
	Short: "Replace the current questionnaire with an edited one",
	Long: `Replace the project's current questionnaire with edited JSON or YAML.
The edit goes through the same validation as a generated draft; an invalid
edit is rejected and the current questionnaire is kept.

Without a file, the current questionnaire is opened in $VISUAL or $EDITOR.
--import accepts any text containing a questionnaire, such as a saved
model reply, and records the revision as an import.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEdit,
}

var historyCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "List stored revisions of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <project> <seq>",
	Short: "Print a revision as canonical JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryShow,
}

var historyRestoreCmd = &cobra.Command{
	Use:   "restore <project> <seq>",
	Short: "Make a stored revision current again",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryRestore,
}

func init() {
	editCmd.Flags().BoolVar(&editImport, "import", false, "Extract the questionnaire from free text")
	editCmd.Flags().StringVar(&editNote, "note", "", "Note stored with the revision")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRestoreCmd)
}

// runEditor lets the user edit path; tests replace it.
var runEditor = func(path string) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return fmt.Errorf("no file given and neither $VISUAL nor $EDITOR is set")
	}
	c := exec.Command(editor, path)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}

func runEdit(cmd *cobra.Command, args []string) error {
	p, err := container.Open(args[0])
	if err != nil {
		return err
	}
	st := session.New()

	var text string
	switch {
	case len(args) == 2 && args[1] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		text = string(data)
	case len(args) == 2:
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		text = string(data)
	default:
		current, err := p.LoadCurrent()
		if err != nil {
			return err
		}
		text, err = editInEditor(current)
		if err != nil {
			return err
		}
	}

	src := store.SourceEdit
	if editImport {
		src = store.SourceImport
		name := "import.txt"
		if len(args) == 2 {
			name = args[1]
		}
		q, err := extract.Decode([]byte(text), extract.FormatOf(name))
		if err != nil {
			printViolations(cmd.ErrOrStderr(), err)
			return err
		}
		st.Current = q
	} else {
		st, err = st.ApplyJSON(text)
		if err != nil {
			printViolations(cmd.ErrOrStderr(), err)
			return err
		}
	}

	rev, err := commit(p, st.Current, src, editNote)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revision %d (%s): %d sections, %d questions\n",
		rev.Seq, rev.Source, len(st.Current.Sections), st.Current.QuestionCount())
	return nil
}

func editInEditor(q *model.Questionnaire) (string, error) {
	data, err := model.Marshal(q)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp("", "qdesigner-*.json")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := runEditor(path); err != nil {
		return "", fmt.Errorf("editor: %w", err)
	}
	edited, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(edited), nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	p, err := container.Open(args[0])
	if err != nil {
		return err
	}
	s, err := openHistory(p)
	if err != nil {
		return err
	}
	defer s.Close()

	revs, err := s.List(rootContext(), p.Name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(revs) == 0 {
		fmt.Fprintf(out, "no revisions for %q\n", p.Name)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tCREATED\tSOURCE\tQUESTIONS\tNOTE")
	for _, r := range revs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
			r.Seq, r.CreatedAt.Format("2006-01-02 15:04"), r.Source, r.Questionnaire.QuestionCount(), r.Note)
	}
	return tw.Flush()
}

func historyRevision(args []string) (*container.Project, *store.Revision, error) {
	p, err := container.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	seq, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("revision must be a number: %q", args[1])
	}
	s, err := openHistory(p)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	rev, err := s.GetSeq(rootContext(), p.Name, seq)
	if err != nil {
		return nil, nil, err
	}
	return p, rev, nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	_, rev, err := historyRevision(args)
	if err != nil {
		return err
	}
	data, err := model.Marshal(rev.Questionnaire)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runHistoryRestore(cmd *cobra.Command, args []string) error {
	p, rev, err := historyRevision(args)
	if err != nil {
		return err
	}
	next, err := commit(p, rev.Questionnaire, store.SourceEdit, fmt.Sprintf("restore of revision %d", rev.Seq))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored revision %d as revision %d\n", rev.Seq, next.Seq)
	return nil
}
