package main

// cmd_preview.go — preview: terminal rendering of a questionnaire.

import (
	"fmt"

	"github.com/spf13/cobra"

	"qdesigner/internal/preview"
)

var (
	previewProject     string
	previewInteractive bool
	previewMarkdown    bool
	previewCollapsed   bool
	previewStyle       string
	previewWidth       int
)

var previewCmd = &cobra.Command{
	Use:   "preview [file|-]",
	Short: "Show a questionnaire in the terminal",
	Long: `Render a questionnaire as it will read in the document: stats strip,
sections, per-type answer layouts and routing annotations.

-i opens an interactive browser where sections collapse and expand.
--markdown prints the plain markdown instead of styled output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewProject, "project", "p", "", "Preview the project's current questionnaire")
	previewCmd.Flags().BoolVarP(&previewInteractive, "interactive", "i", false, "Open the interactive browser")
	previewCmd.Flags().BoolVar(&previewMarkdown, "markdown", false, "Print plain markdown")
	previewCmd.Flags().BoolVar(&previewCollapsed, "collapsed", false, "Show section headings only")
	previewCmd.Flags().StringVar(&previewStyle, "style", "dark", "Glamour style: dark, light, notty")
	previewCmd.Flags().IntVar(&previewWidth, "width", 100, "Wrap column")
}

func runPreview(cmd *cobra.Command, args []string) error {
	q, err := loadInput(previewProject, args)
	if err != nil {
		printViolations(cmd.ErrOrStderr(), err)
		return err
	}
	v, err := preview.Build(q)
	if err != nil {
		return err
	}
	if previewInteractive {
		return browse(v, previewStyle)
	}
	if !previewCollapsed {
		v = v.ExpandAll()
	}

	out := cmd.OutOrStdout()
	if previewMarkdown {
		fmt.Fprint(out, preview.Markdown(v))
		return nil
	}
	text, err := preview.Terminal(v, previewStyle, previewWidth)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, preview.StatsStrip(v.Stats))
	fmt.Fprint(out, text)
	return nil
}
