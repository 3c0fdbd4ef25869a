package main

// cmd_serve.go — serve and watch: the long-running surfaces.

import (
	"fmt"

	"github.com/spf13/cobra"

	"qdesigner/internal/container"
	"qdesigner/internal/server"
	"qdesigner/internal/watch"
)

var (
	serveAddr    string
	watchOut     string
	watchProject string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation, preview and document API over HTTP",
	Long: `Start the HTTP API:

  GET  /health
  POST /v1/questionnaires/validate
  POST /v1/questionnaires/preview    (?format=md)
  POST /v1/questionnaires/document   (?date=YYYY-MM-DD)

The address defaults to settings.server_addr ($QDESIGNER_ADDR).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		s := server.New(server.Options{Logger: logger, Now: now, Creator: "qdesigner"})
		fmt.Fprintf(cmd.ErrOrStderr(), "listening on http://%s\n", addr)
		return s.ListenAndServe(rootContext(), addr)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Re-render the .docx every time a questionnaire file changes",
	Long: `Watch a questionnaire file. Each save is re-read and validated; a valid
file replaces the rendered .docx, an invalid one is reported and the last
good document is kept.

With --project the project's current.json is watched and the document is
written to its exports/ directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address")
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Output .docx path (default: next to the file)")
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "Watch the project's current questionnaire")
}

func runWatch(cmd *cobra.Command, args []string) error {
	var path, out string
	switch {
	case len(args) == 1:
		path, out = args[0], watchOut
	case watchProject != "":
		p, err := container.Open(watchProject)
		if err != nil {
			return err
		}
		path = p.Path(container.CurrentFile)
		out = watchOut
		if out == "" {
			out = p.Path(container.ExportsDir, "current.docx")
		}
	default:
		return fmt.Errorf("give a file to watch or --project")
	}

	w := watch.New(path, watch.Options{
		Output:  out,
		Logger:  logger,
		Now:     now,
		Creator: "qdesigner",
		OnReload: func(s *watch.Snapshot, err error) {
			if err != nil {
				printViolations(cmd.ErrOrStderr(), err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "v%d: %d questions → %s\n",
				s.Version, s.Questionnaire.QuestionCount(), s.Output)
		},
	})
	return w.Run(rootContext())
}
