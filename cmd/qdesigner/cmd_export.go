package main

// cmd_export.go — export: .docx, markdown vault and canonical JSON/YAML,
// written concurrently.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"qdesigner/internal/container"
	"qdesigner/internal/document"
	"qdesigner/internal/export"
	"qdesigner/internal/model"
)

var (
	exportProject string
	exportFormats []string
	exportOut     string
	exportDate    string
	exportCreator string
)

var exportCmd = &cobra.Command{
	Use:   "export [file|-]",
	Short: "Write the questionnaire as .docx, vault, JSON or YAML",
	Long: `Export a questionnaire. Formats:

  docx   print-ready Word document, questionnaire_<slug>_<YYYYMMDD>.docx
  vault  markdown vault: index, one page per section, routing graph, methodology
  json   canonical JSON
  yaml   canonical YAML

Output goes to --out, or the project's exports/ directory with --project,
or the current directory. --date pins the generation date (YYYY-MM-DD).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportProject, "project", "p", "", "Export the project's current questionnaire")
	exportCmd.Flags().StringSliceVarP(&exportFormats, "format", "f", []string{"docx"}, "Formats: docx, vault, json, yaml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory")
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Generation date YYYY-MM-DD (default: today)")
	exportCmd.Flags().StringVar(&exportCreator, "creator", "qdesigner", "Author written to the document properties")
}

// exporter writes one format into dir and returns the created path.
type exporter func(q *model.Questionnaire, dir string, at time.Time) (string, error)

var exporters = map[string]exporter{
	"docx": exportDocx,
	"vault": func(q *model.Questionnaire, dir string, _ time.Time) (string, error) {
		v, err := export.GenerateVault(q)
		if err != nil {
			return "", err
		}
		out := filepath.Join(dir, "vault")
		return out, export.WriteVault(v, out)
	},
	"json": func(q *model.Questionnaire, dir string, at time.Time) (string, error) {
		data, err := model.Marshal(q)
		if err != nil {
			return "", err
		}
		return writeExport(dir, baseName(q, at)+".json", data)
	},
	"yaml": func(q *model.Questionnaire, dir string, at time.Time) (string, error) {
		data, err := model.MarshalYAML(q)
		if err != nil {
			return "", err
		}
		return writeExport(dir, baseName(q, at)+".yaml", data)
	},
}

func exportDocx(q *model.Questionnaire, dir string, at time.Time) (string, error) {
	data, err := document.Render(q, document.Options{GeneratedAt: at, Creator: exportCreator})
	if err != nil {
		return "", err
	}
	return writeExport(dir, document.FileName(q, at), data)
}

func baseName(q *model.Questionnaire, at time.Time) string {
	return strings.TrimSuffix(document.FileName(q, at), ".docx")
}

func writeExport(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	for _, f := range exportFormats {
		if _, ok := exporters[f]; !ok {
			return fmt.Errorf("unknown format %q (want docx, vault, json or yaml)", f)
		}
	}
	at := now()
	if exportDate != "" {
		t, err := time.Parse("2006-01-02", exportDate)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		at = t
	}

	q, err := loadInput(exportProject, args)
	if err != nil {
		printViolations(cmd.ErrOrStderr(), err)
		return err
	}

	dir := exportOut
	if dir == "" {
		dir = "."
		if exportProject != "" && len(args) == 0 {
			p, err := container.Open(exportProject)
			if err != nil {
				return err
			}
			dir = p.Path(container.ExportsDir)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	var (
		mu      sync.Mutex
		written []string
	)
	g, ctx := errgroup.WithContext(commandContext(cmd))
	for _, f := range dedupe(exportFormats) {
		fn := exporters[f]
		g.Go(func() error {
			// Stop starting formats once one failed or the user interrupted.
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := fn(q, dir, at)
			if err != nil {
				return fmt.Errorf("export %s: %w", f, err)
			}
			logger.Debug("exported", zap.String("format", f), zap.String("path", path))
			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Strings(written)
	for _, p := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
	}
	return nil
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
