package main

// input.go — Reading questionnaires from files, stdin and projects.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"qdesigner/internal/container"
	"qdesigner/internal/extract"
	"qdesigner/internal/model"
	"qdesigner/internal/store"
)

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

// now is the single clock read by commands.
var now = time.Now

// readSource reads path, or stdin when path is "-".
func readSource(path string) (*model.Questionnaire, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return extract.Decode(data, extract.FormatOf(path))
}

// loadInput resolves the questionnaire a command works on: the file
// argument if given, else the current questionnaire of --project.
func loadInput(project string, args []string) (*model.Questionnaire, error) {
	switch {
	case len(args) > 0:
		return readSource(args[0])
	case project != "":
		p, err := container.Open(project)
		if err != nil {
			return nil, err
		}
		return p.LoadCurrent()
	default:
		return nil, errors.New("give a questionnaire file, - for stdin, or --project")
	}
}

// printViolations lists every violation in err, or err itself.
func printViolations(w io.Writer, err error) {
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%d violation(s):\n", len(ve.Violations))
	for _, v := range ve.Violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
}

// openHistory opens the revision store for p: settings.store_path when
// set, otherwise the project's own history.db.
func openHistory(p *container.Project) (*store.Store, error) {
	path := cfg.StorePath
	if path == "" {
		path = p.Path(container.HistoryFile)
	}
	return store.Open(path, logger.With(zap.String("project", p.Name)))
}
