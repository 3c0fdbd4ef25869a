// Package watch keeps a rendered .docx in step with a questionnaire file
// being edited by hand.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"qdesigner/internal/document"
	"qdesigner/internal/extract"
	"qdesigner/internal/logging"
	"qdesigner/internal/model"
)

// DefaultDebounce batches the burst of events editors emit on save.
const DefaultDebounce = 200 * time.Millisecond

// Snapshot is the last questionnaire that validated, and where its
// document went.
type Snapshot struct {
	Questionnaire *model.Questionnaire
	Version       int
	LoadedAt      time.Time
	Output        string
}

// Options configures a Watcher.
type Options struct {
	// Output is the .docx path. Empty means the source path with a .docx
	// extension.
	Output   string
	Logger   *zap.Logger
	Now      func() time.Time
	Debounce time.Duration
	Creator  string
	// OnReload is called after every reload attempt with the new snapshot
	// (nil on failure) and the error.
	OnReload func(*Snapshot, error)
}

// Watcher watches one questionnaire file.
type Watcher struct {
	path     string
	out      string
	logger   *zap.Logger
	now      func() time.Time
	debounce time.Duration
	creator  string
	onReload func(*Snapshot, error)

	mu       sync.Mutex // serialises reloads
	version  int
	snapshot atomic.Pointer[Snapshot]
}

// New returns a Watcher for path. Nothing is read until Reload or Run.
func New(path string, opts Options) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		out:      opts.Output,
		logger:   logging.OrNop(opts.Logger),
		now:      opts.Now,
		debounce: opts.Debounce,
		creator:  opts.Creator,
		onReload: opts.OnReload,
	}
	if w.out == "" {
		w.out = strings.TrimSuffix(w.path, filepath.Ext(w.path)) + ".docx"
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	return w
}

// Current returns the last good snapshot, or nil if none loaded yet.
func (w *Watcher) Current() *Snapshot { return w.snapshot.Load() }

// Reload reads, validates and renders the file once. On failure the
// previous snapshot and output file are left untouched.
func (w *Watcher) Reload() (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.load()
	if err != nil {
		w.report(err)
	} else {
		w.snapshot.Store(snap)
		w.logger.Info("questionnaire reloaded",
			zap.String("path", w.path),
			zap.Int("version", snap.Version),
			zap.Int("questions", snap.Questionnaire.QuestionCount()),
			zap.String("output", snap.Output))
	}
	if w.onReload != nil {
		w.onReload(snap, err)
	}
	return snap, err
}

func (w *Watcher) load() (*Snapshot, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", w.path, err)
	}
	q, err := extract.Decode(data, extract.FormatOf(w.path))
	if err != nil {
		return nil, err
	}

	at := w.now()
	doc, err := document.Render(q, document.Options{GeneratedAt: at, Creator: w.creator})
	if err != nil {
		return nil, err
	}
	if err := writeFile(w.out, doc); err != nil {
		return nil, err
	}
	w.version++
	return &Snapshot{Questionnaire: q, Version: w.version, LoadedAt: at, Output: w.out}, nil
}

func (w *Watcher) report(err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		for _, v := range ve.Violations {
			w.logger.Warn("violation",
				zap.String("path", v.Path),
				zap.String("kind", string(v.Kind)),
				zap.String("detail", v.Detail))
		}
		w.logger.Warn("questionnaire invalid, keeping previous output",
			zap.String("path", w.path), zap.Int("violations", len(ve.Violations)))
		return
	}
	w.logger.Warn("reload failed, keeping previous output", zap.String("path", w.path), zap.Error(err))
}

// Run loads the file once, then reloads it after every change until ctx is
// cancelled. The parent directory is watched so editors that save by
// rename are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching", zap.String("path", w.path), zap.String("output", w.out))

	_, _ = w.Reload()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("change", zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			_, _ = w.Reload()
		}
	}
}

// writeFile replaces path through a temp file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".qdesigner-*.docx")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
