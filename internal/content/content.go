// Package content turns reference files (briefs, proposals, client decks)
// into the plain-text project context handed to generation.
//
// Each readable file becomes one block:
//
//	--- Document: brief.docx ---
//	<text>
//
// A file that parses but yields no text becomes a header-only block. A file
// of an unsupported format is skipped with a warning; it never fails the
// load of its siblings.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"qdesigner/internal/logging"
	"qdesigner/internal/settings"
)

// ErrUnsupported is returned for file formats that have no extractor.
var ErrUnsupported = errors.New("unsupported format")

// Document is the extracted text of one reference file.
type Document struct {
	Name string
	Text string
}

// Block renders d as a context block.
func (d Document) Block() string {
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Sprintf("--- Document: %s (no text could be extracted) ---", d.Name)
	}
	return fmt.Sprintf("--- Document: %s ---\n%s", d.Name, d.Text)
}

// Warning records a file that was skipped.
type Warning struct {
	Name string
	Err  error
}

func (w Warning) String() string { return w.Name + ": " + w.Err.Error() }

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	".txt":  plainText,
	".md":   plainText,
	".html": htmlText,
	".htm":  htmlText,
	".docx": docxText,
	".pptx": pptxText,
	".xlsx": xlsxText,
	".pdf":  pdfText,
}

// Supported reports whether name has an extractor.
func Supported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extract returns the text of one file. name selects the extractor by
// extension.
func Extract(name string, data []byte) (Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	fn, ok := extractors[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return Document{}, fmt.Errorf("%w %s: %s", ErrUnsupported, ext, name)
	}
	text, err := fn(data)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Document{Name: filepath.Base(name), Text: strings.TrimSpace(text)}, nil
}

// Combine joins document blocks with blank lines.
func Combine(docs []Document) string {
	blocks := make([]string, len(docs))
	for i, d := range docs {
		blocks[i] = d.Block()
	}
	return strings.Join(blocks, "\n\n")
}

// Loader reads reference files and collects warnings for skipped ones.
type Loader struct {
	Settings *settings.Settings
	Logger   *zap.Logger
}

// LoadFiles extracts each path in order. Unreadable or unsupported files
// are skipped and reported in the returned warnings.
func (l Loader) LoadFiles(paths []string) ([]Document, []Warning) {
	log := logging.OrNop(l.Logger)
	var (
		docs     []Document
		warnings []Warning
	)
	for _, p := range paths {
		doc, err := l.loadFile(p)
		if err != nil {
			log.Warn("skipping reference file", zap.String("file", p), zap.Error(err))
			warnings = append(warnings, Warning{Name: p, Err: err})
			continue
		}
		log.Debug("reference file loaded", zap.String("file", p), zap.Int("chars", len(doc.Text)))
		docs = append(docs, doc)
	}
	return docs, warnings
}

func (l Loader) loadFile(path string) (Document, error) {
	if !Supported(path) {
		return Extract(path, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Extract(path, data)
}

// LoadDir extracts every supported file under root in lexical order.
// Paths matching the settings deny list are neither read nor reported.
// Unsupported files are reported as warnings.
func (l Loader) LoadDir(root string) ([]Document, []Warning, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && l.Settings.IsDenied(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if rel != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	docs, warnings := l.LoadFiles(paths)
	return docs, warnings, nil
}
