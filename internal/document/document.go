// Package document renders a validated questionnaire as a paginated .docx.
//
// Render is a pure function of the questionnaire and Options. The generation
// time is the only clock input and must be supplied by the caller. Render
// either returns a complete package or a *RenderError, never partial bytes.
package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"qdesigner/internal/docx"
	"qdesigner/internal/layout"
	"qdesigner/internal/model"
)

// Fixed document strings.
const (
	Title            = "RESEARCH QUESTIONNAIRE"
	StatusDraft      = "DRAFT — For review"
	Confidential     = "CONFIDENTIAL"
	ConfidentialNote = "This document contains proprietary information intended exclusively for the project team."
	AppendixTitle    = "METHODOLOGICAL APPENDIX"
	ClosingLine      = "— End of Questionnaire —"
	notAvailable     = "—"
)

// ErrNoTimestamp is returned when Options.GeneratedAt is zero.
var ErrNoTimestamp = errors.New("generation time not set")

// Options controls a render.
type Options struct {
	// GeneratedAt is printed on the cover and stamped on every package
	// entry.
	GeneratedAt time.Time
	// Creator is written to the document properties.
	Creator string
}

// RenderError reports a contract violation found while rendering. Path
// names the entity being drawn when it happened.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Path == "" {
		return "render document: " + e.Err.Error()
	}
	return fmt.Sprintf("render document: %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Render returns the .docx bytes of q.
func Render(q *model.Questionnaire, opts Options) (data []byte, err error) {
	r := &renderer{doc: docx.New()}
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, &RenderError{Path: r.path, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	if q == nil {
		return nil, &RenderError{Err: errors.New("nil questionnaire")}
	}
	if opts.GeneratedAt.IsZero() {
		return nil, &RenderError{Err: ErrNoTimestamp}
	}
	creator := opts.Creator
	if creator == "" {
		creator = "qdesigner"
	}
	r.doc.Defaults = docx.RunDefaults{Font: "Calibri", SizePt: 10, Color: layout.ColorText}
	r.doc.Props = docx.Properties{
		Title:    Title,
		Subject:  q.Summary.ResearchObjective,
		Creator:  creator,
		Modified: opts.GeneratedAt,
	}

	if err := r.render(q, opts.GeneratedAt); err != nil {
		return nil, err
	}
	out, err := r.doc.Bytes()
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	return out, nil
}

// FileName returns "questionnaire_<slug>_<YYYYMMDD>.docx" where slug is
// derived from the research objective.
func FileName(q *model.Questionnaire, at time.Time) string {
	return fmt.Sprintf("questionnaire_%s_%s.docx", Slug(q.Summary.ResearchObjective), at.Format("20060102"))
}

// Slug folds s to lower-case ASCII words joined by underscores, at most 50
// characters long. An empty result becomes "questionnaire".
func Slug(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	sep := false
	for _, c := range strings.ToLower(folded) {
		switch {
		case c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c) || c == '-'):
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(c)
			sep = false
		default:
			sep = true
		}
		if b.Len() >= 50 {
			break
		}
	}
	out := strings.Trim(b.String(), "_-")
	if len(out) > 50 {
		out = strings.TrimRight(out[:50], "_-")
	}
	if out == "" {
		return "questionnaire"
	}
	return out
}

func orAbsent(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func intOrAbsent(p *int, suffix string) string {
	if p == nil {
		return notAvailable
	}
	return strconv.Itoa(*p) + suffix
}
