// Package layout maps each question to the rendering recipe shared by the
// preview and document renderers.
//
// Both renderers call Recipe and draw what it returns. Routing annotations,
// scale columns, placeholder text and captions are decided here once, so the
// two outputs cannot disagree.
package layout

import (
	"errors"
	"fmt"

	"qdesigner/internal/model"
	"qdesigner/internal/routing"
)

// ErrUnknownBody is returned when a question carries a body type the
// dispatcher has no recipe for.
var ErrUnknownBody = errors.New("layout: unknown question body")

// Body is the renderer-facing recipe of one question.
type Body interface {
	recipe()
}

// ChoiceList is a single- or multi-select option list.
type ChoiceList struct {
	Marker    string
	Randomize bool
	Banner    string
	Items     []Item
}

// Item is one option line: "<marker>  <code>. <label>" plus an optional
// routing annotation.
type Item struct {
	Code       string
	Label      string
	Outcome    routing.Outcome
	Annotation string
}

// ScaleTable is a numeric or NPS scale drawn as a one-row grid with an
// optional anchor row.
type ScaleTable struct {
	Grid      Grid
	AnchorMin string
	AnchorMax string
}

// HasAnchors reports whether the anchor row is drawn.
func (s *ScaleTable) HasAnchors() bool { return s.AnchorMin != "" || s.AnchorMax != "" }

// NumberedList is a Likert scale: a single-select list of numbered labels.
type NumberedList struct {
	Marker string
	Labels []string
}

// RankList is a ranking question: a caption and one blank line per item.
type RankList struct {
	Caption string
	Blank   string
	Items   []string
}

// TextField is an open-text answer box.
type TextField struct {
	MaxChars *int
	Caption  string
}

// MatrixGrid is a rows × columns radio grid.
type MatrixGrid struct {
	Rows    []string
	Columns []string
	Cell    string
}

// Placeholder stands in for a body that cannot be drawn.
type Placeholder struct {
	Text string
}

func (*ChoiceList) recipe()   {}
func (*ScaleTable) recipe()   {}
func (*NumberedList) recipe() {}
func (*RankList) recipe()     {}
func (*TextField) recipe()    {}
func (*MatrixGrid) recipe()   {}
func (*Placeholder) recipe()  {}

// Fixed display strings.
const (
	MarkerSingle    = "○"
	MarkerMultiple  = "☐"
	RandomizeBanner = "⟳ RANDOMIZE ORDER"
	RankCaption     = "Rank from most important (1st) to least important:"
	RankBlank       = "___"
	MatrixCell      = "○"
	MatrixUnset     = "[Matrix: rows and columns not configured]"
	RankingUnset    = "[Ranking: items not configured]"
	TerminateNote   = "→ END"
)

// JumpNote returns the annotation for a jump to section id.
func JumpNote(id string) string { return "→ Go to " + id }

// MaxCharsCaption returns the caption under a limited text field.
func MaxCharsCaption(n int) string { return fmt.Sprintf("Maximum: %d characters", n) }

// Annotation returns the routing annotation for an outcome; Continue has
// none.
func Annotation(o routing.Outcome) string {
	switch o.Action {
	case routing.Terminate:
		return TerminateNote
	case routing.JumpTo:
		return JumpNote(o.Target)
	}
	return ""
}

// Recipe returns the layout of q. known is the section-id set of the
// questionnaire q belongs to and is used to classify option routing.
func Recipe(q *model.Question, known map[string]bool) (Body, error) {
	switch b := q.Body.(type) {
	case *model.ChoiceBody:
		l, err := choice(q, b, known)
		if err != nil {
			return nil, err
		}
		return l, nil
	case *model.ScaleBody:
		return &ScaleTable{
			Grid:      ScaleGrid(b.Min, b.Max),
			AnchorMin: b.AnchorMin,
			AnchorMax: b.AnchorMax,
		}, nil
	case *model.LikertBody:
		return &NumberedList{Marker: MarkerSingle, Labels: b.Labels}, nil
	case *model.RankingBody:
		if len(b.Items) == 0 {
			return &Placeholder{Text: RankingUnset}, nil
		}
		return &RankList{Caption: RankCaption, Blank: RankBlank, Items: b.Items}, nil
	case *model.OpenTextBody:
		f := &TextField{MaxChars: b.MaxChars}
		if b.MaxChars != nil {
			f.Caption = MaxCharsCaption(*b.MaxChars)
		}
		return f, nil
	case *model.MatrixBody:
		if len(b.Rows) == 0 || len(b.Columns) == 0 {
			return &Placeholder{Text: MatrixUnset}, nil
		}
		return &MatrixGrid{Rows: b.Rows, Columns: b.Columns, Cell: MatrixCell}, nil
	case nil:
		return nil, fmt.Errorf("%w: question %q has no body", ErrUnknownBody, q.ID)
	default:
		return nil, fmt.Errorf("%w: question %q has %T", ErrUnknownBody, q.ID, b)
	}
}

// choice fails on a routing value that names no known section; validation
// rejects those, so one reaching here is a caller bypassing it.
func choice(q *model.Question, b *model.ChoiceBody, known map[string]bool) (*ChoiceList, error) {
	l := &ChoiceList{Marker: MarkerSingle, Randomize: b.Randomize}
	if q.Kind == model.MultipleChoice {
		l.Marker = MarkerMultiple
	}
	if b.Randomize {
		l.Banner = RandomizeBanner
	}
	l.Items = make([]Item, len(b.Options))
	for i, o := range b.Options {
		out, err := routing.Resolve(o.Routing, known)
		if err != nil {
			return nil, fmt.Errorf("question %q option %d: %w", q.ID, i+1, err)
		}
		l.Items[i] = Item{
			Code:       o.Code.String(),
			Label:      o.Label,
			Outcome:    out,
			Annotation: Annotation(out),
		}
	}
	return l, nil
}

// Line returns the option line without its annotation.
func (l *ChoiceList) Line(it Item) string {
	return fmt.Sprintf("%s  %s. %s", l.Marker, it.Code, it.Label)
}

// Line returns the i-th (zero-based) Likert line.
func (l *NumberedList) Line(i int) string {
	return fmt.Sprintf("%s  %d. %s", l.Marker, i+1, l.Labels[i])
}
