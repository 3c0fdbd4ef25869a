// Package preview builds the hierarchical, interactive view of a
// questionnaire.
//
// Build produces a pure View. Markdown and Terminal draw it as text; the
// bubbletea browser in cmd/qdesigner drives the Collapsed flags. None of
// them touch the questionnaire.
package preview

import (
	"fmt"
	"strconv"

	"qdesigner/internal/layout"
	"qdesigner/internal/model"
)

// Absent is shown for declared values the author left out.
const Absent = "—"

// View is the complete preview of one questionnaire.
type View struct {
	Stats    Stats
	Sections []SectionBlock
	Notes    *NotesBlock
}

// Stats is the strip shown above the sections. TotalQuestions and LOI are
// the declared values; ActualQuestions is counted from the tree.
type Stats struct {
	TotalQuestions  string
	LOI             string
	Sections        int
	ActualQuestions int
}

// SectionBlock is one collapsible section.
type SectionBlock struct {
	ID          string
	Title       string
	Description string
	Heading     string
	Collapsed   bool
	Questions   []QuestionBlock
}

// QuestionBlock is one question inside a section.
type QuestionBlock struct {
	ID                 string
	Text               string
	Glyph              string
	KindLabel          string
	Required           bool
	Instruction        string
	ProgrammingNote    string
	MethodologicalNote string
	Body               layout.Body
}

// NotesBlock is the methodology block.
type NotesBlock struct {
	Sampling    string
	Quotas      string
	Limitations string
	Biases      []string
}

// Build returns the preview of q. Every section starts collapsed.
func Build(q *model.Questionnaire) (View, error) {
	v := View{Stats: stats(q)}
	known := q.SectionIDs()
	for _, s := range q.Sections {
		sb := SectionBlock{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Heading:     SectionHeading(s),
			Collapsed:   true,
		}
		for i := range s.Questions {
			qu := &s.Questions[i]
			body, err := layout.Recipe(qu, known)
			if err != nil {
				return View{}, fmt.Errorf("preview %s: %w", s.Path(qu), err)
			}
			sb.Questions = append(sb.Questions, QuestionBlock{
				ID:                 qu.ID,
				Text:               qu.Text,
				Glyph:              layout.KindGlyph(qu.Kind),
				KindLabel:          layout.KindLabel(qu.Kind),
				Required:           qu.Required,
				Instruction:        qu.Instruction,
				ProgrammingNote:    qu.ProgrammingNote,
				MethodologicalNote: qu.MethodologicalNote,
				Body:               body,
			})
		}
		v.Sections = append(v.Sections, sb)
	}
	if n := q.Notes; n != nil {
		v.Notes = &NotesBlock{
			Sampling:    n.Sampling,
			Quotas:      n.Quotas,
			Limitations: n.Limitations,
			Biases:      n.BiasesMitigated,
		}
	}
	return v, nil
}

func stats(q *model.Questionnaire) Stats {
	st := Stats{
		TotalQuestions:  Absent,
		LOI:             Absent + " min",
		Sections:        len(q.Sections),
		ActualQuestions: q.QuestionCount(),
	}
	if p := q.Summary.TotalQuestions; p != nil {
		st.TotalQuestions = strconv.Itoa(*p)
	}
	if p := q.Summary.EstimatedLOIMinutes; p != nil {
		st.LOI = strconv.Itoa(*p) + " min"
	}
	return st
}

// SectionHeading returns "S1. Title (N questions)".
func SectionHeading(s model.Section) string {
	noun := "questions"
	if len(s.Questions) == 1 {
		noun = "question"
	}
	return fmt.Sprintf("%s. %s (%d %s)", s.ID, s.Title, len(s.Questions), noun)
}

// ExpandAll returns a copy of v with every section expanded.
func (v View) ExpandAll() View {
	out := v
	out.Sections = make([]SectionBlock, len(v.Sections))
	for i, s := range v.Sections {
		s.Collapsed = false
		out.Sections[i] = s
	}
	return out
}

// Toggle returns a copy of v with section i flipped between collapsed and
// expanded. Out-of-range indexes return v unchanged.
func (v View) Toggle(i int) View {
	if i < 0 || i >= len(v.Sections) {
		return v
	}
	out := v
	out.Sections = append([]SectionBlock(nil), v.Sections...)
	out.Sections[i].Collapsed = !out.Sections[i].Collapsed
	return out
}

// CountMismatch reports whether the declared question total disagrees with
// the actual count. An absent declaration never mismatches.
func (s Stats) CountMismatch() bool {
	return s.TotalQuestions != Absent && s.TotalQuestions != strconv.Itoa(s.ActualQuestions)
}
