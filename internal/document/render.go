package document

// render.go — Page content: cover, sections, question blocks, appendix.

import (
	"fmt"
	"time"

	"qdesigner/internal/docx"
	"qdesigner/internal/layout"
	"qdesigner/internal/model"
	"qdesigner/internal/routing"
)

type renderer struct {
	doc   *docx.Document
	known map[string]bool
	path  string
}

func rule(color string) docx.Border {
	return docx.Border{Size: 6, Space: 1, Color: color}
}

func (r *renderer) render(q *model.Questionnaire, at time.Time) error {
	r.known = q.SectionIDs()
	r.cover(q.Summary, at)

	if notes := q.Summary.PlatformNotes; notes != "" {
		r.doc.Paragraph().Spacing(0, 8).
			Run("Programming notes: " + notes).Size(9).Color(layout.ColorNote)
		r.doc.PageBreak()
	}

	for i := range q.Sections {
		s := &q.Sections[i]
		r.path = s.ID
		if i > 0 {
			r.doc.Paragraph().Spacing(12, 0)
		}
		r.sectionHeader(s)
		for j := range s.Questions {
			qu := &s.Questions[j]
			r.path = s.Path(qu)
			if err := r.question(qu); err != nil {
				return &RenderError{Path: r.path, Err: err}
			}
		}
	}
	r.path = ""

	if q.Notes != nil {
		r.appendix(q.Notes)
	}

	r.doc.Paragraph().Align(docx.AlignCenter).Spacing(24, 0).
		Run(ClosingLine).Size(10).Italic().Color(layout.ColorMuted)
	return nil
}

// ---------------------------------------------------------------------------
// Cover
// ---------------------------------------------------------------------------

func (r *renderer) cover(s model.ProjectSummary, at time.Time) {
	d := r.doc
	for range 6 {
		d.Paragraph().Spacing(0, 0)
	}
	d.Paragraph().Align(docx.AlignCenter).
		Run(Title).Size(28).Bold().Color(layout.ColorPrimary)
	d.Paragraph().Align(docx.AlignCenter).Spacing(12, 0).
		Run(orAbsent(s.ResearchObjective)).Size(14).Color(layout.ColorDark)
	d.Paragraph().Spacing(6, 6).BorderBottom(rule(layout.ColorPrimary))

	d.Paragraph().Spacing(24, 0)
	meta := [][2]string{
		{"Target audience", orAbsent(s.TargetAudience)},
		{"Methodology", orAbsent(s.Methodology)},
		{"Estimated LOI", intOrAbsent(s.EstimatedLOIMinutes, " minutes")},
		{"Total questions", intOrAbsent(s.TotalQuestions, "")},
		{"Date", at.Format("2006-01-02")},
		{"Status", StatusDraft},
	}
	t := d.Table(len(meta), 2).Align(docx.AlignCenter).Widths(5, 10)
	for i, kv := range meta {
		t.Cell(i, 0).Paragraph().Align(docx.AlignRight).
			Run(kv[0]).Size(10).Bold().Color(layout.ColorPrimary)
		t.Cell(i, 1).Paragraph().
			Run("  " + kv[1]).Size(10).Color(layout.ColorText)
	}

	for range 4 {
		d.Paragraph()
	}
	d.Paragraph().Align(docx.AlignCenter).
		Run(Confidential).Size(9).Bold().Color(layout.ColorMuted)
	d.Paragraph().Align(docx.AlignCenter).
		Run(ConfidentialNote).Size(8).Color(layout.ColorMuted)
	d.PageBreak()
}

// ---------------------------------------------------------------------------
// Sections and questions
// ---------------------------------------------------------------------------

func (r *renderer) sectionHeader(s *model.Section) {
	r.doc.Paragraph().Spacing(24, 4).
		Run(fmt.Sprintf("%s. %s", s.ID, s.Title)).Size(16).Bold().Color(layout.ColorPrimary)
	if s.Description != "" {
		r.doc.Paragraph().Spacing(0, 8).
			Run(s.Description).Size(9).Italic().Color(layout.ColorMuted)
	}
	r.doc.Paragraph().Spacing(6, 6).BorderBottom(rule(layout.ColorAccent))
}

func (r *renderer) question(q *model.Question) error {
	body, err := layout.Recipe(q, r.known)
	if err != nil {
		return err
	}
	d := r.doc

	badge := d.Paragraph().Spacing(16, 2)
	badge.Run(q.ID).Size(9).Bold().Color(layout.ColorSecondary)
	badge.Run("  [" + layout.KindLabel(q.Kind) + "]").Size(8).Color(layout.ColorMuted)
	if q.Required {
		badge.Run("  " + layout.RequiredMark).Size(8).Color(layout.ColorTerminate)
	}

	d.Paragraph().Spacing(0, 4).Run(q.Text).Size(11).Bold().Color(layout.ColorText)
	if q.Instruction != "" {
		d.Paragraph().Spacing(0, 4).Run(q.Instruction).Size(9).Italic().Color(layout.ColorMuted)
	}

	if err := r.body(body); err != nil {
		return err
	}

	if q.ProgrammingNote != "" {
		d.Paragraph().Spacing(4, 0).
			Run("📋 Programming: " + q.ProgrammingNote).Size(8).Color(layout.ColorNote)
	}
	if q.MethodologicalNote != "" {
		d.Paragraph().Spacing(2, 0).
			Run("🔬 Methodological note: " + q.MethodologicalNote).Size(8).Color(layout.ColorMuted)
	}
	return nil
}

func (r *renderer) listLine(text string) *docx.Paragraph {
	p := r.doc.Paragraph().Spacing(1, 1).Indent(1)
	p.Run(text).Size(10).Color(layout.ColorText)
	return p
}

func (r *renderer) body(body layout.Body) error {
	d := r.doc
	switch b := body.(type) {
	case *layout.ChoiceList:
		if b.Banner != "" {
			d.Paragraph().Run(b.Banner).Size(7).Bold().Color(layout.ColorAccent)
		}
		for _, it := range b.Items {
			p := r.listLine(b.Line(it))
			if it.Annotation == "" {
				continue
			}
			run := p.Run("  " + it.Annotation).Size(8).Color(layout.AnnotationColor(it))
			if it.Outcome.Action == routing.Terminate {
				run.Bold()
			}
		}

	case *layout.ScaleTable:
		g := b.Grid
		t := d.Table(2, g.Columns()).Align(docx.AlignCenter)
		for i, label := range g.Labels {
			t.Cell(0, i).Paragraph().Align(docx.AlignCenter).
				Run(label).Size(9).Bold().Color(layout.ColorPrimary)
		}
		if b.HasAnchors() {
			t.Cell(1, 0).Paragraph().Align(docx.AlignLeft).
				Run(b.AnchorMin).Size(8).Color(layout.ColorMuted)
			t.Cell(1, g.Columns()-1).Paragraph().Align(docx.AlignRight).
				Run(b.AnchorMax).Size(8).Color(layout.ColorMuted)
		}
		d.Paragraph().Spacing(0, 2)

	case *layout.NumberedList:
		for i := range b.Labels {
			r.listLine(b.Line(i))
		}

	case *layout.RankList:
		d.Paragraph().Run(b.Caption).Size(9).Italic().Color(layout.ColorMuted)
		for _, it := range b.Items {
			r.listLine(b.Blank + "  " + it)
		}

	case *layout.TextField:
		t := d.Table(1, 1).Align(docx.AlignLeft).Widths(14)
		t.Cell(0, 0).Border(docx.Border{Size: 4, Color: layout.ColorBorder}).
			Paragraph().Spacing(0, 30).Run(" ").Size(10)
		if b.Caption != "" {
			d.Paragraph().Run(b.Caption).Size(8).Color(layout.ColorMuted)
		}

	case *layout.MatrixGrid:
		t := d.Table(len(b.Rows)+1, len(b.Columns)+1).Align(docx.AlignCenter)
		for j, col := range b.Columns {
			t.Cell(0, j+1).Shade(layout.ColorLightBG).Paragraph().Align(docx.AlignCenter).
				Run(col).Size(8).Bold().Color(layout.ColorPrimary)
		}
		for i, row := range b.Rows {
			t.Cell(i+1, 0).Paragraph().Run(row).Size(9).Color(layout.ColorText)
			for j := range b.Columns {
				t.Cell(i+1, j+1).Paragraph().Align(docx.AlignCenter).
					Run(b.Cell).Size(10).Color(layout.ColorMuted)
			}
		}

	case *layout.Placeholder:
		d.Paragraph().Run(b.Text).Size(9).Color(layout.ColorMuted)

	default:
		return fmt.Errorf("%w: recipe %T", layout.ErrUnknownBody, body)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Appendix
// ---------------------------------------------------------------------------

func (r *renderer) appendix(n *model.MethodologicalNotes) {
	d := r.doc
	d.PageBreak()
	d.Paragraph().Run(AppendixTitle).Size(16).Bold().Color(layout.ColorPrimary)
	d.Paragraph().Spacing(6, 6).BorderBottom(rule(layout.ColorPrimary))

	for _, part := range [][2]string{
		{"Sampling", n.Sampling},
		{"Quotas", n.Quotas},
		{"Limitations", n.Limitations},
	} {
		if part[1] == "" {
			continue
		}
		d.Paragraph().Spacing(12, 0).Run(part[0]).Size(12).Bold().Color(layout.ColorDark)
		d.Paragraph().Run(part[1]).Size(10).Color(layout.ColorText)
	}

	if len(n.BiasesMitigated) > 0 {
		d.Paragraph().Spacing(12, 0).Run("Biases Controlled in the Design").Size(12).Bold().Color(layout.ColorDark)
		for _, b := range n.BiasesMitigated {
			d.Paragraph().Indent(1).Run("• " + b).Size(10).Color(layout.ColorText)
		}
	}
}
