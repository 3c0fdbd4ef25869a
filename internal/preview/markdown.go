package preview

// markdown.go — Markdown rendering of a View.
//
// Collapsed sections show only their heading. Question bodies come straight
// from the layout recipe so routing annotations, scale columns and
// placeholders read the same as in the document.

import (
	"fmt"
	"strings"

	"qdesigner/internal/layout"
	"qdesigner/internal/routing"
)

// Markdown renders v as a markdown document.
func Markdown(v View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Questions:** %s · **Estimated LOI:** %s · **Sections:** %d\n\n",
		v.Stats.TotalQuestions, v.Stats.LOI, v.Stats.Sections)
	if v.Stats.CountMismatch() {
		fmt.Fprintf(&b, "> Declared %s questions, found %d.\n\n", v.Stats.TotalQuestions, v.Stats.ActualQuestions)
	}
	b.WriteString("---\n\n")

	for _, s := range v.Sections {
		marker := "▾"
		if s.Collapsed {
			marker = "▸"
		}
		fmt.Fprintf(&b, "## %s %s\n\n", marker, escape(s.Heading))
		if s.Collapsed {
			continue
		}
		if s.Description != "" {
			fmt.Fprintf(&b, "_%s_\n\n", escape(s.Description))
		}
		for _, q := range s.Questions {
			plain.question(&b, q)
		}
	}

	if n := v.Notes; n != nil {
		b.WriteString("## Methodological Notes\n\n")
		if n.Sampling != "" {
			fmt.Fprintf(&b, "**Sampling:** %s\n\n", escape(n.Sampling))
		}
		if n.Quotas != "" {
			fmt.Fprintf(&b, "**Quotas:** %s\n\n", escape(n.Quotas))
		}
		if n.Limitations != "" {
			fmt.Fprintf(&b, "**Limitations:** %s\n\n", escape(n.Limitations))
		}
		for _, bias := range n.Biases {
			fmt.Fprintf(&b, "- %s\n", escape(bias))
		}
		if len(n.Biases) > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Linker renders a jump target. The default is the bare section id.
type Linker func(sectionID string) string

type mdWriter struct {
	link Linker
}

var plain = mdWriter{}

// QuestionsMarkdown renders the questions of one section block. A non-nil
// link rewrites jump targets, e.g. into wiki links.
func QuestionsMarkdown(s SectionBlock, link Linker) string {
	var b strings.Builder
	w := mdWriter{link: link}
	for _, q := range s.Questions {
		w.question(&b, q)
	}
	return b.String()
}

func (w mdWriter) question(b *strings.Builder, q QuestionBlock) {
	fmt.Fprintf(b, "%s %s **%s** _[%s]_", code(q.ID), q.Glyph, escape(q.Text), q.KindLabel)
	if q.Required {
		fmt.Fprintf(b, " %s", layout.RequiredMark)
	}
	b.WriteString("\n\n")
	if q.Instruction != "" {
		fmt.Fprintf(b, "_%s_\n\n", escape(q.Instruction))
	}
	w.body(b, q.Body)
	if q.ProgrammingNote != "" {
		fmt.Fprintf(b, "📋 _Programming: %s_\n\n", escape(q.ProgrammingNote))
	}
	if q.MethodologicalNote != "" {
		fmt.Fprintf(b, "🔬 _Methodological note: %s_\n\n", escape(q.MethodologicalNote))
	}
}

func (w mdWriter) annotation(it layout.Item) string {
	if w.link != nil && it.Outcome.Action == routing.JumpTo {
		return layout.JumpNote(w.link(it.Outcome.Target))
	}
	return it.Annotation
}

func (w mdWriter) body(b *strings.Builder, body layout.Body) {
	switch r := body.(type) {
	case *layout.ChoiceList:
		if r.Banner != "" {
			fmt.Fprintf(b, "**%s**\n\n", r.Banner)
		}
		for _, it := range r.Items {
			line := escape(r.Line(it))
			if note := w.annotation(it); note != "" {
				line += "  **" + note + "**"
			}
			fmt.Fprintf(b, "- %s\n", line)
		}
	case *layout.ScaleTable:
		writeTable(b, r.Grid.Labels, anchorRow(r))
	case *layout.NumberedList:
		for i := range r.Labels {
			fmt.Fprintf(b, "- %s\n", escape(r.Line(i)))
		}
	case *layout.RankList:
		fmt.Fprintf(b, "_%s_\n\n", r.Caption)
		for _, it := range r.Items {
			fmt.Fprintf(b, "- %s  %s\n", r.Blank, escape(it))
		}
	case *layout.TextField:
		b.WriteString("```\n \n```\n")
		if r.Caption != "" {
			fmt.Fprintf(b, "\n_%s_\n", r.Caption)
		}
	case *layout.MatrixGrid:
		header := append([]string{""}, r.Columns...)
		rows := make([][]string, len(r.Rows))
		for i, label := range r.Rows {
			row := []string{label}
			for range r.Columns {
				row = append(row, r.Cell)
			}
			rows[i] = row
		}
		writeTable(b, header, rows...)
	case *layout.Placeholder:
		fmt.Fprintf(b, "_%s_\n", r.Text)
	}
	b.WriteString("\n")
}

func anchorRow(s *layout.ScaleTable) []string {
	if !s.HasAnchors() {
		return nil
	}
	row := make([]string, s.Grid.Columns())
	row[0] = s.AnchorMin
	row[len(row)-1] = s.AnchorMax
	return row
}

func writeTable(b *strings.Builder, header []string, rows ...[]string) {
	b.WriteString("| " + joinCells(header) + " |\n")
	b.WriteString("|" + strings.Repeat(" :-: |", len(header)) + "\n")
	for _, row := range rows {
		if row == nil {
			continue
		}
		b.WriteString("| " + joinCells(row) + " |\n")
	}
}

func joinCells(cells []string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cellEscaper.Replace(c)
	}
	return strings.Join(out, " | ")
}

// Author text is escaped so that emphasis, links and table pipes in a label
// render literally.
var (
	inlineEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
		"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`,
		"#", `\#`, "|", `\|`, "~", `\~`,
	)
	cellEscaper = strings.NewReplacer(
		`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
		"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`,
		"#", `\#`, "|", `\|`, "~", `\~`,
		"\r\n", " ", "\n", " ",
	)
)

func escape(s string) string { return inlineEscaper.Replace(s) }

// code renders s as an inline code span, widening the fence past any
// backtick run inside s.
func code(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}
