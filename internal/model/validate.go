package model

// validate.go — Raw → Questionnaire.
//
// Validate never stops at the first defect. Every violation found on the
// candidate is collected so the caller can report the complete set at once.
// The section-id set is built before any question is visited; routing
// targets are checked against it.

import (
	"fmt"
	"strings"

	"qdesigner/internal/routing"
)

// validator accumulates violations for one Validate pass.
type validator struct {
	violations []Violation
	sectionIDs map[string]bool
}

func (v *validator) add(path string, kind ViolationKind, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Path:   path,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	})
}

// Validate checks raw against every structural invariant and returns the
// validated Questionnaire, or a *ValidationError listing all violations.
func Validate(raw *Raw) (*Questionnaire, error) {
	if raw == nil {
		return nil, &ValidationError{Violations: []Violation{{
			Path: "questionnaire", Kind: MissingRequiredField, Detail: "no questionnaire value",
		}}}
	}

	v := &validator{sectionIDs: make(map[string]bool, len(raw.Sections))}
	for _, s := range raw.Sections {
		if id := s.ID.text(); id != "" {
			v.sectionIDs[id] = true
		}
	}

	q := &Questionnaire{
		Summary: v.summary(raw.ProjectSummary),
		Notes:   v.notes(raw.MethodologicalNotes),
	}

	if len(raw.Sections) == 0 {
		v.add("sections", MissingRequiredField, "at least one section is required")
	}
	seen := make(map[string]bool, len(raw.Sections))
	for i, rs := range raw.Sections {
		path := fmt.Sprintf("sections[%d]", i)
		id := rs.ID.text()
		switch {
		case rs.ID.Bad:
			v.add(path, MalformedField, "id must be a string")
		case id == "":
			v.add(path, MissingRequiredField, "id")
		case seen[id]:
			v.add(id, DuplicateID, "section id %q declared more than once", id)
		default:
			path = id
		}
		if id != "" {
			seen[id] = true
		}
		q.Sections = append(q.Sections, v.section(path, id, rs))
	}

	if len(v.violations) > 0 {
		return nil, &ValidationError{Violations: v.violations}
	}
	return q, nil
}

func (v *validator) summary(rs *rawSummary) ProjectSummary {
	if rs == nil {
		v.add("project_summary", MissingRequiredField, "project_summary")
		return ProjectSummary{}
	}
	const path = "project_summary"
	s := ProjectSummary{
		ResearchObjective:   v.str(path, "research_objective", rs.ResearchObjective),
		TargetAudience:      v.str(path, "target_audience", rs.TargetAudience),
		Methodology:         v.str(path, "methodology", rs.Methodology),
		PlatformNotes:       v.str(path, "platform_notes", rs.PlatformNotes),
		EstimatedLOIMinutes: v.optInt(path, "estimated_loi_minutes", rs.EstimatedLOIMinutes),
		TotalQuestions:      v.optInt(path, "total_questions", rs.TotalQuestions),
	}
	if s.ResearchObjective == "" && !rs.ResearchObjective.Bad {
		v.add(path, MissingRequiredField, "research_objective")
	}
	return s
}

func (v *validator) notes(rn *rawNotes) *MethodologicalNotes {
	if rn == nil {
		return nil
	}
	const path = "methodological_notes"
	n := &MethodologicalNotes{
		Sampling:        v.str(path, "sampling", rn.Sampling),
		Quotas:          v.str(path, "quotas", rn.Quotas),
		Limitations:     v.str(path, "limitations", rn.Limitations),
		BiasesMitigated: v.labels(path, "biases_mitigated", rn.BiasesMitigated),
	}
	if n.Sampling == "" && n.Quotas == "" && n.Limitations == "" && len(n.BiasesMitigated) == 0 {
		return nil
	}
	return n
}

func (v *validator) section(path, id string, rs rawSection) Section {
	s := Section{
		ID:          id,
		Title:       v.str(path, "title", rs.Title),
		Description: v.str(path, "description", rs.Description),
	}
	if s.Title == "" && !rs.Title.Bad {
		v.add(path, MissingRequiredField, "title")
	}
	seen := make(map[string]bool, len(rs.Questions))
	for i, rq := range rs.Questions {
		qpath := fmt.Sprintf("%s/questions[%d]", path, i)
		qid := rq.ID.text()
		switch {
		case rq.ID.Bad:
			v.add(qpath, MalformedField, "id must be a string")
		case qid == "":
			v.add(qpath, MissingRequiredField, "id")
		case seen[qid]:
			v.add(path+"/"+qid, DuplicateID, "question id %q declared more than once in section", qid)
		default:
			qpath = path + "/" + qid
		}
		if qid != "" {
			seen[qid] = true
		}
		s.Questions = append(s.Questions, v.question(qpath, qid, rq))
	}
	return s
}

func (v *validator) question(path, id string, rq rawQuestion) Question {
	q := Question{
		ID:                 id,
		Text:               v.str(path, "text", rq.Text),
		Instruction:        v.str(path, "instruction", rq.Instruction),
		ProgrammingNote:    v.str(path, "programming_note", rq.ProgrammingNote),
		MethodologicalNote: v.str(path, "methodological_note", rq.MethodologicalNote),
		Required:           rq.Required.or(true),
	}
	if rq.Required.Bad {
		v.add(path, MalformedField, "required must be a boolean")
	}
	if q.Text == "" && !rq.Text.Bad {
		v.add(path, MissingRequiredField, "text")
	}

	typ := strings.ToLower(rq.Type.text())
	if typ == "" {
		v.add(path, MissingRequiredField, "type")
		return q
	}
	kind, ok := ParseKind(typ)
	if !ok {
		v.add(path, UnknownQuestionKind, "type %q", rq.Type.text())
		return q
	}
	q.Kind = kind

	switch kind {
	case SingleChoice, MultipleChoice:
		q.Body = v.choice(path, rq)
	case ScaleNumeric, NPS:
		q.Body = v.scale(path, rq)
	case ScaleLikert:
		labels := v.labels(path, "options", likertSource(rq))
		if len(labels) == 0 {
			labels = append([]string(nil), DefaultLikertLabels...)
		}
		q.Body = &LikertBody{Labels: labels}
	case Ranking:
		items := v.labels(path, "items", rq.Items)
		if len(items) == 0 {
			items = v.optionLabels(path, rq.Options)
		}
		if len(items) == 0 {
			v.add(path, EmptyOptionSet, "ranking has no items")
		}
		q.Body = &RankingBody{Items: items}
	case OpenText:
		limit := v.optInt(path, "max_chars", rq.MaxChars)
		if limit != nil && *limit <= 0 {
			v.add(path, MalformedField, "max_chars must be positive, got %d", *limit)
		}
		q.Body = &OpenTextBody{MaxChars: limit}
	case Matrix:
		rows := v.labels(path, "rows", rq.Rows)
		if len(rows) == 0 {
			rows = v.labels(path, "items", rq.Items)
		}
		cols := v.labels(path, "columns", rq.Columns)
		if len(cols) == 0 {
			cols = v.labels(path, "scale_points", rq.ScalePoints)
		}
		if len(rows) == 0 {
			v.add(path, EmptyMatrixAxis, "rows")
		}
		if len(cols) == 0 {
			v.add(path, EmptyMatrixAxis, "columns")
		}
		q.Body = &MatrixBody{Rows: rows, Columns: cols}
	}
	return q
}

// likertSource prefers "options" and falls back to "labels".
func likertSource(rq rawQuestion) []rawLabel {
	if len(rq.Options) > 0 {
		out := make([]rawLabel, len(rq.Options))
		for i, o := range rq.Options {
			out[i] = rawLabel{Text: o.Text, Bad: o.Bad}
		}
		return out
	}
	return rq.Labels
}

func (v *validator) choice(path string, rq rawQuestion) *ChoiceBody {
	b := &ChoiceBody{Randomize: rq.RandomizeOptions.or(false)}
	if rq.RandomizeOptions.Bad {
		v.add(path, MalformedField, "randomize_options must be a boolean")
	}
	if len(rq.Options) == 0 {
		v.add(path, EmptyOptionSet, "choice question has no options")
		return b
	}
	seen := make(map[string]bool, len(rq.Options))
	for i, ro := range rq.Options {
		opath := fmt.Sprintf("%s/option:%d", path, i+1)
		if ro.Bad {
			v.add(opath, MalformedField, "option must be a string or an object")
			continue
		}
		code := ro.Code.Code
		switch {
		case ro.Bare:
			code = IntCode(i + 1)
		case ro.Code.Bad:
			v.add(opath, MalformedField, "code must be a string or a number")
			continue
		case !ro.Code.Set:
			v.add(opath, MissingRequiredField, "code")
			continue
		}
		if ro.Text == "" {
			v.add(opath, MissingRequiredField, "text")
		}
		if seen[code.String()] {
			v.add(opath, DuplicateID, "option code %q declared more than once", code.String())
		}
		seen[code.String()] = true

		rt := ro.Routing.text()
		if _, err := routing.Resolve(rt, v.sectionIDs); err != nil {
			v.add(opath, DanglingRoutingTarget, "routing target %q is not a section", rt)
		}
		b.Options = append(b.Options, Option{Code: code, Label: ro.Text, Routing: rt})
	}
	return b
}

func (v *validator) scale(path string, rq rawQuestion) *ScaleBody {
	b := &ScaleBody{
		Min:       0,
		Max:       10,
		AnchorMin: v.str(path, "anchor_min", rq.AnchorMin),
		AnchorMax: v.str(path, "anchor_max", rq.AnchorMax),
	}
	if p := v.optInt(path, "scale_min", rq.ScaleMin); p != nil {
		b.Min = *p
	}
	if p := v.optInt(path, "scale_max", rq.ScaleMax); p != nil {
		b.Max = *p
	}
	if rq.ScaleMin.Bad || rq.ScaleMax.Bad {
		return b
	}
	if b.Min >= b.Max {
		v.add(path, InvalidScaleRange, "scale_min %d must be less than scale_max %d", b.Min, b.Max)
	}
	return b
}

// ---------------------------------------------------------------------------
// Field helpers
// ---------------------------------------------------------------------------

func (v *validator) str(path, field string, f flexString) string {
	if f.Bad {
		v.add(path, MalformedField, "%s must be a string", field)
		return ""
	}
	return f.text()
}

func (v *validator) optInt(path, field string, f flexInt) *int {
	if f.Bad {
		v.add(path, MalformedField, "%s must be an integer, got %q", field, f.Raw)
		return nil
	}
	return f.ptr()
}

// labels collects non-empty label texts. An empty result is nil.
func (v *validator) labels(path, field string, in []rawLabel) []string {
	var out []string
	for i, l := range in {
		if l.Bad {
			v.add(path, MalformedField, "%s[%d] must be a string", field, i)
			continue
		}
		if l.Text != "" {
			out = append(out, l.Text)
		}
	}
	return out
}

func (v *validator) optionLabels(path string, in []rawOption) []string {
	var out []string
	for i, o := range in {
		if o.Bad {
			v.add(path, MalformedField, "options[%d] must be a string", i)
			continue
		}
		if o.Text != "" {
			out = append(out, o.Text)
		}
	}
	return out
}
