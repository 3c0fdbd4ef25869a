package model

// validate_test.go — Validate invariants, defaults and accumulation.

import (
	"errors"
	"testing"
)

// mustRaw parses a JSON literal or fails the test.
func mustRaw(t *testing.T, src string) *Raw {
	t.Helper()
	raw, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return raw
}

// violations validates src and returns the violations, failing the test
// when validation unexpectedly succeeds.
func violations(t *testing.T, src string) *ValidationError {
	t.Helper()
	_, err := Validate(mustRaw(t, src))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return ve
}

const summaryJSON = `"project_summary": {"research_objective": "R", "target_audience": "A", "methodology": "M"}`

// ---------------------------------------------------------------------------
// Happy path
// ---------------------------------------------------------------------------

func TestValidate_Sample(t *testing.T) {
	q := loadSample(t)
	if len(q.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(q.Sections))
	}
	q1 := q.Sections[0].Questions[0]
	if q1.Kind != SingleChoice {
		t.Errorf("S1_Q1 kind = %v", q1.Kind)
	}
	cb, ok := q1.Body.(*ChoiceBody)
	if !ok {
		t.Fatalf("S1_Q1 body = %T", q1.Body)
	}
	if len(cb.Options) != 2 || cb.Options[1].Routing != "TERMINATE" {
		t.Errorf("S1_Q1 options = %+v", cb.Options)
	}
	if !cb.Options[0].Code.Numeric || cb.Options[0].Code.Value != "1" {
		t.Errorf("code = %+v, want numeric 1", cb.Options[0].Code)
	}
	if open := q.Sections[2].Questions[2]; open.Required {
		t.Error("S3_Q3 required = true, want explicit false")
	}
	if q.Notes == nil || len(q.Notes.BiasesMitigated) != 2 {
		t.Errorf("notes = %+v", q.Notes)
	}
}

func TestValidate_Defaults(t *testing.T) {
	q, err := Validate(mustRaw(t, `{`+summaryJSON+`, "sections": [{"id": "S1", "title": "T", "questions": [
		{"id": "Q1", "type": "scale_likert", "text": "Agree?"},
		{"id": "Q2", "type": "nps", "text": "Recommend?"}
	]}]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	lk := q.Sections[0].Questions[0]
	if !lk.Required {
		t.Error("required should default to true")
	}
	labels := lk.Body.(*LikertBody).Labels
	if len(labels) != 5 || labels[0] != DefaultLikertLabels[0] {
		t.Errorf("likert labels = %v", labels)
	}
	sb := q.Sections[0].Questions[1].Body.(*ScaleBody)
	if sb.Min != 0 || sb.Max != 10 {
		t.Errorf("nps range = %d..%d, want 0..10", sb.Min, sb.Max)
	}
	if q.Notes != nil {
		t.Error("absent notes should stay nil")
	}
}

func TestValidate_TolerantShapes(t *testing.T) {
	q, err := Validate(mustRaw(t, `{`+summaryJSON+`, "sections": [{"id": 1, "title": "T", "questions": [
		{"id": "Q1", "type": "Single_Choice", "text": "Pick", "options": ["Red", "Blue"]},
		{"id": "Q2", "type": "scale_numeric", "text": "Rate", "scale_min": "1", "scale_max": 7.0},
		{"id": "Q3", "type": "ranking", "text": "Rank", "options": ["A", "B"]},
		{"id": "Q4", "type": "matrix", "text": "Grid", "items": ["r1"], "scale_points": [{"text": "c1"}]}
	]}]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	s := q.Sections[0]
	if s.ID != "1" {
		t.Errorf("numeric section id = %q, want \"1\"", s.ID)
	}
	cb := s.Questions[0].Body.(*ChoiceBody)
	if cb.Options[1].Code != IntCode(2) || cb.Options[1].Label != "Blue" {
		t.Errorf("bare option = %+v", cb.Options[1])
	}
	if sb := s.Questions[1].Body.(*ScaleBody); sb.Min != 1 || sb.Max != 7 {
		t.Errorf("scale = %+v", sb)
	}
	if rb := s.Questions[2].Body.(*RankingBody); len(rb.Items) != 2 {
		t.Errorf("ranking items = %v", rb.Items)
	}
	mb := s.Questions[3].Body.(*MatrixBody)
	if len(mb.Rows) != 1 || len(mb.Columns) != 1 || mb.Columns[0] != "c1" {
		t.Errorf("matrix = %+v", mb)
	}
}

// ---------------------------------------------------------------------------
// Violations
// ---------------------------------------------------------------------------

// A routing target naming a section that does not exist is rejected.
func TestValidate_DanglingTarget(t *testing.T) {
	ve := violations(t, `{`+summaryJSON+`, "sections": [
		{"id": "S1", "title": "One", "questions": [
			{"id": "Q1", "type": "single_choice", "text": "Go?", "options": [
				{"code": 1, "text": "Yes", "routing": "S9"},
				{"code": 2, "text": "No", "routing": "S2"}
			]}]},
		{"id": "S2", "title": "Two", "questions": []}
	]}`)
	if !ve.Has(DanglingRoutingTarget, "S1/Q1/option:1") {
		t.Errorf("missing dangling violation: %v", ve)
	}
	if len(ve.Violations) != 1 {
		t.Errorf("forward jump to S2 should be accepted, got %v", ve.Violations)
	}
}

func TestValidate_Duplicates(t *testing.T) {
	ve := violations(t, `{`+summaryJSON+`, "sections": [
		{"id": "S1", "title": "One", "questions": [
			{"id": "Q1", "type": "single_choice", "text": "a", "options": [
				{"code": 1, "text": "x"}, {"code": "1", "text": "y"}
			]},
			{"id": "Q1", "type": "open_text", "text": "b"}
		]},
		{"id": "S1", "title": "Again", "questions": []}
	]}`)
	for _, want := range []struct {
		kind ViolationKind
		path string
	}{
		{DuplicateID, "S1/Q1/option:2"},
		{DuplicateID, "S1/Q1"},
		{DuplicateID, "S1"},
	} {
		if !ve.Has(want.kind, want.path) {
			t.Errorf("missing %s at %s in %v", want.kind, want.path, ve)
		}
	}
}

// Question ids only need to be unique within their section.
func TestValidate_QuestionIDsScopedToSection(t *testing.T) {
	_, err := Validate(mustRaw(t, `{`+summaryJSON+`, "sections": [
		{"id": "S1", "title": "One", "questions": [{"id": "Q1", "type": "open_text", "text": "a"}]},
		{"id": "S2", "title": "Two", "questions": [{"id": "Q1", "type": "open_text", "text": "b"}]}
	]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_AccumulatesAll(t *testing.T) {
	ve := violations(t, `{"project_summary": {}, "sections": [
		{"title": "No id", "questions": [
			{"id": "Q1", "type": "nps", "text": "x", "scale_min": 10, "scale_max": 0},
			{"id": "Q2", "type": "multiple_choice", "text": "y", "options": []},
			{"id": "Q3", "type": "matrix", "text": "z", "rows": ["r"], "columns": []},
			{"id": "Q4", "type": "slider", "text": "w"},
			{"id": "Q5", "type": "scale_numeric", "text": "v", "scale_min": "abc"},
			{"id": "Q6", "text": "no type"}
		]}
	]}`)
	checks := []struct {
		kind ViolationKind
		path string
	}{
		{MissingRequiredField, "project_summary"},
		{MissingRequiredField, "sections[0]"},
		{InvalidScaleRange, "sections[0]/Q1"},
		{EmptyOptionSet, "sections[0]/Q2"},
		{EmptyMatrixAxis, "sections[0]/Q3"},
		{UnknownQuestionKind, "sections[0]/Q4"},
		{MalformedField, "sections[0]/Q5"},
		{MissingRequiredField, "sections[0]/Q6"},
	}
	for _, c := range checks {
		if !ve.Has(c.kind, c.path) {
			t.Errorf("missing %s at %s", c.kind, c.path)
		}
	}
}

func TestValidate_EqualScaleBoundsRejected(t *testing.T) {
	ve := violations(t, `{`+summaryJSON+`, "sections": [{"id": "S1", "title": "T", "questions": [
		{"id": "Q1", "type": "scale_numeric", "text": "x", "scale_min": 5, "scale_max": 5}
	]}]}`)
	if !ve.Has(InvalidScaleRange, "S1/Q1") {
		t.Errorf("violations = %v", ve)
	}
}

func TestValidate_EmptyRankingRejected(t *testing.T) {
	ve := violations(t, `{`+summaryJSON+`, "sections": [{"id": "S1", "title": "T", "questions": [
		{"id": "Q1", "type": "ranking", "text": "x", "items": []}
	]}]}`)
	if !ve.Has(EmptyOptionSet, "S1/Q1") {
		t.Errorf("violations = %v", ve)
	}
}

func TestValidate_NilRaw(t *testing.T) {
	var ve *ValidationError
	if _, err := Validate(nil); !errors.As(err, &ve) {
		t.Fatalf("Validate(nil) = %v", err)
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	raw := mustRaw(t, `{`+summaryJSON+`, "sections": [{"id": " S1 ", "title": "T", "questions": [
		{"id": "Q1", "type": "single_choice", "text": "x", "options": ["a"]}
	]}]}`)
	before := raw.Sections[0].ID.Value
	if _, err := Validate(raw); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if raw.Sections[0].ID.Value != before {
		t.Errorf("raw section id changed to %q", raw.Sections[0].ID.Value)
	}
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Violations: []Violation{
		{Path: "S1", Kind: DuplicateID},
		{Path: "S2/Q1", Kind: InvalidScaleRange, Detail: "5 >= 5"},
	}}
	want := "invalid questionnaire: 2 violations: S1: duplicate_id; S2/Q1: invalid_scale_range (5 >= 5)"
	if got := ve.Error(); got != want {
		t.Errorf("Error() = %q\nwant %q", got, want)
	}
}
