package model

// model.go — Questionnaire data model.
//
// A Questionnaire owns its Sections, a Section owns its Questions, and a
// Question owns its kind-specific Body. Routing values on options are kept
// raw; the derived outcome (continue / terminate / jump) is computed by the
// routing package against the section-id set.
//
// Instances are produced only by Validate. Nothing in this package mutates a
// validated Questionnaire; every edit goes through a fresh Validate pass.

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Top-level types
// ---------------------------------------------------------------------------

// Questionnaire is the validated root artifact.
type Questionnaire struct {
	Summary  ProjectSummary
	Sections []Section
	Notes    *MethodologicalNotes
}

// ProjectSummary is author-supplied metadata. Declared counts are kept
// verbatim even when they disagree with the actual structure.
type ProjectSummary struct {
	ResearchObjective   string
	TargetAudience      string
	Methodology         string
	EstimatedLOIMinutes *int
	TotalQuestions      *int
	PlatformNotes       string
}

// Section groups questions under a routable identifier.
type Section struct {
	ID          string
	Title       string
	Description string
	Questions   []Question
}

// Question is one item of the questionnaire. Body holds the fields that
// depend on Kind; its concrete type always matches Kind.
type Question struct {
	ID                 string
	Kind               Kind
	Text               string
	Required           bool
	Instruction        string
	ProgrammingNote    string
	MethodologicalNote string
	Body               Body
}

// MethodologicalNotes is the optional appendix of a questionnaire.
type MethodologicalNotes struct {
	Sampling        string
	Quotas          string
	Limitations     string
	BiasesMitigated []string
}

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

// Kind is the closed set of question kinds.
type Kind int

const (
	SingleChoice Kind = iota + 1
	MultipleChoice
	ScaleNumeric
	ScaleLikert
	NPS
	Ranking
	OpenText
	Matrix
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{SingleChoice, MultipleChoice, ScaleNumeric, ScaleLikert, NPS, Ranking, OpenText, Matrix}

var kindNames = map[Kind]string{
	SingleChoice:   "single_choice",
	MultipleChoice: "multiple_choice",
	ScaleNumeric:   "scale_numeric",
	ScaleLikert:    "scale_likert",
	NPS:            "nps",
	Ranking:        "ranking",
	OpenText:       "open_text",
	Matrix:         "matrix",
}

// String returns the wire name of k (e.g. "single_choice").
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a wire name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// IsChoice reports whether k carries an option list.
func (k Kind) IsChoice() bool { return k == SingleChoice || k == MultipleChoice }

// IsScale reports whether k carries a numeric range.
func (k Kind) IsScale() bool { return k == ScaleNumeric || k == NPS }

// ---------------------------------------------------------------------------
// Bodies (sealed)
// ---------------------------------------------------------------------------

// Body is the kind-specific part of a Question. Only the types in this
// package implement it.
type Body interface {
	body()
}

// ChoiceBody backs SingleChoice and MultipleChoice.
type ChoiceBody struct {
	Options   []Option
	Randomize bool
}

// ScaleBody backs ScaleNumeric and NPS. The semantic content is the full
// inclusive range [Min, Max].
type ScaleBody struct {
	Min       int
	Max       int
	AnchorMin string
	AnchorMax string
}

// LikertBody backs ScaleLikert.
type LikertBody struct {
	Labels []string
}

// RankingBody backs Ranking.
type RankingBody struct {
	Items []string
}

// OpenTextBody backs OpenText. MaxChars is a display hint only.
type OpenTextBody struct {
	MaxChars *int
}

// MatrixBody backs Matrix.
type MatrixBody struct {
	Rows    []string
	Columns []string
}

func (*ChoiceBody) body()   {}
func (*ScaleBody) body()    {}
func (*LikertBody) body()   {}
func (*RankingBody) body()  {}
func (*OpenTextBody) body() {}
func (*MatrixBody) body()   {}

// DefaultLikertLabels is the five-point agreement scale used when a
// scale_likert question declares no labels.
var DefaultLikertLabels = []string{
	"Strongly disagree",
	"Somewhat disagree",
	"Neither agree nor disagree",
	"Somewhat agree",
	"Strongly agree",
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Option is one answer of a choice question. Routing is the raw routing
// value as authored ("", "CONTINUE", "TERMINATE" or a section id).
type Option struct {
	Code    Code
	Label   string
	Routing string
}

// Code is an option code that was authored either as a number or as a
// string. Value holds the textual form; Numeric records the original shape
// so serialization is lossless.
type Code struct {
	Value   string
	Numeric bool
}

// IntCode returns a numeric code.
func IntCode(n int) Code { return Code{Value: strconv.Itoa(n), Numeric: true} }

// StringCode returns a string code.
func StringCode(s string) Code { return Code{Value: s} }

// String returns the display form of the code. Numeric and string codes
// with the same display form compare equal for uniqueness purposes.
func (c Code) String() string { return c.Value }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// SectionIDs returns the set of section identifiers.
func (q *Questionnaire) SectionIDs() map[string]bool {
	ids := make(map[string]bool, len(q.Sections))
	for _, s := range q.Sections {
		ids[s.ID] = true
	}
	return ids
}

// Section returns the section with the given id.
func (q *Questionnaire) Section(id string) (*Section, bool) {
	for i := range q.Sections {
		if q.Sections[i].ID == id {
			return &q.Sections[i], true
		}
	}
	return nil, false
}

// QuestionCount returns the actual number of questions across all sections.
// It is informational; the declared ProjectSummary.TotalQuestions is never
// replaced by it.
func (q *Questionnaire) QuestionCount() int {
	n := 0
	for _, s := range q.Sections {
		n += len(s.Questions)
	}
	return n
}

// Path returns the entity path of a question, e.g. "S1/S1_Q2".
func (s *Section) Path(q *Question) string {
	return fmt.Sprintf("%s/%s", s.ID, q.ID)
}
