package model

// wire.go — Input decoding and canonical serialization.
//
// Raw is the tolerant shape of an untrusted questionnaire value. Generated
// output is loose about scalars (ids as numbers, integers as strings,
// options as bare strings) so Raw accepts those shapes and leaves judgment
// to Validate. Parse fails only when the bytes are not JSON/YAML at all.
//
// Marshal emits the canonical shape. For every validated q:
//   Validate(Parse(Marshal(q))) == q

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Raw (input) shape
// ---------------------------------------------------------------------------

// Raw is a parsed but unvalidated questionnaire.
type Raw struct {
	ProjectSummary      *rawSummary `json:"project_summary" yaml:"project_summary"`
	Sections            []rawSection `json:"sections" yaml:"sections"`
	MethodologicalNotes *rawNotes    `json:"methodological_notes" yaml:"methodological_notes"`
}

type rawSummary struct {
	ResearchObjective   flexString `json:"research_objective" yaml:"research_objective"`
	TargetAudience      flexString `json:"target_audience" yaml:"target_audience"`
	Methodology         flexString `json:"methodology" yaml:"methodology"`
	EstimatedLOIMinutes flexInt    `json:"estimated_loi_minutes" yaml:"estimated_loi_minutes"`
	TotalQuestions      flexInt    `json:"total_questions" yaml:"total_questions"`
	PlatformNotes       flexString `json:"platform_notes" yaml:"platform_notes"`
}

type rawSection struct {
	ID          flexString    `json:"id" yaml:"id"`
	Title       flexString    `json:"title" yaml:"title"`
	Description flexString    `json:"description" yaml:"description"`
	Questions   []rawQuestion `json:"questions" yaml:"questions"`
}

type rawQuestion struct {
	ID                 flexString  `json:"id" yaml:"id"`
	Type               flexString  `json:"type" yaml:"type"`
	Text               flexString  `json:"text" yaml:"text"`
	Instruction        flexString  `json:"instruction" yaml:"instruction"`
	Required           flexBool    `json:"required" yaml:"required"`
	RandomizeOptions   flexBool    `json:"randomize_options" yaml:"randomize_options"`
	Options            []rawOption `json:"options" yaml:"options"`
	Labels             []rawLabel  `json:"labels" yaml:"labels"`
	Items              []rawLabel  `json:"items" yaml:"items"`
	Rows               []rawLabel  `json:"rows" yaml:"rows"`
	Columns            []rawLabel  `json:"columns" yaml:"columns"`
	ScalePoints        []rawLabel  `json:"scale_points" yaml:"scale_points"`
	ScaleMin           flexInt     `json:"scale_min" yaml:"scale_min"`
	ScaleMax           flexInt     `json:"scale_max" yaml:"scale_max"`
	AnchorMin          flexString  `json:"anchor_min" yaml:"anchor_min"`
	AnchorMax          flexString  `json:"anchor_max" yaml:"anchor_max"`
	MaxChars           flexInt     `json:"max_chars" yaml:"max_chars"`
	ProgrammingNote    flexString  `json:"programming_note" yaml:"programming_note"`
	MethodologicalNote flexString  `json:"methodological_note" yaml:"methodological_note"`
}

type rawNotes struct {
	Sampling        flexString `json:"sampling" yaml:"sampling"`
	Quotas          flexString `json:"quotas" yaml:"quotas"`
	Limitations     flexString `json:"limitations" yaml:"limitations"`
	BiasesMitigated []rawLabel `json:"biases_mitigated" yaml:"biases_mitigated"`
}

// Parse decodes JSON or YAML bytes into a Raw value. Input starting with
// '{' is treated as JSON; anything else as YAML.
func Parse(data []byte) (*Raw, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parse questionnaire: %w: empty input", ErrSyntax)
	}
	var raw Raw
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("parse questionnaire json: %w: %w", ErrSyntax, err)
		}
		return &raw, nil
	}
	if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("parse questionnaire yaml: %w: %w", ErrSyntax, err)
	}
	return &raw, nil
}

// ---------------------------------------------------------------------------
// Flexible scalars
// ---------------------------------------------------------------------------

// flexString accepts a string or a number. Anything else marks it Bad.
type flexString struct {
	Value string
	Set   bool
	Bad   bool
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	*f = flexString{}
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
	case strings.HasPrefix(s, `"`):
		if err := json.Unmarshal(b, &f.Value); err != nil {
			return err
		}
		f.Set = true
	case isJSONNumber(s):
		f.Value, f.Set = s, true
	default:
		f.Bad = true
	}
	return nil
}

func (f *flexString) UnmarshalYAML(n *yaml.Node) error {
	*f = flexString{}
	if n.Kind != yaml.ScalarNode {
		f.Bad = true
		return nil
	}
	if n.Tag == "!!null" {
		return nil
	}
	f.Value, f.Set = n.Value, true
	return nil
}

// text returns the trimmed value.
func (f flexString) text() string { return strings.TrimSpace(f.Value) }

// flexInt accepts an integer, an integral float, or a numeric string.
type flexInt struct {
	Value int
	Set   bool
	Bad   bool
	Raw   string
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = flexInt{}
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return nil
		}
	}
	f.setFrom(s)
	return nil
}

func (f *flexInt) UnmarshalYAML(n *yaml.Node) error {
	*f = flexInt{}
	if n.Kind != yaml.ScalarNode {
		f.Bad, f.Raw = true, "non-scalar"
		return nil
	}
	s := strings.TrimSpace(n.Value)
	if n.Tag == "!!null" || s == "" {
		return nil
	}
	f.setFrom(s)
	return nil
}

func (f *flexInt) setFrom(s string) {
	f.Raw = s
	if n, err := strconv.Atoi(s); err == nil {
		f.Value, f.Set = n, true
		return
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == math.Trunc(v) && math.Abs(v) < math.MaxInt32 {
		f.Value, f.Set = int(v), true
		return
	}
	f.Bad = true
}

// ptr returns a pointer to the value, or nil when unset.
func (f flexInt) ptr() *int {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// flexBool accepts a bool or the strings "true"/"false".
type flexBool struct {
	Value bool
	Set   bool
	Bad   bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	*f = flexBool{}
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f.parse(s)
	return nil
}

func (f *flexBool) UnmarshalYAML(n *yaml.Node) error {
	*f = flexBool{}
	if n.Kind != yaml.ScalarNode {
		f.Bad = true
		return nil
	}
	f.parse(n.Value)
	return nil
}

func (f *flexBool) parse(s string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "":
	case "true", "yes":
		f.Value, f.Set = true, true
	case "false", "no":
		f.Set = true
	default:
		f.Bad = true
	}
}

// or returns the value, or def when unset.
func (f flexBool) or(def bool) bool {
	if !f.Set {
		return def
	}
	return f.Value
}

// rawLabel accepts a bare string/number or an object with a "text" field.
type rawLabel struct {
	Text string
	Bad  bool
}

func (l *rawLabel) UnmarshalJSON(b []byte) error {
	*l = rawLabel{}
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "{") {
		var obj struct {
			Text  flexString `json:"text"`
			Label flexString `json:"label"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		l.Text = firstSet(obj.Text, obj.Label)
		return nil
	}
	var fs flexString
	if err := fs.UnmarshalJSON(b); err != nil {
		return err
	}
	l.Text, l.Bad = fs.text(), fs.Bad
	return nil
}

func (l *rawLabel) UnmarshalYAML(n *yaml.Node) error {
	*l = rawLabel{}
	if n.Kind == yaml.MappingNode {
		var obj struct {
			Text  flexString `yaml:"text"`
			Label flexString `yaml:"label"`
		}
		if err := n.Decode(&obj); err != nil {
			return err
		}
		l.Text = firstSet(obj.Text, obj.Label)
		return nil
	}
	var fs flexString
	if err := fs.UnmarshalYAML(n); err != nil {
		return err
	}
	l.Text, l.Bad = fs.text(), fs.Bad
	return nil
}

// rawOption is a choice option: either an object {code, text, routing} or a
// bare label, in which case the code is assigned from its position.
type rawOption struct {
	Code    flexCode
	Text    string
	Routing flexString
	Bare    bool
	Bad     bool
}

type rawOptionObject struct {
	Code    flexCode   `json:"code" yaml:"code"`
	Text    flexString `json:"text" yaml:"text"`
	Label   flexString `json:"label" yaml:"label"`
	Routing flexString `json:"routing" yaml:"routing"`
}

func (o *rawOption) UnmarshalJSON(b []byte) error {
	*o = rawOption{}
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "{") {
		var obj rawOptionObject
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		o.fromObject(obj)
		return nil
	}
	var fs flexString
	if err := fs.UnmarshalJSON(b); err != nil {
		return err
	}
	o.Text, o.Bare, o.Bad = fs.text(), true, fs.Bad
	return nil
}

func (o *rawOption) UnmarshalYAML(n *yaml.Node) error {
	*o = rawOption{}
	if n.Kind == yaml.MappingNode {
		var obj rawOptionObject
		if err := n.Decode(&obj); err != nil {
			return err
		}
		o.fromObject(obj)
		return nil
	}
	var fs flexString
	if err := fs.UnmarshalYAML(n); err != nil {
		return err
	}
	o.Text, o.Bare, o.Bad = fs.text(), true, fs.Bad
	return nil
}

func (o *rawOption) fromObject(obj rawOptionObject) {
	o.Code = obj.Code
	o.Text = firstSet(obj.Text, obj.Label)
	o.Routing = obj.Routing
	o.Bad = obj.Routing.Bad
}

// flexCode is an option code that remembers whether it was numeric.
type flexCode struct {
	Code Code
	Set  bool
	Bad  bool
}

func (f *flexCode) UnmarshalJSON(b []byte) error {
	*f = flexCode{}
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if str = strings.TrimSpace(str); str != "" {
			f.Code, f.Set = StringCode(str), true
		}
	case isJSONNumber(s):
		f.Code, f.Set = Code{Value: s, Numeric: true}, true
	default:
		f.Bad = true
	}
	return nil
}

func (f *flexCode) UnmarshalYAML(n *yaml.Node) error {
	*f = flexCode{}
	if n.Kind != yaml.ScalarNode {
		f.Bad = true
		return nil
	}
	v := strings.TrimSpace(n.Value)
	switch n.Tag {
	case "!!null":
	case "!!int", "!!float":
		if c, ok := yamlNumber(n); ok {
			f.Code, f.Set = c, true
		} else {
			f.Code, f.Set = StringCode(v), true
		}
	default:
		if v != "" {
			f.Code, f.Set = StringCode(v), true
		}
	}
	return nil
}

// yamlNumber decodes an int or float node into a code holding the
// canonical decimal text, so 0x1F becomes 31 and +1 becomes 1. Values
// JSON cannot carry (.inf, .nan, ints past 64 bits) are not numbers here.
func yamlNumber(n *yaml.Node) (Code, bool) {
	if n.Tag == "!!int" {
		var i int64
		if err := n.Decode(&i); err == nil {
			return Code{Value: strconv.FormatInt(i, 10), Numeric: true}, true
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return Code{Value: strconv.FormatUint(u, 10), Numeric: true}, true
		}
		return Code{}, false
	}
	var fl float64
	if err := n.Decode(&fl); err != nil || math.IsInf(fl, 0) || math.IsNaN(fl) {
		return Code{}, false
	}
	return Code{Value: strconv.FormatFloat(fl, 'g', -1, 64), Numeric: true}, true
}

func firstSet(values ...flexString) string {
	for _, v := range values {
		if t := v.text(); t != "" {
			return t
		}
	}
	return ""
}

func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	return json.Valid([]byte(s)) && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9'))
}

// ---------------------------------------------------------------------------
// Canonical (output) shape
// ---------------------------------------------------------------------------

type wireQuestionnaire struct {
	ProjectSummary      wireSummary   `json:"project_summary" yaml:"project_summary"`
	Sections            []wireSection `json:"sections" yaml:"sections"`
	MethodologicalNotes *wireNotes    `json:"methodological_notes,omitempty" yaml:"methodological_notes,omitempty"`
}

type wireSummary struct {
	ResearchObjective   string `json:"research_objective" yaml:"research_objective"`
	TargetAudience      string `json:"target_audience" yaml:"target_audience"`
	Methodology         string `json:"methodology" yaml:"methodology"`
	EstimatedLOIMinutes *int   `json:"estimated_loi_minutes,omitempty" yaml:"estimated_loi_minutes,omitempty"`
	TotalQuestions      *int   `json:"total_questions,omitempty" yaml:"total_questions,omitempty"`
	PlatformNotes       string `json:"platform_notes,omitempty" yaml:"platform_notes,omitempty"`
}

type wireSection struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Questions   []wireQuestion `json:"questions" yaml:"questions"`
}

type wireQuestion struct {
	ID                 string   `json:"id" yaml:"id"`
	Type               string   `json:"type" yaml:"type"`
	Text               string   `json:"text" yaml:"text"`
	Instruction        string   `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	Required           bool     `json:"required" yaml:"required"`
	RandomizeOptions   bool     `json:"randomize_options,omitempty" yaml:"randomize_options,omitempty"`
	Options            any      `json:"options,omitempty" yaml:"options,omitempty"`
	ScaleMin           *int     `json:"scale_min,omitempty" yaml:"scale_min,omitempty"`
	ScaleMax           *int     `json:"scale_max,omitempty" yaml:"scale_max,omitempty"`
	AnchorMin          string   `json:"anchor_min,omitempty" yaml:"anchor_min,omitempty"`
	AnchorMax          string   `json:"anchor_max,omitempty" yaml:"anchor_max,omitempty"`
	Items              []string `json:"items,omitempty" yaml:"items,omitempty"`
	Rows               []string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Columns            []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	MaxChars           *int     `json:"max_chars,omitempty" yaml:"max_chars,omitempty"`
	ProgrammingNote    string   `json:"programming_note,omitempty" yaml:"programming_note,omitempty"`
	MethodologicalNote string   `json:"methodological_note,omitempty" yaml:"methodological_note,omitempty"`
}

type wireOption struct {
	Code    Code   `json:"code" yaml:"code"`
	Text    string `json:"text" yaml:"text"`
	Routing string `json:"routing,omitempty" yaml:"routing,omitempty"`
}

type wireNotes struct {
	Sampling        string   `json:"sampling,omitempty" yaml:"sampling,omitempty"`
	Quotas          string   `json:"quotas,omitempty" yaml:"quotas,omitempty"`
	BiasesMitigated []string `json:"biases_mitigated,omitempty" yaml:"biases_mitigated,omitempty"`
	Limitations     string   `json:"limitations,omitempty" yaml:"limitations,omitempty"`
}

// MarshalJSON writes numeric codes as JSON numbers and the rest as strings.
func (c Code) MarshalJSON() ([]byte, error) {
	if c.Numeric && isJSONNumber(c.Value) {
		return []byte(c.Value), nil
	}
	return json.Marshal(c.Value)
}

// MarshalYAML keeps the numeric/string distinction through a tagged node.
func (c Code) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: c.Value, Tag: "!!str"}
	if c.Numeric {
		n.Tag = "!!float"
		if _, err := strconv.Atoi(c.Value); err == nil {
			n.Tag = "!!int"
		}
	}
	return n, nil
}

// Marshal serializes q as indented canonical JSON.
func Marshal(q *Questionnaire) ([]byte, error) {
	data, err := json.MarshalIndent(toWire(q), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal questionnaire: %w", err)
	}
	return data, nil
}

// MarshalYAML serializes q as canonical YAML.
func MarshalYAML(q *Questionnaire) ([]byte, error) {
	data, err := yaml.Marshal(toWire(q))
	if err != nil {
		return nil, fmt.Errorf("marshal questionnaire yaml: %w", err)
	}
	return data, nil
}

func toWire(q *Questionnaire) wireQuestionnaire {
	w := wireQuestionnaire{
		ProjectSummary: wireSummary{
			ResearchObjective:   q.Summary.ResearchObjective,
			TargetAudience:      q.Summary.TargetAudience,
			Methodology:         q.Summary.Methodology,
			EstimatedLOIMinutes: q.Summary.EstimatedLOIMinutes,
			TotalQuestions:      q.Summary.TotalQuestions,
			PlatformNotes:       q.Summary.PlatformNotes,
		},
		Sections: make([]wireSection, 0, len(q.Sections)),
	}
	for _, s := range q.Sections {
		ws := wireSection{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Questions:   make([]wireQuestion, 0, len(s.Questions)),
		}
		for _, qu := range s.Questions {
			ws.Questions = append(ws.Questions, questionToWire(qu))
		}
		w.Sections = append(w.Sections, ws)
	}
	if n := q.Notes; n != nil {
		w.MethodologicalNotes = &wireNotes{
			Sampling:        n.Sampling,
			Quotas:          n.Quotas,
			BiasesMitigated: n.BiasesMitigated,
			Limitations:     n.Limitations,
		}
	}
	return w
}

func questionToWire(q Question) wireQuestion {
	wq := wireQuestion{
		ID:                 q.ID,
		Type:               q.Kind.String(),
		Text:               q.Text,
		Instruction:        q.Instruction,
		Required:           q.Required,
		ProgrammingNote:    q.ProgrammingNote,
		MethodologicalNote: q.MethodologicalNote,
	}
	switch b := q.Body.(type) {
	case *ChoiceBody:
		opts := make([]wireOption, len(b.Options))
		for i, o := range b.Options {
			opts[i] = wireOption{Code: o.Code, Text: o.Label, Routing: o.Routing}
		}
		wq.Options = opts
		wq.RandomizeOptions = b.Randomize
	case *ScaleBody:
		lo, hi := b.Min, b.Max
		wq.ScaleMin, wq.ScaleMax = &lo, &hi
		wq.AnchorMin, wq.AnchorMax = b.AnchorMin, b.AnchorMax
	case *LikertBody:
		wq.Options = b.Labels
	case *RankingBody:
		wq.Items = b.Items
	case *OpenTextBody:
		wq.MaxChars = b.MaxChars
	case *MatrixBody:
		wq.Rows, wq.Columns = b.Rows, b.Columns
	}
	return wq
}
