package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax marks input that is not JSON or YAML at all.
var ErrSyntax = errors.New("malformed questionnaire")

// ViolationKind classifies a structural defect found by Validate.
type ViolationKind string

const (
	DuplicateID           ViolationKind = "duplicate_id"
	DanglingRoutingTarget ViolationKind = "dangling_routing_target"
	MissingRequiredField  ViolationKind = "missing_required_field"
	InvalidScaleRange     ViolationKind = "invalid_scale_range"
	EmptyOptionSet        ViolationKind = "empty_option_set"
	EmptyMatrixAxis       ViolationKind = "empty_matrix_axis"
	UnknownQuestionKind   ViolationKind = "unknown_question_kind"
	MalformedField        ViolationKind = "malformed_field"
)

// Violation names one defect and the entity it was found on.
// Path is slash-joined: "S1", "S1/S1_Q2", "S1/S1_Q2/option:3".
type Violation struct {
	Path   string        `json:"path" yaml:"path"`
	Kind   ViolationKind `json:"kind" yaml:"kind"`
	Detail string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (v Violation) String() string {
	if v.Detail == "" {
		return fmt.Sprintf("%s: %s", v.Path, v.Kind)
	}
	return fmt.Sprintf("%s: %s (%s)", v.Path, v.Kind, v.Detail)
}

// ValidationError carries the complete defect set of a rejected candidate.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid questionnaire: " + e.Violations[0].String()
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid questionnaire: %d violations: %s", len(e.Violations), strings.Join(parts, "; "))
}

// Has reports whether any violation of kind k is present at path.
// An empty path matches any path.
func (e *ValidationError) Has(k ViolationKind, path string) bool {
	for _, v := range e.Violations {
		if v.Kind == k && (path == "" || v.Path == path) {
			return true
		}
	}
	return false
}
