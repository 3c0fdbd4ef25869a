// Package routing classifies option routing values.
//
// A routing value is what an author writes next to an answer option: nothing,
// CONTINUE, TERMINATE, or the id of a section to jump to. Resolve turns it
// into an Outcome against the set of section ids of one questionnaire.
package routing

import (
	"fmt"
	"strings"
)

// Tokens recognised in routing values. Matching ignores case and
// surrounding whitespace.
const (
	TokenContinue  = "CONTINUE"
	TokenTerminate = "TERMINATE"
)

// Action is the kind of an Outcome.
type Action int

const (
	Continue Action = iota
	Terminate
	JumpTo
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Terminate:
		return "terminate"
	case JumpTo:
		return "jump"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Outcome is the derived result of selecting an option. Target is set only
// for JumpTo.
type Outcome struct {
	Action Action
	Target string
}

// DanglingTargetError reports a routing value naming no known section.
type DanglingTargetError struct {
	Target string
}

func (e *DanglingTargetError) Error() string {
	return fmt.Sprintf("routing target %q is not a known section", e.Target)
}

// Resolve classifies raw against known. Absent and blank values continue
// silently. Any value that is neither token must be a member of known.
func Resolve(raw string, known map[string]bool) (Outcome, error) {
	v := strings.TrimSpace(raw)
	switch {
	case v == "", strings.EqualFold(v, TokenContinue):
		return Outcome{Action: Continue}, nil
	case strings.EqualFold(v, TokenTerminate):
		return Outcome{Action: Terminate}, nil
	case known[v]:
		return Outcome{Action: JumpTo, Target: v}, nil
	}
	return Outcome{}, &DanglingTargetError{Target: v}
}
