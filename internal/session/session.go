// Package session holds the state of one interactive design session:
// accumulated project context, the current questionnaire and the refine chat.
//
// State is a value. Every operation returns a new State and leaves its
// receiver untouched, so a failed step can never corrupt the caller's copy.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"qdesigner/internal/generate"
	"qdesigner/internal/model"
)

// Step is where the session stands.
type Step string

const (
	StepSetup     Step = "setup"
	StepGenerated Step = "generated"
	StepRefining  Step = "refining"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Messages appended to the chat.
const (
	ContextSeparator = "\n\n--- Additional context ---\n"
	UpdatedMessage   = "Questionnaire updated."
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is a snapshot of a session.
type State struct {
	ID      uuid.UUID
	Step    Step
	Current *model.Questionnaire
	Chat    []Message
	Context string
}

// Generator is the part of generate.Service a session drives.
type Generator interface {
	Generate(ctx context.Context, projectContext string, b generate.Brief) (*model.Questionnaire, error)
	Refine(ctx context.Context, current *model.Questionnaire, feedback string) (*model.Questionnaire, error)
}

// New starts an empty session.
func New() State {
	return State{ID: uuid.New(), Step: StepSetup}
}

// clone copies the mutable slices so the returned State shares nothing
// appendable with s.
func (s State) clone() State {
	s.Chat = append([]Message(nil), s.Chat...)
	return s
}

// AddContext appends manually entered context. Reference documents become
// the first block; later additions are separated by a marker line.
func (s State) AddContext(text string) State {
	text = strings.TrimSpace(text)
	if text == "" {
		return s
	}
	out := s.clone()
	if out.Context == "" {
		out.Context = text
	} else {
		out.Context += ContextSeparator + text
	}
	return out
}

// Generate drafts the first questionnaire from the accumulated context.
func (s State) Generate(ctx context.Context, g Generator, b generate.Brief) (State, error) {
	if strings.TrimSpace(s.Context) == "" {
		return s, fmt.Errorf("session: add reference documents or context first")
	}
	q, err := g.Generate(ctx, s.Context, b)
	if err != nil {
		return s, err
	}
	out := s.clone()
	out.Current = q
	out.Step = StepGenerated
	return out, nil
}

// Refine sends feedback for the current questionnaire. The exchange is
// recorded in the chat whether or not it succeeds; Current changes only
// on success. The returned error is the refinement failure, if any.
func (s State) Refine(ctx context.Context, g Generator, feedback string) (State, error) {
	if s.Current == nil {
		return s, fmt.Errorf("session: nothing to refine yet")
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return s, fmt.Errorf("session: feedback is empty")
	}
	out := s.clone()
	out.Chat = append(out.Chat, Message{Role: RoleUser, Content: feedback})

	q, err := g.Refine(ctx, s.Current, feedback)
	if err != nil {
		out.Chat = append(out.Chat, Message{Role: RoleAssistant, Content: FailureMessage(err)})
		return out, err
	}
	out.Current = q
	out.Step = StepRefining
	out.Chat = append(out.Chat, Message{Role: RoleAssistant, Content: UpdatedMessage})
	return out, nil
}

// FailureMessage is the chat reply recorded for a failed refinement.
func FailureMessage(err error) string {
	return fmt.Sprintf("Error: %v. Try rephrasing.", err)
}

// ApplyJSON replaces Current with a directly edited questionnaire. The text
// goes through the same parse and validate path as a model reply.
func (s State) ApplyJSON(text string) (State, error) {
	raw, err := model.Parse([]byte(text))
	if err != nil {
		return s, err
	}
	q, err := model.Validate(raw)
	if err != nil {
		return s, err
	}
	out := s.clone()
	out.Current = q
	if out.Step == StepSetup {
		out.Step = StepGenerated
	}
	return out, nil
}

// Reset starts over with a new session id.
func (s State) Reset() State {
	return New()
}
