package session

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdesigner/internal/generate"
	"qdesigner/internal/model"
)

type stubGenerator struct {
	q   *model.Questionnaire
	err error

	gotContext  string
	gotFeedback string
}

func (g *stubGenerator) Generate(_ context.Context, projectContext string, _ generate.Brief) (*model.Questionnaire, error) {
	g.gotContext = projectContext
	return g.q, g.err
}

func (g *stubGenerator) Refine(_ context.Context, _ *model.Questionnaire, feedback string) (*model.Questionnaire, error) {
	g.gotFeedback = feedback
	return g.q, g.err
}

func sample(t *testing.T) *model.Questionnaire {
	t.Helper()
	data, err := os.ReadFile("../../testdata/sample.json")
	require.NoError(t, err)
	raw, err := model.Parse(data)
	require.NoError(t, err)
	q, err := model.Validate(raw)
	require.NoError(t, err)
	return q
}

func TestAddContext(t *testing.T) {
	s := New()
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, StepSetup, s.Step)

	s1 := s.AddContext("--- Document: brief.txt ---\nCommuters")
	s2 := s1.AddContext("  Focus on e-bikes  ")
	s3 := s2.AddContext("   ")

	assert.Empty(t, s.Context)
	assert.Equal(t, "--- Document: brief.txt ---\nCommuters", s1.Context)
	assert.Equal(t, "--- Document: brief.txt ---\nCommuters\n\n--- Additional context ---\nFocus on e-bikes", s2.Context)
	assert.Equal(t, s2.Context, s3.Context)
}

func TestGenerate(t *testing.T) {
	q := sample(t)
	g := &stubGenerator{q: q}

	_, err := New().Generate(context.Background(), g, generate.Brief{})
	require.Error(t, err)

	s := New().AddContext("ctx")
	next, err := s.Generate(context.Background(), g, generate.Brief{})
	require.NoError(t, err)
	assert.Same(t, q, next.Current)
	assert.Equal(t, StepGenerated, next.Step)
	assert.Equal(t, "ctx", g.gotContext)
	assert.Nil(t, s.Current)
}

func TestRefineSuccess(t *testing.T) {
	first, second := sample(t), sample(t)
	s, err := New().AddContext("ctx").Generate(context.Background(), &stubGenerator{q: first}, generate.Brief{})
	require.NoError(t, err)

	g := &stubGenerator{q: second}
	next, err := s.Refine(context.Background(), g, " Drop the matrix ")
	require.NoError(t, err)

	assert.Equal(t, "Drop the matrix", g.gotFeedback)
	assert.Same(t, second, next.Current)
	assert.Same(t, first, s.Current)
	assert.Equal(t, StepRefining, next.Step)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "Drop the matrix"},
		{Role: RoleAssistant, Content: UpdatedMessage},
	}, next.Chat)
	assert.Empty(t, s.Chat)
}

func TestRefineFailureKeepsCurrent(t *testing.T) {
	first := sample(t)
	s, err := New().AddContext("ctx").Generate(context.Background(), &stubGenerator{q: first}, generate.Brief{})
	require.NoError(t, err)

	boom := errors.New("no JSON object found")
	next, err := s.Refine(context.Background(), &stubGenerator{err: boom}, "make it shorter")
	require.ErrorIs(t, err, boom)

	assert.Same(t, first, next.Current)
	assert.Equal(t, StepGenerated, next.Step)
	require.Len(t, next.Chat, 2)
	assert.Equal(t, "Error: no JSON object found. Try rephrasing.", next.Chat[1].Content)
}

func TestRefineWithoutCurrent(t *testing.T) {
	g := &stubGenerator{}
	_, err := New().Refine(context.Background(), g, "anything")
	require.Error(t, err)
	assert.Empty(t, g.gotFeedback)
}

func TestApplyJSON(t *testing.T) {
	data, err := os.ReadFile("../../testdata/sample.json")
	require.NoError(t, err)

	next, err := New().ApplyJSON(string(data))
	require.NoError(t, err)
	require.NotNil(t, next.Current)
	assert.Equal(t, StepGenerated, next.Step)

	bad := `{"project_summary":{"research_objective":"x"},"sections":[]}`
	kept, err := next.ApplyJSON(bad)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Same(t, next.Current, kept.Current)

	_, err = next.ApplyJSON("not json at all {")
	require.Error(t, err)
}

func TestReset(t *testing.T) {
	s := New().AddContext("ctx")
	r := s.Reset()
	assert.NotEqual(t, s.ID, r.ID)
	assert.Empty(t, r.Context)
	assert.Nil(t, r.Current)
	assert.Equal(t, StepSetup, r.Step)
}
