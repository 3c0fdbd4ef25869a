package layout

// layout_test.go — Recipes, routing annotations and the scale column rule.

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdesigner/internal/model"
	"qdesigner/internal/routing"
)

var known = map[string]bool{"S1": true, "S2": true, "S3": true}

func TestScaleGrid(t *testing.T) {
	cases := []struct {
		name     string
		lo, hi   int
		wantCols int
		want     []string
	}{
		{"five points", 1, 5, 5, []string{"1", "2", "3", "4", "5"}},
		{"eleven points", 0, 10, 11, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}},
		{"twenty-one points", 0, 20, 11, []string{"0", "", "", "", "", "", "", "", "", "", "20"}},
		{"negative range", -3, 3, 7, []string{"-3", "-2", "-1", "0", "1", "2", "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := ScaleGrid(tc.lo, tc.hi)
			assert.Equal(t, tc.wantCols, g.Columns())
			assert.Equal(t, tc.want, g.Labels)
			assert.Equal(t, tc.hi-tc.lo+1, g.Points)
			assert.Equal(t, g.Points > MaxScaleColumns, g.Truncated())
		})
	}
}

func TestScaleGrid_WideRanges(t *testing.T) {
	cases := []struct {
		name   string
		lo, hi int
	}{
		{"full int range", math.MinInt, math.MaxInt},
		{"span past int", -5e18, 5e18},
		{"max int upper", 0, math.MaxInt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := ScaleGrid(tc.lo, tc.hi)
			require.Equal(t, MaxScaleColumns, g.Columns())
			assert.Equal(t, strconv.Itoa(tc.lo), g.Labels[0])
			assert.Equal(t, strconv.Itoa(tc.hi), g.Labels[MaxScaleColumns-1])
			assert.True(t, g.Truncated())
		})
	}
}

func TestRecipe_ChoiceAnnotations(t *testing.T) {
	q := &model.Question{ID: "S1_Q1", Kind: model.SingleChoice, Body: &model.ChoiceBody{
		Options: []model.Option{
			{Code: model.IntCode(1), Label: "Yes", Routing: "CONTINUE"},
			{Code: model.IntCode(2), Label: "No", Routing: "TERMINATE"},
			{Code: model.StringCode("X"), Label: "Skip", Routing: "S3"},
			{Code: model.IntCode(4), Label: "Plain"},
		},
	}}
	b, err := Recipe(q, known)
	require.NoError(t, err)
	l, ok := b.(*ChoiceList)
	require.True(t, ok, "got %T", b)

	assert.Equal(t, MarkerSingle, l.Marker)
	assert.Empty(t, l.Banner)
	require.Len(t, l.Items, 4)
	assert.Equal(t, "", l.Items[0].Annotation)
	assert.Equal(t, "→ END", l.Items[1].Annotation)
	assert.Equal(t, routing.Terminate, l.Items[1].Outcome.Action)
	assert.Equal(t, "→ Go to S3", l.Items[2].Annotation)
	assert.Equal(t, "", l.Items[3].Annotation)
	assert.Equal(t, "○  2. No", l.Line(l.Items[1]))
	assert.Equal(t, ColorTerminate, AnnotationColor(l.Items[1]))
	assert.Equal(t, ColorSkip, AnnotationColor(l.Items[2]))
}

func TestRecipe_MultipleRandomized(t *testing.T) {
	q := &model.Question{ID: "Q", Kind: model.MultipleChoice, Body: &model.ChoiceBody{
		Randomize: true,
		Options:   []model.Option{{Code: model.IntCode(1), Label: "A"}},
	}}
	b, err := Recipe(q, known)
	require.NoError(t, err)
	l := b.(*ChoiceList)
	assert.Equal(t, MarkerMultiple, l.Marker)
	assert.Equal(t, RandomizeBanner, l.Banner)
}

// NPS 0-10 draws eleven columns with anchors at the first and last.
func TestRecipe_NPS(t *testing.T) {
	q := &model.Question{ID: "Q", Kind: model.NPS, Body: &model.ScaleBody{
		Min: 0, Max: 10, AnchorMin: "Not at all likely", AnchorMax: "Extremely likely",
	}}
	b, err := Recipe(q, known)
	require.NoError(t, err)
	s := b.(*ScaleTable)
	assert.Equal(t, 11, s.Grid.Columns())
	assert.Equal(t, "0", s.Grid.Labels[0])
	assert.Equal(t, "10", s.Grid.Labels[10])
	assert.True(t, s.HasAnchors())
}

func TestRecipe_OtherKinds(t *testing.T) {
	limit := 200
	cases := []struct {
		name  string
		q     *model.Question
		check func(t *testing.T, b Body)
	}{
		{"likert", &model.Question{Kind: model.ScaleLikert, Body: &model.LikertBody{Labels: model.DefaultLikertLabels}},
			func(t *testing.T, b Body) {
				l := b.(*NumberedList)
				assert.Equal(t, "○  1. Strongly disagree", l.Line(0))
			}},
		{"ranking", &model.Question{Kind: model.Ranking, Body: &model.RankingBody{Items: []string{"A", "B"}}},
			func(t *testing.T, b Body) {
				r := b.(*RankList)
				assert.Equal(t, RankCaption, r.Caption)
				assert.Len(t, r.Items, 2)
			}},
		{"ranking no items", &model.Question{Kind: model.Ranking, Body: &model.RankingBody{}},
			func(t *testing.T, b Body) {
				assert.Equal(t, RankingUnset, b.(*Placeholder).Text)
			}},
		{"open text limited", &model.Question{Kind: model.OpenText, Body: &model.OpenTextBody{MaxChars: &limit}},
			func(t *testing.T, b Body) {
				assert.Equal(t, "Maximum: 200 characters", b.(*TextField).Caption)
			}},
		{"open text free", &model.Question{Kind: model.OpenText, Body: &model.OpenTextBody{}},
			func(t *testing.T, b Body) {
				assert.Empty(t, b.(*TextField).Caption)
			}},
		{"matrix", &model.Question{Kind: model.Matrix, Body: &model.MatrixBody{Rows: []string{"r"}, Columns: []string{"a", "b"}}},
			func(t *testing.T, b Body) {
				m := b.(*MatrixGrid)
				assert.Equal(t, MatrixCell, m.Cell)
			}},
		{"matrix no columns", &model.Question{Kind: model.Matrix, Body: &model.MatrixBody{Rows: []string{"r"}}},
			func(t *testing.T, b Body) {
				assert.Equal(t, MatrixUnset, b.(*Placeholder).Text)
			}},
		{"matrix no rows", &model.Question{Kind: model.Matrix, Body: &model.MatrixBody{Columns: []string{"c"}}},
			func(t *testing.T, b Body) {
				assert.IsType(t, &Placeholder{}, b)
			}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Recipe(tc.q, known)
			require.NoError(t, err)
			tc.check(t, b)
		})
	}
}

func TestRecipe_DanglingRouteFails(t *testing.T) {
	q := &model.Question{ID: "Q1", Kind: model.SingleChoice, Body: &model.ChoiceBody{
		Options: []model.Option{
			{Code: model.IntCode(1), Label: "Yes"},
			{Code: model.IntCode(2), Label: "Elsewhere", Routing: "S9"},
		},
	}}
	b, err := Recipe(q, map[string]bool{"S1": true})
	assert.Nil(t, b)
	var dangling *routing.DanglingTargetError
	require.True(t, errors.As(err, &dangling), "got %v", err)
	assert.Equal(t, "S9", dangling.Target)
	assert.Contains(t, err.Error(), "option 2")
}

func TestRecipe_NilBody(t *testing.T) {
	_, err := Recipe(&model.Question{ID: "Q9"}, known)
	assert.True(t, errors.Is(err, ErrUnknownBody))
}

func TestKindLabelsCoverEveryKind(t *testing.T) {
	for _, k := range model.Kinds {
		assert.NotEqual(t, k.String(), KindLabel(k), "missing label for %s", k)
		assert.NotEqual(t, "❓", KindGlyph(k), "missing glyph for %s", k)
	}
}
