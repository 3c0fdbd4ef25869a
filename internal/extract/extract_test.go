package extract

// extract_test.go — Candidate order and failure reporting.

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(t *testing.T, raw json.RawMessage, key string) any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[key]
}

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": "bare"}`, "bare"},
		{"json fence", "Here you go:\n```json\n{\"a\": \"fenced\"}\n```\nEnjoy.", "fenced"},
		{"plain fence", "```\n{\"a\": \"plain\"}\n```", "plain"},
		{"prose around", `Sure! {"a": "prose"} Let me know.`, "prose"},
		{"brace in string", `{"a": "has } brace", "b": 1}`, "has } brace"},
		{"escaped quote", `{"a": "say \"}\" ok"}`, `say "}" ok`},
		{"fence wins over earlier object", "{\"a\": \"first\"} then ```json\n{\"a\": \"fence\"}\n```", "fence"},
		{"second object when first broken", `{"a": oops} and {"a": "good"}`, "good"},
		{"nested", `x {"a": "outer", "n": {"b": {"c": 1}}} y`, "outer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Extract(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, field(t, raw, "a"))
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		reason error
	}{
		{"empty", "   ", ErrEmpty},
		{"no braces", "I cannot help with that.", ErrNoObject},
		{"malformed", `{"a": 1,}`, ErrMalformed},
		{"unbalanced", `{"a": {"b": 1}`, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(tc.in)
			var ee *Error
			require.True(t, errors.As(err, &ee), "got %v", err)
			assert.ErrorIs(t, err, tc.reason)
		})
	}
}

func TestError_Snippet(t *testing.T) {
	long := ""
	for range 20 {
		long += "no json here "
	}
	_, err := Extract(long)
	var ee *Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, snippetLen+1, len([]rune(ee.Snippet)))
	assert.Contains(t, err.Error(), "no JSON object found")
}
