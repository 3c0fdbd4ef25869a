package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestServer() *Server {
	return New(Options{Now: func() time.Time { return fixedNow }})
}

func sample(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "sample.json"))
	require.NoError(t, err)
	return data
}

func do(s *Server, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestValidate_WrappedReply(t *testing.T) {
	body := "Here is your questionnaire:\n```json\n" + string(sample(t)) + "\n```\nLet me know!"
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/validate", "text/plain", []byte(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got, "project_summary")
	assert.Contains(t, got, "sections")
}

func TestValidate_YAMLSkipsExtraction(t *testing.T) {
	src := `project_summary:
  research_objective: R
sections:
  - id: S1
    title: Only
    questions:
      - id: Q1
        type: open_text
        text: Anything else?
`
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/validate", "application/yaml", []byte(src))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Anything else?"`)
}

func TestValidate_NoObject(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/validate", "text/plain", []byte("sorry, I cannot help"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "EXTRACTION_FAILED", got["code"])
}

func TestValidate_BrokenYAML(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/validate", "application/yaml", []byte("sections: [unclosed"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "PARSE_FAILED", got["code"])
}

func TestValidate_Violations(t *testing.T) {
	src := `{"project_summary":{"research_objective":"R"},"sections":[
		{"id":"S1","title":"A","questions":[{"id":"Q1","type":"single_choice","text":"?",
			"options":[{"code":1,"text":"Yes","routing":"S9"}]}]}]}`
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/validate", "application/json", []byte(src))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got struct {
		Code       string `json:"code"`
		Violations []struct {
			Path string `json:"path"`
			Kind string `json:"kind"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "INVALID_QUESTIONNAIRE", got.Code)
	require.NotEmpty(t, got.Violations)
	assert.Equal(t, "S1/Q1/option:1", got.Violations[0].Path)
}

func TestPreview_JSON(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/preview", "application/json", sample(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Stats struct {
			TotalQuestions  string
			ActualQuestions int
		}
		Sections []struct {
			ID        string
			Collapsed bool
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "9", got.Stats.TotalQuestions)
	assert.Equal(t, 8, got.Stats.ActualQuestions)
	require.Len(t, got.Sections, 3)
	for _, s := range got.Sections {
		assert.False(t, s.Collapsed, "section %s should be expanded", s.ID)
	}
}

func TestPreview_Markdown(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/preview?format=md", "application/json", sample(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, rec.Body.String(), "S1")
}

func TestDocument(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/document?date=2025-01-02", "application/json", sample(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, docxMIME, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "20250102")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["word/document.xml"])
}

func TestDocument_DefaultsToClock(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/document", "application/json", sample(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "20260314")
}

func TestDocument_BadDate(t *testing.T) {
	rec := do(newTestServer(), http.MethodPost, "/v1/questionnaires/document?date=yesterday", "application/json", sample(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_DATE")
}

func TestBodyTooLarge(t *testing.T) {
	s := New(Options{MaxBody: 16})
	rec := do(s, http.MethodPost, "/v1/questionnaires/validate", "application/json", sample(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestServer(), http.MethodGet, "/v1/questionnaires/validate", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
