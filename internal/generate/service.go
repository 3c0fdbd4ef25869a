// Package generate drafts and refines questionnaires through a language-model
// provider.
//
// Every reply, whether a first draft or a refinement, takes the same path:
// provider → extract.Extract → model.Parse → model.Validate. A reply that
// fails any step never replaces the caller's current questionnaire.
package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"qdesigner/internal/extract"
	"qdesigner/internal/logging"
	"qdesigner/internal/model"
	"qdesigner/internal/plugin"
	"qdesigner/internal/settings"
)

// Service runs generation and refinement against one provider.
type Service struct {
	provider plugin.Provider
	logger   *zap.Logger
}

// NewService returns a Service backed by p.
func NewService(p plugin.Provider, logger *zap.Logger) *Service {
	return &Service{provider: p, logger: logging.OrNop(logger)}
}

// Provider returns the backing provider.
func (s *Service) Provider() plugin.Provider { return s.provider }

// Generate drafts a questionnaire from project context and brief settings.
func (s *Service) Generate(ctx context.Context, projectContext string, b Brief) (*model.Questionnaire, error) {
	if strings.TrimSpace(projectContext) == "" {
		return nil, fmt.Errorf("generate: project context is empty")
	}
	return s.run(ctx, "generate", GenerationPrompt(projectContext, b))
}

// Refine applies natural-language feedback to current. current is left
// untouched; the result is a fresh, validated questionnaire.
func (s *Service) Refine(ctx context.Context, current *model.Questionnaire, feedback string) (*model.Questionnaire, error) {
	if current == nil {
		return nil, fmt.Errorf("refine: no current questionnaire")
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, fmt.Errorf("refine: feedback is empty")
	}
	canonical, err := model.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("refine: marshal current: %w", err)
	}
	return s.run(ctx, "refine", RefinementPrompt(canonical, feedback))
}

func (s *Service) run(ctx context.Context, op, prompt string) (*model.Questionnaire, error) {
	log := s.logger.With(zap.String("op", op), zap.String("provider", s.provider.Name()))
	log.Info("requesting questionnaire", zap.Int("prompt_len", len(prompt)))

	reply, err := s.provider.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, s.provider.Name(), err)
	}
	q, err := Decode(reply)
	if err != nil {
		log.Warn("reply rejected", zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("questionnaire accepted",
		zap.Int("sections", len(q.Sections)),
		zap.Int("questions", q.QuestionCount()))
	return q, nil
}

// Decode turns free-form model output into a validated questionnaire.
func Decode(reply string) (*model.Questionnaire, error) {
	obj, err := extract.Extract(reply)
	if err != nil {
		return nil, err
	}
	raw, err := model.Parse(obj)
	if err != nil {
		return nil, err
	}
	return model.Validate(raw)
}

// NewProvider builds the provider named by st. baseURL overrides the Groq
// endpoint and is ignored for Gemini.
func NewProvider(ctx context.Context, st *settings.Settings, baseURL string, logger *zap.Logger) (plugin.Provider, error) {
	cfg := plugin.Config{
		APIKey:      st.APIKey(),
		Model:       st.Model,
		Temperature: st.Temperature,
		MaxTokens:   st.MaxTokens,
	}
	switch st.Provider {
	case settings.ProviderGroq:
		return NewGroq(cfg, baseURL, logger), nil
	case settings.ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, st.Provider)
	}
}
