package generate

// gemini.go — Gemini provider over google.golang.org/genai.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"qdesigner/internal/logging"
	"qdesigner/internal/plugin"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini implements plugin.Provider for the Gemini API.
type Gemini struct {
	cfg    plugin.Config
	client *genai.Client
	logger *zap.Logger
}

// NewGemini creates the genai client. A missing key is reported on the first
// Complete call rather than here so Configure stays usable.
func NewGemini(ctx context.Context, cfg plugin.Config, logger *zap.Logger) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	g := &Gemini{cfg: cfg, logger: logging.OrNop(logger)}
	if cfg.APIKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Configure() ([]plugin.ConfigQuestion, error) {
	return []plugin.ConfigQuestion{
		{Key: "GEMINI_API_KEY", Prompt: "Gemini API key (https://aistudio.google.com/apikey)", Type: "secret"},
		{Key: "model", Prompt: "Model [" + DefaultGeminiModel + "]", Type: "text"},
	}, nil
}

// Complete sends the prompt with system as the system instruction.
func (g *Gemini) Complete(ctx context.Context, system, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrMissingKey
	}
	start := time.Now()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens:   g.cfg.MaxTokens,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		g.logger.Warn("gemini request failed", zap.Error(err))
		return "", classify(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyReply
	}
	g.logger.Debug("gemini completion",
		zap.String("model", g.cfg.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_len", len(text)))
	return text, nil
}
