package generate

// groq.go — Groq provider over the OpenAI-compatible chat completions API.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"qdesigner/internal/logging"
	"qdesigner/internal/plugin"
)

// Groq defaults.
const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// Groq implements plugin.Provider for the Groq chat completions endpoint.
type Groq struct {
	cfg        plugin.Config
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewGroq returns a Groq provider. An empty baseURL selects the public API.
func NewGroq(cfg plugin.Config, baseURL string, logger *zap.Logger) *Groq {
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	return &Groq{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 3 * time.Minute},
		logger:     logging.OrNop(logger),
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Configure() ([]plugin.ConfigQuestion, error) {
	return []plugin.ConfigQuestion{
		{Key: "GROQ_API_KEY", Prompt: "Groq API key (https://console.groq.com/keys)", Type: "secret"},
		{Key: "model", Prompt: "Model [" + DefaultGroqModel + "]", Type: "text"},
	}, nil
}

// Complete sends one system + user exchange.
func (g *Groq) Complete(ctx context.Context, system, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", ErrMissingKey
	}
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("groq request failed", zap.Int("status", resp.StatusCode))
		return "", classify(&StatusError{Code: resp.StatusCode, Body: string(data)})
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if out.Error != nil {
		return "", classify(fmt.Errorf("API error: %s", out.Error.Message))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	text := out.Choices[0].Message.Content
	g.logger.Debug("groq completion",
		zap.String("model", g.cfg.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_len", len(text)))
	return text, nil
}
