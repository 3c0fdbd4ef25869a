// Package plugin defines the contract every generation provider satisfies.
package plugin

import "context"

// ConfigQuestion describes a single configuration prompt for a provider.
type ConfigQuestion struct {
	Key    string
	Prompt string
	Type   string // "text" or "secret"
}

// Config carries the settings a provider needs to make a call.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
}

// Provider is the interface every language-model backend must implement.
type Provider interface {
	// Name returns the provider's canonical short identifier (e.g. "groq").
	Name() string

	// Configure returns the questions the provider needs answered before it can run.
	Configure() ([]ConfigQuestion, error)

	// Complete sends one system + user exchange and returns the raw reply text.
	Complete(ctx context.Context, system, prompt string) (string, error)
}
