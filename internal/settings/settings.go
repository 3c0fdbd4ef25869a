// Package settings loads qdesigner configuration.
//
// settings.go — configuration loaded from .qdesigner/settings.yaml, a .env
// file and the process environment, in increasing order of precedence.
//
// The permissions block is a deny list of glob patterns that controls which
// reference files content extraction may read. Patterns may be written as
// bare globs ("drafts/**") or wrapped in a Read() verb
// ("Read(./drafts/**)").
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Dir is the per-workspace configuration directory.
const Dir = ".qdesigner"

// Provider names.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Settings holds qdesigner configuration.
type Settings struct {
	Provider    string      `yaml:"provider"`
	Model       string      `yaml:"model,omitempty"`
	Temperature float32     `yaml:"temperature"`
	MaxTokens   int32       `yaml:"max_tokens"`
	LogLevel    string      `yaml:"log_level,omitempty"`
	StorePath   string      `yaml:"store_path,omitempty"`
	ServerAddr  string      `yaml:"server_addr"`
	Permissions Permissions `yaml:"permissions"`

	// API keys come from the environment only and are never written back.
	GeminiAPIKey string `yaml:"-"`
	GroqAPIKey   string `yaml:"-"`
}

// Permissions controls which reference files qdesigner reads.
type Permissions struct {
	// Deny is a list of glob patterns for files qdesigner should not read.
	// Example: ["Read(./private/**)"]
	Deny []string `yaml:"deny"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Provider:    ProviderGroq,
		Temperature: 0.4,
		MaxTokens:   8192,
		LogLevel:    "info",
		ServerAddr:  "127.0.0.1:8080",
	}
}

// Path returns the settings file location under root.
func Path(root string) string { return filepath.Join(root, Dir, "settings.yaml") }

// Load reads settings relative to root. A missing settings file or .env
// file is not an error; the defaults apply.
func Load(root string) (*Settings, error) {
	s := Default()
	path := Path(root)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	envPath := filepath.Join(root, ".env")
	if _, err := os.Stat(envPath); err == nil {
		dotenv, err = godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", envPath, err)
		}
	}
	if err := s.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("QDESIGNER_PROVIDER", &s.Provider)
	str("QDESIGNER_MODEL", &s.Model)
	str("QDESIGNER_LOG_LEVEL", &s.LogLevel)
	str("QDESIGNER_STORE", &s.StorePath)
	str("QDESIGNER_ADDR", &s.ServerAddr)
	str("GEMINI_API_KEY", &s.GeminiAPIKey)
	str("GROQ_API_KEY", &s.GroqAPIKey)

	if v, ok := lookup("QDESIGNER_TEMPERATURE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("QDESIGNER_TEMPERATURE: %w", err)
		}
		s.Temperature = float32(f)
	}
	if v, ok := lookup("QDESIGNER_MAX_TOKENS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("QDESIGNER_MAX_TOKENS: %w", err)
		}
		s.MaxTokens = int32(n)
	}
	return nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	switch s.Provider {
	case ProviderGroq, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", s.Provider, ProviderGroq, ProviderGemini)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", s.Temperature)
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", s.MaxTokens)
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (s *Settings) APIKey() string {
	if s.Provider == ProviderGemini {
		return s.GeminiAPIKey
	}
	return s.GroqAPIKey
}

// Save writes s to root/.qdesigner/settings.yaml. API keys are not written.
func (s *Settings) Save(root string) error {
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// IsDenied reports whether relPath (forward-slash, relative to root) matches
// any deny rule. Safe to call on a nil *Settings receiver.
func (s *Settings) IsDenied(relPath string) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.Permissions.Deny {
		if matchDenyPattern(parseDenyRule(rule), relPath) {
			return true
		}
	}
	return false
}

// parseDenyRule extracts the path glob from a deny rule.
//
//	"Read(./private/**)" → "private/**"
//	"private/**"         → "private/**"
func parseDenyRule(rule string) string {
	if strings.HasPrefix(rule, "Read(") && strings.HasSuffix(rule, ")") {
		rule = rule[5 : len(rule)-1]
	}
	return strings.TrimPrefix(rule, "./")
}

// matchDenyPattern reports whether path matches a deny glob pattern.
//
// "prefix/**" matches the prefix directory itself and every path beneath it.
// All other patterns use filepath.Match semantics (single * does not cross /).
func matchDenyPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
