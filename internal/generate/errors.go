package generate

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Provider failure classes. Callers test with errors.Is.
var (
	ErrMissingKey      = errors.New("API key not configured")
	ErrInvalidKey      = errors.New("API key rejected")
	ErrRateLimited     = errors.New("rate limit or quota exceeded")
	ErrEmptyReply      = errors.New("provider returned no text")
	ErrUnknownProvider = errors.New("unknown provider")
)

// StatusError is a non-2xx reply from a provider's HTTP endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	return "status " + strconv.Itoa(e.Code) + ": " + body
}

// classify tags err with ErrInvalidKey or ErrRateLimited when the status
// code or message says so. Other errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMissingKey) || errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrRateLimited) {
		return err
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrInvalidKey, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(strings.ToUpper(msg), "API_KEY"),
		strings.Contains(msg, "401"),
		strings.Contains(msg, "403"):
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	case strings.Contains(msg, "429"),
		strings.Contains(strings.ToLower(msg), "quota"):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return err
}
