// Package validator checks and cleans user questions before they reach the
// model.
package validator

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// spaceRegexp is compiled once at package init and reused across all Sanitize calls.
var spaceRegexp = regexp.MustCompile(`\s+`)

// ErrInvalidQuestion wraps every validation failure.
var ErrInvalidQuestion = errors.New("invalid question")

type InputValidator struct {
	maxLength int
	minLength int
	policy    *bluemonday.Policy
}

func NewInputValidator() *InputValidator {
	return &InputValidator{
		maxLength: 2000,
		minLength: 3,
		policy:    bluemonday.StrictPolicy(),
	}
}

// Validate checks encoding and length. Length is counted in characters.
func (v *InputValidator) Validate(query string) error {
	if !utf8.ValidString(query) {
		return fmt.Errorf("%w: invalid UTF-8 encoding", ErrInvalidQuestion)
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("%w: question is empty", ErrInvalidQuestion)
	}

	n := utf8.RuneCountInString(trimmed)
	if n < v.minLength {
		return fmt.Errorf("%w: too short, minimum %d characters", ErrInvalidQuestion, v.minLength)
	}
	if n > v.maxLength {
		return fmt.Errorf("%w: too long, maximum %d characters", ErrInvalidQuestion, v.maxLength)
	}

	return nil
}

// Sanitize strips markup and collapses whitespace.
func (v *InputValidator) Sanitize(query string) string {
	query = html.UnescapeString(v.policy.Sanitize(query))
	query = strings.TrimSpace(query)
	query = spaceRegexp.ReplaceAllString(query, " ")
	return query
}

// Clean sanitizes query and validates what remains. Markup-only input is
// rejected as empty.
func (v *InputValidator) Clean(query string) (string, error) {
	if !utf8.ValidString(query) {
		return "", fmt.Errorf("%w: invalid UTF-8 encoding", ErrInvalidQuestion)
	}
	clean := v.Sanitize(query)
	if err := v.Validate(clean); err != nil {
		return "", err
	}
	return clean, nil
}
