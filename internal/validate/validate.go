package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength is the rune limit applied when none is configured
const DefaultMaxLength = 200

// Result is the outcome of validating a message
type Result struct {
	Valid  bool
	Reason string // may be empty even when Valid is false
}

// Policy decides whether raw text is acceptable to post
type Policy struct {
	maxLength int
	forbidden []string
}

// New creates a validation policy. Forbidden terms match case-insensitively.
func New(maxLength int, forbidden []string) *Policy {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	terms := make([]string, 0, len(forbidden))
	for _, term := range forbidden {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}

	return &Policy{
		maxLength: maxLength,
		forbidden: terms,
	}
}

// Validate checks text against the policy
func (p *Policy) Validate(text string) Result {
	trimmed := strings.TrimSpace(text)

	// Empty input carries no specific reason; callers fall back to their default
	if trimmed == "" {
		return Result{Valid: false}
	}

	if n := utf8.RuneCountInString(trimmed); n > p.maxLength {
		return Result{
			Valid:  false,
			Reason: fmt.Sprintf("Message is too long (%d/%d characters)", n, p.maxLength),
		}
	}

	lower := strings.ToLower(trimmed)
	for _, term := range p.forbidden {
		if strings.Contains(lower, term) {
			return Result{Valid: false, Reason: "Message contains forbidden content"}
		}
	}

	return Result{Valid: true}
}

var (
	tagPattern        = regexp.MustCompile(`<[^<>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Sanitize normalizes accepted text before it enters the feed.
// Sanitize(Sanitize(x)) == Sanitize(x) for every x.
func Sanitize(text string) string {
	s := norm.NFC.String(text)

	// Strip tags until none remain; removing one can expose another
	for {
		stripped := tagPattern.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError {
			return -1
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Removing characters may leave combining sequences that compose differently
	return norm.NFC.String(s)
}
