// Package validate turns raw search request parameters into a SearchQuery.
package validate

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CodeValidation is the machine-readable code carried by every Error.
const CodeValidation = "VALIDATION_ERROR"

const (
	MinQueryLen  = 2
	MaxQueryLen  = 200
	DefaultLimit = 5
	MinLimit     = 1
	MaxLimit     = 10
)

// Error describes malformed user input.
type Error struct {
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func invalid(field, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// SearchQuery is a validated search request.
type SearchQuery struct {
	Text      string
	Limit     int
	Providers []string
}

// ParseQuery validates q, limit and sources. defaults is used when sources is
// absent or empty. The returned error, when non-nil, is always an *Error.
func ParseQuery(params url.Values, defaults []string) (SearchQuery, error) {
	raw, ok := params["q"]
	if !ok || len(raw) == 0 {
		return SearchQuery{}, invalid("q", "q is required")
	}
	text, err := ParseText(raw[0])
	if err != nil {
		return SearchQuery{}, err
	}
	providers := ParseProviders(params.Get("sources"))
	if len(providers) == 0 {
		providers = dedupe(defaults)
	}
	return SearchQuery{
		Text:      text,
		Limit:     ParseLimit(params.Get("limit")),
		Providers: providers,
	}, nil
}

// ParseText trims and NFC-normalizes the query and enforces its length in
// characters.
func ParseText(raw string) (string, error) {
	text := norm.NFC.String(strings.TrimSpace(raw))
	n := utf8.RuneCountInString(text)
	switch {
	case n < MinQueryLen:
		return "", invalid("q", "q must contain at least %d characters", MinQueryLen)
	case n > MaxQueryLen:
		return "", invalid("q", "q must contain at most %d characters", MaxQueryLen)
	}
	return text, nil
}

// ParseLimit reads limit as a number. Missing, non-numeric and zero values
// fall back to DefaultLimit; anything else, including values too large to
// represent, is clamped into [MinLimit, MaxLimit].
func ParseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLimit
	}
	f, ok := parseNumber(raw)
	if !ok || math.IsNaN(f) || f == 0 {
		return DefaultLimit
	}
	f = math.Max(MinLimit, math.Min(MaxLimit, f))
	return int(f)
}

// parseNumber accepts decimal and exponent notation plus unsigned 0x, 0o and
// 0b integer literals. Out-of-range input yields ±Inf.
func parseNumber(raw string) (float64, bool) {
	if len(raw) > 2 && raw[0] == '0' {
		base := 0
		switch raw[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(raw[2:], base, 64)
			switch {
			case errors.Is(err, strconv.ErrRange):
				return math.Inf(1), true
			case err != nil:
				return 0, false
			}
			return float64(u), true
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// ParseProviders splits a comma-separated provider list. Entries are trimmed
// and lower-cased; empty entries and repeats are dropped.
func ParseProviders(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return dedupe(strings.Split(raw, ","))
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
