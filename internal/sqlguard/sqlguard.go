// Package sqlguard decides whether a candidate SQL string may be executed.
//
// The checks are lexical. They are a first layer only; executors must still
// run accepted statements in a read-only execution mode.
package sqlguard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmptyQuery       = errors.New("empty query")
	ErrNotASelect       = errors.New("only SELECT queries are allowed")
	ErrForbiddenKeyword = errors.New("forbidden keyword")
)

// Reason codes carried by RejectionError.
const (
	ReasonEmptyQuery       = "empty_query"
	ReasonNotASelect       = "not_a_select"
	ReasonForbiddenKeyword = "forbidden_keyword"
)

const emptyTokenMarker = "(empty)"

// ForbiddenKeywords is checked in order; the first standalone match wins.
var ForbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "TRUNCATE", "EXEC", "EXECUTE",
}

var keywordPatterns = compileKeywordPatterns(ForbiddenKeywords)

type RejectionError struct {
	Reason  string
	Token   string
	Keyword string
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonEmptyQuery:
		return "empty query"
	case ReasonNotASelect:
		return fmt.Sprintf("only SELECT queries are allowed, got: %s", e.Token)
	case ReasonForbiddenKeyword:
		return fmt.Sprintf("forbidden keyword detected: %s", e.Keyword)
	default:
		return "query rejected"
	}
}

func (e *RejectionError) Is(target error) bool {
	switch target {
	case ErrEmptyQuery:
		return e.Reason == ReasonEmptyQuery
	case ErrNotASelect:
		return e.Reason == ReasonNotASelect
	case ErrForbiddenKeyword:
		return e.Reason == ReasonForbiddenKeyword
	}
	return false
}

// Normalize trims whitespace and one trailing statement terminator.
func Normalize(raw string) string {
	out := strings.TrimSpace(raw)
	out = strings.TrimSuffix(out, ";")
	return strings.TrimSpace(out)
}

// Validate returns the normalized statement when it is a single SELECT free
// of denylisted keywords.
func Validate(raw string) (string, error) {
	normalized := Normalize(raw)
	if normalized == "" {
		return "", &RejectionError{Reason: ReasonEmptyQuery}
	}

	upper := strings.ToUpper(normalized)
	if !strings.HasPrefix(upper, "SELECT") {
		return "", &RejectionError{Reason: ReasonNotASelect, Token: firstToken(normalized)}
	}

	if keyword, ok := findForbiddenKeyword(upper); ok {
		return "", &RejectionError{Reason: ReasonForbiddenKeyword, Keyword: keyword}
	}
	return normalized, nil
}

// Reason reports the rejection reason code of err, or "" when err is not a
// gate rejection.
func Reason(err error) string {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason
	}
	return ""
}

func findForbiddenKeyword(upper string) (string, bool) {
	for i, pattern := range keywordPatterns {
		if pattern.MatchString(upper) {
			return ForbiddenKeywords[i], true
		}
	}
	return "", false
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return emptyTokenMarker
	}
	return fields[0]
}

func compileKeywordPatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, keyword := range keywords {
		patterns = append(patterns, regexp.MustCompile(`(^|[^A-Z0-9_])`+regexp.QuoteMeta(keyword)+`([^A-Z0-9_]|$)`))
	}
	return patterns
}
