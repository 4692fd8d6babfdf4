// Package agent answers natural-language questions with one read-only query.
//
// The model's reply is untrusted input. Every candidate passes Decide and the
// SQL gate before it reaches the executor.
package agent

import (
	"errors"
	"strings"

	"github.com/salesquery/salesquery/internal/nl2sql"
	"github.com/salesquery/salesquery/internal/sqlguard"
)

var (
	ErrEmptySQLFromModel = errors.New("model returned an empty SQL query")
	ErrEmptyQuestion     = errors.New("question is required")
	ErrModelRequest      = errors.New("model request failed")
)

const defaultUnanswerableReason = "The question cannot be answered with the available schema."

// UnanswerableError means the question falls outside the schema. Tables lists
// what is available and is filled in by Agent.Ask.
type UnanswerableError struct {
	Explanation string
	Tables      []string
}

func (e *UnanswerableError) Error() string {
	reason := e.Reason()
	if len(e.Tables) == 0 {
		return reason
	}
	return reason + " Available tables: " + strings.Join(e.Tables, ", ") + "."
}

// Reason is the model's explanation, or a default when it gave none.
func (e *UnanswerableError) Reason() string {
	if reason := strings.TrimSpace(e.Explanation); reason != "" {
		return reason
	}
	return defaultUnanswerableReason
}

// Decide turns a candidate into executable SQL or a typed rejection. The
// is_answerable flag is honored first, whatever the sql field holds.
func Decide(c nl2sql.Candidate) (string, error) {
	if !c.IsAnswerable {
		return "", &UnanswerableError{Explanation: c.Explanation}
	}
	if sqlguard.Normalize(c.SQL) == "" {
		return "", ErrEmptySQLFromModel
	}
	return sqlguard.Validate(c.SQL)
}
