// Package nl2sql asks a language model to turn a question into a candidate
// SQL statement. Candidates are untrusted; callers must validate them.
package nl2sql

import (
	"context"
	"errors"
)

var (
	ErrNoProviderAvailable = errors.New("no language model provider available")
	ErrMalformedResponse   = errors.New("malformed model response")
)

type Request struct {
	Question      string
	SchemaContext string
	// Dialect is a display name such as "SQLite" or "PostgreSQL".
	Dialect string
}

// Candidate is the structured answer the model is asked to produce.
type Candidate struct {
	IsAnswerable bool   `json:"is_answerable" yaml:"is_answerable"`
	SQL          string `json:"sql" yaml:"sql"`
	Explanation  string `json:"explanation" yaml:"explanation"`
}

type Proposer interface {
	Propose(ctx context.Context, req Request) (Candidate, error)
	Provider() string
	Model() string
}

// ProposerFunc adapts a function to Proposer. Useful for tests and stubs.
type ProposerFunc func(ctx context.Context, req Request) (Candidate, error)

func (f ProposerFunc) Propose(ctx context.Context, req Request) (Candidate, error) {
	return f(ctx, req)
}

func (f ProposerFunc) Provider() string { return "func" }

func (f ProposerFunc) Model() string { return "" }
