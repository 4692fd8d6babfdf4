package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/salesquery/salesquery/internal/chart"
	"github.com/salesquery/salesquery/internal/nl2sql"
	"github.com/salesquery/salesquery/internal/observability"
	"github.com/salesquery/salesquery/internal/query"
	"github.com/salesquery/salesquery/internal/schema"
	"github.com/salesquery/salesquery/internal/sqlguard"
)

type Introspector interface {
	ListTables(ctx context.Context) ([]string, error)
	Tables(ctx context.Context) ([]schema.Table, error)
}

type Config struct {
	// Dialect is the display name given to the model, e.g. "SQLite".
	Dialect      string
	ModelTimeout time.Duration
}

type Agent struct {
	Introspector Introspector
	Executor     query.Executor
	Proposer     nl2sql.Proposer
	Config       Config
	Logger       *slog.Logger
}

type Response struct {
	SQL       string       `json:"sql"`
	Results   []query.Row  `json:"results"`
	ChartData chart.Series `json:"chart_data"`
}

// Ask translates question into SQL, validates it and runs it read-only.
func (a *Agent) Ask(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, ErrEmptyQuestion
	}
	if a.Proposer == nil {
		return Response{}, nl2sql.ErrNoProviderAvailable
	}

	tables, err := a.Introspector.Tables(ctx)
	if err != nil {
		observability.ObserveQuestion(observability.OutcomeFailed)
		return Response{}, fmt.Errorf("load schema: %w", err)
	}

	candidate, err := a.propose(ctx, nl2sql.Request{
		Question:      question,
		SchemaContext: schema.Format(tables),
		Dialect:       a.dialect(),
	})
	if err != nil {
		observability.ObserveQuestion(observability.OutcomeModelError)
		a.logger().WarnContext(ctx, "model request failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("provider", a.Proposer.Provider()),
			slog.Any("error", err),
		)
		return Response{}, fmt.Errorf("%w: %w", ErrModelRequest, err)
	}

	sqlText, err := Decide(candidate)
	if err != nil {
		var unanswerable *UnanswerableError
		if errors.As(err, &unanswerable) {
			names, listErr := a.Introspector.ListTables(ctx)
			if listErr != nil {
				return Response{}, fmt.Errorf("list tables: %w", listErr)
			}
			unanswerable.Tables = names
		}
		a.reject(ctx, question, candidate.SQL, err)
		return Response{}, err
	}

	resp, err := a.run(ctx, sqlText)
	if err != nil {
		observability.ObserveQuestion(observability.OutcomeFailed)
		return Response{}, err
	}

	observability.ObserveQuestion(observability.OutcomeAnswered)
	a.logger().InfoContext(ctx, "question_answered",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("provider", a.Proposer.Provider()),
		slog.String("sql", sqlText),
		slog.Int("rows", len(resp.Results)),
	)
	return resp, nil
}

// RunSQL validates caller-supplied SQL and runs it without a model round trip.
func (a *Agent) RunSQL(ctx context.Context, sqlText string) (Response, error) {
	validated, err := sqlguard.Validate(sqlText)
	if err != nil {
		observability.ObserveSQLRejection(sqlguard.Reason(err))
		a.logger().InfoContext(ctx, "sql_rejected",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("reason", sqlguard.Reason(err)),
			slog.Any("error", err),
		)
		return Response{}, err
	}
	return a.run(ctx, validated)
}

func (a *Agent) propose(ctx context.Context, req nl2sql.Request) (nl2sql.Candidate, error) {
	if a.Config.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.ModelTimeout)
		defer cancel()
	}
	candidate, err := a.Proposer.Propose(ctx, req)
	observability.ObserveModelRequest(a.Proposer.Provider(), err)
	return candidate, err
}

func (a *Agent) run(ctx context.Context, sqlText string) (Response, error) {
	start := time.Now()
	result, err := a.Executor.Execute(ctx, sqlText)
	observability.ObserveQuery(time.Since(start), err)
	if err != nil {
		return Response{}, err
	}
	rows := result.Rows
	if rows == nil {
		rows = []query.Row{}
	}
	return Response{
		SQL:       sqlText,
		Results:   rows,
		ChartData: chart.Project(rows),
	}, nil
}

func (a *Agent) reject(ctx context.Context, question, candidateSQL string, err error) {
	observability.ObserveQuestion(observability.OutcomeRejected)

	reason := sqlguard.Reason(err)
	var unanswerable *UnanswerableError
	switch {
	case errors.As(err, &unanswerable):
		reason = "unanswerable"
	case errors.Is(err, ErrEmptySQLFromModel):
		reason = "empty_sql_from_model"
	default:
		observability.ObserveSQLRejection(reason)
	}

	a.logger().InfoContext(ctx, "question_rejected",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("reason", reason),
		slog.String("question", question),
		slog.String("candidate_sql", candidateSQL),
		slog.Any("error", err),
	)
}

func (a *Agent) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

func (a *Agent) dialect() string {
	if a.Config.Dialect == "" {
		return "SQLite"
	}
	return a.Config.Dialect
}
