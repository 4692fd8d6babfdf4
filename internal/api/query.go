package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/salesquery/salesquery/internal/agent"
	"github.com/salesquery/salesquery/internal/nl2sql"
	"github.com/salesquery/salesquery/internal/observability"
	"github.com/salesquery/salesquery/internal/query"
	"github.com/salesquery/salesquery/internal/sqlguard"
)

type questionRequest struct {
	Question string `json:"question"`
}

type sqlRequest struct {
	SQL string `json:"sql"`
}

func handleQuestion(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Answerer == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}

	var request questionRequest
	if !decodeRequest(w, r, &request) {
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	resp, err := deps.Answerer.Ask(r.Context(), request.Question)
	if err != nil {
		writeAgentError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleSQL(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Answerer == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}

	var request sqlRequest
	if !decodeRequest(w, r, &request) {
		return
	}

	resp, err := deps.Answerer.RunSQL(r.Context(), request.SQL)
	if err != nil {
		writeAgentError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return false
	}
	return true
}

// writeAgentError maps pipeline errors onto HTTP statuses. Rejections are the
// caller's problem; anything unclassified is ours.
func writeAgentError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var (
		unanswerable *agent.UnanswerableError
		rejection    *sqlguard.RejectionError
		execErr      *query.ExecutionError
	)
	switch {
	case errors.As(err, &unanswerable):
		writeError(ctx, w, http.StatusBadRequest, "UNANSWERABLE", err.Error(), false, map[string]any{"tables": unanswerable.Tables})
	case errors.Is(err, agent.ErrEmptySQLFromModel):
		writeError(ctx, w, http.StatusBadRequest, "EMPTY_SQL_FROM_MODEL", err.Error(), false, nil)
	case errors.Is(err, agent.ErrEmptyQuestion):
		writeError(ctx, w, http.StatusBadRequest, "QUESTION_REQUIRED", err.Error(), false, nil)
	case errors.As(err, &rejection):
		writeError(ctx, w, http.StatusBadRequest, rejectionCode(rejection), err.Error(), false, nil)
	case errors.As(err, &execErr):
		writeError(ctx, w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", err.Error(), false, map[string]any{"sql": execErr.SQL})
	case errors.Is(err, nl2sql.ErrNoProviderAvailable):
		writeError(ctx, w, http.StatusServiceUnavailable, "NO_PROVIDER", err.Error(), false, nil)
	case errors.Is(err, agent.ErrModelRequest):
		writeError(ctx, w, http.StatusBadGateway, "MODEL_REQUEST_FAILED", err.Error(), true, nil)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(ctx, w, http.StatusGatewayTimeout, "QUERY_TIMEOUT", "query timed out", true, nil)
	default:
		if deps.Logger != nil {
			deps.Logger.ErrorContext(ctx, "request failed",
				"trace_id", observability.TraceIDFromContext(ctx),
				"path", r.URL.Path,
				"error", err,
			)
		}
		writeError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", false, nil)
	}
}

func rejectionCode(rejection *sqlguard.RejectionError) string {
	switch rejection.Reason {
	case sqlguard.ReasonEmptyQuery:
		return "EMPTY_QUERY"
	case sqlguard.ReasonNotASelect:
		return "NOT_A_SELECT"
	case sqlguard.ReasonForbiddenKeyword:
		return "FORBIDDEN_KEYWORD"
	default:
		return "SQL_REJECTED"
	}
}
