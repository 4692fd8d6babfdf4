package api

import (
	"net/http"

	"github.com/salesquery/salesquery/internal/schema"
)

type schemaResponse struct {
	Tables  []schema.Table `json:"tables"`
	Context string         `json:"context"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema source is not configured", false, nil)
		return
	}
	tables, err := deps.Schema.Tables(r.Context())
	if err != nil {
		writeAgentError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{Tables: tables, Context: schema.Format(tables)})
}
