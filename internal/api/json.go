package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/flp/internal/store"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// writeError maps the engine error types to problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		valErr    *flp.ValidationError
		cfgErr    *flp.ConfigError
		solverErr *flp.SolverError
		solErr    *flp.InconsistentSolutionError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not found", err.Error(), r.URL.Path)
	case errors.As(err, &valErr):
		writeProblem(w, http.StatusBadRequest, "Invalid dataset", err.Error(), r.URL.Path)
	case errors.As(err, &cfgErr):
		writeProblem(w, http.StatusBadRequest, "Invalid solve configuration", err.Error(), r.URL.Path)
	case errors.As(err, &solverErr):
		writeProblem(w, http.StatusBadGateway, "Solver failure", err.Error(), r.URL.Path)
	case errors.As(err, &solErr):
		writeProblem(w, http.StatusInternalServerError, "Inconsistent solution", err.Error(), r.URL.Path)
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal error", err.Error(), r.URL.Path)
	}
}
