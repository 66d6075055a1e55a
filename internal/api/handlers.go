package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/flp/internal/metrics"
)

// NetworkSummary describes the loaded instance.
type NetworkSummary struct {
	Name         string  `json:"name"`
	Comment      string  `json:"comment,omitempty"`
	Facilities   int     `json:"facilities"`
	DemandPoints int     `json:"demand_points"`
	Lanes        int     `json:"lanes"`
	TotalDemand  float64 `json:"total_demand"`
}

// SolveRequest configures a single solve. Nil numeric fields inherit
// the server configuration.
type SolveRequest struct {
	Backend          string   `json:"backend" validate:"omitempty,oneof=gurobi highs"`
	TimeLimitSeconds *float64 `json:"time_limit_seconds" validate:"omitempty,gte=0"`
	MaxFacilities    *int     `json:"max_facilities" validate:"omitempty,gte=0"`
	Capacity         *float64 `json:"capacity" validate:"omitempty,gte=0"`
	Tours            bool     `json:"tours"`
}

// ScenarioRequest configures a facility cap sweep.
type ScenarioRequest struct {
	Backend          string   `json:"backend" validate:"omitempty,oneof=gurobi highs"`
	TimeLimitSeconds *float64 `json:"time_limit_seconds" validate:"omitempty,gte=0"`
	Caps             []int    `json:"caps" validate:"required,min=1,max=64"`
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NetworkSummary{
		Name:         s.inst.Name,
		Comment:      s.inst.Comment,
		Facilities:   s.ds.NumFacilities(),
		DemandPoints: s.ds.NumDemandPoints(),
		Lanes:        len(s.inst.Lanes),
		TotalDemand:  s.ds.TotalDemand(),
	})
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ds.Facilities())
}

func (s *Server) handleDemandPoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ds.DemandPoints())
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Too many requests", "solve rate limit exceeded", r.URL.Path)
		return
	}

	var req SolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body", err.Error(), r.URL.Path)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", validationDetail(err), r.URL.Path)
		return
	}

	backend, solver, err := s.pickSolver(req.Backend)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Unknown backend", err.Error(), r.URL.Path)
		return
	}
	cfg := s.solveConfig(req.TimeLimitSeconds, req.MaxFacilities, req.Capacity)

	start := time.Now()
	out, err := flp.Optimize(s.ds, cfg, solver)
	metrics.SolveDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Solves.WithLabelValues(backend, string(flp.STATUS_ERROR)).Inc()
		writeError(w, r, err)
		return
	}
	metrics.Solves.WithLabelValues(backend, string(out.Status)).Inc()

	if out.Solution != nil {
		if req.Tours {
			s.estimateTours(out.Solution)
		}
		if err := s.store.PutSolution(r.Context(), out.Solution); err != nil {
			writeError(w, r, err)
			return
		}
		metrics.SolutionCost.Set(out.Solution.TotalCost)
		s.log.Info("solved instance",
			zap.String("backend", backend),
			zap.String("status", string(out.Status)),
			zap.Strings("open", out.Solution.Open),
			zap.Float64("total_cost", out.Solution.TotalCost),
		)
	} else {
		s.log.Warn("solve finished without a solution",
			zap.String("backend", backend),
			zap.String("status", string(out.Status)),
			zap.String("comment", out.Comment),
		)
	}

	writeJSON(w, http.StatusOK, out)
}

// estimateTours attaches delivery tour estimates when a TSP backend is
// available. Failures only leave a note on the solution.
func (s *Server) estimateTours(sol *flp.FLPSolution) {
	if s.tours == nil {
		sol.Comment += "Route estimation is not available on this server. "
		return
	}
	tours, err := s.tours(s.ds, sol)
	if err != nil {
		s.log.Warn("tour estimation failed", zap.Error(err))
		sol.Comment += fmt.Sprintf("Couldn't estimate delivery tours: %s. ", err.Error())
		return
	}
	sol.Tours = tours
}

func (s *Server) handleSolution(w http.ResponseWriter, r *http.Request) {
	sol, err := s.store.Solution(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

func (s *Server) handleSolutionCosts(w http.ResponseWriter, r *http.Request) {
	sol, err := s.store.Solution(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sol.Breakdown())
}

func (s *Server) handleSolutionRoutes(w http.ResponseWriter, r *http.Request) {
	sol, err := s.store.Solution(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(sol.Tours) == 0 {
		writeProblem(w, http.StatusNotFound, "No route estimates",
			"solve with tours enabled first", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, sol.Tours)
}

func (s *Server) handleScenariosRun(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Too many requests", "solve rate limit exceeded", r.URL.Path)
		return
	}

	var req ScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body", err.Error(), r.URL.Path)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request", validationDetail(err), r.URL.Path)
		return
	}

	backend, solver, err := s.pickSolver(req.Backend)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Unknown backend", err.Error(), r.URL.Path)
		return
	}
	base := s.solveConfig(req.TimeLimitSeconds, nil, nil)

	runner := flp.Runner{Solver: solver, Workers: s.cfg.Workers, Log: s.log}
	res := runner.Run(s.ds, base, req.Caps)
	res.RunID = uuid.New().String()
	for _, e := range res.Entries {
		metrics.Solves.WithLabelValues(backend, string(e.Status)).Inc()
	}

	if err := s.store.PutSweep(r.Context(), res); err != nil {
		writeError(w, r, err)
		return
	}
	s.log.Info("scenario sweep finished",
		zap.String("run_id", res.RunID),
		zap.String("backend", backend),
		zap.Ints("caps", req.Caps),
	)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleScenariosList(w http.ResponseWriter, r *http.Request) {
	sums, err := s.store.Sweeps(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sums})
}

func (s *Server) handleScenarioGet(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.Sweep(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// pickSolver resolves the backend name, falling back to the configured
// default.
func (s *Server) pickSolver(backend string) (string, flp.Solver, error) {
	if backend == "" {
		backend = s.cfg.Backend
	}
	solver, ok := s.solvers[backend]
	if !ok {
		return "", nil, fmt.Errorf("backend %s is not available", backend)
	}
	return backend, solver, nil
}

// solveConfig merges request overrides with the server defaults.
func (s *Server) solveConfig(timeLimit *float64, maxFacilities *int, capacity *float64) flp.Config {
	cfg := flp.Config{
		TimeLimit:     time.Duration(s.cfg.TimeLimitSeconds * float64(time.Second)),
		MaxFacilities: s.cfg.MaxFacilities,
		Capacity:      s.cfg.Capacity,
	}
	if timeLimit != nil {
		cfg.TimeLimit = time.Duration(*timeLimit * float64(time.Second))
	}
	if maxFacilities != nil {
		cfg.MaxFacilities = *maxFacilities
	}
	if capacity != nil {
		cfg.Capacity = *capacity
	}
	return cfg
}

// decodeJSON reads the request body, treating an empty body as an
// empty request.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// validationDetail turns validator errors into readable messages.
func validationDetail(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, e.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s entries", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must have at most %s entries", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
