// Package api implements the HTTP interface of the FLP service. The
// server holds one network instance and solves it on request.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/flp/internal/config"
	"git.solver4all.com/azaryc2s/flp/internal/metrics"
	"git.solver4all.com/azaryc2s/flp/internal/store"
)

// ToursFunc estimates delivery tours for a solved network. It is nil
// when the configured backend cannot solve TSPs.
type ToursFunc func(ds *flp.Dataset, sol *flp.FLPSolution) ([]flp.TourEstimate, error)

type Server struct {
	log      *zap.Logger
	cfg      *config.Config
	inst     *flp.FLPInstance
	ds       *flp.Dataset
	solvers  map[string]flp.Solver
	store    store.Store
	tours    ToursFunc
	limiter  *rate.Limiter
	validate *validator.Validate
}

func New(log *zap.Logger, cfg *config.Config, inst *flp.FLPInstance, ds *flp.Dataset, solvers map[string]flp.Solver, st store.Store, tours ToursFunc) *Server {
	return &Server{
		log:      log,
		cfg:      cfg,
		inst:     inst,
		ds:       ds,
		solvers:  solvers,
		store:    st,
		tours:    tours,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst),
		validate: validator.New(),
	}
}

// Routes builds the router with all middleware and endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(s.log))
	r.Use(Instrument())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/network", s.handleNetwork)
		r.Get("/facilities", s.handleFacilities)
		r.Get("/demand-points", s.handleDemandPoints)

		r.Post("/solve", s.handleSolve)
		r.Get("/solution", s.handleSolution)
		r.Get("/solution/costs", s.handleSolutionCosts)
		r.Get("/solution/routes", s.handleSolutionRoutes)

		r.Post("/scenarios", s.handleScenariosRun)
		r.Get("/scenarios", s.handleScenariosList)
		r.Get("/scenarios/{runID}", s.handleScenarioGet)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// the store is the only external dependency
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
