package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/flp/internal/config"
	"git.solver4all.com/azaryc2s/flp/internal/store"
)

// stubSolver answers every model with "open the first facility and
// serve everything from it". The test instance is built so that this
// is the exact optimum.
type stubSolver struct{}

func (stubSolver) Name() string { return "stub" }

func (stubSolver) Solve(m *flp.FLPModel, timeLimit time.Duration) (flp.Result, error) {
	x := make([]float64, m.VarCount)
	x[flp.GetOpenIndex(0, m.OpenStart)] = 1.0
	obj := 1000.0
	for c := 0; c < m.NumPoints; c++ {
		idx := flp.GetFlowIndex(0, c, m.NumPoints, m.FlowStart)
		x[idx] = 100.0
		obj += 100.0 * m.Obj[idx]
	}
	return flp.Result{Status: flp.STATUS_OPTIMAL, Obj: obj, LBound: obj, X: x, Time: 5 * time.Millisecond}, nil
}

type failingSolver struct{}

func (failingSolver) Name() string { return "stub" }

func (failingSolver) Solve(m *flp.FLPModel, timeLimit time.Duration) (flp.Result, error) {
	return flp.Result{}, &flp.SolverError{Backend: "stub", Msg: "boom"}
}

func testInstance() *flp.FLPInstance {
	return &flp.FLPInstance{
		Name: "api_test",
		Type: flp.INSTANCE_TYPE,
		Facilities: []flp.Facility{
			{ID: "f0", Name: "Bonn", Lat: 50.73, Lon: 7.09, FixedCost: 1000},
			{ID: "f1", Name: "Cologne", Lat: 50.93, Lon: 6.96, FixedCost: 1200},
		},
		DemandPoints: []flp.DemandPoint{
			{ID: "c0", Name: "Frankfurt", Lat: 50.11, Lon: 8.68, Demand: 100},
			{ID: "c1", Name: "Berlin", Lat: 52.52, Lon: 13.40, Demand: 100},
		},
		Lanes: []flp.Lane{
			{Facility: "f0", DemandPoint: "c0", UnitCost: 1},
			{Facility: "f0", DemandPoint: "c1", UnitCost: 2},
			{Facility: "f1", DemandPoint: "c0", UnitCost: 3},
			{Facility: "f1", DemandPoint: "c1", UnitCost: 4},
		},
	}
}

func newTestServer(t *testing.T, solver flp.Solver, tours ToursFunc) *Server {
	t.Helper()
	inst := testInstance()
	ds, err := flp.NewDataset(inst.Facilities, inst.DemandPoints, inst.Lanes)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	cfg := config.Default()
	cfg.RateRPS = 1000
	cfg.RateBurst = 1000
	solvers := map[string]flp.Solver{"gurobi": solver, "highs": solver}
	return New(zap.NewNop(), cfg, inst, ds, solvers, store.NewMemory(), tours)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthReady(t *testing.T) {
	h := newTestServer(t, stubSolver{}, nil).Routes()
	if rr := do(t, h, http.MethodGet, "/healthz", ""); rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/readyz", ""); rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestNetworkEndpoints(t *testing.T) {
	h := newTestServer(t, stubSolver{}, nil).Routes()

	rr := do(t, h, http.MethodGet, "/v1/network", "")
	if rr.Code != 200 {
		t.Fatalf("network: got %d", rr.Code)
	}
	var sum NetworkSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode network: %v", err)
	}
	if sum.Facilities != 2 || sum.DemandPoints != 2 || sum.Lanes != 4 {
		t.Errorf("summary counts wrong: %+v", sum)
	}
	if sum.TotalDemand != 200 {
		t.Errorf("got total demand %g, want 200", sum.TotalDemand)
	}

	rr = do(t, h, http.MethodGet, "/v1/facilities", "")
	if rr.Code != 200 {
		t.Fatalf("facilities: got %d", rr.Code)
	}
	var facs []flp.Facility
	if err := json.Unmarshal(rr.Body.Bytes(), &facs); err != nil {
		t.Fatalf("decode facilities: %v", err)
	}
	if len(facs) != 2 {
		t.Errorf("got %d facilities, want 2", len(facs))
	}

	rr = do(t, h, http.MethodGet, "/v1/demand-points", "")
	if rr.Code != 200 {
		t.Fatalf("demand points: got %d", rr.Code)
	}
}

func TestSolveAndSolution(t *testing.T) {
	h := newTestServer(t, stubSolver{}, nil).Routes()

	// nothing solved yet
	if rr := do(t, h, http.MethodGet, "/v1/solution", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("solution before solve: got %d", rr.Code)
	}

	rr := do(t, h, http.MethodPost, "/v1/solve", "{}")
	if rr.Code != 200 {
		t.Fatalf("solve: got %d, body %s", rr.Code, rr.Body.String())
	}
	var out flp.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode solve: %v", err)
	}
	if out.Status != flp.STATUS_OPTIMAL || out.Solution == nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Solution.TotalCost != 1300 {
		t.Errorf("got total cost %g, want 1300", out.Solution.TotalCost)
	}

	rr = do(t, h, http.MethodGet, "/v1/solution", "")
	if rr.Code != 200 {
		t.Fatalf("solution: got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/v1/solution/costs", "")
	if rr.Code != 200 {
		t.Fatalf("costs: got %d", rr.Code)
	}
	var cb flp.CostBreakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &cb); err != nil {
		t.Fatalf("decode costs: %v", err)
	}
	if cb.Fixed != 1000 || cb.Variable != 300 || cb.Total != 1300 {
		t.Errorf("unexpected breakdown: %+v", cb)
	}

	// no tours were requested
	if rr := do(t, h, http.MethodGet, "/v1/solution/routes", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("routes without tours: got %d", rr.Code)
	}
}

func TestSolveWithTours(t *testing.T) {
	tours := func(ds *flp.Dataset, sol *flp.FLPSolution) ([]flp.TourEstimate, error) {
		return []flp.TourEstimate{{Facility: "f0", Stops: []string{"c0", "c1"}, LengthKm: 42}}, nil
	}
	h := newTestServer(t, stubSolver{}, tours).Routes()

	rr := do(t, h, http.MethodPost, "/v1/solve", `{"tours":true}`)
	if rr.Code != 200 {
		t.Fatalf("solve: got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/v1/solution/routes", "")
	if rr.Code != 200 {
		t.Fatalf("routes: got %d", rr.Code)
	}
	var ts []flp.TourEstimate
	if err := json.Unmarshal(rr.Body.Bytes(), &ts); err != nil {
		t.Fatalf("decode routes: %v", err)
	}
	if len(ts) != 1 || ts[0].LengthKm != 42 {
		t.Errorf("unexpected tours: %+v", ts)
	}
}

func TestSolveValidation(t *testing.T) {
	h := newTestServer(t, stubSolver{}, nil).Routes()

	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", `{"backend":"cplex"}`},
		{"negative time limit", `{"time_limit_seconds":-1}`},
		{"negative cap", `{"max_facilities":-2}`},
		{"malformed json", `{"backend":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/v1/solve", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400; body %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSolveSolverFailure(t *testing.T) {
	h := newTestServer(t, failingSolver{}, nil).Routes()
	rr := do(t, h, http.MethodPost, "/v1/solve", "{}")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want 502; body %s", rr.Code, rr.Body.String())
	}
}

func TestSolveRateLimit(t *testing.T) {
	s := newTestServer(t, stubSolver{}, nil)
	s.cfg.RateRPS = 0.0001
	s.cfg.RateBurst = 1
	h := New(s.log, s.cfg, s.inst, s.ds, s.solvers, s.store, nil).Routes()

	if rr := do(t, h, http.MethodPost, "/v1/solve", "{}"); rr.Code != 200 {
		t.Fatalf("first solve: got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/v1/solve", "{}"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second solve: got %d, want 429", rr.Code)
	}
}

func TestScenarios(t *testing.T) {
	h := newTestServer(t, stubSolver{}, nil).Routes()

	rr := do(t, h, http.MethodPost, "/v1/scenarios", `{"caps":[1,2]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("scenarios: got %d, body %s", rr.Code, rr.Body.String())
	}
	var res flp.ScenarioResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode scenarios: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("missing run id")
	}
	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(res.Entries))
	}

	rr = do(t, h, http.MethodGet, "/v1/scenarios", "")
	if rr.Code != 200 {
		t.Fatalf("list scenarios: got %d", rr.Code)
	}
	var idx struct {
		Items []store.SweepSummary `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &idx); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(idx.Items) != 1 || idx.Items[0].ID != res.RunID {
		t.Errorf("unexpected listing: %+v", idx.Items)
	}

	rr = do(t, h, http.MethodGet, "/v1/scenarios/"+res.RunID, "")
	if rr.Code != 200 {
		t.Fatalf("get scenario: got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/v1/scenarios/no-such-run", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get unknown scenario: got %d", rr.Code)
	}
}

func TestScenariosValidation(t *testing.T) {
	h := newTestServer(t, stubSolver{}, nil).Routes()

	if rr := do(t, h, http.MethodPost, "/v1/scenarios", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing caps: got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/v1/scenarios", `{"caps":[]}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty caps: got %d", rr.Code)
	}
}
