package flp

import "time"

// Result is the raw outcome a backend hands back. X is only meaningful for
// statuses that carry an incumbent.
type Result struct {
	Status  Status
	Obj     float64
	LBound  float64
	X       []float64
	Time    time.Duration
	Comment string
}

// Solver is one MILP backend. Solve blocks until the model is solved or the
// time limit ends; a zero limit means none.
type Solver interface {
	Solve(m *FLPModel, timeLimit time.Duration) (Result, error)
	Name() string
}
