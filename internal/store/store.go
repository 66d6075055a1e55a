// Package store persists solve results for the API server. The memory
// store is used when no redis URL is configured.
package store

import (
	"context"
	"errors"
	"time"

	"git.solver4all.com/azaryc2s/flp"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Latest solution
	PutSolution(ctx context.Context, sol *flp.FLPSolution) error
	Solution(ctx context.Context) (*flp.FLPSolution, error)

	// Scenario sweeps
	PutSweep(ctx context.Context, res *flp.ScenarioResult) error
	Sweep(ctx context.Context, id string) (*flp.ScenarioResult, error)
	Sweeps(ctx context.Context) ([]SweepSummary, error)
}

var ErrNotFound = errors.New("not found")

// SweepSummary is the listing entry for a stored scenario sweep.
type SweepSummary struct {
	ID       string    `json:"id"`
	Caps     []int     `json:"caps"`
	Created  time.Time `json:"created"`
	BestCap  int       `json:"best_cap,omitempty"`
	BestCost float64   `json:"best_cost,omitempty"`
}

// summarize derives the listing entry from a sweep result. The best
// entry is the cheapest one that carries a solution.
func summarize(res *flp.ScenarioResult, created time.Time) SweepSummary {
	sum := SweepSummary{ID: res.RunID, Created: created}
	for _, e := range res.Entries {
		sum.Caps = append(sum.Caps, e.Cap)
		if e.Solution == nil {
			continue
		}
		if sum.BestCap == 0 || e.Solution.TotalCost < sum.BestCost {
			sum.BestCap = e.Cap
			sum.BestCost = e.Solution.TotalCost
		}
	}
	return sum
}
