package flp

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner sweeps the facility cap over a dataset. Workers bounds the number
// of concurrent solves; every entry is isolated, one failing cap never stops
// the rest of the sweep.
type Runner struct {
	Solver  Solver
	Workers int
	Log     *zap.Logger
}

// Run solves one scenario per cap and keeps the entries in cap order. Caps
// below one are rejected without touching the solver.
func (r *Runner) Run(ds *Dataset, base Config, caps []int) *ScenarioResult {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	start := time.Now()
	entries := make([]ScenarioEntry, len(caps))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, maxF := range caps {
		wg.Add(1)
		sem <- struct{}{}
		go func(i, maxF int) {
			defer wg.Done()
			defer func() { <-sem }()

			entry := ScenarioEntry{Cap: maxF}
			if maxF < 1 {
				entry.Status = STATUS_ERROR
				entry.Comment = fmt.Sprintf("invalid config: max_facilities: swept cap %d must be at least 1", maxF)
				entries[i] = entry
				log.Warn("skipping invalid cap", zap.Int("cap", maxF))
				return
			}

			cfg := base
			cfg.MaxFacilities = maxF
			log.Info("solving scenario", zap.Int("cap", maxF), zap.String("backend", r.Solver.Name()))
			out, err := Optimize(ds, cfg, r.Solver)
			if err != nil {
				entry.Status = STATUS_ERROR
				entry.Comment = err.Error()
				entries[i] = entry
				log.Error("scenario failed", zap.Int("cap", maxF), zap.Error(err))
				return
			}
			entry.Status = out.Status
			entry.Comment = out.Comment
			entry.Solution = out.Solution
			entries[i] = entry
			if out.Solution != nil {
				log.Info("scenario solved", zap.Int("cap", maxF), zap.String("status", string(out.Status)), zap.Float64("total_cost", out.Solution.TotalCost))
			} else {
				log.Info("scenario finished without solution", zap.Int("cap", maxF), zap.String("status", string(out.Status)))
			}
		}(i, maxF)
	}
	wg.Wait()

	return &ScenarioResult{
		Entries: entries,
		Time:    time.Since(start).String(),
	}
}
