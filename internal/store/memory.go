package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.solver4all.com/azaryc2s/flp"
)

// Memory is a simple in-memory store used when no redis URL is set.
type Memory struct {
	mu        sync.Mutex
	latest    *flp.FLPSolution
	sweeps    map[string]*flp.ScenarioResult
	summaries map[string]SweepSummary
	order     []string // sweep ids in insertion order
}

func NewMemory() *Memory {
	return &Memory{
		sweeps:    map[string]*flp.ScenarioResult{},
		summaries: map[string]SweepSummary{},
	}
}

func (m *Memory) PutSolution(ctx context.Context, sol *flp.FLPSolution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = sol
	return nil
}

func (m *Memory) Solution(ctx context.Context) (*flp.FLPSolution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return nil, ErrNotFound
	}
	return m.latest, nil
}

func (m *Memory) PutSweep(ctx context.Context, res *flp.ScenarioResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if res.RunID == "" {
		res.RunID = uuid.New().String()
	}
	if _, ok := m.sweeps[res.RunID]; !ok {
		m.order = append(m.order, res.RunID)
	}
	m.sweeps[res.RunID] = res
	m.summaries[res.RunID] = summarize(res, time.Now())
	return nil
}

func (m *Memory) Sweep(ctx context.Context, id string) (*flp.ScenarioResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.sweeps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

func (m *Memory) Sweeps(ctx context.Context) ([]SweepSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SweepSummary, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.summaries[id])
	}
	return out, nil
}
