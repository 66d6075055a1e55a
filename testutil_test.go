package flp

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"testing"
	"time"
)

// bruteSolver solves small uncapacitated models by enumerating every open
// set. It reads the model only through its arrays and constraint names, the
// same way a real backend would, so it doubles as a check of the encoding.
type bruteSolver struct{}

func (b *bruteSolver) Name() string { return "brute" }

func (b *bruteSolver) Solve(m *FLPModel, _ time.Duration) (Result, error) {
	start := time.Now()
	numF := m.NumFacilities
	numC := m.NumPoints

	fixed := make([]float64, numF)
	for f := 0; f < numF; f++ {
		fixed[f] = m.Obj[GetOpenIndex(f, m.OpenStart)]
	}
	unit := make([][]float64, numF)
	usable := make([][]bool, numF)
	for f := 0; f < numF; f++ {
		unit[f] = make([]float64, numC)
		usable[f] = make([]bool, numC)
		for c := 0; c < numC; c++ {
			fi := GetFlowIndex(f, c, numC, m.FlowStart)
			unit[f][c] = m.Obj[fi]
			usable[f][c] = m.UB[fi] > 0
		}
	}

	demand := make([]float64, numC)
	maxOpen := numF
	for _, con := range m.Constrs {
		switch {
		case strings.HasPrefix(con.Name, "demand_"):
			c, err := strconv.Atoi(strings.TrimPrefix(con.Name, "demand_"))
			if err != nil || c < 0 || c >= numC {
				return Result{}, fmt.Errorf("unexpected constraint name %s", con.Name)
			}
			demand[c] = con.RHS
		case con.Name == "maxopen":
			maxOpen = int(con.RHS)
		case strings.HasPrefix(con.Name, "cap_"):
			return Result{}, fmt.Errorf("bruteSolver does not handle capacitated models")
		}
	}

	cheapest := func(mask int, c int) int {
		lane := -1
		for f := 0; f < numF; f++ {
			if mask&(1<<f) == 0 || !usable[f][c] {
				continue
			}
			if lane < 0 || unit[f][c] < unit[lane][c] {
				lane = f
			}
		}
		return lane
	}

	bestCost := 0.0
	bestMask := 0
	found := false
	for mask := 1; mask < 1<<numF; mask++ {
		if bits.OnesCount(uint(mask)) > maxOpen {
			continue
		}
		cost := 0.0
		for f := 0; f < numF; f++ {
			if mask&(1<<f) != 0 {
				cost += fixed[f]
			}
		}
		feasible := true
		for c := 0; c < numC; c++ {
			lane := cheapest(mask, c)
			if lane < 0 {
				feasible = false
				break
			}
			cost += demand[c] * unit[lane][c]
		}
		if feasible && (!found || cost < bestCost) {
			found = true
			bestCost = cost
			bestMask = mask
		}
	}

	if !found {
		return Result{Status: STATUS_INFEASIBLE, Comment: "no open set serves every demand point", Time: time.Since(start)}, nil
	}

	x := make([]float64, m.VarCount)
	for f := 0; f < numF; f++ {
		if bestMask&(1<<f) != 0 {
			x[GetOpenIndex(f, m.OpenStart)] = 1.0
		}
	}
	for c := 0; c < numC; c++ {
		lane := cheapest(bestMask, c)
		x[GetFlowIndex(lane, c, numC, m.FlowStart)] = demand[c]
	}

	return Result{Status: STATUS_OPTIMAL, Obj: bestCost, LBound: bestCost, X: x, Time: time.Since(start)}, nil
}

// twoFacilityDataset is the canonical hand-checkable fixture: f0 is cheaper
// to open and to ship from, so the optimum opens only f0 at 1003600.
func twoFacilityDataset(t *testing.T) *Dataset {
	t.Helper()
	facilities := []Facility{
		{ID: "f0", Name: "Bonn", Lat: 50.7374, Lon: 7.0982, FixedCost: 1000000},
		{ID: "f1", Name: "Cologne", Lat: 50.9375, Lon: 6.9603, FixedCost: 1200000},
	}
	points := []DemandPoint{
		{ID: "c0", Name: "Frankfurt", Lat: 50.1109, Lon: 8.6821, Demand: 100},
		{ID: "c1", Name: "Duesseldorf", Lat: 51.2277, Lon: 6.7735, Demand: 100},
		{ID: "c2", Name: "Berlin", Lat: 52.5200, Lon: 13.4050, Demand: 100},
	}
	lanes := []Lane{
		{Facility: "f0", DemandPoint: "c0", UnitCost: 10},
		{Facility: "f0", DemandPoint: "c1", UnitCost: 12},
		{Facility: "f0", DemandPoint: "c2", UnitCost: 14},
		{Facility: "f1", DemandPoint: "c0", UnitCost: 9},
		{Facility: "f1", DemandPoint: "c1", UnitCost: 11},
		{Facility: "f1", DemandPoint: "c2", UnitCost: 13},
	}
	ds, err := NewDataset(facilities, points, lanes)
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}
	return ds
}

// disjointDataset has one point only f0 can serve and one only f1 can, so a
// cap of 1 makes it infeasible.
func disjointDataset(t *testing.T) *Dataset {
	t.Helper()
	facilities := []Facility{
		{ID: "f0", Lat: 50.0, Lon: 7.0, FixedCost: 100},
		{ID: "f1", Lat: 51.0, Lon: 8.0, FixedCost: 100},
	}
	points := []DemandPoint{
		{ID: "c0", Lat: 50.1, Lon: 7.1, Demand: 10},
		{ID: "c1", Lat: 51.1, Lon: 8.1, Demand: 10},
	}
	lanes := []Lane{
		{Facility: "f0", DemandPoint: "c0", UnitCost: 1},
		{Facility: "f1", DemandPoint: "c1", UnitCost: 1},
	}
	ds, err := NewDataset(facilities, points, lanes)
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}
	return ds
}
