package flp

import (
	"encoding/json"
	"fmt"
	"os"
)

// Status is the outcome of a single solve as reported by a solver backend.
type Status string

const (
	STATUS_OPTIMAL    Status = "OPTIMAL"
	STATUS_FEASIBLE   Status = "FEASIBLE"
	STATUS_INFEASIBLE Status = "INFEASIBLE"
	STATUS_UNBOUNDED  Status = "UNBOUNDED"
	STATUS_ERROR      Status = "ERROR"
)

const (
	BACKEND_GUROBI = "gurobi"
	BACKEND_HIGHS  = "highs"

	SERVICE_STANDARD  = "STANDARD"
	SERVICE_EXPRESS   = "EXPRESS"
	SERVICE_OVERNIGHT = "OVERNIGHT"

	INSTANCE_TYPE = "FLP"
)

// Facility is a candidate site. It pays FixedCost if it is opened and may
// carry a capacity bound; Capacity <= 0 means uncapacitated.
type Facility struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	FixedCost float64 `json:"fixed_cost"`
	Capacity  float64 `json:"capacity,omitempty"`
}

// DemandPoint is a location whose Demand must be fully served. Population and
// ServiceLevel are generator provenance and are never interpreted by the
// engine.
type DemandPoint struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Demand       float64 `json:"demand"`
	Population   int     `json:"population,omitempty"`
	ServiceLevel string  `json:"service_level,omitempty"`
}

// Lane is a usable (facility, demand point) pair. Pairs without a lane entry
// are pruned and carry no flow.
type Lane struct {
	Facility    string  `json:"facility"`
	DemandPoint string  `json:"demand_point"`
	UnitCost    float64 `json:"unit_cost"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
}

type FLPInstance struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Type    string `json:"type"`

	Facilities   []Facility    `json:"facilities"`
	DemandPoints []DemandPoint `json:"demand_points"`
	Lanes        []Lane        `json:"lanes"`

	Solution  *FLPSolution    `json:"solution,omitempty"`
	Scenarios *ScenarioResult `json:"scenarios,omitempty"`
}

// FlowAssignment is one served lane of a solution, with its shipped volume
// and the cost that volume contributes.
type FlowAssignment struct {
	Facility    string  `json:"facility"`
	DemandPoint string  `json:"demand_point"`
	Units       float64 `json:"units"`
	UnitCost    float64 `json:"unit_cost"`
	Cost        float64 `json:"cost"`
}

type CostBreakdown struct {
	Fixed    float64 `json:"fixed"`
	Variable float64 `json:"variable"`
	Total    float64 `json:"total"`
}

// TourEstimate is a post-solve delivery tour estimate for one open facility.
// It is diagnostic output for maps and never feeds back into the model.
type TourEstimate struct {
	Facility string   `json:"facility"`
	Stops    []string `json:"stops"`
	LengthKm int      `json:"length_km"`
}

// FLPSolution is a complete extracted solution. Cost fields are re-summed
// from the flow assignment, Obj/LBound are the solver's own values.
type FLPSolution struct {
	Status       Status           `json:"status"`
	Open         []string         `json:"open"`
	Flows        []FlowAssignment `json:"flows"`
	FixedCost    float64          `json:"fixed_cost"`
	VariableCost float64          `json:"variable_cost"`
	TotalCost    float64          `json:"total_cost"`
	Obj          float64          `json:"obj"`
	LBound       float64          `json:"lbound"`
	Gap          float64          `json:"gap"`
	Optimal      bool             `json:"optimal"`

	Tours []TourEstimate `json:"tours,omitempty"`

	Time    string  `json:"time"`
	System  SysInfo `json:"system"`
	Comment string  `json:"comment"`
}

func (s *FLPSolution) Breakdown() CostBreakdown {
	return CostBreakdown{Fixed: s.FixedCost, Variable: s.VariableCost, Total: s.TotalCost}
}

// Outcome is the result of one solve: always a status, a solution only when
// the status permits one.
type Outcome struct {
	Status   Status       `json:"status"`
	Comment  string       `json:"comment,omitempty"`
	Solution *FLPSolution `json:"solution,omitempty"`
}

type ScenarioEntry struct {
	Cap      int          `json:"cap"`
	Status   Status       `json:"status"`
	Comment  string       `json:"comment,omitempty"`
	Solution *FLPSolution `json:"solution,omitempty"`
}

// ScenarioResult is the table of one sweep. Entries keep the order of the
// swept caps regardless of which solve finished first.
type ScenarioResult struct {
	RunID   string          `json:"run_id,omitempty"`
	Entries []ScenarioEntry `json:"entries"`
	Time    string          `json:"time"`
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}

func ReadInstance(path string) (*FLPInstance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instance %s: %w", path, err)
	}
	var inst FLPInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("parsing instance %s: %w", path, err)
	}
	return &inst, nil
}

func (inst *FLPInstance) Write(path string) error {
	data, err := json.MarshalIndent(inst, "", "\t")
	if err != nil {
		return fmt.Errorf("encoding instance %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing instance %s: %w", path, err)
	}
	return nil
}
