package flp

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	VARTYPE_BINARY     int8 = 'B'
	VARTYPE_CONTINUOUS int8 = 'C'

	SENSE_LE int8 = '<'
	SENSE_GE int8 = '>'
	SENSE_EQ int8 = '='
)

const (
	EPS_FLOW    = 1e-6
	EPS_BALANCE = 1e-6
	EPS_OBJ     = 1e-6
	EPS_INTEGER = 1e-4
)

// Config controls a single solve. MaxFacilities 0 means unbounded, Capacity
// > 0 overrides every facility's own capacity, TimeLimit 0 means none.
type Config struct {
	MaxFacilities int           `json:"max_facilities"`
	TimeLimit     time.Duration `json:"time_limit"`
	Capacity      float64       `json:"capacity"`
}

// Constr is one linear constraint row in sparse form, exactly as the solver
// backends consume it.
type Constr struct {
	Ind   []int32
	Val   []float64
	Sense int8
	RHS   float64
	Name  string
}

// FLPModel is the backend-neutral MILP. Variables live in one flat array:
// first the open decisions, then the flow block in facility-major order.
type FLPModel struct {
	Name     string
	Obj      []float64
	LB       []float64
	UB       []float64
	VarTypes []int8
	VarNames []string
	Constrs  []Constr

	NumFacilities int
	NumPoints     int
	OpenStart     int
	FlowStart     int
	VarCount      int
}

func (m *FLPModel) AddConstr(ind []int32, val []float64, sense int8, rhs float64, name string) {
	m.Constrs = append(m.Constrs, Constr{Ind: ind, Val: val, Sense: sense, RHS: rhs, Name: name})
}

func GetOpenIndex(f int, start int) int {
	return start + f
}

func GetFlowIndex(f int, c int, numPoints int, start int) int {
	return start + f*numPoints + c
}

// CreateFLPModel builds the facility location MILP for the dataset. Flow
// variables of pruned lanes stay in the array with an upper bound of zero so
// the index arithmetic works on the full facility x point grid.
func CreateFLPModel(ds *Dataset, cfg Config) (*FLPModel, error) {
	if cfg.MaxFacilities < 0 {
		return nil, &ConfigError{Field: "max_facilities", Msg: "must not be negative"}
	}
	if cfg.TimeLimit < 0 {
		return nil, &ConfigError{Field: "time_limit", Msg: "must not be negative"}
	}
	if cfg.Capacity < 0 {
		return nil, &ConfigError{Field: "capacity", Msg: "must not be negative"}
	}

	numF := ds.NumFacilities()
	numC := ds.NumDemandPoints()

	openStart := 0
	flowStart := openStart + numF
	varCount := numF + numF*numC

	obj := make([]float64, varCount)
	lb := make([]float64, varCount)
	ub := make([]float64, varCount)
	varType := make([]int8, varCount)
	varNames := make([]string, varCount)

	for f := 0; f < numF; f++ {
		oi := GetOpenIndex(f, openStart)
		obj[oi] = ds.FixedCost(f)
		ub[oi] = 1.0
		varType[oi] = VARTYPE_BINARY
		varNames[oi] = fmt.Sprintf("open_%d", f)
	}

	for f := 0; f < numF; f++ {
		for c := 0; c < numC; c++ {
			fi := GetFlowIndex(f, c, numC, flowStart)
			varType[fi] = VARTYPE_CONTINUOUS
			varNames[fi] = fmt.Sprintf("flow_%d_%d", f, c)
			if ds.HasLane(f, c) {
				obj[fi] = ds.UnitCost(f, c)
				ub[fi] = ds.Demand(c)
			}
		}
	}

	m := &FLPModel{
		Name:          "flp",
		Obj:           obj,
		LB:            lb,
		UB:            ub,
		VarTypes:      varType,
		VarNames:      varNames,
		NumFacilities: numF,
		NumPoints:     numC,
		OpenStart:     openStart,
		FlowStart:     flowStart,
		VarCount:      varCount,
	}

	//Add constraints (2) forcing every demand point to be fully served
	{
		for c := 0; c < numC; c++ {
			ind := make([]int32, 0)
			val := make([]float64, 0)
			for f := 0; f < numF; f++ {
				if !ds.HasLane(f, c) {
					continue
				}
				ind = append(ind, int32(GetFlowIndex(f, c, numC, flowStart)))
				val = append(val, 1.0)
			}
			m.AddConstr(ind, val, SENSE_EQ, ds.Demand(c), fmt.Sprintf("demand_%d", c))
		}
	}

	//Add constraints (3) linking flow to the open decision. The coefficient
	//is the point's own demand, so a closed facility forces its lanes to zero
	//without a looser big-M.
	{
		for f := 0; f < numF; f++ {
			for c := 0; c < numC; c++ {
				if !ds.HasLane(f, c) {
					continue
				}
				ind := make([]int32, 2)
				val := make([]float64, 2)
				ind[0] = int32(GetFlowIndex(f, c, numC, flowStart))
				val[0] = 1.0
				ind[1] = int32(GetOpenIndex(f, openStart))
				val[1] = -ds.Demand(c)
				m.AddConstr(ind, val, SENSE_LE, 0.0, fmt.Sprintf("link_%d_%d", f, c))
			}
		}
	}

	//Add constraints (4) bounding facility throughput where a capacity applies
	{
		for f := 0; f < numF; f++ {
			capacity := ds.Facility(f).Capacity
			if cfg.Capacity > 0 {
				capacity = cfg.Capacity
			}
			if capacity <= 0 {
				continue
			}
			ind := make([]int32, 0)
			val := make([]float64, 0)
			for c := 0; c < numC; c++ {
				if !ds.HasLane(f, c) {
					continue
				}
				ind = append(ind, int32(GetFlowIndex(f, c, numC, flowStart)))
				val = append(val, 1.0)
			}
			ind = append(ind, int32(GetOpenIndex(f, openStart)))
			val = append(val, -capacity)
			m.AddConstr(ind, val, SENSE_LE, 0.0, fmt.Sprintf("cap_%d", f))
		}
	}

	//Add constraint (5) capping the number of open facilities
	if cfg.MaxFacilities > 0 {
		ind := make([]int32, numF)
		val := make([]float64, numF)
		for f := 0; f < numF; f++ {
			ind[f] = int32(GetOpenIndex(f, openStart))
			val[f] = 1.0
		}
		m.AddConstr(ind, val, SENSE_LE, float64(cfg.MaxFacilities), "maxopen")
	}

	return m, nil
}

// ExtractSolution turns a raw variable assignment into a checked solution.
// Any violation of the model within the numeric tolerances is reported as an
// InconsistentSolutionError instead of being papered over.
func ExtractSolution(ds *Dataset, m *FLPModel, res Result) (*FLPSolution, error) {
	if len(res.X) != m.VarCount {
		return nil, &InconsistentSolutionError{Msg: fmt.Sprintf("got %d variable values, model has %d", len(res.X), m.VarCount)}
	}

	numF := m.NumFacilities
	numC := m.NumPoints

	open := make([]bool, numF)
	for f := 0; f < numF; f++ {
		x := res.X[GetOpenIndex(f, m.OpenStart)]
		if math.Abs(x) > EPS_INTEGER && math.Abs(x-1.0) > EPS_INTEGER {
			return nil, &InconsistentSolutionError{Msg: fmt.Sprintf("open variable %d has non-binary value %g", f, x)}
		}
		open[f] = x > 0.5
	}

	sol := &FLPSolution{Status: res.Status, Comment: res.Comment}

	inbound := make([]float64, numC)
	for f := 0; f < numF; f++ {
		for c := 0; c < numC; c++ {
			x := res.X[GetFlowIndex(f, c, numC, m.FlowStart)]
			if x < 0 {
				if x < -EPS_FLOW {
					return nil, &InconsistentSolutionError{Msg: fmt.Sprintf("flow %s -> %s is negative (%g)", ds.Facility(f).ID, ds.DemandPoint(c).ID, x)}
				}
				x = 0
			}
			if x <= EPS_FLOW {
				continue
			}
			if !ds.HasLane(f, c) {
				return nil, &InconsistentSolutionError{Msg: fmt.Sprintf("flow %g on missing lane %s -> %s", x, ds.Facility(f).ID, ds.DemandPoint(c).ID)}
			}
			if !open[f] {
				return nil, &InconsistentSolutionError{Msg: fmt.Sprintf("flow %g from closed facility %s", x, ds.Facility(f).ID)}
			}
			uc := ds.UnitCost(f, c)
			sol.Flows = append(sol.Flows, FlowAssignment{
				Facility:    ds.Facility(f).ID,
				DemandPoint: ds.DemandPoint(c).ID,
				Units:       x,
				UnitCost:    uc,
				Cost:        uc * x,
			})
			sol.VariableCost += uc * x
			inbound[c] += x
		}
	}

	for c := 0; c < numC; c++ {
		d := ds.Demand(c)
		if math.Abs(inbound[c]-d) > EPS_BALANCE*math.Max(1.0, d) {
			return nil, &InconsistentSolutionError{Msg: fmt.Sprintf("demand point %s receives %g of %g", ds.DemandPoint(c).ID, inbound[c], d)}
		}
	}

	for f := 0; f < numF; f++ {
		if open[f] {
			sol.Open = append(sol.Open, ds.Facility(f).ID)
			sol.FixedCost += ds.FixedCost(f)
		}
	}
	sort.Strings(sol.Open)

	sol.TotalCost = sol.FixedCost + sol.VariableCost
	sol.Obj = res.Obj
	sol.LBound = res.LBound
	if math.Abs(sol.Obj-sol.TotalCost) > EPS_OBJ*math.Max(1.0, math.Abs(sol.Obj)) {
		return nil, &InconsistentSolutionError{Msg: fmt.Sprintf("objective %g does not match recomputed cost %g", sol.Obj, sol.TotalCost)}
	}

	if sol.LBound != 0 {
		sol.Gap = (sol.Obj - sol.LBound) / sol.LBound
	}
	sol.Optimal = res.Status == STATUS_OPTIMAL
	sol.Time = res.Time.String()

	return sol, nil
}

// Optimize runs the whole pipeline for one configuration: build the model,
// solve it, extract and check the solution. Statuses without a usable
// incumbent come back as an Outcome with a nil solution.
func Optimize(ds *Dataset, cfg Config, s Solver) (*Outcome, error) {
	m, err := CreateFLPModel(ds, cfg)
	if err != nil {
		return nil, err
	}
	res, err := s.Solve(m, cfg.TimeLimit)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case STATUS_OPTIMAL, STATUS_FEASIBLE:
		sol, err := ExtractSolution(ds, m, res)
		if err != nil {
			return nil, err
		}
		return &Outcome{Status: res.Status, Comment: res.Comment, Solution: sol}, nil
	default:
		return &Outcome{Status: res.Status, Comment: res.Comment}, nil
	}
}

// CheckSolutionValidity re-verifies a stored solution against its dataset.
// It checks the flow balance and the cost arithmetic, not solver internals.
func CheckSolutionValidity(ds *Dataset, sol *FLPSolution) (bool, string) {
	if sol == nil {
		return false, "no solution present"
	}
	openSet := make(map[string]bool, len(sol.Open))
	fixed := 0.0
	for _, id := range sol.Open {
		f, ok := ds.FacilityIndex(id)
		if !ok {
			return false, fmt.Sprintf("open facility %s is not part of the instance", id)
		}
		if openSet[id] {
			return false, fmt.Sprintf("facility %s is listed as open twice", id)
		}
		openSet[id] = true
		fixed += ds.FixedCost(f)
	}

	inbound := make([]float64, ds.NumDemandPoints())
	variable := 0.0
	for _, fl := range sol.Flows {
		f, ok := ds.FacilityIndex(fl.Facility)
		if !ok {
			return false, fmt.Sprintf("flow from unknown facility %s", fl.Facility)
		}
		c, ok := ds.DemandPointIndex(fl.DemandPoint)
		if !ok {
			return false, fmt.Sprintf("flow to unknown demand point %s", fl.DemandPoint)
		}
		if !ds.HasLane(f, c) {
			return false, fmt.Sprintf("flow on missing lane %s -> %s", fl.Facility, fl.DemandPoint)
		}
		if !openSet[fl.Facility] {
			return false, fmt.Sprintf("flow from closed facility %s", fl.Facility)
		}
		if fl.Units <= 0 {
			return false, fmt.Sprintf("non-positive flow %g on lane %s -> %s", fl.Units, fl.Facility, fl.DemandPoint)
		}
		inbound[c] += fl.Units
		variable += ds.UnitCost(f, c) * fl.Units
	}

	for c := 0; c < ds.NumDemandPoints(); c++ {
		d := ds.Demand(c)
		if math.Abs(inbound[c]-d) > EPS_BALANCE*math.Max(1.0, d) {
			return false, fmt.Sprintf("demand point %s receives %g of %g", ds.DemandPoint(c).ID, inbound[c], d)
		}
	}

	total := fixed + variable
	if math.Abs(total-sol.TotalCost) > EPS_OBJ*math.Max(1.0, math.Abs(total)) {
		return false, fmt.Sprintf("stored total cost %g does not match recomputed %g", sol.TotalCost, total)
	}
	return true, ""
}
