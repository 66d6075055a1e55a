package flp

import "fmt"

// Dataset is a validated, indexed view of an instance. All model building
// and solution checking works on the dense indices, never on raw IDs.
type Dataset struct {
	facilities []Facility
	points     []DemandPoint

	unitCost [][]float64
	hasLane  [][]bool

	fIndex map[string]int
	pIndex map[string]int

	totalDemand float64
}

// NewDataset validates the raw instance data and builds the lane matrix.
// Pairs without a lane stay unusable and are later pruned from the model.
func NewDataset(facilities []Facility, points []DemandPoint, lanes []Lane) (*Dataset, error) {
	if len(facilities) == 0 {
		return nil, &ValidationError{Field: "facilities", Msg: "must not be empty"}
	}
	if len(points) == 0 {
		return nil, &ValidationError{Field: "demand_points", Msg: "must not be empty"}
	}

	ds := &Dataset{
		facilities: make([]Facility, len(facilities)),
		points:     make([]DemandPoint, len(points)),
		fIndex:     make(map[string]int, len(facilities)),
		pIndex:     make(map[string]int, len(points)),
	}
	copy(ds.facilities, facilities)
	copy(ds.points, points)

	for f, fac := range ds.facilities {
		if fac.ID == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("facilities[%d].id", f), Msg: "must not be empty"}
		}
		if _, ok := ds.fIndex[fac.ID]; ok {
			return nil, &ValidationError{Field: fmt.Sprintf("facilities[%d].id", f), Msg: fmt.Sprintf("duplicate id %q", fac.ID)}
		}
		if fac.FixedCost < 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("facilities[%d].fixed_cost", f), Msg: "must not be negative"}
		}
		ds.fIndex[fac.ID] = f
	}

	for c, pt := range ds.points {
		if pt.ID == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("demand_points[%d].id", c), Msg: "must not be empty"}
		}
		if _, ok := ds.pIndex[pt.ID]; ok {
			return nil, &ValidationError{Field: fmt.Sprintf("demand_points[%d].id", c), Msg: fmt.Sprintf("duplicate id %q", pt.ID)}
		}
		if pt.Demand <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("demand_points[%d].demand", c), Msg: "must be positive"}
		}
		ds.pIndex[pt.ID] = c
		ds.totalDemand += pt.Demand
	}

	ds.unitCost = make([][]float64, len(ds.facilities))
	ds.hasLane = make([][]bool, len(ds.facilities))
	for f := range ds.facilities {
		ds.unitCost[f] = make([]float64, len(ds.points))
		ds.hasLane[f] = make([]bool, len(ds.points))
	}

	for l, lane := range lanes {
		f, ok := ds.fIndex[lane.Facility]
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("lanes[%d].facility", l), Msg: fmt.Sprintf("unknown facility %q", lane.Facility)}
		}
		c, ok := ds.pIndex[lane.DemandPoint]
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("lanes[%d].demand_point", l), Msg: fmt.Sprintf("unknown demand point %q", lane.DemandPoint)}
		}
		if lane.UnitCost < 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("lanes[%d].unit_cost", l), Msg: "must not be negative"}
		}
		if ds.hasLane[f][c] {
			return nil, &ValidationError{Field: fmt.Sprintf("lanes[%d]", l), Msg: fmt.Sprintf("duplicate lane %s -> %s", lane.Facility, lane.DemandPoint)}
		}
		ds.hasLane[f][c] = true
		ds.unitCost[f][c] = lane.UnitCost
	}

	for c, pt := range ds.points {
		served := false
		for f := range ds.facilities {
			if ds.hasLane[f][c] {
				served = true
				break
			}
		}
		if !served {
			return nil, &ValidationError{Field: fmt.Sprintf("demand_points[%d]", c), Msg: fmt.Sprintf("no lane serves demand point %q", pt.ID)}
		}
	}

	return ds, nil
}

func (ds *Dataset) NumFacilities() int   { return len(ds.facilities) }
func (ds *Dataset) NumDemandPoints() int { return len(ds.points) }

func (ds *Dataset) Facility(f int) Facility       { return ds.facilities[f] }
func (ds *Dataset) DemandPoint(c int) DemandPoint { return ds.points[c] }

func (ds *Dataset) Facilities() []Facility {
	out := make([]Facility, len(ds.facilities))
	copy(out, ds.facilities)
	return out
}

func (ds *Dataset) DemandPoints() []DemandPoint {
	out := make([]DemandPoint, len(ds.points))
	copy(out, ds.points)
	return out
}

func (ds *Dataset) UnitCost(f, c int) float64 { return ds.unitCost[f][c] }
func (ds *Dataset) HasLane(f, c int) bool     { return ds.hasLane[f][c] }
func (ds *Dataset) Demand(c int) float64      { return ds.points[c].Demand }
func (ds *Dataset) FixedCost(f int) float64   { return ds.facilities[f].FixedCost }
func (ds *Dataset) TotalDemand() float64      { return ds.totalDemand }

func (ds *Dataset) FacilityIndex(id string) (int, bool) {
	f, ok := ds.fIndex[id]
	return f, ok
}

func (ds *Dataset) DemandPointIndex(id string) (int, bool) {
	c, ok := ds.pIndex[id]
	return c, ok
}
