package grb

import (
	"fmt"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"git.solver4all.com/azaryc2s/tsp"
)

// EstimateTours computes a delivery tour per open facility over the demand
// points it serves. Distances are great-circle kilometers rounded to ints
// for the tsp solver, so the estimates are map-level, not street-level.
func EstimateTours(ds *flp.Dataset, sol *flp.FLPSolution, logFile string) ([]flp.TourEstimate, error) {
	if sol == nil || len(sol.Flows) == 0 {
		return nil, nil
	}
	if logFile == "" {
		logFile = "flp_tsp.log"
	}

	stops := make(map[string][]int)
	for _, fl := range sol.Flows {
		c, ok := ds.DemandPointIndex(fl.DemandPoint)
		if !ok {
			return nil, fmt.Errorf("flow to unknown demand point %s", fl.DemandPoint)
		}
		stops[fl.Facility] = append(stops[fl.Facility], c)
	}

	env, err := gurobi.LoadEnv(logFile)
	if err != nil {
		return nil, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "loading environment for tour estimates", Err: err}
	}
	defer env.Free()
	env.SetIntParam("LogToConsole", int32(0))

	var tours []flp.TourEstimate
	for _, id := range sol.Open {
		points := stops[id]
		if len(points) == 0 {
			continue
		}
		f, ok := ds.FacilityIndex(id)
		if !ok {
			return nil, fmt.Errorf("open facility %s is not part of the instance", id)
		}

		//node 0 is the facility, the rest are its served demand points
		lat := make([]float64, len(points)+1)
		lon := make([]float64, len(points)+1)
		lat[0] = ds.Facility(f).Lat
		lon[0] = ds.Facility(f).Lon
		for i, c := range points {
			lat[i+1] = ds.DemandPoint(c).Lat
			lon[i+1] = ds.DemandPoint(c).Lon
		}
		d := make([][]int, len(lat))
		for i := range d {
			d[i] = make([]int, len(lat))
			for j := range d[i] {
				if i == j {
					continue
				}
				d[i][j] = int(flp.HaversineKm(lat[i], lon[i], lat[j], lon[j]) + 0.5)
			}
		}

		var (
			tour   []int
			length int
		)
		if len(d) == 2 {
			//only 1 demand point, so we dont need to solve the tsp
			tour = []int{0, 1}
			length = d[0][1] + d[1][0]
		} else {
			tour, length, _ = tsp.SolveTSP(d, env)
			if tour == nil || length < 0 {
				return nil, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: fmt.Sprintf("tsp estimate for facility %s returned no tour", id)}
			}
		}

		//rotate so the tour starts at the facility
		at := 0
		for i := range tour {
			if tour[i] == 0 {
				at = i
				break
			}
		}
		rotated := append(append([]int{}, tour[at:]...), tour[:at]...)

		est := flp.TourEstimate{Facility: id, LengthKm: length}
		for _, n := range rotated[1:] {
			est.Stops = append(est.Stops, ds.DemandPoint(points[n-1]).ID)
		}
		tours = append(tours, est)
	}
	return tours, nil
}
