package highs

import (
	"fmt"
	"time"

	"git.solver4all.com/azaryc2s/flp"
	"github.com/nextmv-io/sdk/mip"
	"go.uber.org/zap"
)

// Solver runs models through the HiGHS provider of the nextmv mip package.
// It needs no license, so it also serves as the test and fallback backend.
type Solver struct {
	Log *zap.Logger
}

func (s *Solver) Name() string { return flp.BACKEND_HIGHS }

func (s *Solver) Solve(m *flp.FLPModel, timeLimit time.Duration) (flp.Result, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	mod := mip.NewModel()
	mod.Objective().SetMinimize()

	boolVars := make([]mip.Bool, m.VarCount)
	floatVars := make([]mip.Float, m.VarCount)
	for i := 0; i < m.VarCount; i++ {
		switch m.VarTypes[i] {
		case flp.VARTYPE_BINARY:
			boolVars[i] = mod.NewBool()
			if m.Obj[i] != 0 {
				mod.Objective().NewTerm(m.Obj[i], boolVars[i])
			}
		case flp.VARTYPE_CONTINUOUS:
			floatVars[i] = mod.NewFloat(m.LB[i], m.UB[i])
			if m.Obj[i] != 0 {
				mod.Objective().NewTerm(m.Obj[i], floatVars[i])
			}
		default:
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_HIGHS, Msg: fmt.Sprintf("unknown variable type %q", m.VarTypes[i])}
		}
	}

	for _, con := range m.Constrs {
		sense := mip.Equal
		switch con.Sense {
		case flp.SENSE_LE:
			sense = mip.LessThanOrEqual
		case flp.SENSE_GE:
			sense = mip.GreaterThanOrEqual
		case flp.SENSE_EQ:
			sense = mip.Equal
		default:
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_HIGHS, Msg: fmt.Sprintf("unknown sense %q in constraint %s", con.Sense, con.Name)}
		}
		cons := mod.NewConstraint(sense, con.RHS)
		for k, idx := range con.Ind {
			if m.VarTypes[idx] == flp.VARTYPE_BINARY {
				cons.NewTerm(con.Val[k], boolVars[idx])
			} else {
				cons.NewTerm(con.Val[k], floatVars[idx])
			}
		}
	}
	log.Debug("model built", zap.Int("vars", m.VarCount), zap.Int("constrs", len(m.Constrs)))

	solver, err := mip.NewSolver("highs", mod)
	if err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_HIGHS, Msg: "creating solver", Err: err}
	}

	opts := mip.NewSolveOptions()
	//the mip package treats a zero duration as no limit
	if err := opts.SetMaximumDuration(timeLimit); err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_HIGHS, Msg: "setting time limit", Err: err}
	}
	if err := opts.SetMIPGapRelative(0); err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_HIGHS, Msg: "setting gap tolerance", Err: err}
	}
	opts.SetVerbosity(mip.Off)

	startTime := time.Now()
	solution, err := solver.Solve(opts)
	if err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_HIGHS, Msg: "optimizing", Err: err}
	}

	res := flp.Result{Time: time.Since(startTime)}
	if solution == nil {
		res.Status = flp.STATUS_ERROR
		res.Comment = "Solver returned no solution object"
		return res, nil
	}
	res.Time = solution.RunTime()

	if solution.HasValues() {
		if solution.IsOptimal() {
			res.Status = flp.STATUS_OPTIMAL
		} else {
			res.Status = flp.STATUS_FEASIBLE
			res.Comment = "Solver stopped before proving optimality, no lower bound available. "
		}
		res.Obj = solution.ObjectiveValue()
		if res.Status == flp.STATUS_OPTIMAL {
			res.LBound = res.Obj
		}
		x := make([]float64, m.VarCount)
		for i := 0; i < m.VarCount; i++ {
			if m.VarTypes[i] == flp.VARTYPE_BINARY {
				x[i] = solution.Value(boolVars[i])
			} else {
				x[i] = solution.Value(floatVars[i])
			}
		}
		res.X = x
	} else {
		//the mip package reports no distinct unbounded state, so that case
		//lands here as well
		res.Status = flp.STATUS_INFEASIBLE
		res.Comment = "No solution values returned, the model is infeasible or unbounded"
	}

	log.Info("optimization done", zap.String("status", string(res.Status)), zap.Duration("time", res.Time))
	return res, nil
}
