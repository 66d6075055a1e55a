/* Copyright 2022, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */
/* Copyright 2022, Gurobi Optimization, LLC */

package grb

import (
	"fmt"
	"time"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"go.uber.org/zap"
)

// Solver runs models through Gurobi. Every Solve builds a fresh environment,
// so one Solver may be used from several goroutines at once.
type Solver struct {
	Threads int
	LogFile string
	LPFile  string
	Log     *zap.Logger
}

func (s *Solver) Name() string { return flp.BACKEND_GUROBI }

func (s *Solver) Solve(m *flp.FLPModel, timeLimit time.Duration) (flp.Result, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	logFile := s.LogFile
	if logFile == "" {
		logFile = "flp_gurobi.log"
	}

	env, err := gurobi.LoadEnv(logFile)
	if err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "loading environment", Err: err}
	}
	defer env.Free()
	env.SetIntParam("LogToConsole", int32(0))
	if s.Threads > 0 {
		env.SetIntParam("Threads", int32(s.Threads))
	}
	if timeLimit > 0 {
		env.SetDblParam("TimeLimit", timeLimit.Seconds())
	}

	vtypes, err := translateVarTypes(m)
	if err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "translating model", Err: err}
	}

	gm, err := env.NewModel(m.Name, int32(m.VarCount), m.Obj, m.LB, m.UB, vtypes, m.VarNames)
	if err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "creating model", Err: err}
	}
	defer gm.Free()

	if err := gm.SetIntAttr(gurobi.INT_ATTR_MODELSENSE, gurobi.MINIMIZE); err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "setting model sense", Err: err}
	}

	for _, con := range m.Constrs {
		sense, err := translateSense(con.Sense)
		if err != nil {
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: fmt.Sprintf("translating constraint %s", con.Name), Err: err}
		}
		if err := gm.AddConstr(con.Ind, con.Val, sense, con.RHS, con.Name); err != nil {
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: fmt.Sprintf("adding constraint %s", con.Name), Err: err}
		}
	}
	log.Debug("model built", zap.Int("vars", m.VarCount), zap.Int("constrs", len(m.Constrs)))

	res := flp.Result{}
	if s.LPFile != "" {
		if err := gm.Write(s.LPFile); err != nil {
			res.Comment += fmt.Sprintf("Couldn't write the lp file: %s. ", err.Error())
		}
	}

	startTime := time.Now()
	if err := gm.Optimize(); err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "optimizing", Err: err}
	}

	optimstatus, err := gm.GetIntAttr(gurobi.INT_ATTR_STATUS)
	if err != nil {
		return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "retrieving optimization status", Err: err}
	}

	if optimstatus == gurobi.INF_OR_UNBD {
		//Gurobi can't tell the two apart with presolve reductions on, so we
		//solve once more without them to get a definite status
		gm.SetIntParam("DualReductions", 0)
		if err := gm.Optimize(); err != nil {
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "re-optimizing without dual reductions", Err: err}
		}
		optimstatus, err = gm.GetIntAttr(gurobi.INT_ATTR_STATUS)
		if err != nil {
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "retrieving optimization status", Err: err}
		}
		res.Comment += "Re-solved without dual reductions to split INF_OR_UNBD. "
	}
	res.Time = time.Since(startTime)

	switch optimstatus {
	case gurobi.OPTIMAL:
		res.Status = flp.STATUS_OPTIMAL
		if err := s.capture(gm, m, &res); err != nil {
			return flp.Result{}, err
		}
	case gurobi.INFEASIBLE:
		res.Status = flp.STATUS_INFEASIBLE
		res.Comment += "Model is proven infeasible"
	case gurobi.UNBOUNDED:
		res.Status = flp.STATUS_UNBOUNDED
		res.Comment += "Model is proven unbounded"
	case gurobi.TIME_LIMIT:
		solcount, err := gm.GetIntAttr(gurobi.INT_ATTR_SOLCOUNT)
		if err != nil {
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "retrieving solution count", Err: err}
		}
		if solcount > 0 {
			res.Status = flp.STATUS_FEASIBLE
			res.Comment += "Time limit reached"
			if err := s.capture(gm, m, &res); err != nil {
				return flp.Result{}, err
			}
		} else {
			res.Status = flp.STATUS_ERROR
			res.Comment += "Time limit reached without an incumbent solution"
		}
	default:
		solcount, err := gm.GetIntAttr(gurobi.INT_ATTR_SOLCOUNT)
		if err != nil {
			return flp.Result{}, &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "retrieving solution count", Err: err}
		}
		if solcount > 0 {
			res.Status = flp.STATUS_FEASIBLE
			res.Comment += fmt.Sprintf("Optimization stopped early with status %d", optimstatus)
			if err := s.capture(gm, m, &res); err != nil {
				return flp.Result{}, err
			}
		} else {
			res.Status = flp.STATUS_ERROR
			res.Comment += fmt.Sprintf("Optimization stopped with status %d without a solution", optimstatus)
		}
	}

	log.Info("optimization done", zap.String("status", string(res.Status)), zap.Duration("time", res.Time))
	return res, nil
}

// capture reads the objective, the bound and the variable assignment of the
// current incumbent.
func (s *Solver) capture(gm *gurobi.Model, m *flp.FLPModel, res *flp.Result) error {
	objval, err := gm.GetDblAttr(gurobi.DBL_ATTR_OBJVAL)
	if err != nil {
		return &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "retrieving the obj-value", Err: err}
	}
	res.Obj = objval

	lb, err := gm.GetDblAttr(gurobi.DBL_ATTR_OBJBOUND)
	if err != nil {
		res.Comment += fmt.Sprintf("Couldn't retrieve the lower-bound-value: %s. ", err.Error())
		if res.Status == flp.STATUS_OPTIMAL {
			lb = objval
		}
	}
	res.LBound = lb

	solA, err := gm.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(m.VarCount))
	if err != nil {
		return &flp.SolverError{Backend: flp.BACKEND_GUROBI, Msg: "retrieving the variable values", Err: err}
	}
	res.X = solA
	return nil
}

func translateVarTypes(m *flp.FLPModel) ([]int8, error) {
	vtypes := make([]int8, m.VarCount)
	for i, t := range m.VarTypes {
		switch t {
		case flp.VARTYPE_BINARY:
			vtypes[i] = gurobi.BINARY
		case flp.VARTYPE_CONTINUOUS:
			vtypes[i] = gurobi.CONTINUOUS
		default:
			return nil, fmt.Errorf("unknown variable type %q", t)
		}
	}
	return vtypes, nil
}

func translateSense(sense int8) (int8, error) {
	switch sense {
	case flp.SENSE_LE:
		return gurobi.LESS_EQUAL, nil
	case flp.SENSE_GE:
		return gurobi.GREATER_EQUAL, nil
	case flp.SENSE_EQ:
		return gurobi.EQUAL, nil
	}
	return 0, fmt.Errorf("unknown constraint sense %q", sense)
}
