/* Copyright 2022, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/flp/grb"
	"git.solver4all.com/azaryc2s/flp/highs"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"
)

var (
	inst   *flp.FLPInstance
	logger *zap.Logger

	caps flp.ArrayIntFlags

	backend     *string
	inputF      *string
	outputF     *string
	timeLimit   *float64
	maxF        *int
	capOverride *float64
	workers     *int
	tours       *bool
	lpF         *string
	logLvl      *string
	dev         *bool
)

func main() {
	var err error

	flag.Var(&caps, "caps", "List of facility caps to sweep. Each cap is solved as its own scenario")
	backend = flag.String("backend", flp.BACKEND_GUROBI, "Solver backend. gurobi or highs")
	inputF = flag.String("input", "input.json", "Path to the input instance")
	outputF = flag.String("output", "", "Path to the output file. By default the input file will be overwritten adding the solution")
	timeLimit = flag.Float64("t", 0, "Time limit per solve in seconds. 0 means none")
	maxF = flag.Int("max", 0, "Maximum number of open facilities. 0 means unbounded")
	capOverride = flag.Float64("capacity", 0, "Capacity override applied to every facility. 0 keeps the instance capacities")
	workers = flag.Int("workers", 2, "Number of parallel solves during a cap sweep")
	tours = flag.Bool("tours", false, "Estimate delivery tours for the open facilities (gurobi only)")
	lpF = flag.String("lp", "", "Write the model to this path in LP format before solving (gurobi only)")
	logLvl = flag.String("log", "info", "Log level (debug|info|warn|error)")
	dev = flag.Bool("dev", false, "Use the development console log format")

	flag.Parse()

	logger, err = flp.NewLogger(*logLvl, *dev)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer logger.Sync()

	hostStat, _ := host.Info()
	cpuStat, _ := cpu.Info()
	vmStat, _ := mem.VirtualMemory()
	sysInfo := flp.SysInfo{hostStat.Platform, cpuStat[0].ModelName, fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)}

	inst, err = flp.ReadInstance(*inputF)
	if err != nil {
		logger.Fatal("couldn't read the instance", zap.Error(err))
	}
	ds, err := flp.NewDataset(inst.Facilities, inst.DemandPoints, inst.Lanes)
	if err != nil {
		logger.Fatal("invalid instance", zap.String("file", *inputF), zap.Error(err))
	}

	var solver flp.Solver
	switch *backend {
	case flp.BACKEND_GUROBI:
		solver = &grb.Solver{LPFile: *lpF, Log: logger}
	case flp.BACKEND_HIGHS:
		solver = &highs.Solver{Log: logger}
	default:
		logger.Fatal("unsupported backend", zap.String("backend", *backend))
	}

	cfg := flp.Config{
		MaxFacilities: *maxF,
		Capacity:      *capOverride,
		TimeLimit:     time.Duration(*timeLimit * float64(time.Second)),
	}
	settings := fmt.Sprintf("Solver-Settings: SolverDev: Zarychta, Backend=%s, TimeLimit=%.0fs, MaxFacilities=%d", solver.Name(), *timeLimit, *maxF)

	if len(caps) > 0 {
		runner := &flp.Runner{Solver: solver, Workers: *workers, Log: logger}
		result := runner.Run(ds, cfg, caps)
		result.RunID = uuid.New().String()
		for i := range result.Entries {
			if result.Entries[i].Solution != nil {
				result.Entries[i].Solution.System = sysInfo
			}
		}
		inst.Scenarios = result
		logger.Info("sweep finished", zap.String("run_id", result.RunID), zap.Int("scenarios", len(result.Entries)), zap.String("time", result.Time))
	} else {
		out, err := flp.Optimize(ds, cfg, solver)
		if err != nil {
			logger.Fatal("optimization failed", zap.String("file", *inputF), zap.Error(err))
		}
		if out.Solution != nil {
			sol := out.Solution
			sol.System = sysInfo
			if sol.Comment != "" {
				sol.Comment = settings + ". " + sol.Comment
			} else {
				sol.Comment = settings
			}

			solValid, validComment := flp.CheckSolutionValidity(ds, sol)
			if !solValid {
				logger.Error("the computed solution is invalid", zap.String("reason", validComment))
			} else {
				logger.Info("the computed solution is valid")
			}

			if *tours {
				if *backend != flp.BACKEND_GUROBI {
					logger.Warn("tour estimates need the gurobi backend, skipping")
				} else if ts, err := grb.EstimateTours(ds, sol, ""); err != nil {
					logger.Error("couldn't estimate the tours", zap.Error(err))
				} else {
					sol.Tours = ts
				}
			}

			inst.Solution = sol
			logger.Info("found a solution",
				zap.String("status", string(sol.Status)),
				zap.Strings("open", sol.Open),
				zap.Float64("total_cost", sol.TotalCost),
				zap.Float64("gap", sol.Gap),
				zap.String("time", sol.Time))
		} else {
			inst.Solution = &flp.FLPSolution{Status: out.Status, Comment: out.Comment, System: sysInfo}
			logger.Warn("no solution", zap.String("status", string(out.Status)), zap.String("comment", out.Comment))
		}
	}

	writeInstance()
}

func writeInstance() {
	fileName := *outputF
	if fileName == "" {
		fileName = *inputF //overwrite the input file
	}
	if err := inst.Write(fileName); err != nil {
		logger.Error("couldn't write the result", zap.String("file", fileName), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("result written", zap.String("file", fileName))
}
