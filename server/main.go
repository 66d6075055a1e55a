/* Copyright 2022, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"git.solver4all.com/azaryc2s/flp"
	"git.solver4all.com/azaryc2s/flp/grb"
	"git.solver4all.com/azaryc2s/flp/highs"
	"git.solver4all.com/azaryc2s/flp/internal/api"
	"git.solver4all.com/azaryc2s/flp/internal/config"
	"git.solver4all.com/azaryc2s/flp/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to the yaml config file. Empty tries flp.yaml and falls back to defaults")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	logger, err := flp.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Instance == "" {
		logger.Fatal("no instance configured, set instance in the config file or FLP_INSTANCE")
	}
	inst, err := flp.ReadInstance(cfg.Instance)
	if err != nil {
		logger.Fatal("failed to read instance", zap.Error(err))
	}
	ds, err := flp.NewDataset(inst.Facilities, inst.DemandPoints, inst.Lanes)
	if err != nil {
		logger.Fatal("instance is not a valid network", zap.Error(err))
	}
	logger.Info("loaded instance",
		zap.String("name", inst.Name),
		zap.Int("facilities", ds.NumFacilities()),
		zap.Int("demand_points", ds.NumDemandPoints()),
	)

	solvers := map[string]flp.Solver{
		flp.BACKEND_GUROBI: &grb.Solver{LogFile: cfg.GurobiLog, Log: logger},
		flp.BACKEND_HIGHS:  &highs.Solver{Log: logger},
	}
	tours := func(ds *flp.Dataset, sol *flp.FLPSolution) ([]flp.TourEstimate, error) {
		return grb.EstimateTours(ds, sol, cfg.GurobiLog)
	}

	var st store.Store
	if cfg.RedisURL != "" {
		rs, err := store.NewRedis(cfg.RedisURL, time.Duration(cfg.SweepTTLSeconds)*time.Second)
		if err != nil {
			logger.Fatal("failed to set up redis store", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rs.Ping(ctx); err != nil {
			cancel()
			logger.Fatal("redis is not reachable", zap.Error(err))
		}
		cancel()
		logger.Info("using redis store", zap.String("url", cfg.RedisURL))
		st = rs
	} else {
		logger.Info("using in-memory store")
		st = store.NewMemory()
	}

	server := api.New(logger, cfg, inst, ds, solvers, st, tours)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("API listening", zap.String("addr", cfg.Addr), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
