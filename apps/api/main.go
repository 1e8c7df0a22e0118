package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/apps/container"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/group"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	logger := container.NewLogger(conf, "API")
	defer logger.Close()

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), time.Minute)
	c, err := container.New(setupCtx, conf, logger, true /* migrate */)
	cancelSetup()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}
	defer c.Close()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db").Set(conf.Database.Engine)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Scheduled Filter Runs

	if conf.Filters.Schedule != "" {
		scheduler, err := scheduleFilterRuns(conf.Filters.Schedule, c.GroupSvc, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("scheduling filter runs: %v", err), err)
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		GroupSvc:   c.GroupSvc,
		StudentSvc: c.StudentSvc,
		RollSvc:    c.RollSvc,
		Validate:   c.Validate,
		Translator: c.Translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// scheduleFilterRuns runs the group filters on `spec` (standard 5-field cron syntax or descriptors like "@daily").
// A tick that finds a run in progress is skipped.
func scheduleFilterRuns(spec string, svc *group.Service, logger core.Logger) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := scheduler.AddFunc(spec, func() {
		summary, err := svc.RunFilters(context.Background())
		if errors.Is(err, core.ErrRunInProgress) {
			logger.Info("scheduled filter run skipped: a run is already in progress")
			return
		}
		if err != nil {
			logger.Error(fmt.Sprintf("scheduled filter run: %v", err), err)
			return
		}
		logger.Info(fmt.Sprintf("scheduled filter run: %d groups updated, %d failed", summary.Groups, len(summary.Failed)))
	})
	if err != nil {
		return nil, err
	}
	return scheduler, nil
}
