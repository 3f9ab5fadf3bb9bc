package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/trezcool/soma/apps/api/echo"
	"github.com/trezcool/soma/apps/di"
	"github.com/trezcool/soma/core"
	logsvc "github.com/trezcool/soma/services/logger"
	schedsvc "github.com/trezcool/soma/services/scheduler"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	logger := logsvc.New("API", conf)

	c, err := di.New(context.Background(), conf, logger, true /* migrate */)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	defer func() {
		if err = c.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db_engine").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Background Jobs

	ctx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	if !conf.Scheduler.Disabled {
		jobsLogger := logsvc.New("JOBS", conf)
		scheduler := schedsvc.New(jobsLogger, backgroundTasks(c, jobsLogger)...)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		ExamSvc:    c.Services.Exam,
		AttemptSvc: c.Services.Attempt,
		EventSvc:   c.Services.Event,
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
