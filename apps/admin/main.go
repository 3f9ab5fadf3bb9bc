package main

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/soma/apps/di"
	"github.com/trezcool/soma/core"
	logsvc "github.com/trezcool/soma/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("ADMIN", conf)

	// the schema is managed by the migrate command itself
	c, err := di.New(context.Background(), conf, logger, false /* migrate */)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}

	cli := &commandLine{
		attemptSvc: c.Services.Attempt,
		eventSvc:   c.Services.Event,
		out:        os.Stdout,
	}
	if c.DB != nil {
		cli.db = c.DB.DB
	}

	err = cli.run(context.Background(), os.Args)
	if cErr := c.Close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		if !errors.Is(err, errHelp) {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
