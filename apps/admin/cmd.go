package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/soma/core/attempt"
	"github.com/trezcool/soma/core/event"
	"github.com/trezcool/soma/storage/database"
)

var (
	gooseRunFunc = database.Migrate // mockable
	nowFunc      = time.Now         // mockable

	errHelp  = errors.New("help provided")
	errNoSQL = errors.New("migrate needs the postgres database engine")
)

type commandLine struct {
	db         *sql.DB // nil with the memory engine
	attemptSvc attempt.ServiceInterface
	eventSvc   event.ServiceInterface
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...]  - run a goose command (up, down, status, version, redo, ...)")
	fmt.Fprintln(cli.out, "  recompute-events           - run one event status recompute pass")
	fmt.Fprintln(cli.out, "  expire-attempts [-at TIME] - close the attempts whose exam window has closed")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "recompute-events":
		return cli.recomputeEvents(ctx)
	case "expire-attempts":
		expireCmd := flag.NewFlagSet("expire-attempts", flag.ContinueOnError)
		expireCmd.SetOutput(cli.out)
		at := expireCmd.String("at", "", "RFC 3339 instant to sweep at (default: now)")
		if err := expireCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		now := nowFunc().UTC()
		if *at != "" {
			t, err := time.Parse(time.RFC3339, *at)
			if err != nil {
				return errors.Wrap(err, "parsing -at")
			}
			now = t.UTC()
		}
		return cli.expireAttempts(ctx, now)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQL
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}

func (cli *commandLine) recomputeEvents(ctx context.Context) error {
	sum, err := cli.eventSvc.Recompute(ctx)

	statuses := make([]string, 0, len(sum.Results))
	for status := range sum.Results {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		res := sum.Results[event.Status(status)]
		fmt.Fprintf(cli.out, "%-10s matched=%d modified=%d\n", status, res.Matched, res.Modified)
	}
	for status, fErr := range sum.Failures {
		fmt.Fprintf(cli.out, "%-10s FAILED: %v\n", status, fErr)
	}
	return err
}

func (cli *commandLine) expireAttempts(ctx context.Context, now time.Time) error {
	res, err := cli.attemptSvc.ExpireOverdue(ctx, now)
	fmt.Fprintf(cli.out, "expired=%d auto_submitted=%d\n", res.Expired, res.AutoSubmitted)
	return err
}
