package event

import (
	"context"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
)

type (
	// StatusUpdater moves every event matching a filter to the filter's target
	// in one atomic store call.
	StatusUpdater interface {
		UpdateEventStatuses(ctx context.Context, f StatusFilter) (BranchResult, error)
	}

	// BranchResult counts the events whose facts matched a branch and those actually modified.
	BranchResult struct {
		Matched  int64 `json:"matched"`
		Modified int64 `json:"modified"`
	}

	// Summary holds the outcome of one recompute pass. A branch is in exactly one of the maps.
	Summary struct {
		Results  map[Status]BranchResult
		Failures map[Status]error
	}

	RecomputeJob struct {
		repo   StatusUpdater
		logger core.Logger
	}
)

func NewRecomputeJob(repo StatusUpdater, logger core.Logger) *RecomputeJob {
	vala.BeginValidation().Validate(
		core.IsNotNil(repo, "repo"),
		core.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &RecomputeJob{repo: repo, logger: logger}
}

// Run applies the four branch updates for now. A failing branch does not stop
// the others, and cancelling ctx does not abort a pass already started.
func (job *RecomputeJob) Run(ctx context.Context, now time.Time) (Summary, error) {
	ctx = context.WithoutCancel(ctx)
	sum := Summary{
		Results:  make(map[Status]BranchResult),
		Failures: make(map[Status]error),
	}

	var failed []string
	for _, f := range BranchFilters(now.UTC()) {
		res, err := job.repo.UpdateEventStatuses(ctx, f)
		if err != nil {
			sum.Failures[f.Target] = err
			failed = append(failed, string(f.Target))
			job.logger.Error("recomputing event statuses", err, map[string]interface{}{"branch": f.Target})
			continue
		}
		sum.Results[f.Target] = res
	}

	if len(failed) > 0 {
		return sum, errors.Errorf("event status recompute failed for: %s", strings.Join(failed, ", "))
	}
	return sum, nil
}

// Modified is the number of events moved by the pass.
func (s Summary) Modified() int64 {
	var n int64
	for _, r := range s.Results {
		n += r.Modified
	}
	return n
}
