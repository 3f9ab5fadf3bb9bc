package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/attempt"
	"github.com/trezcool/soma/core/event"
	"github.com/trezcool/soma/core/exam"
)

func TestExamRepository_QueryExams(t *testing.T) {
	ctx := context.Background()
	repo := NewExamRepository(Open())
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := t0.Add(48 * time.Hour)

	for _, e := range []exam.Exam{
		{ID: "a", CreatorID: "c1", Title: "Biology", CreatedAt: t0},
		{ID: "b", CreatorID: "c1", Title: "Algebra", CreatedAt: t0.Add(time.Hour), ScheduledStartAt: &later},
		{ID: "c", CreatorID: "c2", Title: "Chemistry", CreatedAt: t0.Add(2 * time.Hour)},
	} {
		_, err := repo.CreateExam(ctx, e)
		require.NoError(t, err)
	}

	ids := func(exams []exam.Exam) []string {
		out := make([]string, 0, len(exams))
		for _, e := range exams {
			out = append(out, e.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   exam.QueryFilter
		ordering string
		want     []string
	}{
		{name: "default newest first", want: []string{"c", "b", "a"}},
		{name: "by creator", filter: exam.QueryFilter{CreatorID: "c1"}, want: []string{"b", "a"}},
		{name: "by ids", filter: exam.QueryFilter{IDs: []string{"a", "c"}}, want: []string{"c", "a"}},
		{name: "title", ordering: "title", want: []string{"b", "a", "c"}},
		{name: "start nulls last", ordering: "scheduled_start_at,title", want: []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryExams(ctx, tt.filter, core.ParseOrdering(tt.ordering, exam.Orderings...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestExamRepository_Isolation(t *testing.T) {
	ctx := context.Background()
	repo := NewExamRepository(Open())
	e := exam.Exam{ID: "x", Questions: []exam.Question{{Choices: []exam.Choice{{Text: "a", IsCorrect: true}}}}}
	_, err := repo.CreateExam(ctx, e)
	require.NoError(t, err)

	e.Questions[0].Choices[0].IsCorrect = false
	got, err := repo.GetExam(ctx, "x")
	require.NoError(t, err)
	assert.True(t, got.Questions[0].Choices[0].IsCorrect)
}

func TestExamRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := Open()
	exams, attempts := NewExamRepository(db), NewAttemptRepository(db)

	for _, id := range []string{"e1", "e2"} {
		_, err := exams.CreateExam(ctx, exam.Exam{ID: id})
		require.NoError(t, err)
		_, err = attempts.CreateAttempt(ctx, attempt.Attempt{ID: "a-" + id, ExamID: id, ParticipantID: "p", Status: attempt.StatusInProgress})
		require.NoError(t, err)
	}

	require.NoError(t, exams.DeleteExam(ctx, "e1"))
	assert.Equal(t, exam.ErrNotFound, exams.DeleteExam(ctx, "e1"))

	_, err := attempts.GetAttempt(ctx, "a-e1")
	assert.Equal(t, attempt.ErrNotFound, err)
	_, err = attempts.GetAttempt(ctx, "a-e2")
	assert.NoError(t, err)
}

func TestAttemptRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptRepository(Open())
	a := attempt.Attempt{ID: "a1", ExamID: "e1", ParticipantID: "ST1", Status: attempt.StatusInProgress}
	_, err := repo.CreateAttempt(ctx, a)
	require.NoError(t, err)

	t.Run("one attempt per participant", func(t *testing.T) {
		_, err := repo.CreateAttempt(ctx, attempt.Attempt{ID: "a2", ExamID: "e1", ParticipantID: "ST1"})
		assert.Equal(t, attempt.ErrAttemptExists, err)
		_, err = repo.CreateAttempt(ctx, attempt.Attempt{ID: "a3", ExamID: "e2", ParticipantID: "ST1", Status: attempt.StatusInProgress})
		assert.NoError(t, err)
	})

	t.Run("complete once", func(t *testing.T) {
		score := 2
		done := a
		done.Status = attempt.StatusSubmitted
		done.Score = &score
		got, err := repo.CompleteAttempt(ctx, done)
		require.NoError(t, err)
		assert.Equal(t, attempt.StatusSubmitted, got.Status)

		done.Status = attempt.StatusExpired
		_, err = repo.CompleteAttempt(ctx, done)
		assert.Equal(t, attempt.ErrAlreadyCompleted, err)

		stored, _ := repo.GetAttempt(ctx, "a1")
		assert.Equal(t, attempt.StatusSubmitted, stored.Status)
	})

	t.Run("query by status", func(t *testing.T) {
		got, err := repo.QueryAttempts(ctx, attempt.QueryFilter{Status: attempt.StatusInProgress})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a3", got[0].ID)
	})
}

func TestEventRecompute(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(Open())
	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	open := []event.Task{{Title: "t"}}

	for _, ev := range []event.Event{
		{ID: "done", Start: now.Add(-time.Hour), DurationMinutes: 30, Status: event.StatusExpired},
		{ID: "soon", Start: now.Add(time.Hour), DurationMinutes: 30, Tasks: open, Status: event.StatusUpcoming},
		{ID: "now", Start: now.Add(-5 * time.Minute), DurationMinutes: 30, Tasks: open, Status: event.StatusUpcoming},
		{ID: "past", Start: now.Add(-2 * time.Hour), DurationMinutes: 30, Tasks: open, Status: event.StatusInProgress},
	} {
		_, err := repo.CreateEvent(ctx, ev)
		require.NoError(t, err)
	}

	job := event.NewRecomputeJob(repo, discardLogger{})

	sum, err := job.Run(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, event.BranchResult{Matched: 1, Modified: 1}, sum.Results[event.StatusCompleted])
	assert.Equal(t, event.BranchResult{Matched: 1, Modified: 0}, sum.Results[event.StatusUpcoming])
	assert.Equal(t, event.BranchResult{Matched: 1, Modified: 1}, sum.Results[event.StatusInProgress])
	assert.Equal(t, event.BranchResult{Matched: 1, Modified: 1}, sum.Results[event.StatusExpired])

	for id, want := range map[string]event.Status{
		"done": event.StatusCompleted,
		"soon": event.StatusUpcoming,
		"now":  event.StatusInProgress,
		"past": event.StatusExpired,
	} {
		ev, err := repo.GetEvent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, ev.Status, id)
	}

	again, err := job.Run(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, again.Modified())
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Fatal(string, ...interface{}) {}
