package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/soma/core/attempt"
)

type attemptRepository struct {
	db *attemptTable
}

var _ attempt.Repository = (*attemptRepository)(nil)

func NewAttemptRepository(db *DB) attempt.Repository {
	return &attemptRepository{db: db.attempt}
}

func (repo *attemptRepository) CreateAttempt(_ context.Context, a attempt.Attempt) (attempt.Attempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.table {
		if other.ExamID == a.ExamID && other.ParticipantID == a.ParticipantID {
			return attempt.Attempt{}, attempt.ErrAttemptExists
		}
	}
	a = cloneAttempt(a)
	repo.db.table[a.ID] = &a
	return cloneAttempt(a), nil
}

func (repo *attemptRepository) GetAttempt(_ context.Context, id string) (attempt.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return cloneAttempt(*a), nil
	}
	return attempt.Attempt{}, attempt.ErrNotFound
}

func (repo *attemptRepository) QueryAttempts(_ context.Context, filter attempt.QueryFilter) ([]attempt.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]attempt.Attempt, 0)
	for _, a := range repo.db.table {
		if filter.ExamID != "" && a.ExamID != filter.ExamID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		attempts = append(attempts, cloneAttempt(*a))
	}
	sort.Slice(attempts, func(i, j int) bool {
		if attempts[i].StartedAt.Equal(attempts[j].StartedAt) {
			return attempts[i].ID < attempts[j].ID
		}
		return attempts[i].StartedAt.Before(attempts[j].StartedAt)
	})
	return attempts, nil
}

func (repo *attemptRepository) CompleteAttempt(_ context.Context, a attempt.Attempt) (attempt.Attempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[a.ID]
	if !ok {
		return attempt.Attempt{}, attempt.ErrNotFound
	}
	if stored.Status != attempt.StatusInProgress {
		return attempt.Attempt{}, attempt.ErrAlreadyCompleted
	}

	stored.EndedAt = a.EndedAt
	stored.TimeTakenSeconds = a.TimeTakenSeconds
	stored.Answers = append([]attempt.Answer(nil), a.Answers...)
	stored.Score = a.Score
	stored.Status = a.Status
	return cloneAttempt(*stored), nil
}

func cloneAttempt(a attempt.Attempt) attempt.Attempt {
	if a.Answers != nil {
		a.Answers = append([]attempt.Answer(nil), a.Answers...)
	}
	return a
}
