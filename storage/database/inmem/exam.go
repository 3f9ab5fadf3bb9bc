package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/exam"
)

var defaultExamOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}

type examRepository struct {
	db       *examTable
	attempts *attemptTable
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db.exam, attempts: db.attempt}
}

func (repo *examRepository) CreateExam(_ context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e = cloneExam(e)
	repo.db.table[e.ID] = &e
	return cloneExam(e), nil
}

func (repo *examRepository) GetExam(_ context.Context, id string) (exam.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return cloneExam(*e), nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) QueryExams(_ context.Context, filter exam.QueryFilter, ordering []core.DBOrdering) ([]exam.Exam, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exams := make([]exam.Exam, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		if filter.CreatorID != "" && e.CreatorID != filter.CreatorID {
			continue
		}
		if len(filter.IDs) > 0 && !containsID(filter.IDs, e.ID) {
			continue
		}
		exams = append(exams, cloneExam(*e))
	}

	if len(ordering) == 0 {
		ordering = defaultExamOrdering
	}
	sort.SliceStable(exams, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareExams(exams[i], exams[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return exams[i].ID < exams[j].ID
	})
	return exams, nil
}

func (repo *examRepository) UpdateExam(_ context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[e.ID]; !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	e = cloneExam(e)
	repo.db.table[e.ID] = &e
	return cloneExam(e), nil
}

func (repo *examRepository) DeleteExam(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return exam.ErrNotFound
	}
	delete(repo.db.table, id)

	repo.attempts.Lock()
	defer repo.attempts.Unlock()
	for aID, a := range repo.attempts.table {
		if a.ExamID == id {
			delete(repo.attempts.table, aID)
		}
	}
	return nil
}

// compareExams orders missing times last, like Postgres does for NULLs in ascending order.
func compareExams(a, b exam.Exam, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "scheduled_start_at":
		switch {
		case a.ScheduledStartAt == nil && b.ScheduledStartAt == nil:
			return 0
		case a.ScheduledStartAt == nil:
			return 1
		case b.ScheduledStartAt == nil:
			return -1
		}
		return compareTimes(*a.ScheduledStartAt, *b.ScheduledStartAt)
	default:
		return compareTimes(a.CreatedAt, b.CreatedAt)
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func containsID(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func cloneExam(e exam.Exam) exam.Exam {
	if e.Questions != nil {
		questions := make([]exam.Question, len(e.Questions))
		for i, q := range e.Questions {
			questions[i] = exam.Question{
				Contents: append([]exam.Content(nil), q.Contents...),
				Choices:  append([]exam.Choice(nil), q.Choices...),
			}
		}
		e.Questions = questions
	}
	if e.ValidationRule.StartsWith != nil {
		e.ValidationRule.StartsWith = append([]string(nil), e.ValidationRule.StartsWith...)
	}
	return e
}
