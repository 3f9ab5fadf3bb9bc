package exam

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
)

var (
	// errors
	ErrNotFound = core.NewDomainError(core.ErrNotFound, "exam not found")
	ErrNotOwner = core.NewDomainError(core.ErrForbidden, "only the creator can manage this exam")

	// Orderings lists the fields exams can be ordered by.
	Orderings = []string{"created_at", "title", "scheduled_start_at"}

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateExam(ctx context.Context, e Exam) (Exam, error)
		GetExam(ctx context.Context, id string) (Exam, error)
		// QueryExams applies AND operation on the set QueryFilter fields.
		QueryExams(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Exam, error)
		UpdateExam(ctx context.Context, e Exam) (Exam, error)
		// DeleteExam removes the exam and every attempt made against it.
		DeleteExam(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, creatorID string, ne NewExam) (Exam, error)
		Get(ctx context.Context, id string) (Exam, error)
		GetOwned(ctx context.Context, id, creatorID string) (Exam, error)
		Overview(ctx context.Context, creatorID, searchID string, ordering []core.DBOrdering) ([]Summary, error)
		Update(ctx context.Context, id, creatorID string, ue UpdateExam) (Exam, error)
		Delete(ctx context.Context, id, creatorID string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, creatorID string, ne NewExam) (Exam, error) {
	now := nowFunc().UTC()
	e := Exam{
		ID:        uuid.New().String(),
		CreatorID: creatorID,
		CreatedAt: now,
	}
	apply(&e, ne, now)
	return svc.repo.CreateExam(ctx, e)
}

func (svc *Service) Get(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExam(ctx, id)
}

// GetOwned returns the exam only if it was created by creatorID.
func (svc *Service) GetOwned(ctx context.Context, id, creatorID string) (Exam, error) {
	e, err := svc.repo.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if e.CreatorID != creatorID {
		return Exam{}, ErrNotOwner
	}
	return e, nil
}

// Overview lists the creator's exams with their status resolved now, searchID first.
func (svc *Service) Overview(ctx context.Context, creatorID, searchID string, ordering []core.DBOrdering) ([]Summary, error) {
	exams, err := svc.repo.QueryExams(ctx, QueryFilter{CreatorID: creatorID}, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	return Overview(nowFunc().UTC(), exams, searchID), nil
}

func (svc *Service) Update(ctx context.Context, id, creatorID string, ue UpdateExam) (Exam, error) {
	e, err := svc.GetOwned(ctx, id, creatorID)
	if err != nil {
		return Exam{}, err
	}
	apply(&e, NewExam(ue), nowFunc().UTC())
	return svc.repo.UpdateExam(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, id, creatorID string) error {
	if _, err := svc.GetOwned(ctx, id, creatorID); err != nil {
		return err
	}
	return svc.repo.DeleteExam(ctx, id)
}

func apply(e *Exam, ne NewExam, now time.Time) {
	e.Title = ne.Title
	e.Description = ne.Description
	e.SubjectCode = ne.SubjectCode
	e.ExamCode = ne.ExamCode
	e.Questions = ne.Questions
	if e.Questions == nil {
		e.Questions = []Question{}
	}
	e.ValidationRule = ne.ValidationRule
	e.IsTimed = ne.IsTimed
	e.DurationMinutes = ne.DurationMinutes
	e.ScheduledStartAt = ne.ScheduledStartAt
	e.AllowLateSubmissions = ne.AllowLateSubmissions
	e.LateWindowMinutes = ne.LateWindowMinutes
	e.AutoSubmitOnEnd = ne.AutoSubmitOnEnd
	e.UpdatedAt = now
}
