package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
)

var (
	// errors
	ErrNotFound = core.NewDomainError(core.ErrNotFound, "event not found")
	ErrNotOwner = core.NewDomainError(core.ErrForbidden, "only the owner can manage this event")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		StatusUpdater
		CreateEvent(ctx context.Context, ev Event) (Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		// QueryEvents applies AND operation on the set QueryFilter fields, ordered by start.
		QueryEvents(ctx context.Context, filter QueryFilter) ([]Event, error)
		UpdateEvent(ctx context.Context, ev Event) (Event, error)
		DeleteEvent(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, ownerID string, ne NewEvent) (Event, error)
		Get(ctx context.Context, id, ownerID string) (Event, error)
		List(ctx context.Context, ownerID string, status Status) ([]Event, error)
		Update(ctx context.Context, id, ownerID string, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, id, ownerID string) error
		Recompute(ctx context.Context) (Summary, error)
	}

	Service struct {
		repo Repository
		job  *RecomputeJob
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{
		repo: repo,
		job:  NewRecomputeJob(repo, logger),
	}
}

func (svc *Service) Create(ctx context.Context, ownerID string, ne NewEvent) (Event, error) {
	now := nowFunc().UTC()
	ev := Event{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		CreatedAt: now,
	}
	apply(&ev, ne, now)
	return svc.repo.CreateEvent(ctx, ev)
}

func (svc *Service) Get(ctx context.Context, id, ownerID string) (Event, error) {
	ev, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if ev.OwnerID != ownerID {
		return Event{}, ErrNotOwner
	}
	return ev, nil
}

// List returns the owner's events, optionally narrowed to a cached status.
func (svc *Service) List(ctx context.Context, ownerID string, status Status) ([]Event, error) {
	events, err := svc.repo.QueryEvents(ctx, QueryFilter{OwnerID: ownerID, Status: status})
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events, nil
}

func (svc *Service) Update(ctx context.Context, id, ownerID string, ue UpdateEvent) (Event, error) {
	ev, err := svc.Get(ctx, id, ownerID)
	if err != nil {
		return Event{}, err
	}
	apply(&ev, NewEvent(ue), nowFunc().UTC())
	return svc.repo.UpdateEvent(ctx, ev)
}

func (svc *Service) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := svc.Get(ctx, id, ownerID); err != nil {
		return err
	}
	return svc.repo.DeleteEvent(ctx, id)
}

// Recompute runs one recompute pass now.
func (svc *Service) Recompute(ctx context.Context) (Summary, error) {
	return svc.job.Run(ctx, nowFunc())
}

// apply copies ne onto ev and seeds the cached status so it is right before the next recompute.
func apply(ev *Event, ne NewEvent, now time.Time) {
	ev.Title = ne.Title
	ev.Description = ne.Description
	ev.Start = ne.Start
	ev.DurationMinutes = ne.DurationMinutes
	ev.AllDay = ne.AllDay
	ev.Tasks = ne.Tasks
	if ev.Tasks == nil {
		ev.Tasks = []Task{}
	}
	ev.Status = ResolveStatus(now, *ev)
	ev.UpdatedAt = now
}
