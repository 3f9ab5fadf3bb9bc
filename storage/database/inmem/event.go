package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/soma/core/event"
)

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) CreateEvent(_ context.Context, ev event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ev = cloneEvent(ev)
	repo.db.table[ev.ID] = &ev
	return cloneEvent(ev), nil
}

func (repo *eventRepository) GetEvent(_ context.Context, id string) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ev, ok := repo.db.table[id]; ok {
		return cloneEvent(*ev), nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) QueryEvents(_ context.Context, filter event.QueryFilter) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0)
	for _, ev := range repo.db.table {
		if filter.OwnerID != "" && ev.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && ev.Status != filter.Status {
			continue
		}
		events = append(events, cloneEvent(*ev))
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

func (repo *eventRepository) UpdateEvent(_ context.Context, ev event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[ev.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}
	ev = cloneEvent(ev)
	repo.db.table[ev.ID] = &ev
	return cloneEvent(ev), nil
}

func (repo *eventRepository) DeleteEvent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return event.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

// UpdateEventStatuses scans and writes under one lock, so each branch is atomic.
func (repo *eventRepository) UpdateEventStatuses(ctx context.Context, f event.StatusFilter) (event.BranchResult, error) {
	if err := ctx.Err(); err != nil {
		return event.BranchResult{}, err
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	var res event.BranchResult
	for _, ev := range repo.db.table {
		if !f.MatchesFacts(*ev) {
			continue
		}
		res.Matched++
		if f.Matches(*ev) {
			ev.Status = f.Target
			res.Modified++
		}
	}
	return res, nil
}

func cloneEvent(ev event.Event) event.Event {
	if ev.Tasks != nil {
		ev.Tasks = append([]event.Task(nil), ev.Tasks...)
	}
	return ev
}
