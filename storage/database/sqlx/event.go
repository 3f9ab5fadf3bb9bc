package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/soma/core/event"
)

const eventColumns = `id, owner_id, title, description, start_at, duration_minutes, all_day, tasks,
	event_status, created_at, updated_at`

type eventRow struct {
	ID              string     `db:"id"`
	OwnerID         string     `db:"owner_id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	StartAt         time.Time  `db:"start_at"`
	DurationMinutes int        `db:"duration_minutes"`
	AllDay          bool       `db:"all_day"`
	Tasks           types.JSON `db:"tasks"`
	Status          string     `db:"event_status"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *sqlx.DB) event.Repository {
	return &eventRepository{db: db}
}

func (repo eventRepository) marshal(ev event.Event) (eventRow, error) {
	row := eventRow{
		ID:              ev.ID,
		OwnerID:         ev.OwnerID,
		Title:           ev.Title,
		Description:     ev.Description,
		StartAt:         ev.Start.UTC(),
		DurationMinutes: ev.DurationMinutes,
		AllDay:          ev.AllDay,
		Status:          string(ev.Status),
		CreatedAt:       ev.CreatedAt.UTC(),
		UpdatedAt:       ev.UpdatedAt.UTC(),
	}
	tasks := ev.Tasks
	if tasks == nil {
		tasks = []event.Task{}
	}
	if err := row.Tasks.Marshal(tasks); err != nil {
		return eventRow{}, errors.Wrap(err, "marshalling tasks")
	}
	return row, nil
}

func (repo eventRepository) unmarshal(row eventRow) (event.Event, error) {
	ev := event.Event{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		Title:           row.Title,
		Description:     row.Description,
		Start:           row.StartAt.UTC(),
		DurationMinutes: row.DurationMinutes,
		AllDay:          row.AllDay,
		Status:          event.Status(row.Status),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if err := row.Tasks.Unmarshal(&ev.Tasks); err != nil {
		return event.Event{}, errors.Wrap(err, "unmarshalling tasks")
	}
	return ev, nil
}

func (repo eventRepository) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	row, err := repo.marshal(ev)
	if err != nil {
		return event.Event{}, err
	}
	q := `INSERT INTO event (` + eventColumns + `) VALUES (
		:id, :owner_id, :title, :description, :start_at, :duration_minutes, :all_day, :tasks,
		:event_status, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return repo.unmarshal(row)
}

func (repo eventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if !validID(id) {
		return event.Event{}, event.ErrNotFound
	}
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM event WHERE id = $1`, id); err != nil {
		return event.Event{}, trapNoRowsErr(err, event.ErrNotFound, "selecting event")
	}
	return repo.unmarshal(row)
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter event.QueryFilter) ([]event.Event, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where = append(where, "owner_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "event_status = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + eventColumns + ` FROM event`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY start_at, id"

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting events")
	}
	events := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := repo.unmarshal(row)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	row, err := repo.marshal(ev)
	if err != nil {
		return event.Event{}, err
	}
	q := `UPDATE event SET
		title = :title, description = :description, start_at = :start_at, duration_minutes = :duration_minutes,
		all_day = :all_day, tasks = :tasks, event_status = :event_status, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return repo.unmarshal(row)
}

func (repo eventRepository) DeleteEvent(ctx context.Context, id string) error {
	if !validID(id) {
		return event.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM event WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.ErrNotFound
	}
	return nil
}

// UpdateEventStatuses runs as one statement: rows matching the facts are locked,
// and only those not already at the target are written.
func (repo eventRepository) UpdateEventStatuses(ctx context.Context, f event.StatusFilter) (event.BranchResult, error) {
	q, args := statusUpdateQuery(f)

	var res event.BranchResult
	if err := repo.db.QueryRowxContext(ctx, q, args...).Scan(&res.Matched, &res.Modified); err != nil {
		return event.BranchResult{}, errors.Wrapf(err, "updating events to %s", f.Target)
	}
	return res, nil
}
