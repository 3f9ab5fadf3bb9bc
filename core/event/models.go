package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/soma/core"
)

// Status is the cached lifecycle state of an event, kept fresh by RecomputeJob.
type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

// allDayMinutes is the duration given to all-day events created without one.
const allDayMinutes = 24 * 60

type (
	Task struct {
		Title      string `json:"title" validate:"notblank"`
		IsComplete bool   `json:"is_complete"`
	}

	Event struct {
		ID              string    `json:"id"`
		OwnerID         string    `json:"owner_id"`
		Title           string    `json:"title"`
		Description     string    `json:"description"`
		Start           time.Time `json:"start"` // UTC
		DurationMinutes int       `json:"duration_minutes"`
		AllDay          bool      `json:"all_day"`
		Tasks           []Task    `json:"tasks"`
		Status          Status    `json:"status"`
		CreatedAt       time.Time `json:"created_at"` // UTC
		UpdatedAt       time.Time `json:"updated_at"` // UTC
	}
)

func (ev Event) EndsAt() time.Time {
	return ev.Start.Add(time.Duration(ev.DurationMinutes) * time.Minute)
}

// HasIncomplete reports whether any task is still open. An empty task list has none.
func (ev Event) HasIncomplete() bool {
	for _, t := range ev.Tasks {
		if !t.IsComplete {
			return true
		}
	}
	return false
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title           string    `json:"title" validate:"notblank"`
	Description     string    `json:"description"`
	Start           time.Time `json:"start" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0"`
	AllDay          bool      `json:"all_day"`
	Tasks           []Task    `json:"tasks" validate:"dive"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Start = ne.Start.UTC()
	if ne.AllDay && ne.DurationMinutes == 0 {
		ne.DurationMinutes = allDayMinutes
	}
	for i := range ne.Tasks {
		ne.Tasks[i].Title = core.CleanString(ne.Tasks[i].Title)
	}
	return validate.Struct(ne)
}

// UpdateEvent replaces the whole mutable part of an Event.
type UpdateEvent NewEvent

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	return (*NewEvent)(ue).Validate(validate)
}

type QueryFilter struct {
	OwnerID string
	Status  Status
}
