package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soma/core/event"
)

const owner = "planner-1"

func createEvent(t *testing.T, caller string, ne event.NewEvent) event.Event {
	t.Helper()
	rec := do(http.MethodPost, "/v1/events", caller, marchallObj(t, ne))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ev event.Event
	unmarchall(t, rec, &ev)
	return ev
}

func TestEventAPI_CRUD(t *testing.T) {
	now := time.Now().UTC()
	ev := createEvent(t, owner, event.NewEvent{
		Title:           " Standup ",
		Start:           now.Add(time.Hour),
		DurationMinutes: 15,
		Tasks:           []event.Task{{Title: "notes"}},
	})
	assert.Equal(t, "Standup", ev.Title)
	assert.Equal(t, event.StatusUpcoming, ev.Status)

	noTasks := createEvent(t, owner, event.NewEvent{Title: "Reminder", Start: now.Add(time.Hour)})
	assert.Equal(t, event.StatusCompleted, noTasks.Status)

	allDay := createEvent(t, owner, event.NewEvent{Title: "Offsite", Start: now.Add(-time.Hour), AllDay: true, Tasks: []event.Task{{Title: "book room"}}})
	assert.Equal(t, 1440, allDay.DurationMinutes)
	assert.Equal(t, event.StatusInProgress, allDay.Status)

	path := "/v1/events/" + ev.ID
	notOwner := marchallObj(t, httpErr{Error: "only the owner can manage this event"})
	runHttpTests(t, []httpTest{
		{name: "blank title", method: http.MethodPost, path: "/v1/events", caller: owner, body: []byte(`{"title":" ","start":"2024-05-10T14:00:00Z"}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"title":"this field cannot be blank"}`)},
		{name: "missing start", method: http.MethodPost, path: "/v1/events", caller: owner, body: []byte(`{"title":"x"}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"start":"this field is required"}`)},
		{name: "get by other", method: http.MethodGet, path: path, caller: "intruder", wantCode: http.StatusForbidden, wantData: notOwner},
		{name: "delete by other", method: http.MethodDelete, path: path, caller: "intruder", wantCode: http.StatusForbidden, wantData: notOwner},
		{name: "unknown", method: http.MethodGet, path: "/v1/events/nope", caller: owner, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "event not found"})},
		{name: "bad status filter", method: http.MethodGet, path: "/v1/events?status=bogus", caller: owner, wantCode: http.StatusBadRequest, wantData: []byte(`{"status":"unknown event status"}`)},
	})

	// completing the last task completes the event
	rec := do(http.MethodPut, path, owner, marchallObj(t, event.UpdateEvent{
		Title:           "Standup",
		Start:           ev.Start,
		DurationMinutes: 15,
		Tasks:           []event.Task{{Title: "notes", IsComplete: true}},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated event.Event
	unmarchall(t, rec, &updated)
	assert.Equal(t, event.StatusCompleted, updated.Status)

	rec = do(http.MethodGet, "/v1/events?status=completed", owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed []event.Event
	unmarchall(t, rec, &completed)
	assert.Len(t, completed, 2)

	rec = do(http.MethodDelete, path, owner)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(http.MethodGet, path, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventAPI_Recompute(t *testing.T) {
	now := time.Now().UTC()
	// stored with a stale status, as if time had passed since the last pass
	stale, err := eventRepo.CreateEvent(context.Background(), event.Event{
		ID:              "stale-event",
		OwnerID:         "planner-2",
		Title:           "Retro",
		Start:           now.Add(-2 * time.Hour),
		DurationMinutes: 30,
		Tasks:           []event.Task{{Title: "actions"}},
		Status:          event.StatusUpcoming,
	})
	require.NoError(t, err)

	rec := do(http.MethodPost, "/v1/events/recompute", "planner-2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Results  map[event.Status]event.BranchResult `json:"results"`
		Failures map[event.Status]string             `json:"failures"`
		Modified int64                               `json:"modified"`
	}
	unmarchall(t, rec, &resp)
	assert.Len(t, resp.Results, 4)
	assert.Empty(t, resp.Failures)
	assert.GreaterOrEqual(t, resp.Results[event.StatusExpired].Modified, int64(1))

	rec = do(http.MethodGet, "/v1/events/"+stale.ID, "planner-2")
	require.Equal(t, http.StatusOK, rec.Code)
	var got event.Event
	unmarchall(t, rec, &got)
	assert.Equal(t, event.StatusExpired, got.Status)

	// a second pass has nothing left to move for this event
	rec = do(http.MethodPost, "/v1/events/recompute", "planner-2")
	unmarchall(t, rec, &resp)
	assert.Equal(t, int64(0), resp.Results[event.StatusExpired].Modified)
}
