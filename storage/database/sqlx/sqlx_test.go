package sqlxrepos

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/event"
	"github.com/trezcool/soma/core/exam"
)

func TestStatusFactsWhere(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	filters := event.BranchFilters(now)

	tests := []struct {
		name string
		f    event.StatusFilter
		want string
	}{
		{name: "completed", f: filters[0], want: "NOT " + hasIncompleteTask},
		{name: "upcoming", f: filters[1], want: hasIncompleteTask + " AND start_at > $2"},
		{name: "in progress", f: filters[2], want: hasIncompleteTask + " AND start_at <= $2 AND $2 < " + eventEnd},
		{name: "expired", f: filters[3], want: hasIncompleteTask + " AND " + eventEnd + " <= $2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFactsWhere(tt.f, 2); got != tt.want {
				t.Errorf("statusFactsWhere() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusUpdateQuery(t *testing.T) {
	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.FixedZone("EAT", 3*3600))

	for _, f := range event.BranchFilters(now) {
		q, args := statusUpdateQuery(f)
		require.NotEmpty(t, args)
		assert.Equal(t, string(f.Target), args[0])
		assert.Contains(t, q, "matched.event_status <> $1")

		usesNow := strings.Contains(q, "$2")
		if f.Window == event.WindowAny {
			assert.False(t, usesNow, "%s should not reference now", f.Target)
			assert.Len(t, args, 1)
			continue
		}
		assert.True(t, usesNow, "%s should reference now", f.Target)
		require.Len(t, args, 2)
		assert.Equal(t, time.UTC, args[1].(time.Time).Location())
	}
}

func TestExamQuery(t *testing.T) {
	const id1 = "5b8f3c1e-8a8e-4f5e-9d2c-0f6a1b2c3d4e"
	const id2 = "6c9a4d2f-9b9f-4a6f-8e3d-1a7b2c3d4e5f"

	tests := []struct {
		name      string
		filter    exam.QueryFilter
		ordering  []core.DBOrdering
		wantWhere string
		wantOrder string
		wantArgs  []interface{}
	}{
		{name: "all", wantOrder: "ORDER BY created_at DESC, id"},
		{
			name:      "creator and ids",
			filter:    exam.QueryFilter{CreatorID: "t1", IDs: []string{id1, "bogus", id2}},
			wantWhere: "WHERE creator_id = $1 AND id IN ($2,$3)",
			wantOrder: "ORDER BY created_at DESC, id",
			wantArgs:  []interface{}{"t1", id1, id2},
		},
		{name: "only invalid ids", filter: exam.QueryFilter{IDs: []string{"bogus"}}, wantWhere: "WHERE FALSE", wantOrder: "ORDER BY created_at DESC, id"},
		{
			name:      "ordering",
			ordering:  core.ParseOrdering("title,-scheduled_start_at", exam.Orderings...),
			wantOrder: "ORDER BY title ASC, scheduled_start_at DESC, id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := examQuery(tt.filter, tt.ordering)
			if tt.wantWhere != "" {
				assert.Contains(t, q, tt.wantWhere)
			} else {
				assert.NotContains(t, q, "WHERE")
			}
			assert.True(t, strings.HasSuffix(q, tt.wantOrder), "query %q, want suffix %q", q, tt.wantOrder)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestExamRow_RoundTrip(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	dur := 45
	e := exam.Exam{
		ID:               "5b8f3c1e-8a8e-4f5e-9d2c-0f6a1b2c3d4e",
		Title:            "Maths",
		Questions:        []exam.Question{{Choices: []exam.Choice{{Text: "4", IsCorrect: true}}}},
		ValidationRule:   exam.ValidationRule{StartsWith: []string{"ST"}},
		IsTimed:          true,
		DurationMinutes:  &dur,
		ScheduledStartAt: &start,
	}
	repo := examRepository{}

	row, err := repo.marshal(e)
	require.NoError(t, err)
	assert.False(t, row.LateWindowMinutes.Valid)

	got, err := repo.unmarshal(row)
	require.NoError(t, err)
	assert.Equal(t, e.Questions, got.Questions)
	assert.Equal(t, e.ValidationRule, got.ValidationRule)
	assert.Equal(t, 45, *got.DurationMinutes)
	assert.Nil(t, got.LateWindowMinutes)
	assert.True(t, got.ScheduledStartAt.Equal(start))
	assert.Equal(t, time.UTC, got.ScheduledStartAt.Location())
}
