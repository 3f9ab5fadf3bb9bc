package exam

import (
	"testing"
	"time"
)

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func TestResolveStatus(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		s    Schedule
		want Status
	}{
		{name: "no start", s: Schedule{}, want: StatusDraft},
		{name: "no start, timed", s: Schedule{IsTimed: true, DurationMinutes: intPtr(5)}, want: StatusDraft},
		{name: "starts in 1h", s: Schedule{ScheduledStartAt: timePtr(now.Add(time.Hour))}, want: StatusScheduled},
		{
			name: "started 10min ago, 5min long",
			s:    Schedule{ScheduledStartAt: timePtr(now.Add(-10 * time.Minute)), IsTimed: true, DurationMinutes: intPtr(5)},
			want: StatusCompleted,
		},
		{
			name: "started 10min ago, 30min long",
			s:    Schedule{ScheduledStartAt: timePtr(now.Add(-10 * time.Minute)), IsTimed: true, DurationMinutes: intPtr(30)},
			want: StatusActive,
		},
		{
			name: "ends exactly now",
			s:    Schedule{ScheduledStartAt: timePtr(now.Add(-10 * time.Minute)), IsTimed: true, DurationMinutes: intPtr(10)},
			want: StatusCompleted,
		},
		{name: "starts exactly now", s: Schedule{ScheduledStartAt: timePtr(now)}, want: StatusActive},
		{
			name: "started, not timed",
			s:    Schedule{ScheduledStartAt: timePtr(now.Add(-48 * time.Hour)), DurationMinutes: intPtr(5)},
			want: StatusActive,
		},
		{
			name: "started, timed without duration",
			s:    Schedule{ScheduledStartAt: timePtr(now.Add(-48 * time.Hour)), IsTimed: true},
			want: StatusActive,
		},
		{
			name: "other timezone, same instant",
			s: Schedule{
				ScheduledStartAt: timePtr(now.Add(-10 * time.Minute).In(time.FixedZone("EAT", 3*60*60))),
				IsTimed:          true,
				DurationMinutes:  intPtr(30),
			},
			want: StatusActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStatus(now, tt.s); got != tt.want {
				t.Errorf("ResolveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExam_EndsAtAndLateWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := Exam{
		IsTimed:              true,
		DurationMinutes:      intPtr(60),
		ScheduledStartAt:     &start,
		AllowLateSubmissions: true,
		LateWindowMinutes:    intPtr(15),
	}

	end, ok := e.EndsAt()
	if !ok || !end.Equal(start.Add(time.Hour)) {
		t.Errorf("EndsAt() = %v, %v, want %v, true", end, ok, start.Add(time.Hour))
	}
	if got := e.LateWindow(); got != 15*time.Minute {
		t.Errorf("LateWindow() = %v, want 15m", got)
	}

	e.AllowLateSubmissions = false
	if got := e.LateWindow(); got != 0 {
		t.Errorf("LateWindow() = %v, want 0 when late submissions are off", got)
	}
	e.IsTimed = false
	if _, ok := e.EndsAt(); ok {
		t.Error("EndsAt() ok = true for an untimed exam")
	}
}

func TestExam_ParticipantView(t *testing.T) {
	e := Exam{
		ID:    "x",
		Title: "Algebra",
		Questions: []Question{
			{
				Contents: []Content{{Type: ContentText, Value: "1+1?"}},
				Choices:  []Choice{{Text: "1"}, {Text: "2", IsCorrect: true}},
			},
		},
	}
	view := e.ParticipantView()
	if len(view.Questions) != 1 || len(view.Questions[0].Choices) != 2 {
		t.Fatalf("ParticipantView() questions = %+v", view.Questions)
	}
	if view.Questions[0].Choices[1] != "2" {
		t.Errorf("ParticipantView() choice = %q, want %q", view.Questions[0].Choices[1], "2")
	}
}
