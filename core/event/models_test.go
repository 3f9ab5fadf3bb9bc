package event

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/soma/core"
)

func TestNewEvent_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	start := time.Date(2024, 5, 10, 16, 0, 0, 0, time.FixedZone("EAT", 3*3600))

	tests := []struct {
		name    string
		ne      NewEvent
		wantErr bool
	}{
		{name: "valid", ne: NewEvent{Title: "Review", Start: start, DurationMinutes: 60}},
		{name: "blank title", ne: NewEvent{Title: " ", Start: start}, wantErr: true},
		{name: "missing start", ne: NewEvent{Title: "Review"}, wantErr: true},
		{name: "negative duration", ne: NewEvent{Title: "Review", Start: start, DurationMinutes: -1}, wantErr: true},
		{name: "blank task", ne: NewEvent{Title: "Review", Start: start, Tasks: []Task{{Title: "  "}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ne.Validate(validate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewEvent_ValidateNormalizes(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	ne := NewEvent{Title: " Offsite ", Start: time.Date(2024, 5, 10, 9, 0, 0, 0, time.FixedZone("EAT", 3*3600)), AllDay: true}
	if err := ne.Validate(validate); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if ne.Title != "Offsite" {
		t.Errorf("Title = %q, want %q", ne.Title, "Offsite")
	}
	if ne.Start.Location() != time.UTC || ne.Start.Hour() != 6 {
		t.Errorf("Start = %v, want 06:00 UTC", ne.Start)
	}
	if ne.DurationMinutes != allDayMinutes {
		t.Errorf("DurationMinutes = %d, want %d", ne.DurationMinutes, allDayMinutes)
	}
}
