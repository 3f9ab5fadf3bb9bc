package exam

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/soma/core"
)

// Status is the lifecycle state of an exam, derived from its schedule at read time.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Content types
const (
	ContentText  = "text"
	ContentImage = "image"
)

type (
	Content struct {
		Type  string `json:"type" validate:"oneof=text image"`
		Value string `json:"value" validate:"required"`
	}

	Choice struct {
		Text      string `json:"text" validate:"required"`
		IsCorrect bool   `json:"is_correct"`
	}

	Question struct {
		Contents []Content `json:"contents" validate:"dive"`
		Choices  []Choice  `json:"choices" validate:"min=1,dive"`
	}

	// ValidationRule constrains participant identifiers. Every set field must hold.
	ValidationRule struct {
		StartsWith []string `json:"starts_with,omitempty"`
		MinLength  *int     `json:"min_length,omitempty" validate:"omitempty,gte=0"`
		MaxLength  *int     `json:"max_length,omitempty" validate:"omitempty,gte=0"`
		Regex      string   `json:"regex,omitempty" validate:"omitempty,regexp"`
	}

	// Schedule holds the fields ResolveStatus depends on.
	Schedule struct {
		ScheduledStartAt *time.Time
		IsTimed          bool
		DurationMinutes  *int
	}

	Exam struct {
		ID                   string         `json:"id"`
		CreatorID            string         `json:"creator_id"`
		Title                string         `json:"title"`
		Description          string         `json:"description"`
		SubjectCode          string         `json:"subject_code"`
		ExamCode             string         `json:"exam_code"`
		Questions            []Question     `json:"questions"`
		ValidationRule       ValidationRule `json:"validation_rule"`
		IsTimed              bool           `json:"is_timed"`
		DurationMinutes      *int           `json:"duration_minutes"`
		ScheduledStartAt     *time.Time     `json:"scheduled_start_at"` // UTC
		AllowLateSubmissions bool           `json:"allow_late_submissions"`
		LateWindowMinutes    *int           `json:"late_window_minutes"`
		AutoSubmitOnEnd      bool           `json:"auto_submit_on_end"`
		CreatedAt            time.Time      `json:"created_at"` // UTC
		UpdatedAt            time.Time      `json:"updated_at"` // UTC
	}
)

func (e Exam) Schedule() Schedule {
	return Schedule{
		ScheduledStartAt: e.ScheduledStartAt,
		IsTimed:          e.IsTimed,
		DurationMinutes:  e.DurationMinutes,
	}
}

func (e Exam) Status(now time.Time) Status {
	return ResolveStatus(now, e.Schedule())
}

// EndsAt returns the nominal end of a timed, scheduled exam.
func (e Exam) EndsAt() (time.Time, bool) {
	if !e.IsTimed || e.ScheduledStartAt == nil || e.DurationMinutes == nil {
		return time.Time{}, false
	}
	return e.ScheduledStartAt.Add(minutes(*e.DurationMinutes)), true
}

// ClosesAt returns the instant after which no submission is accepted: the end plus the late window.
func (e Exam) ClosesAt() (time.Time, bool) {
	end, ok := e.EndsAt()
	if !ok {
		return time.Time{}, false
	}
	return end.Add(e.LateWindow()), true
}

// LateWindow is the grace period after EndsAt, zero when late submissions are not allowed.
func (e Exam) LateWindow() time.Duration {
	if !e.AllowLateSubmissions || e.LateWindowMinutes == nil {
		return 0
	}
	return minutes(*e.LateWindowMinutes)
}

// ParticipantView returns the exam as shown to participants: the answer key is removed.
func (e Exam) ParticipantView() ParticipantExam {
	questions := make([]ParticipantQuestion, 0, len(e.Questions))
	for _, q := range e.Questions {
		choices := make([]string, 0, len(q.Choices))
		for _, c := range q.Choices {
			choices = append(choices, c.Text)
		}
		questions = append(questions, ParticipantQuestion{Contents: q.Contents, Choices: choices})
	}
	return ParticipantExam{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		SubjectCode:      e.SubjectCode,
		ExamCode:         e.ExamCode,
		Questions:        questions,
		IsTimed:          e.IsTimed,
		DurationMinutes:  e.DurationMinutes,
		ScheduledStartAt: e.ScheduledStartAt,
	}
}

type (
	ParticipantQuestion struct {
		Contents []Content `json:"contents"`
		Choices  []string  `json:"choices"`
	}

	ParticipantExam struct {
		ID               string                `json:"id"`
		Title            string                `json:"title"`
		Description      string                `json:"description"`
		SubjectCode      string                `json:"subject_code"`
		ExamCode         string                `json:"exam_code"`
		Questions        []ParticipantQuestion `json:"questions"`
		IsTimed          bool                  `json:"is_timed"`
		DurationMinutes  *int                  `json:"duration_minutes"`
		ScheduledStartAt *time.Time            `json:"scheduled_start_at"`
	}
)

// NewExam contains information needed to create a new Exam.
type NewExam struct {
	Title                string         `json:"title" validate:"notblank"`
	Description          string         `json:"description"`
	SubjectCode          string         `json:"subject_code"`
	ExamCode             string         `json:"exam_code"`
	Questions            []Question     `json:"questions" validate:"dive"`
	ValidationRule       ValidationRule `json:"validation_rule"`
	IsTimed              bool           `json:"is_timed"`
	DurationMinutes      *int           `json:"duration_minutes" validate:"omitempty,gt=0"`
	ScheduledStartAt     *time.Time     `json:"scheduled_start_at"`
	AllowLateSubmissions bool           `json:"allow_late_submissions"`
	LateWindowMinutes    *int           `json:"late_window_minutes" validate:"omitempty,gte=0"`
	AutoSubmitOnEnd      bool           `json:"auto_submit_on_end"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.SubjectCode = core.CleanString(ne.SubjectCode)
	ne.ExamCode = core.CleanString(ne.ExamCode)
	if ne.ScheduledStartAt != nil {
		start := ne.ScheduledStartAt.UTC()
		ne.ScheduledStartAt = &start
	}
	return validate.Struct(ne)
}

// UpdateExam defines what information may be provided to modify an existing Exam.
// It replaces the whole mutable part of the exam; only the identity and creator are kept.
type UpdateExam NewExam

func (ue *UpdateExam) Validate(validate *validator.Validate) error {
	return (*NewExam)(ue).Validate(validate)
}

type QueryFilter struct {
	CreatorID string
	IDs       []string
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
