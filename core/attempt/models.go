package attempt

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/soma/core"
)

// Status is the state of an attempt. Only StatusInProgress is not terminal.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusSubmitted  Status = "submitted"
	StatusLate       Status = "late"
	StatusExpired    Status = "expired"
)

func (s Status) IsTerminal() bool {
	return s != StatusInProgress
}

type (
	// Answer is one submitted selection. IsCorrect is only set once graded.
	Answer struct {
		QuestionIndex       int   `json:"question_index"`
		SelectedChoiceIndex int   `json:"selected_choice_index"`
		IsCorrect           *bool `json:"is_correct,omitempty"`
	}

	Attempt struct {
		ID               string     `json:"id"`
		ExamID           string     `json:"exam_id"`
		ParticipantID    string     `json:"participant_id"`
		ParticipantEmail string     `json:"participant_email"`
		StartedAt        time.Time  `json:"started_at"` // UTC
		EndedAt          *time.Time `json:"ended_at"`   // UTC
		TimeTakenSeconds *int       `json:"time_taken_seconds"`
		Answers          []Answer   `json:"answers"`
		Score            *int       `json:"score"`
		TotalQuestions   int        `json:"total_questions"` // snapshot taken when the attempt starts
		Status           Status     `json:"status"`
	}

	// Submission is what the grader works on.
	// Missing bounds are replaced by the grading time.
	Submission struct {
		Answers   []Answer
		StartedAt *time.Time
		EndedAt   *time.Time
	}

	// Result is the outcome of grading a Submission.
	Result struct {
		Answers          []Answer
		Score            int
		TimeTakenSeconds int
		StartedAt        time.Time
		EndedAt          time.Time
		Status           Status
	}
)

// NewAttempt contains information needed to start an Attempt.
type NewAttempt struct {
	ParticipantID    string `json:"participant_id" validate:"notblank"`
	ParticipantEmail string `json:"participant_email" validate:"omitempty,email"`
}

func (na *NewAttempt) Validate(validate *validator.Validate) error {
	na.ParticipantID = core.CleanString(na.ParticipantID)
	na.ParticipantEmail = core.CleanString(na.ParticipantEmail, true /* lower */)
	return validate.Struct(na)
}

// SubmitAttempt is the payload of an attempt submission.
type SubmitAttempt struct {
	Answers []Answer   `json:"answers"`
	EndedAt *time.Time `json:"ended_at"`
}

type QueryFilter struct {
	ExamID string
	Status Status
}
