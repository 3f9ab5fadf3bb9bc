package attempt

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/exam"
)

var (
	// errors
	ErrNotFound           = core.NewDomainError(core.ErrNotFound, "attempt not found")
	ErrAttemptExists      = core.NewDomainError(core.ErrConflict, "participant already has an attempt for this exam")
	ErrNotOpen            = core.NewDomainError(core.ErrConflict, "exam is not open for attempts")
	ErrAlreadyCompleted   = core.NewDomainError(core.ErrConflict, "attempt is already completed")
	ErrInvalidParticipant = errors.New("participant id does not satisfy the exam's rule")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateAttempt fails with ErrAttemptExists when the participant already has an attempt for the exam.
		CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
		GetAttempt(ctx context.Context, id string) (Attempt, error)
		// QueryAttempts applies AND operation on the set QueryFilter fields, ordered by start time.
		QueryAttempts(ctx context.Context, filter QueryFilter) ([]Attempt, error)
		// CompleteAttempt stores a graded attempt only if the stored one is still in progress,
		// and fails with ErrAlreadyCompleted otherwise.
		CompleteAttempt(ctx context.Context, a Attempt) (Attempt, error)
	}

	// ExamGetter is the part of exam.Repository attempts depend on.
	ExamGetter interface {
		GetExam(ctx context.Context, id string) (exam.Exam, error)
		QueryExams(ctx context.Context, filter exam.QueryFilter, ordering []core.DBOrdering) ([]exam.Exam, error)
	}

	ServiceInterface interface {
		CheckParticipant(ctx context.Context, examID, participantID string) (bool, error)
		Start(ctx context.Context, examID string, na NewAttempt) (Attempt, error)
		Get(ctx context.Context, id string) (Attempt, error)
		ListForExam(ctx context.Context, examID string) ([]Attempt, error)
		Submit(ctx context.Context, id string, sa SubmitAttempt) (Attempt, error)
		ExpireOverdue(ctx context.Context, now time.Time) (SweepResult, error)
	}

	Service struct {
		repo    Repository
		exams   ExamGetter
		mailSvc core.EmailService
		logger  core.Logger
	}

	// SweepResult counts the attempts closed by ExpireOverdue.
	SweepResult struct {
		Expired       int
		AutoSubmitted int
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, exams ExamGetter, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		exams:   exams,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// CheckParticipant reports whether participantID satisfies the exam's participant rule.
func (svc *Service) CheckParticipant(ctx context.Context, examID, participantID string) (bool, error) {
	e, err := svc.exams.GetExam(ctx, examID)
	if err != nil {
		return false, err
	}
	return exam.ValidateParticipantID(participantID, e.ValidationRule), nil
}

// Start opens an attempt for a participant. The exam must be active.
func (svc *Service) Start(ctx context.Context, examID string, na NewAttempt) (Attempt, error) {
	e, err := svc.exams.GetExam(ctx, examID)
	if err != nil {
		return Attempt{}, err
	}
	if !exam.ValidateParticipantID(na.ParticipantID, e.ValidationRule) {
		return Attempt{}, core.NewValidationError(ErrInvalidParticipant, core.FieldError{
			Field: "participant_id",
			Error: ErrInvalidParticipant.Error(),
		})
	}

	now := nowFunc().UTC()
	if e.Status(now) != exam.StatusActive {
		return Attempt{}, ErrNotOpen
	}

	return svc.repo.CreateAttempt(ctx, Attempt{
		ID:               uuid.New().String(),
		ExamID:           e.ID,
		ParticipantID:    na.ParticipantID,
		ParticipantEmail: na.ParticipantEmail,
		StartedAt:        now,
		Answers:          []Answer{},
		TotalQuestions:   len(e.Questions),
		Status:           StatusInProgress,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Attempt, error) {
	return svc.repo.GetAttempt(ctx, id)
}

func (svc *Service) ListForExam(ctx context.Context, examID string) ([]Attempt, error) {
	attempts, err := svc.repo.QueryAttempts(ctx, QueryFilter{ExamID: examID})
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	return attempts, nil
}

// Submit grades an in-progress attempt and records its terminal status.
// Submitting a completed attempt is a no-op returning the stored result, so
// concurrent submissions of the same attempt converge on the first one stored.
func (svc *Service) Submit(ctx context.Context, id string, sa SubmitAttempt) (Attempt, error) {
	a, err := svc.repo.GetAttempt(ctx, id)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status.IsTerminal() {
		return a, nil
	}
	e, err := svc.exams.GetExam(ctx, a.ExamID)
	if err != nil {
		return Attempt{}, errors.Wrap(err, "getting attempt exam")
	}

	// the status follows the time the submission is received, whatever the client claims
	now := nowFunc().UTC()
	status, cutoff := Classify(e, now)
	endedAt := clampEnd(sa.EndedAt, a.StartedAt, cutoff)
	res := Grade(e, Submission{Answers: sa.Answers, StartedAt: &a.StartedAt, EndedAt: &endedAt}, now)
	complete(&a, res, status)

	saved, err := svc.repo.CompleteAttempt(ctx, a)
	if err != nil {
		if errors.Is(err, ErrAlreadyCompleted) {
			svc.logger.Info("attempt already completed by a concurrent submission", map[string]interface{}{"attempt_id": id})
			return svc.repo.GetAttempt(ctx, id)
		}
		return Attempt{}, errors.Wrap(err, "completing attempt")
	}

	svc.notifyGraded(e, saved)
	return saved, nil
}

// ExpireOverdue closes every in-progress attempt whose exam window closed before now.
// Exams with AutoSubmitOnEnd get the attempt submitted at the nominal end with its
// stored answers graded; other attempts are expired at the window close.
func (svc *Service) ExpireOverdue(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	attempts, err := svc.repo.QueryAttempts(ctx, QueryFilter{Status: StatusInProgress})
	if err != nil {
		return result, errors.Wrap(err, "querying in-progress attempts")
	}

	if len(attempts) == 0 {
		return result, nil
	}
	exams, err := svc.examsByID(ctx, attempts)
	if err != nil {
		return result, err
	}

	var firstErr error
	for _, a := range attempts {
		e, ok := exams[a.ExamID]
		if !ok {
			continue // exam deleted meanwhile, its attempts go with it
		}

		closesAt, timed := e.ClosesAt()
		if !timed || !now.After(closesAt) {
			continue
		}

		if e.AutoSubmitOnEnd {
			end, _ := e.EndsAt()
			res := Grade(e, Submission{Answers: a.Answers, StartedAt: &a.StartedAt, EndedAt: &end}, now)
			complete(&a, res, StatusSubmitted)
		} else {
			secs := secondsBetween(a.StartedAt, closesAt)
			a.EndedAt = &closesAt
			a.TimeTakenSeconds = &secs
			a.Status = StatusExpired
		}

		saved, err := svc.repo.CompleteAttempt(ctx, a)
		if err != nil {
			if errors.Is(err, ErrAlreadyCompleted) {
				continue // submitted meanwhile
			}
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "closing attempt %s", a.ID)
			}
			continue
		}

		if saved.Status == StatusExpired {
			result.Expired++
		} else {
			result.AutoSubmitted++
			svc.notifyGraded(e, saved)
		}
	}
	return result, firstErr
}

// examsByID loads the exams of attempts in a single query.
func (svc *Service) examsByID(ctx context.Context, attempts []Attempt) (map[string]exam.Exam, error) {
	ids := make([]string, 0, len(attempts))
	seen := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		if !seen[a.ExamID] {
			seen[a.ExamID] = true
			ids = append(ids, a.ExamID)
		}
	}

	list, err := svc.exams.QueryExams(ctx, exam.QueryFilter{IDs: ids}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying exams of in-progress attempts")
	}
	exams := make(map[string]exam.Exam, len(list))
	for _, e := range list {
		exams[e.ID] = e
	}
	return exams, nil
}

func (svc *Service) notifyGraded(e exam.Exam, a Attempt) {
	if a.ParticipantEmail == "" || a.Score == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: a.ParticipantEmail}},
		Subject:      fmt.Sprintf("Your result for %s", e.Title),
		TemplateName: "attempt_graded",
		TemplateData: map[string]interface{}{
			"ExamTitle":      e.Title,
			"ParticipantID":  a.ParticipantID,
			"Score":          *a.Score,
			"TotalQuestions": a.TotalQuestions,
			"Status":         string(a.Status),
			"TimeTaken":      (time.Duration(*a.TimeTakenSeconds) * time.Second).String(),
		},
	})
}

func complete(a *Attempt, res Result, status Status) {
	a.Answers = res.Answers
	a.Score = &res.Score
	a.TimeTakenSeconds = &res.TimeTakenSeconds
	a.EndedAt = &res.EndedAt
	a.Status = status
}

// clampEnd keeps a client supplied end within [startedAt, cutoff].
func clampEnd(endedAt *time.Time, startedAt, cutoff time.Time) time.Time {
	if endedAt == nil {
		return cutoff
	}
	end := endedAt.UTC()
	if end.Before(startedAt) {
		return startedAt
	}
	if end.After(cutoff) {
		return cutoff
	}
	return end
}
