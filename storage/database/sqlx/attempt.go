package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/soma/core/attempt"
)

const attemptColumns = `id, exam_id, participant_id, participant_email, started_at, ended_at,
	time_taken_seconds, answers, score, total_questions, status`

type attemptRow struct {
	ID               string     `db:"id"`
	ExamID           string     `db:"exam_id"`
	ParticipantID    string     `db:"participant_id"`
	ParticipantEmail string     `db:"participant_email"`
	StartedAt        time.Time  `db:"started_at"`
	EndedAt          null.Time  `db:"ended_at"`
	TimeTakenSeconds null.Int   `db:"time_taken_seconds"`
	Answers          types.JSON `db:"answers"`
	Score            null.Int   `db:"score"`
	TotalQuestions   int        `db:"total_questions"`
	Status           string     `db:"status"`
}

type attemptRepository struct {
	db *sqlx.DB
}

var _ attempt.Repository = (*attemptRepository)(nil)

func NewAttemptRepository(db *sqlx.DB) attempt.Repository {
	return &attemptRepository{db: db}
}

func (repo attemptRepository) marshal(a attempt.Attempt) (attemptRow, error) {
	row := attemptRow{
		ID:               a.ID,
		ExamID:           a.ExamID,
		ParticipantID:    a.ParticipantID,
		ParticipantEmail: a.ParticipantEmail,
		StartedAt:        a.StartedAt.UTC(),
		EndedAt:          utcTimeFromPtr(a.EndedAt),
		TimeTakenSeconds: null.IntFromPtr(a.TimeTakenSeconds),
		Score:            null.IntFromPtr(a.Score),
		TotalQuestions:   a.TotalQuestions,
		Status:           string(a.Status),
	}
	answers := a.Answers
	if answers == nil {
		answers = []attempt.Answer{}
	}
	if err := row.Answers.Marshal(answers); err != nil {
		return attemptRow{}, errors.Wrap(err, "marshalling answers")
	}
	return row, nil
}

func (repo attemptRepository) unmarshal(row attemptRow) (attempt.Attempt, error) {
	a := attempt.Attempt{
		ID:               row.ID,
		ExamID:           row.ExamID,
		ParticipantID:    row.ParticipantID,
		ParticipantEmail: row.ParticipantEmail,
		StartedAt:        row.StartedAt.UTC(),
		EndedAt:          utcPtr(row.EndedAt),
		TimeTakenSeconds: row.TimeTakenSeconds.Ptr(),
		Score:            row.Score.Ptr(),
		TotalQuestions:   row.TotalQuestions,
		Status:           attempt.Status(row.Status),
	}
	if err := row.Answers.Unmarshal(&a.Answers); err != nil {
		return attempt.Attempt{}, errors.Wrap(err, "unmarshalling answers")
	}
	return a, nil
}

func (repo attemptRepository) CreateAttempt(ctx context.Context, a attempt.Attempt) (attempt.Attempt, error) {
	row, err := repo.marshal(a)
	if err != nil {
		return attempt.Attempt{}, err
	}
	q := `INSERT INTO exam_attempt (` + attemptColumns + `) VALUES (
		:id, :exam_id, :participant_id, :participant_email, :started_at, :ended_at,
		:time_taken_seconds, :answers, :score, :total_questions, :status)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return attempt.Attempt{}, attempt.ErrAttemptExists
		}
		return attempt.Attempt{}, errors.Wrap(err, "inserting attempt")
	}
	return repo.unmarshal(row)
}

func (repo attemptRepository) GetAttempt(ctx context.Context, id string) (attempt.Attempt, error) {
	if !validID(id) {
		return attempt.Attempt{}, attempt.ErrNotFound
	}
	var row attemptRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+attemptColumns+` FROM exam_attempt WHERE id = $1`, id); err != nil {
		return attempt.Attempt{}, trapNoRowsErr(err, attempt.ErrNotFound, "selecting attempt")
	}
	return repo.unmarshal(row)
}

func (repo attemptRepository) QueryAttempts(ctx context.Context, filter attempt.QueryFilter) ([]attempt.Attempt, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ExamID != "" {
		if !validID(filter.ExamID) {
			return []attempt.Attempt{}, nil
		}
		args = append(args, filter.ExamID)
		where = append(where, "exam_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + attemptColumns + ` FROM exam_attempt`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at, id"

	var rows []attemptRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting attempts")
	}
	attempts := make([]attempt.Attempt, 0, len(rows))
	for _, row := range rows {
		a, err := repo.unmarshal(row)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

// CompleteAttempt only writes rows still in progress; the WHERE clause is the compare-and-swap.
func (repo attemptRepository) CompleteAttempt(ctx context.Context, a attempt.Attempt) (attempt.Attempt, error) {
	row, err := repo.marshal(a)
	if err != nil {
		return attempt.Attempt{}, err
	}
	q := `UPDATE exam_attempt SET
		ended_at = $2, time_taken_seconds = $3, answers = $4, score = $5, status = $6
		WHERE id = $1 AND status = $7
		RETURNING ` + attemptColumns

	var saved attemptRow
	err = repo.db.QueryRowxContext(ctx, q,
		row.ID, row.EndedAt, row.TimeTakenSeconds, row.Answers, row.Score, row.Status, string(attempt.StatusInProgress),
	).StructScan(&saved)
	if err != nil {
		err = trapNoRowsErr(err, attempt.ErrAlreadyCompleted, "completing attempt")
		if err == attempt.ErrAlreadyCompleted {
			// distinguish a missing row from a lost race
			if _, getErr := repo.GetAttempt(ctx, a.ID); getErr != nil {
				return attempt.Attempt{}, getErr
			}
		}
		return attempt.Attempt{}, err
	}
	return repo.unmarshal(saved)
}
