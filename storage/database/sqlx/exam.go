package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/types"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/exam"
)

const examColumns = `id, creator_id, title, description, subject_code, exam_code, questions, validation_rule,
	is_timed, duration_minutes, scheduled_start_at, allow_late_submissions, late_window_minutes,
	auto_submit_on_end, created_at, updated_at`

type examRow struct {
	ID                   string     `db:"id"`
	CreatorID            string     `db:"creator_id"`
	Title                string     `db:"title"`
	Description          string     `db:"description"`
	SubjectCode          string     `db:"subject_code"`
	ExamCode             string     `db:"exam_code"`
	Questions            types.JSON `db:"questions"`
	ValidationRule       types.JSON `db:"validation_rule"`
	IsTimed              bool       `db:"is_timed"`
	DurationMinutes      null.Int   `db:"duration_minutes"`
	ScheduledStartAt     null.Time  `db:"scheduled_start_at"`
	AllowLateSubmissions bool       `db:"allow_late_submissions"`
	LateWindowMinutes    null.Int   `db:"late_window_minutes"`
	AutoSubmitOnEnd      bool       `db:"auto_submit_on_end"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil)

func NewExamRepository(db *sqlx.DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo examRepository) marshal(e exam.Exam) (examRow, error) {
	row := examRow{
		ID:                   e.ID,
		CreatorID:            e.CreatorID,
		Title:                e.Title,
		Description:          e.Description,
		SubjectCode:          e.SubjectCode,
		ExamCode:             e.ExamCode,
		IsTimed:              e.IsTimed,
		DurationMinutes:      null.IntFromPtr(e.DurationMinutes),
		ScheduledStartAt:     utcTimeFromPtr(e.ScheduledStartAt),
		AllowLateSubmissions: e.AllowLateSubmissions,
		LateWindowMinutes:    null.IntFromPtr(e.LateWindowMinutes),
		AutoSubmitOnEnd:      e.AutoSubmitOnEnd,
		CreatedAt:            e.CreatedAt.UTC(),
		UpdatedAt:            e.UpdatedAt.UTC(),
	}
	questions := e.Questions
	if questions == nil {
		questions = []exam.Question{}
	}
	if err := row.Questions.Marshal(questions); err != nil {
		return examRow{}, errors.Wrap(err, "marshalling questions")
	}
	if err := row.ValidationRule.Marshal(e.ValidationRule); err != nil {
		return examRow{}, errors.Wrap(err, "marshalling validation rule")
	}
	return row, nil
}

func (repo examRepository) unmarshal(row examRow) (exam.Exam, error) {
	e := exam.Exam{
		ID:                   row.ID,
		CreatorID:            row.CreatorID,
		Title:                row.Title,
		Description:          row.Description,
		SubjectCode:          row.SubjectCode,
		ExamCode:             row.ExamCode,
		IsTimed:              row.IsTimed,
		DurationMinutes:      row.DurationMinutes.Ptr(),
		ScheduledStartAt:     utcPtr(row.ScheduledStartAt),
		AllowLateSubmissions: row.AllowLateSubmissions,
		LateWindowMinutes:    row.LateWindowMinutes.Ptr(),
		AutoSubmitOnEnd:      row.AutoSubmitOnEnd,
		CreatedAt:            row.CreatedAt.UTC(),
		UpdatedAt:            row.UpdatedAt.UTC(),
	}
	if err := row.Questions.Unmarshal(&e.Questions); err != nil {
		return exam.Exam{}, errors.Wrap(err, "unmarshalling questions")
	}
	if err := row.ValidationRule.Unmarshal(&e.ValidationRule); err != nil {
		return exam.Exam{}, errors.Wrap(err, "unmarshalling validation rule")
	}
	return e, nil
}

func (repo examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	row, err := repo.marshal(e)
	if err != nil {
		return exam.Exam{}, err
	}
	q := `INSERT INTO exam (` + examColumns + `) VALUES (
		:id, :creator_id, :title, :description, :subject_code, :exam_code, :questions, :validation_rule,
		:is_timed, :duration_minutes, :scheduled_start_at, :allow_late_submissions, :late_window_minutes,
		:auto_submit_on_end, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return exam.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return repo.unmarshal(row)
}

func (repo examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	if !validID(id) {
		return exam.Exam{}, exam.ErrNotFound
	}
	var row examRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+examColumns+` FROM exam WHERE id = $1`, id); err != nil {
		return exam.Exam{}, trapNoRowsErr(err, exam.ErrNotFound, "selecting exam")
	}
	return repo.unmarshal(row)
}

func (repo examRepository) QueryExams(ctx context.Context, filter exam.QueryFilter, ordering []core.DBOrdering) ([]exam.Exam, error) {
	q, args := examQuery(filter, ordering)

	var rows []examRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting exams")
	}
	exams := make([]exam.Exam, 0, len(rows))
	for _, row := range rows {
		e, err := repo.unmarshal(row)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, nil
}

// examQuery builds the SELECT for QueryExams. Ordering fields must already be whitelisted.
func examQuery(filter exam.QueryFilter, ordering []core.DBOrdering) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		where = append(where, "creator_id = $1")
	}
	if len(filter.IDs) > 0 {
		ids := make([]interface{}, 0, len(filter.IDs))
		for _, id := range filter.IDs {
			if validID(id) {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			where = append(where, "FALSE")
		} else {
			where = append(where, "id IN ("+strmangle.Placeholders(true, len(ids), len(args)+1, 1)+")")
			args = append(args, ids...)
		}
	}

	q := `SELECT ` + examColumns + ` FROM exam`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	orderList := []string{"created_at DESC"}
	if len(ordering) > 0 {
		orderList = orderList[:0]
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
	}
	q += " ORDER BY " + strings.Join(append(orderList, "id"), ", ")
	return q, args
}

func (repo examRepository) UpdateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	row, err := repo.marshal(e)
	if err != nil {
		return exam.Exam{}, err
	}
	q := `UPDATE exam SET
		title = :title, description = :description, subject_code = :subject_code, exam_code = :exam_code,
		questions = :questions, validation_rule = :validation_rule, is_timed = :is_timed,
		duration_minutes = :duration_minutes, scheduled_start_at = :scheduled_start_at,
		allow_late_submissions = :allow_late_submissions, late_window_minutes = :late_window_minutes,
		auto_submit_on_end = :auto_submit_on_end, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "updating exam")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return exam.Exam{}, exam.ErrNotFound
	}
	return repo.unmarshal(row)
}

// DeleteExam relies on ON DELETE CASCADE to remove the attempts.
func (repo examRepository) DeleteExam(ctx context.Context, id string) error {
	if !validID(id) {
		return exam.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM exam WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return exam.ErrNotFound
	}
	return nil
}

func utcTimeFromPtr(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
