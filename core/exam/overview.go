package exam

import "time"

// Summary is a list entry of the exam overview.
type Summary struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	SubjectCode      string     `json:"subject_code"`
	ExamCode         string     `json:"exam_code"`
	QuestionCount    int        `json:"question_count"`
	IsTimed          bool       `json:"is_timed"`
	DurationMinutes  *int       `json:"duration_minutes"`
	ScheduledStartAt *time.Time `json:"scheduled_start_at"`
	Status           Status     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}

func newSummary(e Exam, now time.Time) Summary {
	return Summary{
		ID:               e.ID,
		Title:            e.Title,
		SubjectCode:      e.SubjectCode,
		ExamCode:         e.ExamCode,
		QuestionCount:    len(e.Questions),
		IsTimed:          e.IsTimed,
		DurationMinutes:  e.DurationMinutes,
		ScheduledStartAt: e.ScheduledStartAt,
		Status:           e.Status(now),
		CreatedAt:        e.CreatedAt,
	}
}

// Overview resolves the status of every exam at `now` and moves the exam identified by
// searchID (if any) to the front. The order of the other exams is kept.
func Overview(now time.Time, exams []Exam, searchID string) []Summary {
	summaries := make([]Summary, 0, len(exams))
	for _, e := range exams {
		summaries = append(summaries, newSummary(e, now))
	}
	return PromoteToFront(summaries, searchID)
}

// PromoteToFront is a stable partition: entries whose ID equals id come first,
// the rest follow in their original relative order.
func PromoteToFront(summaries []Summary, id string) []Summary {
	if id == "" {
		return summaries
	}
	out := make([]Summary, 0, len(summaries))
	for _, s := range summaries {
		if s.ID == id {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return summaries
	}
	for _, s := range summaries {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
