package attempt

import (
	"time"

	"github.com/trezcool/soma/core/exam"
)

// Grade marks every submitted answer against the exam's answer key.
// It never fails: an answer pointing outside the exam's questions or choices is
// simply incorrect. The returned status is always StatusSubmitted; lateness is
// decided separately by Classify.
func Grade(e exam.Exam, sub Submission, now time.Time) Result {
	graded := make([]Answer, 0, len(sub.Answers))
	score := 0
	for _, a := range sub.Answers {
		correct := isCorrect(e.Questions, a)
		if correct {
			score++
		}
		graded = append(graded, Answer{
			QuestionIndex:       a.QuestionIndex,
			SelectedChoiceIndex: a.SelectedChoiceIndex,
			IsCorrect:           &correct,
		})
	}

	startedAt, endedAt := now, now
	if sub.StartedAt != nil {
		startedAt = *sub.StartedAt
	}
	if sub.EndedAt != nil {
		endedAt = *sub.EndedAt
	}

	return Result{
		Answers:          graded,
		Score:            score,
		TimeTakenSeconds: secondsBetween(startedAt, endedAt),
		StartedAt:        startedAt,
		EndedAt:          endedAt,
		Status:           StatusSubmitted,
	}
}

func isCorrect(questions []exam.Question, a Answer) bool {
	if a.QuestionIndex < 0 || a.QuestionIndex >= len(questions) {
		return false
	}
	choices := questions[a.QuestionIndex].Choices
	if a.SelectedChoiceIndex < 0 || a.SelectedChoiceIndex >= len(choices) {
		return false
	}
	return choices[a.SelectedChoiceIndex].IsCorrect
}

// secondsBetween returns the whole seconds elapsed from start to end, never negative.
func secondsBetween(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
