package attempt

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/soma/core/exam"
)

func sampleExam() exam.Exam {
	return exam.Exam{
		ID:    "exam-1",
		Title: "Maths",
		Questions: []exam.Question{
			{Choices: []exam.Choice{{Text: "3"}, {Text: "4", IsCorrect: true}}},
			{Choices: []exam.Choice{{Text: "yes", IsCorrect: true}, {Text: "no"}}},
			{Choices: []exam.Choice{{Text: "a"}, {Text: "b"}, {Text: "c", IsCorrect: true}}},
		},
	}
}

func TestGrade(t *testing.T) {
	e := sampleExam()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(95*time.Second + 900*time.Millisecond)

	tests := []struct {
		name        string
		answers     []Answer
		wantScore   int
		wantCorrect []bool
	}{
		{name: "no answers", answers: nil, wantScore: 0, wantCorrect: []bool{}},
		{
			name:        "all correct",
			answers:     []Answer{{0, 1, nil}, {1, 0, nil}, {2, 2, nil}},
			wantScore:   3,
			wantCorrect: []bool{true, true, true},
		},
		{
			name:        "mixed",
			answers:     []Answer{{0, 0, nil}, {1, 0, nil}},
			wantScore:   1,
			wantCorrect: []bool{false, true},
		},
		{
			name:        "out of range indexes are incorrect",
			answers:     []Answer{{7, 0, nil}, {0, 9, nil}, {-1, 0, nil}, {0, -1, nil}},
			wantScore:   0,
			wantCorrect: []bool{false, false, false, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Grade(e, Submission{Answers: tt.answers, StartedAt: &start, EndedAt: &end}, end)

			assert.Equal(t, tt.wantScore, res.Score)
			assert.Equal(t, StatusSubmitted, res.Status)
			assert.Equal(t, 95, res.TimeTakenSeconds)
			if assert.Len(t, res.Answers, len(tt.wantCorrect)) {
				for i, a := range res.Answers {
					if assert.NotNil(t, a.IsCorrect) {
						assert.Equal(t, tt.wantCorrect[i], *a.IsCorrect, "answer %d", i)
					}
				}
			}
		})
	}
}

func TestGrade_DoesNotMutateInput(t *testing.T) {
	answers := []Answer{{0, 1, nil}}
	Grade(sampleExam(), Submission{Answers: answers}, time.Now())
	assert.Nil(t, answers[0].IsCorrect)
}

func TestGrade_Timestamps(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-2 * time.Minute)
	later := now.Add(time.Minute)

	tests := []struct {
		name      string
		startedAt *time.Time
		endedAt   *time.Time
		wantSecs  int
	}{
		{name: "both missing", wantSecs: 0},
		{name: "missing end defaults to now", startedAt: &earlier, wantSecs: 120},
		{name: "missing start defaults to now", endedAt: &later, wantSecs: 60},
		{name: "end before start", startedAt: &later, endedAt: &earlier, wantSecs: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Grade(sampleExam(), Submission{StartedAt: tt.startedAt, EndedAt: tt.endedAt}, now)
			assert.Equal(t, tt.wantSecs, res.TimeTakenSeconds)
		})
	}
}

// Grade must accept anything: score is always within [0, len(answers)].
func TestGrade_Total(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	e := sampleExam()
	for i := 0; i < 500; i++ {
		answers := make([]Answer, rnd.Intn(8))
		for j := range answers {
			answers[j] = Answer{QuestionIndex: rnd.Intn(10) - 3, SelectedChoiceIndex: rnd.Intn(10) - 3}
		}
		res := Grade(e, Submission{Answers: answers}, time.Now())
		if res.Score < 0 || res.Score > len(answers) {
			t.Fatalf("Grade() score = %d, want within [0, %d]", res.Score, len(answers))
		}
	}
}
