package attempt

import (
	"time"

	"github.com/trezcool/soma/core/exam"
)

// Classify applies the exam's timing rules to a submission that ended at endedAt.
// It returns the terminal status together with the end instant to record.
//
// Untimed or unscheduled exams always yield StatusSubmitted. Otherwise:
//	endedAt <= end                       -> submitted
//	endedAt <= end + late window         -> late (only when late submissions are allowed)
//	after that, with AutoSubmitOnEnd     -> submitted, ended at the nominal end
//	after that                           -> expired
func Classify(e exam.Exam, endedAt time.Time) (Status, time.Time) {
	end, ok := e.EndsAt()
	if !ok || !endedAt.After(end) {
		return StatusSubmitted, endedAt
	}
	if window := e.LateWindow(); window > 0 && !endedAt.After(end.Add(window)) {
		return StatusLate, endedAt
	}
	if e.AutoSubmitOnEnd {
		return StatusSubmitted, end
	}
	return StatusExpired, endedAt
}
