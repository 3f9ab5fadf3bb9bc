package inmemdb

import (
	"sync"

	"github.com/trezcool/soma/core/attempt"
	"github.com/trezcool/soma/core/event"
	"github.com/trezcool/soma/core/exam"
)

type (
	// DB is a process local store. Tables are locked in the order exam, attempt, event.
	DB struct {
		exam    *examTable
		attempt *attemptTable
		event   *eventTable
	}

	examTable struct {
		sync.RWMutex
		table map[string]*exam.Exam
	}

	attemptTable struct {
		sync.RWMutex
		table map[string]*attempt.Attempt
	}

	eventTable struct {
		sync.RWMutex
		table map[string]*event.Event
	}
)

func Open() *DB {
	return &DB{
		exam:    &examTable{table: make(map[string]*exam.Exam)},
		attempt: &attemptTable{table: make(map[string]*attempt.Attempt)},
		event:   &eventTable{table: make(map[string]*event.Event)},
	}
}
