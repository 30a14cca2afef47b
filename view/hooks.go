package view

import (
	"time"

	"github.com/google/uuid"
)

// Trigger says why a recompute ran.
type Trigger string

// Recompute triggers
const (
	TriggerInit       Trigger = "init"       // first materialization
	TriggerSource     Trigger = "source"     // source add/remove/reset
	TriggerDependency Trigger = "dependency" // a tracked reactive value changed
	TriggerStage      Trigger = "stage"      // a stage was appended to a ready view
)

// Stats describes one recompute pass.
type Stats struct {
	View     uuid.UUID
	Name     string
	Trigger  Trigger
	Stages   int
	In       int // source items
	Out      int // view items
	Deps     int // tracked dependencies
	Duration time.Duration
}

// Hooks holds observation callbacks for a view's lifecycle.
// All fields are optional - nil means no observation for that event.
// Hooks run synchronously inside the recompute, so they should be fast.
type Hooks struct {
	OnRecompute func(Stats)        // A recompute replaced the content
	OnError     func(Stats, error) // A recompute failed; content kept
	OnDispose   func(id uuid.UUID) // The view was disposed
}

// hookSet invokes several Hooks in registration (FIFO) order.
type hookSet []Hooks

func (hs hookSet) recompute(s Stats) {
	for _, h := range hs {
		if h.OnRecompute != nil {
			h.OnRecompute(s)
		}
	}
}

func (hs hookSet) error(s Stats, err error) {
	for _, h := range hs {
		if h.OnError != nil {
			h.OnError(s, err)
		}
	}
}

func (hs hookSet) dispose(id uuid.UUID) {
	for _, h := range hs {
		if h.OnDispose != nil {
			h.OnDispose(id)
		}
	}
}
