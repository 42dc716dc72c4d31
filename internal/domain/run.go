package domain

import (
	"fmt"
	"image"
	"time"
)

type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateCancelled RunState = "cancelled"
	StateFailed    RunState = "failed"
)

var transitions = map[RunState][]RunState{
	StateIdle:    {StateRunning},
	StateRunning: {StateCompleted, StateCancelled, StateFailed},
}

func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

func (s RunState) CanTransition(next RunState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next or an error when the move is not permitted.
func (s RunState) Transition(next RunState) (RunState, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("invalid run transition %s -> %s", s, next)
	}
	return next, nil
}

type EventType string

const (
	EventEstimate EventType = "estimate"
	EventProgress EventType = "progress"
	EventPreview  EventType = "preview"
	EventLog      EventType = "log"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is emitted by a run in order. Preview carries a private copy of the
// last rendered frame and is never serialized.
type Event struct {
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Processed int         `json:"processed,omitempty"`
	Total     int         `json:"total,omitempty"`
	Message   string      `json:"message,omitempty"`
	OutputDir string      `json:"output_dir,omitempty"`
	State     RunState    `json:"state,omitempty"`
	Preview   image.Image `json:"-"`
}

// JobStatus is the externally visible snapshot of a run.
type JobStatus struct {
	ID         string     `json:"id"`
	State      RunState   `json:"state"`
	Processed  int        `json:"processed"`
	Total      int        `json:"total"`
	OutputDir  string     `json:"output_dir"`
	Error      string     `json:"error,omitempty"`
	Logs       []string   `json:"logs"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ETASeconds int        `json:"eta_seconds,omitempty"`
}

// ETA extrapolates the remaining time of a running job from the average time
// per processed value. Finished jobs have no ETA.
func (s JobStatus) ETA(now time.Time) time.Duration {
	if s.State != StateRunning || s.StartedAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(s.StartedAt)
	if elapsed < 0 {
		return 0
	}
	avg := elapsed / time.Duration(max(1, s.Processed))
	return max(0, time.Duration(s.Total-s.Processed)*avg)
}
