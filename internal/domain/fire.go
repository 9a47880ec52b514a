package domain

import (
	"errors"
	"time"
)

var (
	ErrFireNotFound    = errors.New("fire event not found")
	ErrInvalidCursor   = errors.New("invalid cursor")
	ErrHistoryDisabled = errors.New("fire history is not enabled")
)

// FireEvent is emitted once per firing. The first four fields follow the
// order the trigger reports them in: current jittered target, current
// standard target, next jittered target, actual fire time.
type FireEvent struct {
	ID string

	CurrentJitteredTarget time.Time
	CurrentStandardTarget time.Time
	NextJitteredTarget    time.Time
	ActualFireTime        time.Time

	NextStandardTarget time.Time
	SkippedSlots       int // grid slots passed over while resyncing after a stall
}

// Lateness is how long after its jittered target the event actually fired.
func (e FireEvent) Lateness() time.Duration {
	return e.ActualFireTime.Sub(e.CurrentJitteredTarget)
}

// JitterOffset is the perturbation applied to the current target.
func (e FireEvent) JitterOffset() time.Duration {
	return e.CurrentJitteredTarget.Sub(e.CurrentStandardTarget)
}

// FireRecord is a persisted FireEvent.
type FireRecord struct {
	FireEvent
	RecordedAt time.Time
}
