// state.go - recorder lifecycle state machine
package recorder

import (
	"fmt"
	"slices"
	"time"
)

// ProcessState represents the current lifecycle state of a segment recorder
type ProcessState int

const (
	// StateIdle indicates the recorder is created but Run() has not been called yet
	StateIdle ProcessState = iota
	// StateStarting indicates an ffmpeg segment process is being started
	StateStarting
	// StateRecording indicates ffmpeg is writing the current segment
	StateRecording
	// StateRestarting indicates the last segment failed and a retry is pending
	StateRestarting
	// StateStopping indicates a stop was requested and ffmpeg is winding down
	StateStopping
	// StateStopped indicates the recorder has been permanently stopped
	StateStopped
)

// String returns a human-readable name for the process state
func (s ProcessState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateRestarting:
		return "restarting"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// StateTransition records a transition between process states for debugging
type StateTransition struct {
	From      ProcessState
	To        ProcessState
	Timestamp time.Time
	Reason    string
}

// validStateTransitions defines the allowed state transitions. Recording may
// go straight back to Starting on segment rollover. Stopped is terminal.
var validStateTransitions = map[ProcessState][]ProcessState{
	StateIdle:       {StateStarting, StateStopped},
	StateStarting:   {StateRecording, StateRestarting, StateStopping, StateStopped},
	StateRecording:  {StateStarting, StateRestarting, StateStopping, StateStopped},
	StateRestarting: {StateStarting, StateStopping, StateStopped},
	StateStopping:   {StateStopped},
	StateStopped:    {},
}

// isValidTransition checks if a state transition is allowed
func isValidTransition(from, to ProcessState) bool {
	// Transitions to the same state are idempotent
	if from == to {
		return true
	}
	allowed, exists := validStateTransitions[from]
	if !exists {
		return false
	}
	return slices.Contains(allowed, to)
}
