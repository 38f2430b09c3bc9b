package observable

import (
	"fmt"
	"strings"
)

// Status is the phase of a load cycle.
type Status int

const (
	// StatusIdle is the initial status before any load was requested.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusSuccess means the last fetch produced data.
	StatusSuccess
	// StatusFailure means the last fetch failed; State.Err holds the cause.
	StatusFailure
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s < StatusIdle || s > StatusFailure {
		return nil, fmt.Errorf("invalid status: %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "idle":
		*s = StatusIdle
	case "loading":
		*s = StatusLoading
	case "success":
		*s = StatusSuccess
	case "failure":
		*s = StatusFailure
	default:
		return fmt.Errorf("invalid status: %q", string(text))
	}
	return nil
}

// State is one immutable snapshot of a load cycle. Every transition replaces
// the previous State entirely.
type State[T any] struct {
	Status Status `json:"status"`
	Data   T      `json:"data,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Idle returns the initial state.
func Idle[T any]() State[T] {
	return State[T]{Status: StatusIdle}
}

// Loading returns the state published when a fetch starts.
func Loading[T any]() State[T] {
	return State[T]{Status: StatusLoading}
}

// Success returns a state carrying data.
func Success[T any](data T) State[T] {
	return State[T]{Status: StatusSuccess, Data: data}
}

// Failure returns a state carrying the cause of a failed fetch.
func Failure[T any](cause string) State[T] {
	return State[T]{Status: StatusFailure, Err: cause}
}

func (s State[T]) String() string {
	if s.Status == StatusFailure {
		return fmt.Sprintf("%s(%s)", s.Status, s.Err)
	}
	return s.Status.String()
}
