package edition

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRule reports a malformed parameter rule.
	ErrInvalidRule = errors.New("edition: invalid rule")
	// ErrInvalidRange reports malformed bounds. It also matches ErrInvalidRule.
	ErrInvalidRange = fmt.Errorf("%w: invalid range", ErrInvalidRule)
	// ErrUnknownPath reports a store path whose intermediate segment does not exist.
	ErrUnknownPath = errors.New("edition: unknown path")
	// ErrEncode reports a surface that could not be encoded. It ends the
	// recording session.
	ErrEncode = errors.New("edition: encode failure")
	// ErrSessionActive is returned by Recorder.Start while a session is live.
	ErrSessionActive = errors.New("edition: recording session already active")
	// ErrNoActiveSet is returned by relative selection before any set was selected.
	ErrNoActiveSet = errors.New("edition: no active property set")
	// ErrUnknownSet reports a property set name or index that was never declared.
	ErrUnknownSet = errors.New("edition: unknown property set")
	// ErrSequenceRange reports a sequence number outside 1..Total.
	ErrSequenceRange = errors.New("edition: sequence number out of range")
	// ErrNoDrawFunc is returned by self-driven rendering without a draw routine.
	ErrNoDrawFunc = errors.New("edition: no draw function")
)

// PathError describes a failed store write.
type PathError struct {
	Path    string
	Segment string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("edition: path %q: segment %q does not exist", e.Path, e.Segment)
}

func (e *PathError) Unwrap() error { return ErrUnknownPath }
