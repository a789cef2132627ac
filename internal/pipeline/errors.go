package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyExampleBank is returned by New when the bank holds no records.
// Stages cannot prime against nothing, so this fails fast instead of
// surfacing later as an unprimed generation.
var ErrEmptyExampleBank = errors.New("example bank is empty")

// GenerationError reports a stage invocation that failed outright: an
// endpoint error surviving client-level retries, or a response the
// field parser could not accept.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed in %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// RepairExhaustedError terminates a run whose candidate still fails
// after the configured number of repair attempts. Artifact names what
// failed last: the sentinel for the candidate itself, or the failing
// test's source text.
type RepairExhaustedError struct {
	Attempts int
	Artifact string
	LastErr  string
}

func (e *RepairExhaustedError) Error() string {
	return fmt.Sprintf("repair attempts exhausted after %d tries, last failure: %s", e.Attempts, e.LastErr)
}
