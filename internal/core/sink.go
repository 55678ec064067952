package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sink names used in receipts, logs and metrics.
const (
	SinkLocal    = "local"
	SinkSheets   = "sheets"
	SinkDatabase = "database"
)

var (
	// ErrNoSinks is returned when a coordinator is built without sinks.
	ErrNoSinks = errors.New("no storage sinks configured")

	// ErrAllSinksFailed matches every *AllSinksFailedError via errors.Is.
	ErrAllSinksFailed = errors.New("all sinks failed")

	// ErrRecordExists is an integrity failure: a sink already holds a
	// record for the identifier being written.
	ErrRecordExists = errors.New("record already exists")
)

// Ack is a sink's confirmation that a submission was durably stored.
type Ack struct {
	Sink     string // Sink name
	Location string // Where the record landed: file path, sheet range, table
}

// Sink persists submissions to one destination.
//
// Save must either store the whole submission or nothing; a failed Save
// leaves no readable partial record behind. Implementations must not retry
// internally and must be safe for concurrent use.
type Sink interface {
	Name() string
	Save(ctx context.Context, s *Submission) (Ack, error)
}

// SubmissionReader enumerates stored submissions.
type SubmissionReader interface {
	ListAll(ctx context.Context) ([]Submission, error)
}

// SinkError is a failure reported by a single sink.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// AllSinksFailedError is returned when no configured sink acknowledged
// a submission. It carries each sink's failure.
type AllSinksFailedError struct {
	ID       string
	Failures []*SinkError
}

func (e *AllSinksFailedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("all sinks failed for %s: %s", e.ID, strings.Join(parts, "; "))
}

// Unwrap exposes every sink failure to errors.Is and errors.As.
func (e *AllSinksFailedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Is reports whether target is ErrAllSinksFailed.
func (e *AllSinksFailedError) Is(target error) bool {
	return target == ErrAllSinksFailed
}
