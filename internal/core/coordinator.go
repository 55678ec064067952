package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/formvcm/postulaciones/internal/logging"
)

// Submission outcomes reported to Metrics.
const (
	OutcomeAccepted = "accepted" // every sink acknowledged
	OutcomePartial  = "partial"  // at least one sink acknowledged, at least one failed
	OutcomeFailed   = "failed"   // no sink acknowledged
	OutcomeInvalid  = "invalid"  // rejected by validation
	OutcomeRejected = "rejected" // no intake slot available
)

// Metrics receives coordinator observations. Implementations must be safe
// for concurrent use.
type Metrics interface {
	ObserveSink(sink string, ok bool, elapsed time.Duration)
	ObserveSubmission(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveSink(string, bool, time.Duration) {}
func (nopMetrics) ObserveSubmission(string)                {}

// Receipt is returned for a submission at least one sink stored.
type Receipt struct {
	ID          string
	SubmittedAt time.Time
	Storage     map[string]bool // sink name -> acknowledged
	Acks        []Ack
}

// Coordinator runs the intake pipeline: validate, assign an identifier,
// then write to every configured sink.
//
// It keeps no per-submission state between calls; concurrent Submit calls
// only share the identifier assigner.
type Coordinator struct {
	ids     *IDAssigner
	sinks   []Sink
	reader  SubmissionReader
	limiter *IntakeLimiter
	metrics Metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithReader sets the reader used by List.
func WithReader(r SubmissionReader) Option {
	return func(c *Coordinator) { c.reader = r }
}

// WithLimiter bounds concurrent submissions.
func WithLimiter(l *IntakeLimiter) Option {
	return func(c *Coordinator) { c.limiter = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a coordinator writing to sinks. Sink names must
// be unique.
func NewCoordinator(sinks []Sink, opts ...Option) (*Coordinator, error) {
	if len(sinks) == 0 {
		return nil, ErrNoSinks
	}
	seen := make(map[string]bool, len(sinks))
	for _, s := range sinks {
		if seen[s.Name()] {
			return nil, fmt.Errorf("duplicate sink name %q", s.Name())
		}
		seen[s.Name()] = true
	}

	c := &Coordinator{
		ids:     NewIDAssigner(),
		sinks:   append([]Sink(nil), sinks...),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SinkNames returns the configured sink names in fan-out order.
func (c *Coordinator) SinkNames() []string {
	names := make([]string, len(c.sinks))
	for i, s := range c.sinks {
		names[i] = s.Name()
	}
	return names
}

// Limiter returns the intake limiter, or nil when unbounded.
func (c *Coordinator) Limiter() *IntakeLimiter {
	return c.limiter
}

// Submit validates body, assigns an identifier and stores the submission in
// every sink. It succeeds when at least one sink acknowledged the write.
//
// Errors: *ValidationError when the payload is rejected (no sink touched),
// *AllSinksFailedError when every sink failed, ErrTooManySubmissions or a
// context error when no intake slot could be acquired.
func (c *Coordinator) Submit(ctx context.Context, body []byte) (*Receipt, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			c.metrics.ObserveSubmission(OutcomeRejected)
			return nil, err
		}
		defer c.limiter.Release()
	}

	p, err := DecodePayload(body)
	if err != nil {
		c.metrics.ObserveSubmission(OutcomeInvalid)
		return nil, &ValidationError{Reason: ErrMalformedPayload, Detail: err.Error()}
	}
	if _, err := Validate(p); err != nil {
		c.metrics.ObserveSubmission(OutcomeInvalid)
		return nil, err
	}

	id, at := c.ids.Assign()
	sub := NewSubmission(p, body, id, at, OriginFromContext(ctx))
	logger := logging.WithFields(ctx, "submission_id", id)

	// A client hanging up must not abort writes for an accepted submission.
	results := c.fanOut(context.WithoutCancel(ctx), sub)

	receipt := &Receipt{
		ID:          id,
		SubmittedAt: at,
		Storage:     make(map[string]bool, len(results)),
	}
	var failures []*SinkError
	for _, r := range results {
		receipt.Storage[r.sink] = r.err == nil
		if r.err != nil {
			failures = append(failures, r.err)
			logger.Warn("sink write failed", "sink", r.sink, "error", r.err.Err)
			continue
		}
		receipt.Acks = append(receipt.Acks, r.ack)
	}

	if len(receipt.Acks) == 0 {
		c.metrics.ObserveSubmission(OutcomeFailed)
		logger.Error("submission not stored by any sink", "sinks", len(results))
		return nil, &AllSinksFailedError{ID: id, Failures: failures}
	}

	outcome := OutcomeAccepted
	if len(failures) > 0 {
		outcome = OutcomePartial
	}
	c.metrics.ObserveSubmission(outcome)

	logger.Info("submission stored",
		"institution", sub.Institution.Name,
		"rut", sub.Institution.TaxID,
		"storage", receipt.Storage,
	)
	return receipt, nil
}

// List returns every stored submission from the configured reader.
func (c *Coordinator) List(ctx context.Context) ([]Submission, error) {
	if c.reader == nil {
		return []Submission{}, nil
	}
	return c.reader.ListAll(ctx)
}

type sinkResult struct {
	sink string
	ack  Ack
	err  *SinkError
}

// fanOut calls Save on every sink concurrently and waits for all of them.
// Each goroutine writes only its own slot of the result slice.
func (c *Coordinator) fanOut(ctx context.Context, sub *Submission) []sinkResult {
	results := make([]sinkResult, len(c.sinks))

	var g errgroup.Group
	for i, sink := range c.sinks {
		g.Go(func() error {
			start := time.Now()
			ack, err := save(ctx, sink, sub)
			c.metrics.ObserveSink(sink.Name(), err == nil, time.Since(start))

			results[i] = sinkResult{sink: sink.Name(), ack: ack, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// save invokes one sink, converting any error or panic into a *SinkError.
func save(ctx context.Context, sink Sink, sub *Submission) (ack Ack, serr *SinkError) {
	defer func() {
		if r := recover(); r != nil {
			serr = &SinkError{Sink: sink.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ack, err := sink.Save(ctx, sub)
	if err != nil {
		var se *SinkError
		if errors.As(err, &se) {
			return Ack{}, se
		}
		return Ack{}, &SinkError{Sink: sink.Name(), Err: err}
	}
	if ack.Sink == "" {
		ack.Sink = sink.Name()
	}
	return ack, nil
}
