package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// IDPrefix starts every submission identifier.
const IDPrefix = "POST-"

// IDPattern matches identifiers produced by IDAssigner.
var IDPattern = regexp.MustCompile(`^POST-\d{13,}$`)

// TimestampLayout is the fixed-width UTC layout used for fecha_envio,
// e.g. 2026-10-17T12:00:00.123Z. Values sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout after converting to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Timestamp is a time.Time that encodes as TimestampLayout.
type Timestamp struct {
	time.Time
}

// String returns the TimestampLayout rendering.
func (t Timestamp) String() string {
	return FormatTimestamp(t.Time)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTimestamp(t.Time))
}

// UnmarshalJSON implements json.Unmarshaler. Any RFC 3339 value is accepted.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}

// IDAssigner hands out submission identifiers and submission times.
//
// Identifiers are IDPrefix followed by milliseconds since the epoch. Within
// one assigner the numeric part strictly increases, so two submissions in
// the same millisecond still get distinct ids. Times never go backwards.
type IDAssigner struct {
	now func() time.Time

	mu     sync.Mutex
	lastMS int64
	lastAt time.Time
}

// NewIDAssigner creates an assigner reading the wall clock.
func NewIDAssigner() *IDAssigner {
	return &IDAssigner{now: time.Now}
}

// newIDAssignerWithClock is used by tests to control the clock.
func newIDAssignerWithClock(now func() time.Time) *IDAssigner {
	return &IDAssigner{now: now}
}

// Assign returns a fresh identifier and the submission time.
func (a *IDAssigner) Assign() (string, time.Time) {
	at := a.now().UTC()

	a.mu.Lock()
	ms := at.UnixMilli()
	if ms <= a.lastMS {
		ms = a.lastMS + 1
	}
	a.lastMS = ms
	if at.Before(a.lastAt) {
		at = a.lastAt
	}
	a.lastAt = at
	a.mu.Unlock()

	return IDPrefix + strconv.FormatInt(ms, 10), at
}
