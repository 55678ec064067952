// Package sheets mirrors submissions into a Google Sheets spreadsheet, one
// row per submission, so staff can review them without server access.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/formvcm/postulaciones/internal/core"
	"github.com/formvcm/postulaciones/internal/logging"
)

// DefaultTimeout bounds one append call when none is configured.
const DefaultTimeout = 10 * time.Second

// Sink appends submissions to a spreadsheet range.
type Sink struct {
	api           Appender
	spreadsheetID string
	rng           string
	timeout       time.Duration
}

// NewSink creates a sink appending to rng (e.g. "Postulaciones!A:AE") of
// the given spreadsheet.
func NewSink(api Appender, spreadsheetID, rng string, timeout time.Duration) (*Sink, error) {
	if api == nil {
		return nil, errors.New("sheets: nil appender")
	}
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	if rng == "" {
		return nil, errors.New("sheets: range is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sink{api: api, spreadsheetID: spreadsheetID, rng: rng, timeout: timeout}, nil
}

// Name implements core.Sink.
func (s *Sink) Name() string { return core.SinkSheets }

// SheetName returns the sheet part of the configured range.
func (s *Sink) SheetName() string {
	name, _, _ := strings.Cut(s.rng, "!")
	return name
}

// Save implements core.Sink. A row is appended once; there is no retry.
func (s *Sink) Save(ctx context.Context, sub *core.Submission) (core.Ack, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	updated, err := s.api.Append(ctx, s.spreadsheetID, s.rng, Row(sub))
	if err != nil {
		return core.Ack{}, fmt.Errorf("append row: %w", err)
	}

	logging.FromContext(ctx).Debug("row appended", "submission_id", sub.ID, "range", updated)
	return core.Ack{Sink: core.SinkSheets, Location: updated}, nil
}
