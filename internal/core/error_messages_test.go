package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "missing required field",
			err:      &ValidationError{Fields: []string{KeyInstName}, Reason: ErrMissingRequiredField},
			wantCode: "VAL001",
		},
		{
			name:     "malformed payload",
			err:      &ValidationError{Reason: ErrMalformedPayload, Detail: "unexpected EOF"},
			wantCode: "VAL002",
		},
		{
			name:     "invalid professional count",
			err:      &ValidationError{Fields: []string{KeyProfessionalCount}, Reason: ErrInvalidField},
			wantCode: "VAL003",
		},
		{
			name:     "body too large",
			err:      errors.New("http: request body too large"),
			wantCode: "REQ001",
		},
		{
			name:     "client cancelled",
			err:      context.Canceled,
			wantCode: "REQ002",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("acquire slot: %w", context.DeadlineExceeded),
			wantCode: "REQ003",
		},
		{
			name: "all sinks failed wins over embedded timeout",
			err: &AllSinksFailedError{ID: "POST-1", Failures: []*SinkError{
				{Sink: SinkLocal, Err: errors.New("disk full")},
				{Sink: SinkSheets, Err: context.DeadlineExceeded},
			}},
			wantCode: "STO001",
		},
		{
			name:     "record already exists",
			err:      &SinkError{Sink: SinkLocal, Err: ErrRecordExists},
			wantCode: "STO002",
		},
		{
			name:     "listing failed",
			err:      errors.New("list submissions: permission denied"),
			wantCode: "STO003",
		},
		{
			name:     "intake saturated",
			err:      ErrTooManySubmissions,
			wantCode: "INT001",
		},
		{
			name:     "rate limit",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("MISSING REQUIRED FIELD: inst_rut"),
			wantCode: "VAL001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned empty message")
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrTooManySubmissions,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
