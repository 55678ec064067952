package core

// validation.go checks a submission payload before anything is persisted.
//
// Only the institution name and tax id are mandatory. The declared
// professional count is also checked here so the profile loop in
// NewSubmission is always bounded. Validation never rewrites the payload.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingRequiredField marks payloads lacking a mandatory field.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidField marks payloads with a field outside its allowed range.
	ErrInvalidField = errors.New("invalid field")

	// ErrMalformedPayload marks bodies that are not a JSON object.
	ErrMalformedPayload = errors.New("malformed payload")
)

// RequiredFields lists the keys every submission must carry.
var RequiredFields = []string{KeyInstName, KeyInstTaxID}

// ValidationError describes why a payload was rejected.
type ValidationError struct {
	Fields []string // Offending keys, in RequiredFields order
	Reason error    // One of the Err* sentinels above
	Detail string   // Optional underlying cause
}

func (e *ValidationError) Error() string {
	msg := e.Reason.Error()
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, ", "))
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Validate checks that p carries every required field and a usable
// professional count. On success p is returned unchanged.
func Validate(p Payload) (Payload, error) {
	var missing []string
	for _, key := range RequiredFields {
		if !p.Present(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing, Reason: ErrMissingRequiredField}
	}

	if _, err := professionalCount(p); err != nil {
		return nil, &ValidationError{
			Fields: []string{KeyProfessionalCount},
			Reason: ErrInvalidField,
			Detail: fmt.Sprintf("must be an integer between 1 and %d", MaxProfessionals),
		}
	}

	return p, nil
}
