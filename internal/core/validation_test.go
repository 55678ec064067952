package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, body string) Payload {
	t.Helper()
	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)
	return p
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		payload     Payload
		wantErr     error
		wantMissing []string
	}{
		{
			name:    "both required fields present",
			payload: Payload{KeyInstName: "Universidad X", KeyInstTaxID: "76.123.456-7"},
		},
		{
			name:        "empty payload",
			payload:     Payload{},
			wantErr:     ErrMissingRequiredField,
			wantMissing: []string{KeyInstName, KeyInstTaxID},
		},
		{
			name:        "name empty and rut absent",
			payload:     Payload{KeyInstName: ""},
			wantErr:     ErrMissingRequiredField,
			wantMissing: []string{KeyInstName, KeyInstTaxID},
		},
		{
			name:        "rut blank",
			payload:     Payload{KeyInstName: "Universidad X", KeyInstTaxID: "   "},
			wantErr:     ErrMissingRequiredField,
			wantMissing: []string{KeyInstTaxID},
		},
		{
			name:        "name null",
			payload:     Payload{KeyInstName: nil, KeyInstTaxID: "1-9"},
			wantErr:     ErrMissingRequiredField,
			wantMissing: []string{KeyInstName},
		},
		{
			name:        "boolean name and zero rut",
			payload:     mustDecode(t, `{"inst_nombre":false,"inst_rut":0}`),
			wantErr:     ErrMissingRequiredField,
			wantMissing: []string{KeyInstName, KeyInstTaxID},
		},
		{
			name:        "object name and array rut",
			payload:     mustDecode(t, `{"inst_nombre":{},"inst_rut":[]}`),
			wantErr:     ErrMissingRequiredField,
			wantMissing: []string{KeyInstName, KeyInstTaxID},
		},
		{
			name:        "true is not a name",
			payload:     mustDecode(t, `{"inst_nombre":true,"inst_rut":"1-9"}`),
			wantErr:     ErrMissingRequiredField,
			wantMissing: []string{KeyInstName},
		},
		{
			name:    "decoded numeric rut is accepted",
			payload: mustDecode(t, `{"inst_nombre":"X","inst_rut":761234567}`),
		},
		{
			name:    "numeric rut is accepted",
			payload: Payload{KeyInstName: "X", KeyInstTaxID: 761234567.0},
		},
		{
			name:    "professional count within range",
			payload: Payload{KeyInstName: "X", KeyInstTaxID: "1-9", KeyProfessionalCount: "3"},
		},
		{
			name:        "professional count too large",
			payload:     Payload{KeyInstName: "X", KeyInstTaxID: "1-9", KeyProfessionalCount: "1000000"},
			wantErr:     ErrInvalidField,
			wantMissing: []string{KeyProfessionalCount},
		},
		{
			name:        "professional count not a number",
			payload:     Payload{KeyInstName: "X", KeyInstTaxID: "1-9", KeyProfessionalCount: "dos"},
			wantErr:     ErrInvalidField,
			wantMissing: []string{KeyProfessionalCount},
		},
		{
			name:    "professional count as whole float",
			payload: mustDecode(t, `{"inst_nombre":"X","inst_rut":"1-9","selector_cantidad":2.0}`),
		},
		{
			name:        "professional count fractional",
			payload:     mustDecode(t, `{"inst_nombre":"X","inst_rut":"1-9","selector_cantidad":2.5}`),
			wantErr:     ErrInvalidField,
			wantMissing: []string{KeyProfessionalCount},
		},
		{
			name:        "professional count zero",
			payload:     Payload{KeyInstName: "X", KeyInstTaxID: "1-9", KeyProfessionalCount: "0"},
			wantErr:     ErrInvalidField,
			wantMissing: []string{KeyProfessionalCount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.payload)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.payload, got)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantMissing, ve.Fields)
			assert.Nil(t, got)
		})
	}
}

func TestValidate_DoesNotRewritePayload(t *testing.T) {
	p := Payload{KeyInstName: "  Universidad X  ", KeyInstTaxID: "76.123.456-7", "extra": "kept"}
	got, err := Validate(p)
	require.NoError(t, err)
	assert.Equal(t, "  Universidad X  ", got[KeyInstName])
	assert.Equal(t, "kept", got["extra"])
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []string{KeyInstName, KeyInstTaxID}, Reason: ErrMissingRequiredField}
	assert.Equal(t, "missing required field: inst_nombre, inst_rut", err.Error())
	assert.Equal(t, "VAL001", MapError(err).Code)
}
