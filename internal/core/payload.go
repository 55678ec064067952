package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Payload is the flat key/value body of a submission as posted by the form.
// Values keep their JSON types; numbers are held as json.Number so they can be
// rendered back exactly as sent.
type Payload map[string]any

// Form keys for the institution, representative and supervisor blocks.
const (
	KeyInstName    = "inst_nombre"
	KeyInstTaxID   = "inst_rut"
	KeyInstType    = "inst_tipo"
	KeyInstAddress = "inst_direccion"
	KeyInstEmail   = "inst_email"
	KeyInstPhone   = "inst_fono"

	KeyRepName  = "rep_nombre"
	KeyRepRUN   = "rep_run"
	KeyRepRole  = "rep_cargo"
	KeyRepEmail = "rep_email"
	KeyRepPhone = "rep_fono"

	KeySupName  = "sup_nombre"
	KeySupRUN   = "sup_run"
	KeySupRole  = "sup_cargo"
	KeySupEmail = "sup_email"
	KeySupPhone = "sup_fono"

	// KeyProfessionalCount is the declared number of professional profiles.
	KeyProfessionalCount = "selector_cantidad"
)

// DecodePayload parses a request body into a Payload.
// The body must be a single JSON object.
func DecodePayload(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p == nil {
		return nil, errors.New("decode payload: body is not a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode payload: trailing data after JSON object")
	}
	return p, nil
}

// String returns the value at key rendered as a string.
// Missing keys and nulls yield "".
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Present reports whether key holds a usable form value: a non-blank string
// or a non-zero number. Booleans, objects and arrays never count; the form
// only sends text and numbers.
func (p Payload) Present(key string) bool {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return false
	}
}

// indexed builds keys such as obj_desc_2 or perfil_3_carrera.
func indexed(format string, n int) string {
	return fmt.Sprintf(format, n)
}
