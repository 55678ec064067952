package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Applicants see the Spanish message and action; operators
// look the code up here and grep the logs for the technical error.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing required field: institution name or RUT absent
//	         Patterns: "missing required field"
//	VAL002 - Malformed payload: body is not a JSON object
//	         Patterns: "malformed payload"
//	VAL003 - Invalid field: a field is out of range (professional count)
//	         Patterns: "invalid field"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Body too large: request exceeded SERVER_MAX_BODY_BYTES
//	         Patterns: "request body too large"
//	REQ002 - Request cancelled
//	         Patterns: "context canceled"
//	REQ003 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - All sinks failed: nothing stored the submission
//	         Patterns: "all sinks failed"
//	STO002 - Record exists: identifier collision in a sink
//	         Patterns: "record already exists"
//	STO003 - Store unreadable: the local store could not be listed
//	         Patterns: "list submissions"
//
// # Intake Errors (INT001-INT099)
//
//	INT001 - System busy: intake limiter saturated
//	         Patterns: "too many submissions"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests from one client
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Aggregate storage failure first: its text embeds each sink's cause.
	{
		pattern: "all sinks failed",
		msg: UserMessage{
			Message: "Error al guardar la postulación en todos los destinos",
			Action:  "Intente nuevamente; si persiste, contacte a soporte",
			Code:    "STO001",
		},
	},

	// Validation
	{
		pattern: "missing required field",
		msg: UserMessage{
			Message: "Faltan datos requeridos: nombre de institución y RUT",
			Action:  "Complete el nombre y el RUT de la institución",
			Code:    "VAL001",
		},
	},
	{
		pattern: "malformed payload",
		msg: UserMessage{
			Message: "El formulario enviado no es válido",
			Action:  "Recargue el formulario e intente nuevamente",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid field",
		msg: UserMessage{
			Message: "Uno de los campos tiene un valor no permitido",
			Action:  "Revise la cantidad de profesionales solicitados",
			Code:    "VAL003",
		},
	},

	// Request
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "El formulario excede el tamaño permitido",
			Action:  "Acorte los textos e intente nuevamente",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "La solicitud fue cancelada",
			Action:  "Intente nuevamente",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "La solicitud excedió el tiempo de espera",
			Action:  "Intente nuevamente en unos momentos",
			Code:    "REQ003",
		},
	},

	// Storage
	{
		pattern: "record already exists",
		msg: UserMessage{
			Message: "La postulación ya existe",
			Action:  "Envíe el formulario nuevamente",
			Code:    "STO002",
		},
	},
	{
		pattern: "list submissions",
		msg: UserMessage{
			Message: "Error al obtener postulaciones",
			Action:  "Intente nuevamente; si persiste, contacte a soporte",
			Code:    "STO003",
		},
	},

	// Intake
	{
		pattern: "too many submissions",
		msg: UserMessage{
			Message: "El sistema está procesando muchas postulaciones",
			Action:  "Espere un momento e intente nuevamente",
			Code:    "INT001",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Demasiadas solicitudes",
			Action:  "Espere un momento antes de intentar nuevamente",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocurrió un error inesperado",
	Action:  "Intente nuevamente o contacte a soporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
