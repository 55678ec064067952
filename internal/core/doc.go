// Package core provides the intake pipeline for institutional applications
// ("postulaciones").
//
// This package holds the domain logic independent of HTTP or any storage
// backend. Web handlers, tests and tools drive it through [Coordinator].
//
// # Pipeline
//
// A submission travels through these steps:
//
//  1. [DecodePayload] parses the request body into a flat [Payload]
//  2. [Validate] checks the institution name and RUT, and the declared
//     professional count; nothing is persisted when it fails
//  3. [IDAssigner.Assign] issues the identifier (POST-<millis>) and the
//     submission time, once per submission
//  4. [NewSubmission] builds the structured record, expanding the indexed
//     objective (obj_*_n) and profile (perfil_n_*) keys into ordered lists
//  5. The coordinator calls every [Sink] concurrently; each is attempted
//     exactly once and failures never stop the others
//
// The submission succeeds when at least one sink acknowledges it. The
// [Receipt] tells the caller which sinks did. When none did, the caller
// gets an [*AllSinksFailedError] carrying each [*SinkError].
//
// # Sinks
//
// Sinks live outside this package (internal/sinks/...). The local file store
// is always configured; the Google Sheets mirror and the PostgreSQL table are
// optional. A sink must store the whole record or nothing.
//
// # Error Handling
//
// Technical errors are mapped to applicant-facing messages with [MapError].
// Codes are grouped by category:
//
//   - VAL001-VAL003: validation
//   - REQ001-REQ003: request size and cancellation
//   - STO001-STO003: storage
//   - INT001: intake saturation
//   - RATE001: rate limiting
package core
