// Package postgres stores submissions in a PostgreSQL table as JSONB. The
// table is insert-only: rows are never updated or deleted by the service.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/formvcm/postulaciones/internal/core"
	"github.com/formvcm/postulaciones/internal/logging"
)

// DefaultTimeout bounds one insert when none is configured.
const DefaultTimeout = 5 * time.Second

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS postulaciones (
	id          TEXT PRIMARY KEY,
	fecha_envio TIMESTAMPTZ NOT NULL,
	inst_nombre TEXT NOT NULL,
	inst_rut    TEXT NOT NULL,
	record      JSONB NOT NULL,
	raw         JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS postulaciones_inst_rut_idx ON postulaciones (inst_rut);
`

const insertSQL = `
INSERT INTO postulaciones (id, fecha_envio, inst_nombre, inst_rut, record, raw)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

// Sink inserts one row per submission.
type Sink struct {
	db      DBTX
	timeout time.Duration
}

// NewSink creates a sink over db.
func NewSink(db DBTX, timeout time.Duration) (*Sink, error) {
	if db == nil {
		return nil, errors.New("postgres: nil db")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sink{db: db, timeout: timeout}, nil
}

// EnsureSchema creates the table and index if they do not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Name implements core.Sink.
func (s *Sink) Name() string { return core.SinkDatabase }

// Save implements core.Sink. An existing row with the same id is left
// untouched and reported as core.ErrRecordExists.
func (s *Sink) Save(ctx context.Context, sub *core.Submission) (core.Ack, error) {
	record, err := json.Marshal(sub)
	if err != nil {
		return core.Ack{}, fmt.Errorf("encode record: %w", err)
	}

	raw := string(sub.Raw)
	if !json.Valid(sub.Raw) {
		raw = "null"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, insertSQL,
		sub.ID,
		sub.SubmittedAt.Time,
		sub.Institution.Name,
		sub.Institution.TaxID,
		string(record),
		raw,
	)
	if err != nil {
		return core.Ack{}, fmt.Errorf("insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.Ack{}, fmt.Errorf("postulaciones %s: %w", sub.ID, core.ErrRecordExists)
	}

	logging.FromContext(ctx).Debug("row inserted", "submission_id", sub.ID)
	return core.Ack{Sink: core.SinkDatabase, Location: "postulaciones/" + sub.ID}, nil
}
