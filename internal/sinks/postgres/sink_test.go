package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvcm/postulaciones/internal/core"
)

type execCall struct {
	sql  string
	args []interface{}
}

type fakeDB struct {
	calls    []execCall
	tag      string
	err      error
	deadline bool
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag(f.tag), nil
}

func submission(t *testing.T) *core.Submission {
	t.Helper()
	body := `{"inst_nombre":"Universidad X","inst_rut":"76.123.456-7"}`
	p, err := core.DecodePayload([]byte(body))
	require.NoError(t, err)
	return core.NewSubmission(p, []byte(body), "POST-1792240200000",
		time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC), nil)
}

func TestNewSink(t *testing.T) {
	_, err := NewSink(nil, 0)
	assert.Error(t, err)

	s, err := NewSink(&fakeDB{}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, s.timeout)
	assert.Equal(t, core.SinkDatabase, s.Name())
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{tag: "CREATE TABLE"}
	s, err := NewSink(db, time.Second)
	require.NoError(t, err)

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS postulaciones")

	db.err = errors.New("permission denied for schema public")
	assert.Error(t, s.EnsureSchema(context.Background()))
}

func TestSave(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 1"}
	s, err := NewSink(db, time.Second)
	require.NoError(t, err)

	sub := submission(t)
	ack, err := s.Save(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, core.SinkDatabase, ack.Sink)
	assert.True(t, db.deadline)

	require.Len(t, db.calls, 1)
	call := db.calls[0]
	assert.True(t, strings.Contains(call.sql, "ON CONFLICT (id) DO NOTHING"))
	require.Len(t, call.args, 6)
	assert.Equal(t, "POST-1792240200000", call.args[0])
	assert.Equal(t, "Universidad X", call.args[2])
	assert.Equal(t, "76.123.456-7", call.args[3])

	var record core.Submission
	require.NoError(t, json.Unmarshal([]byte(call.args[4].(string)), &record))
	assert.Equal(t, sub.ID, record.ID)
	assert.JSONEq(t, string(sub.Raw), call.args[5].(string))
}

func TestSave_Conflict(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 0"}
	s, err := NewSink(db, time.Second)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), submission(t))
	assert.ErrorIs(t, err, core.ErrRecordExists)
}

func TestSave_Error(t *testing.T) {
	down := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	s, err := NewSink(&fakeDB{err: down}, time.Second)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), submission(t))
	assert.ErrorIs(t, err, down)
}
