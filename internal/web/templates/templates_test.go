package templates

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvcm/postulaciones/internal/core"
)

func TestSubmissionList_Rows(t *testing.T) {
	rows := []SubmissionRow{{ID: "POST-1700000000000", Institution: "Escuela <A>", Objectives: 2, Profiles: 3}}

	var buf bytes.Buffer
	require.NoError(t, SubmissionList(rows, []string{"local", "sheets"}).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "<!doctype html>")
	assert.Contains(t, out, `<p class="meta">1 registradas · destinos: local, sheets</p>`)
	assert.Contains(t, out, "<code>POST-1700000000000</code>")
	assert.Contains(t, out, "Escuela &lt;A&gt;")
	assert.Contains(t, out, "<td>2</td><td>3</td></tr>")
	assert.NotContains(t, out, "Aún no hay postulaciones.")
}

func TestSubmissionList_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SubmissionList(nil, nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Aún no hay postulaciones.")
	assert.NotContains(t, buf.String(), "<table>")
}

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert(`<script>`, "Reintente", "STO001").Render(context.Background(), &buf))
	assert.Equal(t,
		`<div class="alert" role="alert"><strong>&lt;script&gt;</strong><p>Reintente</p><small>Código: STO001</small></div>`,
		buf.String())
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.ErrorIs(t, ErrorAlert("m", "a", "c").Render(ctx, &buf), context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestRowsFromSubmissions_NewestFirst(t *testing.T) {
	subs := []core.Submission{
		{ID: "POST-1", SubmittedAt: core.Timestamp{Time: time.UnixMilli(1).UTC()}},
		{ID: "POST-2", SubmittedAt: core.Timestamp{Time: time.UnixMilli(2).UTC()}},
	}
	subs[1].Representative.Email = "rep@example.cl"

	rows := RowsFromSubmissions(subs)
	require.Len(t, rows, 2)
	assert.Equal(t, "POST-2", rows[0].ID)
	assert.Equal(t, "rep@example.cl", rows[0].Contact)
	assert.Equal(t, "POST-1", rows[1].ID)
}
