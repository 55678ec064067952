package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvcm/postulaciones/internal/core"
)

var _ core.Metrics = (*Collectors)(nil)

func TestCollectors_Submissions(t *testing.T) {
	c := New()
	c.ObserveSubmission(core.OutcomeAccepted)
	c.ObserveSubmission(core.OutcomeAccepted)
	c.ObserveSubmission(core.OutcomeInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.submissions.WithLabelValues(core.OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.submissions.WithLabelValues(core.OutcomeInvalid)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.submissions.WithLabelValues(core.OutcomeFailed)))
}

func TestCollectors_Sinks(t *testing.T) {
	c := New()
	c.ObserveSink(core.SinkLocal, true, 3*time.Millisecond)
	c.ObserveSink(core.SinkSheets, false, 2*time.Second)

	expected := `
# HELP postulaciones_sink_writes_total Sink write attempts by sink and result.
# TYPE postulaciones_sink_writes_total counter
postulaciones_sink_writes_total{result="error",sink="sheets"} 1
postulaciones_sink_writes_total{result="ok",sink="local"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c.sinkWrites, strings.NewReader(expected)))
	assert.Equal(t, 2, testutil.CollectAndCount(c.sinkDuration))
}

func TestCollectors_Skipped(t *testing.T) {
	c := New()
	c.RecordSkipped("POST-1.json", errors.New("unexpected end of JSON input"))
	c.RecordRateLimited("submit")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.recordsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited.WithLabelValues("submit")))
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveSubmission(core.OutcomePartial)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `postulaciones_submissions_total{outcome="partial"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
