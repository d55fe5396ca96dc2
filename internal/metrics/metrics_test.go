package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
)

func TestCollector(t *testing.T) {
	c := New()

	c.Transition("s1", eyedropper.Idle, eyedropper.Capturing)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.active))
	c.Transition("s1", eyedropper.Capturing, eyedropper.Armed)
	c.Transition("s1", eyedropper.Armed, eyedropper.Closed)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.active))
	c.Settled("s1", eyedropper.OutcomeSelected, 250*time.Millisecond)
	c.Settled("s2", eyedropper.OutcomeAborted, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("idle", "capturing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outcomes.WithLabelValues("selected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outcomes.WithLabelValues("aborted")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.Settled("s1", eyedropper.OutcomeNoColor, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `eyedropper_sessions_total{outcome="no_color"} 1`)
}

func TestCollector_Router(t *testing.T) {
	c := New()
	c.Settled("s1", eyedropper.OutcomeSelected, time.Millisecond)
	r := c.Router()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `eyedropper_sessions_total{outcome="selected"} 1`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/metrics", nil))
	assert.Equal(t, 405, rec.Code)
}
