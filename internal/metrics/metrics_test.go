package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_RegistersWithoutConflicts(t *testing.T) {
	reg := NewRegistry()
	require.NotPanics(t, func() { NewSet(reg) })
}

func TestNilReceiversAreNoops(t *testing.T) {
	var c *CaptureMetrics
	var tr *TriggerMetrics
	var co *ComposeMetrics

	assert.NotPanics(t, func() {
		c.Accepted()
		c.Dropped()
		c.WatchDone("complete")
		tr.Outcome("fired")
		co.Composed("full_v4a", 1, time.Second)
		co.Filtered("gray")
		co.Evicted(3)
	})
}

func TestRecording(t *testing.T) {
	reg := NewRegistry()
	s := NewSet(reg)

	s.Capture.Accepted()
	s.Capture.Accepted()
	s.Capture.WatchDone("timed_out")
	s.Trigger.Outcome("activation_failed")
	s.Compose.Composed("half_v2", 2, 300*time.Millisecond)
	s.Compose.Evicted(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Capture.FilesAccepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Capture.Watches.WithLabelValues("timed_out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Trigger.Triggers.WithLabelValues("activation_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Compose.Compositions.WithLabelValues("half_v2")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.Compose.Placeholders))
	assert.Equal(t, 4.0, testutil.ToFloat64(s.Compose.MirrorEvictions))
}

func TestHandler_ServesRegisteredFamilies(t *testing.T) {
	reg := NewRegistry()
	s := NewSet(reg)
	s.Capture.Accepted()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tetherbooth_capture_files_accepted_total")
}
