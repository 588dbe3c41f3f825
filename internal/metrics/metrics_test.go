package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()
	m.ObserveReschedule(3, 2*time.Millisecond)
	m.ObserveReschedule(1, time.Millisecond)
	m.RejectDependency("cycle")
	m.RejectDependency("cycle")
	m.RejectDependency("self")
	m.SetCriticalPath("v1", 15)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.rescheduledTasks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejectedDependencies.WithLabelValues("cycle")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.criticalPathDays.WithLabelValues("v1")))

	m.ForgetView("v1")
	assert.Equal(t, 0, testutil.CollectAndCount(m.criticalPathDays))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveReschedule(1, time.Second)
	m.RejectDependency("cycle")
	m.ObserveConflict("person")
	m.SetCriticalPath("v1", 1)
	m.ForgetView("v1")
	m.DropEvent("TaskUpdated")
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveConflict("equipment")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `ganttguild_resource_conflicts_total{resource_type="equipment"} 1`))
}
