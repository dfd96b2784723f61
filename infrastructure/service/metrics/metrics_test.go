package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ChangeRecorded("CREATED")
	m.ChangeRecorded("CREATED")
	m.ChangeRecorded("DISABLED")
	m.MutationCompleted("create", "success")
	m.RateLimitDecision("anonymous", false)
	m.RecordHTTPRequest("GET", "/api/v1/products", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.changeRecords.WithLabelValues("CREATED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.changeRecords.WithLabelValues("DISABLED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.productMutations.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitDecisions.WithLabelValues("anonymous", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/products", "200")))
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.ChangeRecorded("UPDATED")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.changeRecords.WithLabelValues("UPDATED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.changeRecords.WithLabelValues("UPDATED")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.MutationCompleted("bulk_create", "conflict")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vendora_product_mutations_total{operation="bulk_create",status="conflict"} 1`)
}
