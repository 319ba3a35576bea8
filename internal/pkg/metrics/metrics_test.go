package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordTransition("order", "PAID")
	m.RecordTransition("order", "PAID")
	m.RecordLedgerDuplicate()
	m.RecordNotifications(3, 1, 2)
	m.RecordRateLimitDenial("payments")

	assert.InDelta(t, 2, testutil.ToFloat64(m.transitions.WithLabelValues("order", "PAID")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ledgerDuplicates), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.notifications.WithLabelValues("sent")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.notifications.WithLabelValues("failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.rateLimitDenials.WithLabelValues("payments")), 0)
}

func TestMetrics_HandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordLedgerDuplicate()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fulfillment_payment_ledger_duplicates_total 1")
}
