package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesRegisteredCollectors(t *testing.T) {
	SalesCreated.Inc()
	StockMovements.WithLabelValues("OUT").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "pos_sales_created_total")
	assert.Contains(t, body, `pos_stock_movements_total{type="OUT"}`)
	assert.Contains(t, body, "go_goroutines")
}

func TestSaleRejections_CountsByReason(t *testing.T) {
	before := testutil.ToFloat64(SaleRejections.WithLabelValues("race_lost"))
	SaleRejections.WithLabelValues("race_lost").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SaleRejections.WithLabelValues("race_lost")))
}
