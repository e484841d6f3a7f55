package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGetIsSingleton(t *testing.T) {
	if Get() != Get() {
		t.Fatal("expected the same collectors on every call")
	}
}

func TestCountersAreExposed(t *testing.T) {
	m := Get()
	m.DeductTotal.WithLabelValues("ping", ResultFree).Inc()

	if got := testutil.ToFloat64(m.DeductTotal.WithLabelValues("ping", ResultFree)); got < 1 {
		t.Fatalf("expected counter >= 1, got %v", got)
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "fuel_deduct_total") {
		t.Fatal("expected fuel_deduct_total in exposition")
	}
}
