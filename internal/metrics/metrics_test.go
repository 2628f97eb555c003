package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRegistration()
	c.RecordLoginSuccess()
	c.RecordLoginFailure()
	c.RecordLoginFailure()
	c.RecordLogout()
	c.RecordPostCreated()
	c.RecordImageStored()

	if got := testutil.ToFloat64(c.registrations); got != 1 {
		t.Errorf("registrations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.loginFailure); got != 2 {
		t.Errorf("loginFailure = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.postsCreated); got != 1 {
		t.Errorf("postsCreated = %v, want 1", got)
	}
}

// ステータスコードがクラス別ラベルに集約されることを検証
func TestCollector_RecordHTTPStatus_GroupsByClass(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(201)
	c.RecordHTTPStatus(404)
	c.RecordHTTPStatus(500)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("2xx")); got != 2 {
		t.Errorf("2xx = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("4xx")); got != 1 {
		t.Errorf("4xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("5xx")); got != 1 {
		t.Errorf("5xx = %v, want 1", got)
	}
}

func TestNewHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRegistration()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	NewHandler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "blogman_registrations_total") {
		t.Error("expected blogman_registrations_total in metrics output")
	}
}
