package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.InquiryCreated("public")
	m.InquiryCreated("public")
	m.Notification("completion", errors.New("smtp down"))
	m.ObserveRequest("GET", "/api/inquiries", "200", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InquiriesCreated.WithLabelValues("public")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("completion", "failed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "inquiry_desk_http_requests_total"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.InquiryCreated("phone")
		m.Notification("confirmation", nil)
		m.ObserveRequest("GET", "/", "200", 0)
	})
}
