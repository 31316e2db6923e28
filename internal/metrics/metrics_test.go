package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/alumni-connect-server/internal/model"
	"github.com/dtroode/alumni-connect-server/internal/ocr"
)

func TestMetrics_ObserveOutcome(t *testing.T) {
	m := New()

	m.ObserveOutcome(model.RoleStudent, "id_card_ocr", true)
	m.ObserveOutcome(model.RoleStudent, "id_card_ocr", true)
	m.ObserveOutcome(model.RoleAlumni, "manual_review", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VerificationOutcome.WithLabelValues("student", "id_card_ocr", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationOutcome.WithLabelValues("alumni", "manual_review", "false")))
}

func TestMetrics_ObserveExtraction(t *testing.T) {
	m := New()

	m.ObserveExtraction(time.Second, nil)
	m.ObserveExtraction(time.Second, &ocr.ExtractionError{Category: ocr.CategoryTimeout})
	m.ObserveExtraction(time.Second, errors.New("unclassified"))

	assert.Equal(t, 3, testutil.CollectAndCount(m.ExtractionLatency))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.IncrementRegistered(model.RoleAlumni, true)
	m.IncrementRateLimited("auth")
	m.IncrementRateLimited("auth")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsRegistered.WithLabelValues("alumni", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("auth")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveOutcome(model.RoleAlumni, "corporate_email", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `alumni_verification_outcomes_total{role="alumni",strategy="corporate_email",verified="true"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOutcome(model.RoleStudent, "id_card_ocr", false)
		m.ObserveExtraction(time.Second, nil)
		m.IncrementRegistered(model.RoleStudent, false)
		m.IncrementRateLimited("auth")
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
