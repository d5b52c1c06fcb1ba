package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(triggersTotal.WithLabelValues("dispatched"))
	IncTrigger(" Dispatched ")
	assert.Equal(t, before+1, testutil.ToFloat64(triggersTotal.WithLabelValues("dispatched")))

	beforeItems := testutil.ToFloat64(generatedItemsTotal.WithLabelValues("cuecards"))
	AddGeneratedItems("cuecards", 12)
	AddGeneratedItems("cuecards", -3)
	assert.Equal(t, beforeItems+12, testutil.ToFloat64(generatedItemsTotal.WithLabelValues("cuecards")))

	beforeConflicts := testutil.ToFloat64(metadataConflictsTotal)
	IncMetadataConflict()
	assert.Equal(t, beforeConflicts+1, testutil.ToFloat64(metadataConflictsTotal))
}

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	MustRegister()
	MustRegister()

	IncCancellation("cancelled")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "studyloop_run_cancellations_total")
}
