package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/tags", "200"))

	RecordAPIRequest(http.MethodGet, "/api/tags", http.StatusOK, 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/tags", "200"))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, grew by %v", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("expected %v active, got %v", before+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("expected %v active, got %v", before, got)
	}
}

func TestRecordIngredientImport(t *testing.T) {
	created := testutil.ToFloat64(IngredientsImportedTotal.WithLabelValues("created"))
	dup := testutil.ToFloat64(IngredientsImportedTotal.WithLabelValues("duplicate"))

	RecordIngredientImport(3, 2, 0)

	if got := testutil.ToFloat64(IngredientsImportedTotal.WithLabelValues("created")); got-created != 3 {
		t.Errorf("created grew by %v, want 3", got-created)
	}
	if got := testutil.ToFloat64(IngredientsImportedTotal.WithLabelValues("duplicate")); got-dup != 2 {
		t.Errorf("duplicate grew by %v, want 2", got-dup)
	}
}
