package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters_Registered(t *testing.T) {
	before := testutil.ToFloat64(SurveySubmissions.WithLabelValues(Mode(true), ResultOK))
	SurveySubmissions.WithLabelValues(Mode(true), ResultOK).Inc()
	if got := testutil.ToFloat64(SurveySubmissions.WithLabelValues("test", "ok")); got != before+1 {
		t.Fatalf("submissions counter = %v; want %v", got, before+1)
	}

	b := testutil.ToFloat64(DuplicatesBlocked)
	DuplicatesBlocked.Inc()
	if testutil.ToFloat64(DuplicatesBlocked) != b+1 {
		t.Fatalf("duplicates counter did not move")
	}

	if Mode(false) != "genuine" {
		t.Fatalf("Mode(false) = %q", Mode(false))
	}
}
