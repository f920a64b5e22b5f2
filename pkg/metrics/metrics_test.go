package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSearch(t *testing.T) {
	m := New()
	m.ObserveSearch("general", "hits", 10, 4, 1)
	m.ObserveSearch("general", "hits", 5, 2, 0)

	if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues("general", "hits")); got != 2 {
		t.Errorf("searches_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RecordsScanned); got != 15 {
		t.Errorf("records_scanned = %v, want 15", got)
	}
	if got := testutil.ToFloat64(m.RecordsMalformed); got != 1 {
		t.Errorf("records_malformed = %v, want 1", got)
	}
}

func TestObserveFetchAndCache(t *testing.T) {
	m := New()
	m.ObserveFetch(nil)
	m.ObserveFetch(errors.New("boom"))
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	if got := testutil.ToFloat64(m.FragmentFetches.WithLabelValues("error")); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IntensityCacheMiss); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSearch("general", "hits", 1, 1, 0)
	m.ObserveFetch(nil)
	m.ObserveCache(true)
}
