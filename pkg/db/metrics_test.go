package db

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPoolStatsCollector_Describe(t *testing.T) {
	collector := NewPoolStatsCollector(nil, "test")

	ch := make(chan *prometheus.Desc, 10)
	go func() {
		collector.Describe(ch)
		close(ch)
	}()

	var descs []*prometheus.Desc
	for desc := range ch {
		descs = append(descs, desc)
	}

	if len(descs) != 4 {
		t.Fatalf("expected 4 descriptors, got %d", len(descs))
	}

	expectedNames := []string{
		"test_db_pool_total_conns",
		"test_db_pool_idle_conns",
		"test_db_pool_acquired_conns",
		"test_db_pool_max_conns",
	}
	for i, desc := range descs {
		if !strings.Contains(desc.String(), expectedNames[i]) {
			t.Errorf("expected descriptor to contain %s, got %s", expectedNames[i], desc.String())
		}
	}
}

func TestPoolStatsCollector_Collect_NilPool(t *testing.T) {
	collector := NewPoolStatsCollector(nil, "test")

	if n := testutil.CollectAndCount(collector); n != 0 {
		t.Errorf("expected 0 metrics for nil pool, got %d", n)
	}
}

func TestRegisterPoolStats_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()

	if _, err := RegisterPoolStats(nil, reg); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := RegisterPoolStats(nil, reg); err != nil {
		t.Fatalf("second registration should not error: %v", err)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
}

func TestPoolStatsCollector_WithLintCheck(t *testing.T) {
	problems, err := testutil.CollectAndLint(NewPoolStatsCollector(nil, "netnotes"))
	if err != nil {
		t.Fatalf("CollectAndLint failed: %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint problem: %s", p.Text)
	}
}
