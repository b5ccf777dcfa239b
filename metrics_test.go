package authguard

import (
	"sync"
	"testing"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	snapshot := m.Snapshot()
	if got := snapshot.Counters[MetricLoginSuccess]; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLockoutTriggered)

	snapshot := m.Snapshot()
	if got := snapshot.Counters[MetricLoginSuccess]; got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := snapshot.Counters[MetricLockoutTriggered]; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := snapshot.Counters[MetricMFAFailure]; got != 0 {
		t.Fatalf("expected untouched counter 0, got %d", got)
	}
}

func TestMetricsNilAndOutOfRangeSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	if m.Enabled() {
		t.Fatal("nil registry must report disabled")
	}

	real := NewMetrics(MetricsConfig{Enabled: true})
	real.Inc(metricIDCount)
	real.Inc(metricIDCount + 100)
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricLoginFailure)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Snapshot().Counters[MetricLoginFailure]; got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsSnapshotIsACopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)

	first := m.Snapshot()
	m.Inc(MetricLoginSuccess)

	if got := first.Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("snapshot mutated after the fact, got %d", got)
	}
	if got := m.Snapshot().Counters[MetricLoginSuccess]; got != 2 {
		t.Fatalf("expected live value 2, got %d", got)
	}
}
