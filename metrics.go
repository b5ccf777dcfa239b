package authguard

import "sync/atomic"

// MetricID indexes one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts fully authenticated logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginInvalidPayload counts structurally invalid submissions.
	MetricLoginInvalidPayload
	// MetricLoginFailure counts unknown-user and password-mismatch rejections.
	MetricLoginFailure
	// MetricLoginRateLimited counts attempts blocked by an active lockout.
	MetricLoginRateLimited
	// MetricLockoutTriggered counts failures that tripped a new lockout.
	MetricLockoutTriggered
	// MetricMFAChallenged counts logins that reached the MFA step.
	MetricMFAChallenged
	// MetricMFAMissing counts required MFA steps with no token or secret.
	MetricMFAMissing
	// MetricMFAFailure counts rejected one-time codes.
	MetricMFAFailure
	// MetricMFASuccess counts verified one-time codes.
	MetricMFASuccess
	// MetricPasswordUpgraded counts hashes regenerated on login.
	MetricPasswordUpgraded
	metricIDCount
)

const cacheLineSize = 64

// Counters are padded to a cache line each so concurrent logins bumping
// different counters do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the in-process counter registry. All methods are safe for
// concurrent use and become no-ops when disabled or nil.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics registry.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether the registry records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc bumps one counter.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if !m.Enabled() {
		return snapshot
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snapshot.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snapshot
}
