package observability

import (
	"sync"
	"time"
)

// MethodSnapshot summarizes the calls recorded for one port method.
type MethodSnapshot struct {
	Count         int64   `json:"count"`
	Errors        int64   `json:"errors"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	LastLatencyMs float64 `json:"last_latency_ms"`
}

// Snapshot is the full metrics view served by the ops endpoint.
type Snapshot struct {
	UptimeSec    int64                     `json:"uptime_sec"`
	TotalCalls   int64                     `json:"total_calls"`
	TotalErrors  int64                     `json:"total_errors"`
	SagaOutcomes map[string]int64          `json:"saga_outcomes"`
	Methods      map[string]MethodSnapshot `json:"methods"`
}

type methodStats struct {
	count        int64
	errors       int64
	totalLatency time.Duration
	maxLatency   time.Duration
	lastLatency  time.Duration
}

// Metrics accumulates port-call latencies and saga terminal outcomes.
type Metrics struct {
	mu       sync.Mutex
	start    time.Time
	methods  map[string]*methodStats
	outcomes map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		start:    time.Now(),
		methods:  make(map[string]*methodStats),
		outcomes: make(map[string]int64),
	}
}

// RecordCall accounts one outbound port call. Safe on a nil receiver so
// wiring without metrics stays trivial.
func (m *Metrics) RecordCall(method string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.methods[method]
	if !ok {
		stats = &methodStats{}
		m.methods[method] = stats
	}
	stats.count++
	if err != nil {
		stats.errors++
	}
	stats.totalLatency += dur
	if dur > stats.maxLatency {
		stats.maxLatency = dur
	}
	stats.lastLatency = dur
}

// RecordSagaOutcome counts a saga run ending in the given terminal status.
func (m *Metrics) RecordSagaOutcome(status string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.outcomes[status]++
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSec:    int64(time.Since(m.start).Seconds()),
		SagaOutcomes: make(map[string]int64, len(m.outcomes)),
		Methods:      make(map[string]MethodSnapshot, len(m.methods)),
	}

	for status, count := range m.outcomes {
		snap.SagaOutcomes[status] = count
	}

	for method, stats := range m.methods {
		avg := 0.0
		if stats.count > 0 {
			avg = float64(stats.totalLatency.Milliseconds()) / float64(stats.count)
		}
		snap.Methods[method] = MethodSnapshot{
			Count:         stats.count,
			Errors:        stats.errors,
			AvgLatencyMs:  avg,
			MaxLatencyMs:  float64(stats.maxLatency.Milliseconds()),
			LastLatencyMs: float64(stats.lastLatency.Milliseconds()),
		}
		snap.TotalCalls += stats.count
		snap.TotalErrors += stats.errors
	}

	return snap
}
