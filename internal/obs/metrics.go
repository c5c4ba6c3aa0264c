package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for one
// role process.
type Metrics struct {
	framesIn    uint64
	framesOut   uint64
	frameErrors uint64
	reconnects  uint64
	queueDrops  uint64
	orders      uint64

	orderLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	FramesIn     uint64
	FramesOut    uint64
	FrameErrors  uint64
	Reconnects   uint64
	QueueDrops   uint64
	Orders       uint64
	OrderLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncFrameIn records one received frame.
func (m *Metrics) IncFrameIn() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.framesIn, 1)
}

// IncFrameOut records one sent frame.
func (m *Metrics) IncFrameOut() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.framesOut, 1)
}

// IncFrameError records a corrupt frame that was skipped.
func (m *Metrics) IncFrameError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.frameErrors, 1)
}

// IncReconnect records a reconnect attempt.
func (m *Metrics) IncReconnect() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.reconnects, 1)
}

// IncQueueDrop records a delivery dropped by a full queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// ObserveOrder records one accepted order and its decision-to-arrival
// latency.
func (m *Metrics) ObserveOrder(latency time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.orders, 1)
	m.orderLatency.Observe(latency)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		FramesIn:     atomic.LoadUint64(&m.framesIn),
		FramesOut:    atomic.LoadUint64(&m.framesOut),
		FrameErrors:  atomic.LoadUint64(&m.frameErrors),
		Reconnects:   atomic.LoadUint64(&m.reconnects),
		QueueDrops:   atomic.LoadUint64(&m.queueDrops),
		Orders:       atomic.LoadUint64(&m.orders),
		OrderLatency: m.orderLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
