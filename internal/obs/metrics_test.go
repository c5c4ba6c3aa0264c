package obs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.IncFrameIn()
	m.IncFrameIn()
	m.IncFrameOut()
	m.IncFrameError()
	m.IncReconnect()
	m.IncQueueDrop()

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.FramesIn)
	assert.Equal(t, uint64(1), s.FramesOut)
	assert.Equal(t, uint64(1), s.FrameErrors)
	assert.Equal(t, uint64(1), s.Reconnects)
	assert.Equal(t, uint64(1), s.QueueDrops)
}

func TestOrderLatencyStats(t *testing.T) {
	m := NewMetrics()
	m.ObserveOrder(10 * time.Millisecond)
	m.ObserveOrder(30 * time.Millisecond)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.Orders)
	assert.Equal(t, uint64(2), s.OrderLatency.Count)
	assert.Equal(t, 10*time.Millisecond, s.OrderLatency.Min)
	assert.Equal(t, 30*time.Millisecond, s.OrderLatency.Max)
	assert.Equal(t, 20*time.Millisecond, s.OrderLatency.Avg)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncFrameIn()
	m.ObserveOrder(time.Millisecond)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}
