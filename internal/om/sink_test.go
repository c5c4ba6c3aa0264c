package om

import (
	"encoding/binary"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickpipe/internal/obs"
	"tickpipe/internal/ops"
	"tickpipe/internal/schema"
)

func startSink(t *testing.T) (*Sink, *obs.Metrics) {
	t.Helper()
	metrics := obs.NewMetrics()
	cfg := ops.Config{OrderAddr: "127.0.0.1:0", QueueSize: 16}
	s, err := NewSink(cfg, metrics)
	require.NoError(t, err)
	require.NoError(t, s.Listen())
	go s.Run(t.Context())
	return s, metrics
}

func dialSink(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn net.Conn, payload []byte) {
	t.Helper()
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	_, err := conn.Write(append(prefix[:], payload...))
	require.NoError(t, err)
}

func writeOrder(t *testing.T, conn net.Conn, id uint64) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"type":   "order",
		"id":     id,
		"symbol": "AAPL",
		"side":   "buy",
		"qty":    10,
		"price":  150.25,
		"ts":     schema.Timestamp(time.Now()),
	})
	require.NoError(t, err)
	writeFrame(t, conn, payload)
}

func ordersEventually(t *testing.T, metrics *obs.Metrics, want uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return metrics.Snapshot().Orders == want
	}, 2*time.Second, 5*time.Millisecond, "sink never executed %d orders", want)
}

func TestSinkExecutesOrders(t *testing.T) {
	s, metrics := startSink(t)

	conn := dialSink(t, s.Addr())
	writeOrder(t, conn, 1)
	writeOrder(t, conn, 2)
	ordersEventually(t, metrics, 2)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 2, snap.FramesIn)
	assert.EqualValues(t, 2, snap.OrderLatency.Count)
}

func TestSinkSurvivesCorruptFrame(t *testing.T) {
	s, metrics := startSink(t)

	conn := dialSink(t, s.Addr())
	writeFrame(t, conn, []byte(`{"type":"order","id":`))
	writeOrder(t, conn, 1)
	ordersEventually(t, metrics, 1)

	assert.EqualValues(t, 1, metrics.Snapshot().FrameErrors)
}

func TestSinkIgnoresUnexpectedKinds(t *testing.T) {
	s, metrics := startSink(t)

	conn := dialSink(t, s.Addr())
	payload, err := json.Marshal(map[string]any{
		"type": "price_tick", "symbol": "AAPL", "price": 1.0, "ts": 0.0,
	})
	require.NoError(t, err)
	writeFrame(t, conn, payload)
	writeOrder(t, conn, 1)
	ordersEventually(t, metrics, 1)
}

func TestSinkServesMultipleConnections(t *testing.T) {
	s, metrics := startSink(t)

	first := dialSink(t, s.Addr())
	second := dialSink(t, s.Addr())

	// A corrupt frame and a hangup on the first connection must not
	// disturb the second.
	writeFrame(t, first, []byte("not json"))
	first.Close()

	writeOrder(t, second, 1)
	writeOrder(t, second, 2)
	ordersEventually(t, metrics, 2)
}
