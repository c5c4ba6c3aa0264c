// Package channel implements the framed message transport shared by
// every socket-based role: one TCP connection carrying length-prefixed
// JSON messages.
package channel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/yanun0323/errors"

	"tickpipe/internal/codec"
	"tickpipe/internal/schema"
	"tickpipe/pkg/exception"
)

// MaxFrameSize caps the declared payload length of a single frame.
// Anything above it is treated as a corrupt prefix.
const MaxFrameSize = 1 << 20

const prefixSize = 4

// Channel wraps one TCP connection and owns it for its lifetime.
type Channel struct {
	conn   net.Conn
	reader *bufio.Reader
	wmu    sync.Mutex
	closed atomic.Bool
}

// New wraps an established connection.
func New(conn net.Conn) *Channel {
	return &Channel{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// RemoteAddr returns the peer address for log context.
func (c *Channel) RemoteAddr() string {
	if c == nil || c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// Send serializes the message and writes prefix plus payload as one
// write call.
func (c *Channel) Send(msg schema.Message) error {
	if c == nil || c.closed.Load() {
		return exception.ErrChannelClosed
	}
	payload, err := codec.EncodeMessage(msg)
	if err != nil {
		return err
	}
	frame := make([]byte, prefixSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[prefixSize:], payload)

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.conn.Write(frame); err != nil {
		return errors.Wrap(exception.ErrChannelClosed, err.Error())
	}
	return nil
}

// Receive blocks for the next frame and decodes it. A frame-local
// failure (oversized prefix, payload that is not valid JSON for its
// tag) is returned as a frame error and leaves the channel usable;
// the declared payload is consumed either way so the stream stays
// aligned. Connection loss is returned as a closed-channel error.
func (c *Channel) Receive() (schema.Message, error) {
	if c == nil || c.closed.Load() {
		return nil, exception.ErrChannelClosed
	}
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(c.reader, prefix[:]); err != nil {
		return nil, errors.Wrap(exception.ErrChannelClosed, err.Error())
	}
	length := binary.BigEndian.Uint32(prefix[:])
	if length == 0 || length > MaxFrameSize {
		if err := c.discard(int64(length)); err != nil {
			return nil, err
		}
		return nil, errors.Wrap(exception.ErrFrameTooLarge, fmt.Sprintf("declared length %d", length))
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.reader, payload); err != nil {
		return nil, errors.Wrap(exception.ErrChannelClosed, err.Error())
	}
	return codec.DecodeMessage(payload)
}

// Close releases the socket. Safe to call twice.
func (c *Channel) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *Channel) discard(n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, c.reader, n); err != nil {
		return errors.Wrap(exception.ErrChannelClosed, err.Error())
	}
	return nil
}
