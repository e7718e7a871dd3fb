package rcon

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// defaultDialTimeout bounds the TCP connect performed by [Dial] when the caller has not configured
// a timeout of their own.
const defaultDialTimeout = 10 * time.Second

// transport owns a single [net.Conn] and moves whole RCON frames across it. It never interprets
// packet bodies; all protocol knowledge lives above it in the session.
type transport struct {
	conn    net.Conn
	timeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// dialTCP opens the TCP connection used by [Dial]. No RCON bytes are sent; authentication is the
// session's job.
func dialTCP(addr string, timeout time.Duration) (net.Conn, error) {
	d := timeout
	if d <= 0 {
		d = defaultDialTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, d)
	if err != nil {
		return nil, connErr("connect", err)
	}
	// RCON exchanges are tiny request/response pairs; Nagle buffering only adds latency.
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

// setDeadline arms the per-exchange deadline. A non-positive timeout disables deadlines entirely,
// which matters when the server is busy saving the map and legitimately slow to respond.
func (t *transport) setDeadline() error {
	if t.timeout <= 0 {
		return t.conn.SetDeadline(time.Time{})
	}
	return t.conn.SetDeadline(time.Now().Add(t.timeout))
}

// writeFrame encodes p and flushes the complete frame to the socket.
func (t *transport) writeFrame(p Packet) error {
	bs, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := t.conn.Write(bs); err != nil {
		return t.classify("write", err)
	}
	return nil
}

// readFrame reads exactly one framed packet: the 4-byte size prefix first, then the declared
// number of bytes, looping over however many socket reads that requires.
func (t *transport) readFrame() (Packet, error) {
	var p Packet
	if _, err := p.ReadFrom(t.conn); err != nil {
		if errors.Is(err, ErrMalformedPacket) {
			return Packet{}, err
		}
		return Packet{}, t.classify("read", err)
	}
	return p, nil
}

// classify maps socket errors onto the package error taxonomy. Deadline expiry becomes
// [ErrTimeout]; everything else, including the peer closing mid-frame, is a connection failure.
func (t *transport) classify(op string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w during %s: %v", ErrTimeout, op, err)
	}
	return connErr(op, err)
}

// close releases the socket. Safe to call any number of times and in any connection state.
func (t *transport) close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
