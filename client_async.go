package rcon

import (
	"context"
	"net"
)

// AsyncClient exposes the same contract as [Client] with a [context.Context] on every operation.
// Each exchange runs in its own goroutine while the calling goroutine selects on the context, so
// a caller driving many connections can interleave unrelated work during the wait. A single
// connection still serializes its own exchanges; use one AsyncClient per connection.
//
// When the context is cancelled or expires mid-exchange the connection is closed rather than
// resynchronized: the stream may be stopped on a partial frame boundary, which cannot be safely
// skipped.
type AsyncClient struct {
	// gate serializes exchanges without blocking Close.
	gate chan struct{}

	s session
}

// DialContext connects to the Factorio server at addr, authenticates with password, and returns a
// ready AsyncClient. The context bounds both the TCP connect and the handshake.
func DialContext(ctx context.Context, addr, password string, config ClientConfig) (*AsyncClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, connErr("connect", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	c := NewAsyncClient(conn, config)
	if err := c.Authenticate(ctx, password); err != nil {
		return nil, err
	}
	return c, nil
}

// NewAsyncClient creates and returns an [AsyncClient] that uses conn as its transport, configured
// by the provided config. The same bring-your-own-conn considerations as [NewClient] apply.
func NewAsyncClient(conn net.Conn, config ClientConfig) *AsyncClient {
	c := &AsyncClient{gate: make(chan struct{}, 1)}
	c.s.init(conn, config)
	return c
}

// acquire takes the exchange gate, respecting ctx while waiting.
func (c *AsyncClient) acquire(ctx context.Context) error {
	select {
	case c.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *AsyncClient) release() {
	<-c.gate
}

// await runs fn in its own goroutine and waits for it or for ctx. On context expiry the
// connection is failed immediately; the exchange goroutine then drains out on the resulting I/O
// error and releases the gate.
func await[T any](ctx context.Context, c *AsyncClient, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}

	ch := make(chan result, 1)
	go func() {
		defer c.release()
		val, err := fn()
		ch <- result{val, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		_ = c.s.fail(ctx.Err())
		return zero, ctx.Err()
	case res := <-ch:
		return res.val, res.err
	}
}

// Authenticate sends the provided password to the RCON server to authorize the session.
func (c *AsyncClient) Authenticate(ctx context.Context, password string) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	_, err := await(ctx, c, func() (struct{}, error) {
		return struct{}{}, c.s.authenticate(password)
	})
	return err
}

// SendPacket sends a single packet of the provided type and returns the single packet the server
// answers with, without running split-response detection.
func (c *AsyncClient) SendPacket(ctx context.Context, packetType PacketType, body []byte) (Packet, error) {
	if err := c.acquire(ctx); err != nil {
		return Packet{}, err
	}
	return await(ctx, c, func() (Packet, error) {
		return c.s.request(packetType, body)
	})
}

// SendCommand executes command on the server and returns its complete output, reassembled when
// the server split it across multiple response packets.
func (c *AsyncClient) SendCommand(ctx context.Context, command string) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	return await(ctx, c, func() (string, error) {
		return c.s.execCommand(command)
	})
}

// SendCommands executes each command in order and returns the outputs in matching positions. The
// whole batch runs under the one context.
func (c *AsyncClient) SendCommands(ctx context.Context, commands []string) ([]string, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	return await(ctx, c, func() ([]string, error) {
		results := make([]string, 0, len(commands))
		for _, command := range commands {
			out, err := c.s.execCommand(command)
			if err != nil {
				return nil, err
			}
			results = append(results, out)
		}
		return results, nil
	})
}

// Close closes the receiving client's underlying connection. Any in-flight exchange fails with a
// connection error.
func (c *AsyncClient) Close() error {
	return c.s.close()
}
