// Copyright 2026 mark9064. All rights reserved.
// Use of this source code is governed by an ISC license that can be found in the LICENSE file.

package rcon

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultClientTimeout is the default amount of time allowed for a client to make a request and
// response round trip.
const DefaultClientTimeout = 15 * time.Second

// Client is a blocking RCON client that manages a single connection to a Factorio server. While
// the RCON protocol specifies transport over TCP, this client allows transport over anything that
// satisfies the [net.Conn] interface. There are a few reasons this might be useful to a consumer
// of this package:
//  1. RCON is unencrypted by default, which means the authorization password is written over the
//     wire in plain text. The [crypto/tls.Conn] satisfies the [net.Conn] interface and can be
//     supplied to this client to encrypt RCON traffic seamlessly. This is of course only possible
//     when the RCON server is also using TLS.
//  2. In the case the RCON server and client are running on the same machine, it may be useful to
//     communicate over a Unix socket (or other IPC communication transport,) rather than a full
//     TCP socket.
//  3. Providing a [net.Conn] that the caller controls allows for logging, debugging, and
//     packet modification outside the scope of the client.
//
// A Client serializes its own exchanges with an internal mutex: RCON has no multiplexing, and the
// split-response detection depends on strict request/response ordering, so only one command
// exchange may be in flight per connection. Callers needing parallelism should use one Client per
// worker.
//
// Any I/O or protocol failure closes the connection before the error is returned; the client never
// retries or reconnects on its own. Recover by dialing a fresh client.
//
// RCON does not specify any keep alive functionality, so a client may return an EOF or similar
// error when idle for an extended period.
type Client struct {
	// mu controls concurrent access to the session.
	mu sync.Mutex

	s session
}

// Dial connects to the Factorio server at addr (a host:port pair), authenticates with password,
// and returns a ready Client. The configured timeout also bounds the TCP connect.
func Dial(addr, password string, config ClientConfig) (*Client, error) {
	conn, err := dialTCP(addr, config.Timeout)
	if err != nil {
		return nil, err
	}
	c := NewClient(conn, config)
	if err := c.Authenticate(password); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClient creates and returns a [Client] that uses conn as its transport, configured by the
// provided config. The client is not ready until [Client.Authenticate] succeeds.
//
// Once a conn is provided to a NewClient call, the conn should not be used outside of the client
// in order to ensure reliable message delivery.
func NewClient(conn net.Conn, config ClientConfig) *Client {
	c := &Client{}
	c.s.init(conn, config)
	return c
}

// Authenticate sends the provided password to the RCON server to authorize the session. On
// success the client is ready for commands; a rejected password returns [ErrAuthFailed] and
// closes the connection.
func (c *Client) Authenticate(password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.s.authenticate(password)
}

// SendPacket is a low-level escape hatch: it sends a single packet of the provided type and
// returns the single packet the server answers with, without running split-response detection.
// The request ID is drawn from the client's sequence.
func (c *Client) SendPacket(packetType PacketType, body []byte) (Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.s.request(packetType, body)
}

// SendCommand executes command on the server and returns its complete output, reassembled when
// the server split it across multiple response packets. An empty string with a nil error means
// the command produced no output.
func (c *Client) SendCommand(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.s.execCommand(command)
}

// SendCommands executes each command in order and returns the outputs in matching positions. Each
// command's exchange, probe included, completes before the next command is sent. On error the
// partial results are discarded and the connection is closed.
func (c *Client) SendCommands(commands []string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]string, 0, len(commands))
	for _, command := range commands {
		out, err := c.s.execCommand(command)
		if err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return results, nil
}

// Close closes the receiving client's underlying connection. It is safe to call multiple times
// and in any state; subsequent operations return [ErrNotConnected].
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.s.close()
}

// ClientConfig contains settings to control [Client] and [AsyncClient] instances.
type ClientConfig struct {
	// Timeout limits the amount of time a client can spend performing a request and response round
	// trip. A value of zero will inform the client to use the [DefaultClientTimeout]; a negative
	// value disables deadlines entirely, useful when the server may stall on a long map save.
	Timeout time.Duration

	// StartingSeq is the initial value for a client's packet ID sequence. Any value less than zero
	// will be ignored.
	StartingSeq int32

	// Logger receives packet-level debug records from a client. A nil logger disables logging.
	Logger *zap.Logger

	// LogOutboundAuthPackets is a flag that must be explicitly enabled when the client is created.
	// This field enables debug logging to include outbound authorization request packets, exposing
	// server passwords in plaintext. When this field is false (the default value,) outbound
	// authorization packets will be sanitized to hide both the password text and packet length.
	//
	// WARNING: Only enable this flag if you are aware of the implications and are willing to accept
	// the risks!
	LogOutboundAuthPackets bool
}
