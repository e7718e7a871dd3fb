// Copyright 2026 mark9064. All rights reserved.
// Use of this source code is governed by an ISC license that can be found in the LICENSE file.

package rcon

import (
	"encoding/hex"
	"fmt"
	"math"
	"net"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// session is the protocol core shared by [Client] and [AsyncClient]. It owns request ID
// generation, the authentication handshake, and the probe-based exchange sequence. It performs no
// locking of its own; front-ends serialize access to it.
type session struct {
	// seq tracks the monotonically increasing packet ID sent to the server with each request. This
	// will be a positive value between zero and [math.MaxInt32] inclusive.
	seq atomic.Int32

	// ready reports whether the session has authenticated and may carry command exchanges.
	ready atomic.Bool

	// tr is the frame transport the session exchanges packets over.
	tr *transport

	// logger receives packet-level debug output.
	logger *zap.Logger

	// logOutboundAuthPackets gates plaintext password logging, see [ClientConfig].
	logOutboundAuthPackets bool
}

func (s *session) init(conn net.Conn, config ClientConfig) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultClientTimeout
	}
	s.tr = &transport{conn: conn, timeout: timeout}
	s.logger = config.Logger
	s.logOutboundAuthPackets = config.LogOutboundAuthPackets
	s.seq.Store(config.StartingSeq)
}

// nextID returns and then increments the session's seq, wrapping around to zero when
// [math.MaxInt32] is reached.
func (s *session) nextID() int32 {
	var seq int32
	swapped := false
	for !swapped {
		seq = s.seq.Load()
		switch {
		case seq < 0:
			swapped = s.seq.CompareAndSwap(seq, 1)
			seq = 0

		case seq == math.MaxInt32:
			swapped = s.seq.CompareAndSwap(seq, 0)

		default:
			swapped = s.seq.CompareAndSwap(seq, seq+1)
		}
	}
	return seq
}

// fail closes the connection so a half-finished exchange can never be resumed, then returns err
// unchanged. Every I/O failure routes through here, which keeps the invariant that an error is
// never surfaced while the session is half-open.
func (s *session) fail(err error) error {
	s.ready.Store(false)
	_ = s.tr.close()
	return err
}

// roundTrip writes req and reads exactly one response frame. The connection fails on any error.
func (s *session) roundTrip(req Packet) (Packet, error) {
	if err := s.tr.setDeadline(); err != nil {
		return Packet{}, s.fail(connErr("write", err))
	}
	s.logPacket("sending packet", req)
	if err := s.tr.writeFrame(req); err != nil {
		return Packet{}, s.fail(err)
	}
	resp, err := s.tr.readFrame()
	if err != nil {
		return Packet{}, s.fail(err)
	}
	s.logPacket("received packet", resp)
	return resp, nil
}

// authenticate performs the RCON handshake. The server echoes the request ID on success and
// answers with ID -1 when the password is wrong.
func (s *session) authenticate(password string) error {
	id := s.nextID()
	req := Packet{
		ID:   id,
		Type: PacketTypeAuth,
		Body: []byte(password),
	}
	resp, err := s.roundTrip(req)
	if err != nil {
		return err
	}
	switch resp.ID {
	case id:
		s.ready.Store(true)
		return nil
	case -1:
		return s.fail(ErrAuthFailed)
	default:
		return s.fail(fmt.Errorf("%w: auth response id %d, want %d", ErrUnexpectedPacket, resp.ID, id))
	}
}

// request is the low-level escape hatch behind SendPacket: one packet out, one packet in, no
// response reassembly.
func (s *session) request(packetType PacketType, body []byte) (Packet, error) {
	if !s.ready.Load() {
		return Packet{}, ErrNotConnected
	}
	req := Packet{
		ID:   s.nextID(),
		Type: packetType,
		Body: body,
	}
	return s.roundTrip(req)
}

// execCommand runs one full command exchange: the command itself, the trailing probe, and
// reassembly of the possibly split response. Factorio terminates command output with a newline,
// so trailing whitespace is stripped from the assembled body.
func (s *session) execCommand(command string) (string, error) {
	if !s.ready.Load() {
		return "", ErrNotConnected
	}
	if err := s.tr.setDeadline(); err != nil {
		return "", s.fail(connErr("write", err))
	}

	cmdID := s.nextID()
	probeID := s.nextID()
	cmd := Packet{
		ID:   cmdID,
		Type: PacketTypeExecCommand,
		Body: []byte(command),
	}
	probe := Packet{
		ID:   probeID,
		Type: PacketTypeExecCommand,
	}

	s.logPacket("sending packet", cmd)
	if err := s.tr.writeFrame(cmd); err != nil {
		return "", s.fail(err)
	}
	s.logPacket("sending packet", probe)
	if err := s.tr.writeFrame(probe); err != nil {
		return "", s.fail(err)
	}

	body, err := s.assembleResponse(cmdID, probeID)
	if err != nil {
		return "", s.fail(err)
	}
	return strings.TrimRight(body, " \t\r\n"), nil
}

// close tears the session down. Subsequent operations return [ErrNotConnected].
func (s *session) close() error {
	s.ready.Store(false)
	return s.tr.close()
}

// logPacket sends a debug record containing the provided log message and packet to the session's
// logger. When the logger is nil or not enabled for debug records, this function is essentially a
// NOP. Unless the session is explicitly configured to log outbound authorization packets, the
// password is scrubbed before logging.
func (s *session) logPacket(logMsg string, packet Packet) {
	if s.logger == nil || !s.logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}

	if packet.Type == PacketTypeAuth && !s.logOutboundAuthPackets {
		packet.Body = []byte{'x', 'x', 'x', 'x', 'x'}
	}

	bs, err := packet.MarshalBinary()
	if err != nil {
		s.logger.Error("failed to marshal packet for logging", zap.Error(err))
		return
	}

	s.logger.Debug(logMsg, zap.String("packet", hex.EncodeToString(bs)))
}
