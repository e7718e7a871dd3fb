package rcon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// WrapperSize is the cumulative size of non-body bytes that contribute to calculation of the packet
// size that precedes a binary packet. Eight bytes are accounted for by the packet ID and type,
// while two bytes are accounted for by the null byte termination of the body and packet. The packet
// size itself is not included in the size calculation.
const WrapperSize = 8 + 2

// MaximumPacketSize is the largest value allowed for the packet size that precedes binary packets.
// Factorio shares this limit with the Source engine implementation; command output longer than a
// single packet allows is split by the server across multiple response packets.
const MaximumPacketSize = 4096

// PacketType indicates the purpose of an RCON packet. The response value and auth response types
// share a numeric value on the wire and are disambiguated by protocol phase rather than by the
// field itself.
type PacketType int32

const (
	// PacketTypeAuth represents a client authorization request packet. It indicates that the body
	// will contain the server password.
	PacketTypeAuth PacketType = 3

	// PacketTypeAuthResponse represents a server authorization response packet. If authorization
	// failed, the packet ID will have a value of -1 rather than that of the matching client request
	// packet.
	PacketTypeAuthResponse PacketType = 2

	// PacketTypeExecCommand represents a client request packet that contains a command to be executed
	// by the server.
	PacketTypeExecCommand PacketType = 2

	// PacketTypeResponseValue represents a server response packet that contains the output of a
	// server command initiated by a [PacketTypeExecCommand] client request packet.
	PacketTypeResponseValue PacketType = 0
)

// Packet is a singular RCON protocol packet, either as a request from a client or a response from
// a server.
type Packet struct {
	// ID is a field chosen by the client which can be used to correlate request packets with
	// response packets. The singular case where this response field will not match the request
	// packet is in the case of auth failure, where the [Packet.Type] will be a
	// [PacketTypeAuthResponse] and this field will have a value of -1. In every other case this
	// field should be a positive integer.
	ID int32

	// Type indicates the purpose of the packet. Its value should always be one of [PacketTypeAuth],
	// [PacketTypeAuthResponse], [PacketTypeExecCommand], or [PacketTypeResponseValue].
	Type PacketType

	// Body contains the data relevant to the provided packet type. This will be the RCON password
	// for the server, the command to be executed, or the server's response to a request. It's
	// possible that the body is empty. The protocol leaves bodies containing a NUL byte undefined;
	// callers must not pass them.
	Body []byte
}

// MarshalBinary encodes the receiving [Packet] into binary form and returns the result. This
// satisfies the [encoding.BinaryMarshaler] interface.
func (p Packet) MarshalBinary() ([]byte, error) {
	// Ensure the packet conforms to the maximum size defined in the protocol.
	packetSize := int32(len(p.Body) + WrapperSize)
	if packetSize > MaximumPacketSize {
		return nil, fmt.Errorf("%w: packet too large", ErrMalformedPacket)
	}

	// Create an appropriately sized byte buffer and write the binary encoded packet.
	b := bytes.NewBuffer(make([]byte, packetSize+4))
	b.Reset()
	err := binary.Write(b, binary.LittleEndian, packetSize)
	if err != nil {
		return nil, err
	}
	err = binary.Write(b, binary.LittleEndian, p.ID)
	if err != nil {
		return nil, err
	}
	err = binary.Write(b, binary.LittleEndian, int32(p.Type))
	if err != nil {
		return nil, err
	}
	_, err = b.Write(p.Body)
	if err != nil {
		return nil, err
	}
	_, err = b.Write([]byte{0, 0})
	if err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// WriteTo writes a binary representation of the packet to [io.Writer] w. This method satisfies the
// [io.WriterTo] interface.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	bs, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bs)

	return int64(n), err
}

// UnmarshalBinary decodes the binary encoded packet b into the receiving [Packet]. This satisfies
// the [encoding.BinaryUnmarshaler] interface. Unlike [Packet.ReadFrom], the provided buffer must
// contain exactly one packet.
func (p *Packet) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)
	n, err := p.ReadFrom(r)
	if err != nil {
		return err
	}
	if n != int64(len(b)) {
		return fmt.Errorf("%w: declared size does not match buffer length", ErrMalformedPacket)
	}
	return nil
}

// ReadFrom reads a binary representation of a packet into the receiving [Packet] instance. This
// method satisfies the [io.ReaderFrom] interface.
func (p *Packet) ReadFrom(r io.Reader) (int64, error) {
	// Keep track of bytes read.
	n := int64(0)

	// Read the provided packet size.
	packetSize := int32(0)
	err := binary.Read(r, binary.LittleEndian, &packetSize)
	if err != nil {
		return n, err
	}
	n += 4

	// Ensure the packet size isn't smaller than allowed by the protocol.
	if packetSize < WrapperSize {
		return n, fmt.Errorf("%w: packet too small", ErrMalformedPacket)
	}

	// Ensure the packet size isn't larger than allowed by the protocol.
	if packetSize > MaximumPacketSize {
		return n, fmt.Errorf("%w: packet too large", ErrMalformedPacket)
	}

	err = binary.Read(r, binary.LittleEndian, &(p.ID))
	if err != nil {
		return n, err
	}
	n += 4

	packetType := int32(0)
	err = binary.Read(r, binary.LittleEndian, &packetType)
	if err != nil {
		return n, err
	}
	p.Type = PacketType(packetType)
	n += 4

	p.Body = make([]byte, packetSize-WrapperSize)
	if _, err := io.ReadFull(r, p.Body); err != nil {
		return n, err
	}
	n += int64(packetSize - WrapperSize)

	// Ensure the packet is properly terminated by two zero bytes.
	z := make([]byte, 2)
	if _, err := io.ReadFull(r, z); err != nil {
		return n, err
	}
	n += 2
	if z[0] != 0 || z[1] != 0 {
		return n, fmt.Errorf("%w: packet incorrectly terminated", ErrMalformedPacket)
	}

	return n, nil
}

// Clone returns a deep copy of the receiving Packet.
func (p Packet) Clone() Packet {
	return Packet{
		ID:   p.ID,
		Type: p.Type,
		Body: bytes.Clone(p.Body),
	}
}

// EqualTo determines if the provided Packet content matches the receiving Packet content.
func (p Packet) EqualTo(p2 Packet) bool {
	switch {
	case p.ID != p2.ID:
		return false
	case p.Type != p2.Type:
		return false
	case !bytes.Equal(p.Body, p2.Body):
		return false
	}
	return true
}
