// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"

	"github.com/tochemey/interfaced/internal/bufferpool"
	"github.com/tochemey/interfaced/internal/tcp"
)

const (
	// headerSize covers the length prefix and the checksum
	headerSize = 8
	// errorName is the reserved type name of a failed reply body
	errorName = "!error"
)

var (
	// ErrNotAPacket is returned when serializing something that is not a *Packet
	ErrNotAPacket = errors.New("packet: value is not a *Packet")
	// ErrUnknownType is returned when no codec knows the payload type
	ErrUnknownType = errors.New("packet: payload type is not registered")
	// ErrInvalidFrame is returned on truncated or inconsistent frames
	ErrInvalidFrame = errors.New("packet: malformed frame")
	// ErrChecksumMismatch is returned when the frame checksum does not match its content
	ErrChecksumMismatch = errors.New("packet: checksum mismatch")
)

// Serializer writes packets as frames:
//
//	LEN uint32 LE | CHECKSUM uint32 LE | TYPE | uvarint ACTOR | uvarint REQUEST | uvarint NAMELEN | NAME | BODY
//
// LEN counts every byte after itself and CHECKSUM is the low half of the
// xxh3 hash of everything after the checksum.
type Serializer struct {
	codecs []Codec
}

var _ tcp.PacketSerializer = (*Serializer)(nil)

// NewSerializer creates a Serializer trying codecs in order
func NewSerializer(codecs ...Codec) *Serializer {
	return &Serializer{codecs: codecs}
}

// PeekLength implements tcp.PacketSerializer
func (s *Serializer) PeekLength(buf []byte) int {
	if len(buf) < 4 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(buf)) + 4
}

// EstimateLength implements tcp.PacketSerializer
func (s *Serializer) EstimateLength(packet any) int {
	p, ok := packet.(*Packet)
	if !ok {
		return 0
	}

	size := headerSize + 1 + 3*binary.MaxVarintLen64 + 64
	if p.Err != nil {
		size += len(p.Err.Message)
	}
	return size
}

// Serialize implements tcp.PacketSerializer
func (s *Serializer) Serialize(w io.Writer, packet any) error {
	p, ok := packet.(*Packet)
	if !ok || p == nil {
		return ErrNotAPacket
	}

	buf := bufferpool.Pool.Get()
	defer bufferpool.Pool.Put(buf)

	var scratch [binary.MaxVarintLen64]byte
	buf.Write(make([]byte, headerSize))
	buf.WriteByte(byte(p.Type))
	buf.Write(binary.AppendUvarint(scratch[:0], p.ActorID))
	buf.Write(binary.AppendUvarint(scratch[:0], p.RequestID))

	if err := s.writeBody(buf, p); err != nil {
		return err
	}

	frame := buf.Bytes()
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(frame)-4))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(xxh3.Hash(frame[headerSize:])))
	_, err := w.Write(frame)
	return err
}

func (s *Serializer) writeBody(buf *bytes.Buffer, p *Packet) error {
	var scratch [binary.MaxVarintLen64]byte
	writeName := func(name string) {
		buf.Write(binary.AppendUvarint(scratch[:0], uint64(len(name))))
		buf.WriteString(name)
	}

	if p.Err != nil {
		writeName(errorName)
		buf.WriteByte(byte(p.Err.Kind))
		buf.WriteString(p.Err.Message)
		return nil
	}

	if p.Message == nil {
		writeName("")
		return nil
	}

	for _, codec := range s.codecs {
		name, ok := codec.TypeName(p.Message)
		if !ok {
			continue
		}
		writeName(name)
		if err := codec.Encode(buf, p.Message); err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnknownType, p.Message)
}

// Deserialize implements tcp.PacketSerializer
func (s *Serializer) Deserialize(r io.Reader) (any, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(header[0:4])
	if length < headerSize-4+1 {
		return nil, ErrInvalidFrame
	}

	buf := bufferpool.Pool.Get()
	defer bufferpool.Pool.Put(buf)
	if _, err := io.CopyN(buf, r, int64(length-4)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}

	content := buf.Bytes()
	if uint32(xxh3.Hash(content)) != binary.LittleEndian.Uint32(header[4:8]) {
		return nil, ErrChecksumMismatch
	}

	p, err := s.parse(content)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Serializer) parse(content []byte) (*Packet, error) {
	p := &Packet{Type: Type(content[0])}
	rest := content[1:]

	var ok bool
	if p.ActorID, rest, ok = readUvarint(rest); !ok {
		return nil, ErrInvalidFrame
	}
	if p.RequestID, rest, ok = readUvarint(rest); !ok {
		return nil, ErrInvalidFrame
	}

	nameLen, rest, ok := readUvarint(rest)
	if !ok || nameLen > uint64(len(rest)) {
		return nil, ErrInvalidFrame
	}
	name, body := string(rest[:nameLen]), rest[nameLen:]

	switch name {
	case "":
		return p, nil
	case errorName:
		if len(body) == 0 {
			return nil, ErrInvalidFrame
		}
		p.Err = &ErrorInfo{Kind: ErrorKind(body[0]), Message: string(body[1:])}
		return p, nil
	}

	for _, codec := range s.codecs {
		msg, known, err := codec.Decode(name, body)
		if !known {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		p.Message = msg
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
}

func readUvarint(buf []byte) (uint64, []byte, bool) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, nil, false
	}
	return v, buf[n:], true
}
