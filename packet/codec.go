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
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/tochemey/interfaced/internal/types"
)

// Codec encodes message payloads. A serializer tries its codecs in order.
type Codec interface {
	// TypeName returns the wire name of msg, false when the codec cannot encode it
	TypeName(msg any) (string, bool)
	// Encode appends the encoding of msg to buf
	Encode(buf *bytes.Buffer, msg any) error
	// Decode rebuilds a message of the named type, ok is false when the name is unknown to the codec
	Decode(name string, body []byte) (msg any, ok bool, err error)
}

var (
	cborEncOpts = cbor.EncOptions{
		Sort:        cbor.SortNone,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}
)

// CBORCodec encodes registered Go types with CBOR.
// Both peers must register the same types.
type CBORCodec struct {
	registry *types.Registry
	enc      cbor.EncMode
	dec      cbor.DecMode
}

var _ Codec = (*CBORCodec)(nil)

// NewCBORCodec creates a CBORCodec with the given types registered
func NewCBORCodec(values ...any) (*CBORCodec, error) {
	enc, err := cborEncOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create cbor encoder: %w", err)
	}
	dec, err := cborDecOpts.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create cbor decoder: %w", err)
	}

	c := &CBORCodec{
		registry: types.NewRegistry(),
		enc:      enc,
		dec:      dec,
	}
	c.Register(values...)
	return c, nil
}

// Register records the types of values so that they can cross the wire
func (c *CBORCodec) Register(values ...any) {
	for _, v := range values {
		c.registry.Register(v)
	}
}

// TypeName implements Codec
func (c *CBORCodec) TypeName(msg any) (string, bool) {
	return c.registry.Name(msg)
}

// Encode implements Codec
func (c *CBORCodec) Encode(buf *bytes.Buffer, msg any) error {
	return c.enc.NewEncoder(buf).Encode(msg)
}

// Decode implements Codec
func (c *CBORCodec) Decode(name string, body []byte) (any, bool, error) {
	rtype, ok := c.registry.Lookup(name)
	if !ok {
		return nil, false, nil
	}

	ptr := reflect.New(rtype)
	if err := c.dec.Unmarshal(body, ptr.Interface()); err != nil {
		return nil, true, err
	}
	return ptr.Elem().Interface(), true, nil
}

// ProtoCodec encodes proto.Message payloads. Types are resolved through the
// global protobuf registry, so any generated message linked into the binary
// can be decoded.
type ProtoCodec struct {
	resolver *protoregistry.Types
}

var _ Codec = (*ProtoCodec)(nil)

// NewProtoCodec creates a ProtoCodec backed by protoregistry.GlobalTypes
func NewProtoCodec() *ProtoCodec {
	return &ProtoCodec{resolver: protoregistry.GlobalTypes}
}

// TypeName implements Codec
func (c *ProtoCodec) TypeName(msg any) (string, bool) {
	m, ok := msg.(proto.Message)
	if !ok || m == nil {
		return "", false
	}
	return string(m.ProtoReflect().Descriptor().FullName()), true
}

// Encode implements Codec
func (c *ProtoCodec) Encode(buf *bytes.Buffer, msg any) error {
	m, ok := msg.(proto.Message)
	if !ok {
		return errors.New("not a proto message")
	}
	out, err := proto.MarshalOptions{}.MarshalAppend(buf.AvailableBuffer(), m)
	if err != nil {
		return err
	}
	_, err = buf.Write(out)
	return err
}

// Decode implements Codec
func (c *ProtoCodec) Decode(name string, body []byte) (any, bool, error) {
	mt, err := c.resolver.FindMessageByName(protoreflect.FullName(name))
	if err != nil {
		return nil, false, nil
	}

	m := mt.New().Interface()
	if err := proto.Unmarshal(body, m); err != nil {
		return nil, true, err
	}
	return m, true, nil
}
