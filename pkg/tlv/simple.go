package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SIMPLE TLV (single byte tag):
// The GSMA IoT SAFE applet exchanges flat lists of objects with a one byte tag
// followed by a BER length. The tag byte carries no class/constructed meaning
// (0x34, 0x73 and 0x20 are plain values there), so these payloads must not go
// through a BER-TLV decoder, which would try to open them as templates.

// ErrCommandTooLong is returned by Builder when the payload exceeds its limit.
var ErrCommandTooLong = errors.New("tlv: command payload too long")

// Object is one simple-TLV element.
type Object struct {
	Tag   byte
	Value []byte
}

// Builder accumulates simple-TLV objects into a bounded payload.
// The first error sticks; Bytes reports it.
type Builder struct {
	buf   []byte
	limit int
	err   error
}

// NewBuilder creates a Builder refusing payloads longer than limit bytes.
// A limit <= 0 disables the check.
func NewBuilder(limit int) *Builder {
	return &Builder{limit: limit}
}

// Add appends tag, BER length and value.
func (b *Builder) Add(tag byte, value []byte) *Builder {
	if b.err != nil {
		return b
	}
	buf := append(b.buf, tag)
	buf, err := AppendLength(buf, len(value))
	if err != nil {
		b.err = err
		return b
	}
	b.buf = append(buf, value...)
	return b.check()
}

// AddOptional appends the object only when value is not empty.
func (b *Builder) AddOptional(tag byte, value []byte) *Builder {
	if len(value) == 0 {
		return b
	}
	return b.Add(tag, value)
}

// AddByte appends a one byte value.
func (b *Builder) AddByte(tag byte, v byte) *Builder {
	return b.Add(tag, []byte{v})
}

// AddUint16 appends a two byte big-endian value.
func (b *Builder) AddUint16(tag byte, v uint16) *Builder {
	return b.Add(tag, binary.BigEndian.AppendUint16(nil, v))
}

// AddUint32 appends a four byte big-endian value.
func (b *Builder) AddUint32(tag byte, v uint32) *Builder {
	return b.Add(tag, binary.BigEndian.AppendUint32(nil, v))
}

// Len returns the current payload size.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Bytes returns the payload or the first error encountered.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf, nil
}

func (b *Builder) check() *Builder {
	if b.limit > 0 && len(b.buf) > b.limit {
		b.err = fmt.Errorf("%w: %d > %d bytes", ErrCommandTooLong, len(b.buf), b.limit)
	}
	return b
}

// ParseSimple splits data into a flat list of simple-TLV objects.
// Values alias data.
func ParseSimple(data []byte) ([]Object, error) {
	var objects []Object

	for off := 0; off < len(data); {
		tag := data[off]
		off++

		n, consumed, err := DecodeLength(data[off:])
		if err != nil {
			return objects, fmt.Errorf("tag %02X: %w", tag, err)
		}
		off += consumed

		if len(data)-off < n {
			return objects, fmt.Errorf("tag %02X: %w: value needs %d bytes, have %d", tag, ErrTruncated, n, len(data)-off)
		}
		objects = append(objects, Object{Tag: tag, Value: data[off : off+n]})
		off += n
	}

	return objects, nil
}

// Find returns the value of the first object carrying tag.
func Find(objects []Object, tag byte) ([]byte, bool) {
	for _, o := range objects {
		if o.Tag == tag {
			return o.Value, true
		}
	}
	return nil, false
}
