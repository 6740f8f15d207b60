package tlv

import (
	"errors"
	"fmt"
)

// BER LENGTH FIELD (ISO/IEC 8825-1, definite form only):
//
//   - Short form: one byte, 0x00-0x7F, holds the length itself.
//   - Long form:  0x80|n followed by n big-endian length bytes.
//     This package supports n in {1, 2, 3}, i.e. lengths below 0x1000000.
//   - 0x80 alone is the indefinite form. It is never valid on a card
//     interface and is reported as ErrIndefiniteLength.

// MaxLength is the first length value that cannot be encoded.
const MaxLength = 0x1000000

var (
	// ErrIndefiniteLength is returned when a length field is the single byte 0x80.
	ErrIndefiniteLength = errors.New("tlv: indefinite length not supported")

	// ErrLengthOverflow is returned for lengths that do not fit in 3 length bytes.
	ErrLengthOverflow = errors.New("tlv: length overflow")

	// ErrTruncated is returned when the input ends inside a length or value field.
	ErrTruncated = errors.New("tlv: truncated data")
)

// EncodeLength returns the minimal BER encoding of n.
func EncodeLength(n int) ([]byte, error) {
	return AppendLength(nil, n)
}

// AppendLength appends the minimal BER encoding of n to dst.
func AppendLength(dst []byte, n int) ([]byte, error) {
	switch {
	case n < 0 || n >= MaxLength:
		return dst, fmt.Errorf("%w: %d", ErrLengthOverflow, n)
	case n < 0x80:
		return append(dst, byte(n)), nil
	case n < 0x100:
		return append(dst, 0x81, byte(n)), nil
	case n < 0x10000:
		return append(dst, 0x82, byte(n>>8), byte(n)), nil
	default:
		return append(dst, 0x83, byte(n>>16), byte(n>>8), byte(n)), nil
	}
}

// LengthSize returns the number of bytes EncodeLength would produce for n,
// or 0 if n cannot be encoded.
func LengthSize(n int) int {
	switch {
	case n < 0 || n >= MaxLength:
		return 0
	case n < 0x80:
		return 1
	case n < 0x100:
		return 2
	case n < 0x10000:
		return 3
	default:
		return 4
	}
}

// DecodeLength reads a BER length field at the start of data.
// It returns the decoded value and the number of bytes consumed.
//
// The indefinite form (0x80) yields (0, 1, ErrIndefiniteLength) so callers that
// only need to skip the field can still advance.
func DecodeLength(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrTruncated
	}

	first := data[0]
	if first == 0x80 {
		return 0, 1, ErrIndefiniteLength
	}
	if first&0x80 == 0 {
		return int(first), 1, nil
	}

	n := int(first & 0x7F)
	if n > 3 {
		return 0, 0, fmt.Errorf("%w: %d length bytes", ErrLengthOverflow, n)
	}
	if len(data) < 1+n {
		return 0, 0, fmt.Errorf("%w: need %d length bytes, have %d", ErrTruncated, n, len(data)-1)
	}

	value := 0
	for _, b := range data[1 : 1+n] {
		value = value<<8 | int(b)
	}
	return value, 1 + n, nil
}
