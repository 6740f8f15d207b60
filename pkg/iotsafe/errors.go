package iotsafe

import (
	"errors"
	"fmt"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

var (
	// ErrInvalidLength is returned when a field exceeds its protocol size.
	ErrInvalidLength = errors.New("iotsafe: invalid length")

	// ErrInvalidOperation is returned for an unknown signature operation mode.
	ErrInvalidOperation = errors.New("iotsafe: invalid operation")

	// ErrInvalidResponse is returned when the card answered with an unexpected
	// status word or with data that does not have the expected shape. When a
	// status word is at fault the error also wraps an *iso7816.StatusError.
	ErrInvalidResponse = errors.New("iotsafe: invalid response")
)

// rejected reports an unexpected status word for op.
func rejected(op string, sw iso7816.StatusWord) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInvalidResponse, iso7816.NewStatusError(op, sw))
}

// malformed reports response data that cannot be decoded.
func malformed(op string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidResponse, fmt.Sprintf(format, args...))
}

// payload finalizes b. An oversized payload is reported as kind.
func payload(op string, b *tlv.Builder, kind error) ([]byte, error) {
	data, err := b.Bytes()
	if err == nil {
		return data, nil
	}
	if errors.Is(err, tlv.ErrCommandTooLong) {
		return nil, fmt.Errorf("%s: %w: %w", op, kind, err)
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}
