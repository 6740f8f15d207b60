package iotsafe

import (
	"fmt"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
)

// GET RANDOM: 00 84 00 00 Le. Le is the number of bytes wanted, so one
// command yields at most 255 bytes. 6300 is a success variant.

// MaxRandomLength is the largest n accepted by GenerateRandom.
const MaxRandomLength = 255

// GenerateRandom returns n random bytes produced by the applet.
func (a *Applet) GenerateRandom(n int) ([]byte, error) {
	const op = "GET RANDOM"
	if n < 1 || n > MaxRandomLength {
		return nil, fmt.Errorf("%s: %w: length %d not in [1, %d]", op, iso7816.ErrInvalidParameters, n, MaxRandomLength)
	}

	data, err := a.call(op, insGetRandom, 0x00, 0x00, nil, n,
		iso7816.SW_NO_ERROR, iso7816.SW_WARN_NV_CHANGED_NO_INFO)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, malformed(op, "got %d bytes, want %d", len(data), n)
	}
	return data, nil
}
