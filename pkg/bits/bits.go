// Package bits provides helpers to read and write bit fields of a single byte
// using the 1-based, MSB=8 numbering found in ISO 7816 tables.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// Set returns b with the n-th bit set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Clear returns b with the n-th bit cleared.
func Clear(b byte, n uint) byte {
	return b &^ Bit(n)
}

// mask returns the unshifted mask covering bits high..low.
func mask(high, low uint) (byte, bool) {
	if high < low || high > 8 || low < 1 {
		return 0, false
	}
	width := high - low + 1
	return byte((1 << width) - 1), true
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	m, ok := mask(high, low)
	if !ok {
		return 0
	}
	return (b >> (low - 1)) & m
}

// SetRange writes v into bits high..low of b. Bits of v beyond the field width
// are dropped.
// Example: SetRange(0b1000_0000, 2, 1, 3) returns 0b1000_0011
func SetRange(b byte, high, low uint, v byte) byte {
	m, ok := mask(high, low)
	if !ok {
		return b
	}
	shift := low - 1
	return (b &^ (m << shift)) | ((v & m) << shift)
}
