package bits

import "testing"

func TestBit(t *testing.T) {
	tests := []struct {
		n        uint
		expected byte
	}{
		{1, 0x01}, {5, 0x10}, {8, 0x80}, {0, 0x00},
		{9, 0x00}, // out of range is ignored
	}

	for _, tt := range tests {
		if res := Bit(tt.n); res != tt.expected {
			t.Errorf("Bit(%d) = 0x%02X; want 0x%02X", tt.n, res, tt.expected)
		}
	}
}

func TestSetAndClear(t *testing.T) {
	b := Set(0, 5)
	if b != 0x10 {
		t.Errorf("Set(0, 5) = 0b%08b; want 0b00010000", b)
	}
	if !IsSet(b, 5) || IsSet(b, 4) {
		t.Errorf("IsSet mismatch on 0b%08b", b)
	}
	if got := Clear(0xFF, 8); got != 0x7F {
		t.Errorf("Clear(0xFF, 8) = 0x%02X; want 0x7F", got)
	}
}

func TestGetRange(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		high     uint
		low      uint
		expected byte
	}{
		{"Bits 4-3 of 0x0C", 0b0000_1100, 4, 3, 3},
		{"Bits 2-1 of 0x03", 0b0000_0011, 2, 1, 3},
		{"Bits 4-1 of 0x0F", 0b0000_1111, 4, 1, 15},
		{"Bits 8-7 of 0x40", 0b0100_0000, 8, 7, 1},
		{"Full Byte", 0xAA, 8, 1, 0xAA},
		{"Inverted range", 0xFF, 1, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := GetRange(tt.input, tt.high, tt.low); res != tt.expected {
				t.Errorf("GetRange(0x%02X, %d, %d) = %d; want %d", tt.input, tt.high, tt.low, res, tt.expected)
			}
		})
	}
}

func TestSetRange(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		high     uint
		low      uint
		value    byte
		expected byte
	}{
		{"Channel 3 into CLA 00", 0x00, 2, 1, 3, 0x03},
		{"Overwrite channel bits", 0b1000_0010, 2, 1, 1, 0b1000_0001},
		{"Further interindustry offset", 0x40, 4, 1, 0x0F, 0x4F},
		{"Value wider than field", 0x00, 2, 1, 0xFF, 0x03},
		{"Invalid range untouched", 0x5A, 9, 1, 0, 0x5A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SetRange(tt.input, tt.high, tt.low, tt.value); got != tt.expected {
				t.Errorf("SetRange(0x%02X, %d, %d, %d) = 0x%02X; want 0x%02X",
					tt.input, tt.high, tt.low, tt.value, got, tt.expected)
			}
		})
	}
}
