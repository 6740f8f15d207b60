package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

var hexCleaner = strings.NewReplacer(" ", "", "\n", "", "\t", "")

// Hex constructs a byte slice from a series of hex strings.
// Whitespace is ignored so fixtures can be written as "00 A4 04 00".
// It panics on invalid input and is meant for tests and constants.
func Hex(parts ...string) []byte {
	clean := hexCleaner.Replace(strings.Join(parts, ""))

	data, err := hex.DecodeString(clean)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", clean, err))
	}
	return data
}
