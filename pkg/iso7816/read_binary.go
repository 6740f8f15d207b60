package iso7816

import "fmt"

// READ BINARY (ISO 7816-4, INS 'B0'):
// With bit 8 of P1 cleared, P1-P2 hold a 15 bit offset into the current EF.
// Applets addressing files by a data field object (IoT SAFE uses tag 83 or 73)
// send that selector along with the offset. P1 then carries no SFI and P1-P2
// is a full 16 bit offset. Le 00 asks for as much as fits.

const (
	// MaxReadBinaryOffset is the largest offset P1-P2 can carry for the
	// current EF.
	MaxReadBinaryOffset = 0x7FFF

	// MaxReadBinarySelectorOffset is the largest offset when the file is
	// named in the data field.
	MaxReadBinarySelectorOffset = 0xFFFF
)

// NewReadBinaryCommand reads from offset, optionally naming the file in data.
func NewReadBinaryCommand(cla Class, offset int, data []byte) (*CommandAPDU, error) {
	limit := MaxReadBinaryOffset
	if len(data) > 0 {
		limit = MaxReadBinarySelectorOffset
	}
	if offset < 0 || offset > limit {
		return nil, fmt.Errorf("%w: READ BINARY offset %d out of range", ErrInvalidParameters, offset)
	}
	ins, _ := NewInstruction(INS_READ_BINARY)
	cmd := NewCommandAPDU(cla, ins, byte(offset>>8), byte(offset), data, MaxShortLe)
	if err := cmd.check(); err != nil {
		return nil, err
	}
	return cmd, nil
}
