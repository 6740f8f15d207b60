package iso7816

import (
	"bytes"
	"fmt"
)

// APDU (Application Protocol Data Unit) structures according to ISO/IEC 7816-3 and 7816-4.
//
// COMMAND APDU (C-APDU):
//   Header: CLA INS P1 P2
//   Body:   [Lc Data] [Le]
//
// ENCODING CASES (ISO 7816-3):
// - Case 1: No Data, No Response (Header only).
// - Case 2: No Data, Response Expected (Header + Le).
// - Case 3: Data Present, No Response (Header + Lc + Data).
// - Case 4: Data Present, Response Expected (Header + Lc + Data + Le).
//
// Only short length encoding is produced: Lc is one byte (max 255 data bytes)
// and Le is one byte where 0x00 stands for 256. Secure elements reached over
// AT+CSIM or T=0 readers do not reliably accept extended lengths, so bigger
// payloads are split by the caller into several commands.
//
// RESPONSE APDU (R-APDU):
//   [Data] SW1 SW2

// APDU Limits according to ISO 7816-3 (short length).
const (
	// MaxShortLc is the maximum data length (Nc) encodable in one Lc byte.
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length (Ne). Le 0x00 encodes 256.
	MaxShortLe = 256

	// MaxCommandSize is Header(4) + Lc(1) + Data(255) + Le(1).
	MaxCommandSize = 4 + 1 + MaxShortLc + 1
)

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means no Le field)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// NewRawCommand builds a command from raw header bytes, validating CLA, INS
// and the short length limits.
func NewRawCommand(cla, ins, p1, p2 byte, data []byte, ne int) (*CommandAPDU, error) {
	class, err := NewClass(cla)
	if err != nil {
		return nil, err
	}
	instruction, err := NewInstruction(InsCode(ins))
	if err != nil {
		return nil, err
	}

	cmd := NewCommandAPDU(class, instruction, p1, p2, data, ne)
	if err := cmd.check(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Case1 builds a header only command.
func Case1(cla, ins, p1, p2 byte) (*CommandAPDU, error) {
	return NewRawCommand(cla, ins, p1, p2, nil, 0)
}

// Case2 builds a command expecting a response of le bytes (0x00 means 256).
func Case2(cla, ins, p1, p2, le byte) (*CommandAPDU, error) {
	return NewRawCommand(cla, ins, p1, p2, nil, LeToNe(le))
}

// Case3 builds a command carrying data without Le.
func Case3(cla, ins, p1, p2 byte, data []byte) (*CommandAPDU, error) {
	return NewRawCommand(cla, ins, p1, p2, data, 0)
}

// Case4 builds a command carrying data and expecting a response.
func Case4(cla, ins, p1, p2 byte, data []byte, le byte) (*CommandAPDU, error) {
	return NewRawCommand(cla, ins, p1, p2, data, LeToNe(le))
}

// LeToNe converts a short Le byte to the number of expected bytes.
func LeToNe(le byte) int {
	if le == 0 {
		return MaxShortLe
	}
	return int(le)
}

func (c *CommandAPDU) check() error {
	if len(c.Data) > MaxShortLc {
		return fmt.Errorf("%w: %d data bytes, max %d", ErrInvalidParameters, len(c.Data), MaxShortLc)
	}
	if c.Ne < 0 || c.Ne > MaxShortLe {
		return fmt.Errorf("%w: Ne %d out of range [0, %d]", ErrInvalidParameters, c.Ne, MaxShortLe)
	}
	return nil
}

// Bytes encodes the CommandAPDU into its short form byte representation.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	class, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, MaxCommandSize))
	buf.Write([]byte{class, byte(c.Instruction.Raw), c.P1, c.P2})

	if len(c.Data) > 0 {
		buf.WriteByte(byte(len(c.Data)))
		buf.Write(c.Data)
	}

	if c.Ne > 0 {
		// 256 wraps to 0x00.
		buf.WriteByte(byte(c.Ne))
	}

	return buf.Bytes(), nil
}

// Clone returns a copy of c that can be modified without touching the original.
// Data is shared.
func (c *CommandAPDU) Clone() *CommandAPDU {
	dup := *c
	return &dup
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | CLA: %02X | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.Class.Raw, c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw bytes received from the card into data and status.
// The input must contain at least 2 bytes (SW1, SW2). Data aliases raw.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: response too short: length %d", ErrTransport, len(raw))
	}

	indexSW1 := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:indexSW1],
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
