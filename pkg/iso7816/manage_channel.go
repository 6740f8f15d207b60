package iso7816

// MANAGE CHANNEL (ISO 7816-4, INS '70'):
// P1 00: open a logical channel. With P2 00 the card picks the number and
//        returns it in a one byte response (Le 01).
// P1 80: close the logical channel named in P2.

const (
	manageChannelOpen  byte = 0x00
	manageChannelClose byte = 0x80
)

// NewOpenChannelCommand asks the card to open a logical channel of its choice:
// 00 70 00 00 01.
func NewOpenChannelCommand() *CommandAPDU {
	ins, _ := NewInstruction(INS_MANAGE_CHANNEL)
	return NewCommandAPDU(BasicClass, ins, manageChannelOpen, 0x00, nil, 1)
}

// NewCloseChannelCommand closes channel, sent with cla: CLA 70 80 channel.
func NewCloseChannelCommand(cla Class, channel uint8) *CommandAPDU {
	ins, _ := NewInstruction(INS_MANAGE_CHANNEL)
	return NewCommandAPDU(cla, ins, manageChannelClose, channel, nil, 0)
}
