package iotsafe

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// selectBasic is SELECT by AID of the IoT SAFE applet on the basic channel.
const selectBasic = "00 A4 04 00 0F A00000003053F12401770101495341"

// step is one expected exchange with the card.
type step struct {
	cmd  string
	resp string
}

// scriptedCard is an iso7816.Transmitter replaying a fixed dialogue.
type scriptedCard struct {
	t      *testing.T
	script []step
	sent   int
}

func newScriptedCard(t *testing.T, script ...step) *scriptedCard {
	t.Helper()
	return &scriptedCard{t: t, script: script}
}

func (c *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent++
	if c.sent > len(c.script) {
		c.t.Fatalf("unexpected exchange #%d: %X", c.sent, cmd)
	}

	s := c.script[c.sent-1]
	if want := tlv.Hex(s.cmd); !bytes.Equal(cmd, want) {
		c.t.Errorf("exchange #%d:\n sent %X\n want %X", c.sent, cmd, want)
	}
	return tlv.Hex(s.resp), nil
}

// done fails the test if part of the script was not played.
func (c *scriptedCard) done() {
	c.t.Helper()
	if c.sent != len(c.script) {
		c.t.Errorf("played %d exchanges, script has %d", c.sent, len(c.script))
	}
}

// selectedApplet returns an Applet selected on the basic channel, followed
// by script.
func selectedApplet(t *testing.T, opts Options, script ...step) (*Applet, *scriptedCard) {
	t.Helper()
	card := newScriptedCard(t, append([]step{{cmd: selectBasic, resp: "9000"}}, script...)...)

	a := New(card, opts)
	if err := a.Select(true); err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	return a, card
}

// fill returns n bytes of value b as hex.
func fill(b byte, n int) string {
	return strings.Repeat(fmt.Sprintf("%02X", b), n)
}
