package iso7816

import (
	"bytes"
	"testing"

	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// step is one expected exchange: the command the card must receive and the
// raw answer it gives back (or err).
type step struct {
	cmd  string
	resp string
	err  error
}

// scriptedCard is a Transmitter replaying a fixed dialogue.
type scriptedCard struct {
	t      *testing.T
	script []step
	sent   [][]byte
}

func newScriptedCard(t *testing.T, script ...step) *scriptedCard {
	t.Helper()
	return &scriptedCard{t: t, script: script}
}

func (c *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, bytes.Clone(cmd))
	n := len(c.sent)
	if n > len(c.script) {
		c.t.Fatalf("unexpected exchange #%d: %X", n, cmd)
	}

	s := c.script[n-1]
	if want := tlv.Hex(s.cmd); !bytes.Equal(cmd, want) {
		c.t.Errorf("exchange #%d: sent %X, want %X", n, cmd, want)
	}
	if s.err != nil {
		return nil, s.err
	}
	return tlv.Hex(s.resp), nil
}

// done fails the test if part of the script was not played.
func (c *scriptedCard) done() {
	c.t.Helper()
	if len(c.sent) != len(c.script) {
		c.t.Errorf("played %d exchanges, script has %d", len(c.sent), len(c.script))
	}
}
