package modem

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// line is a fake serial port: writes are recorded, reads replay a script.
type line struct {
	in  *strings.Reader
	out bytes.Buffer
}

func newLine(script ...string) *line {
	return &line{in: strings.NewReader(strings.Join(script, ""))}
}

func (l *line) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *line) Write(p []byte) (int, error) { return l.out.Write(p) }

func TestTransmit(t *testing.T) {
	port := newLine("\r\n+CSIM: 6,\"019000\"\r\n", "\r\nOK\r\n")

	resp, err := New(port).Transmit([]byte{0x00, 0x70, 0x00, 0x00, 0x01})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x01, 0x90, 0x00}, resp)
	assert.Equal(t, "AT+CSIM=10,\"0070000001\"\r\n", port.out.String())
}

func TestTransmit_EchoAndUnquoted(t *testing.T) {
	port := newLine(
		"AT+CSIM=10,\"0084000002\"\r\n",
		"+CREG: 1\r\n",
		"+CSIM: 8,cafe9000\r\n",
		"OK\r\n",
	)

	resp, err := New(port).Transmit([]byte{0x00, 0x84, 0x00, 0x00, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCA, 0xFE, 0x90, 0x00}, resp)
}

func TestTransmit_Sequence(t *testing.T) {
	port := newLine(
		"+CSIM: 4,\"6110\"\r\nOK\r\n",
		"+CSIM: 4,\"9000\"\r\nOK\r\n",
	)
	m := New(port)

	resp, err := m.Transmit([]byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0xA0})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x61, 0x10}, resp)

	resp, err = m.Transmit([]byte{0x00, 0xC0, 0x00, 0x00, 0x10})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 0x00}, resp)
}

func TestTransmit_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"error", "ERROR\r\n"},
		{"cme error", "+CME ERROR: 4\r\n"},
		{"length mismatch", "+CSIM: 6,\"9000\"\r\nOK\r\n"},
		{"bad hex", "+CSIM: 4,\"90ZZ\"\r\nOK\r\n"},
		{"no status word", "+CSIM: 2,\"90\"\r\nOK\r\n"},
		{"error after data", "+CSIM: 4,\"9000\"\r\nERROR\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newLine(tt.script)).Transmit([]byte{0x00, 0x84, 0x00, 0x00, 0x08})
			assert.ErrorIs(t, err, ErrModem)
		})
	}
}

func TestTransmit_Truncated(t *testing.T) {
	_, err := New(newLine("+CSIM: 4,\"9000\"\r\n")).Transmit([]byte{0x00, 0x84, 0x00, 0x00, 0x08})
	assert.Error(t, err)
}

func TestClose_WithoutCloser(t *testing.T) {
	assert.NoError(t, New(newLine()).Close())
}

// silentPort behaves like a serial port whose read timeout expires on every
// read: nothing arrives and no error is reported.
type silentPort struct {
	reads int
	line
}

func (p *silentPort) Read([]byte) (int, error) {
	p.reads++
	return 0, nil
}

func TestTransmit_Timeout(t *testing.T) {
	port := &silentPort{}

	_, err := New(port).Transmit([]byte{0x00, 0x84, 0x00, 0x00, 0x08})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, port.reads)
	assert.Equal(t, "AT+CSIM=10,\"0084000008\"\r\n", port.out.String())
}

func TestTransmit_TimeoutBeforeOK(t *testing.T) {
	port := &stallingPort{in: strings.NewReader("+CSIM: 4,\"9000\"\r\n")}

	_, err := New(port).Transmit([]byte{0x00, 0x84, 0x00, 0x00, 0x08})
	assert.ErrorIs(t, err, ErrTimeout)
}

// stallingPort replays in, then times out forever.
type stallingPort struct {
	in  *strings.Reader
	out bytes.Buffer
}

func (p *stallingPort) Read(b []byte) (int, error) {
	if p.in.Len() == 0 {
		return 0, nil
	}
	return p.in.Read(b)
}

func (p *stallingPort) Write(b []byte) (int, error) { return p.out.Write(b) }
