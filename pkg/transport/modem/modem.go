// Package modem carries APDUs to the SIM of a cellular modem with the
// generic SIM access command of 3GPP TS 27.007:
//
//	> AT+CSIM=<2*n>,"<command hex>"
//	< +CSIM: <2*m>,"<response hex>"
//	< OK
//
// The modem forwards the command to the UICC unchanged and hands back the
// response with its status word. Logical channel and GET RESPONSE handling
// stay with the caller.
package modem

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Serial line defaults of the modems this package was used with.
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 10 * time.Second
)

var (
	// ErrModem is returned when the modem answers ERROR or an unreadable line.
	ErrModem = errors.New("modem: AT command failed")

	// ErrTimeout is returned when the modem stays silent for a whole read
	// timeout.
	ErrTimeout = errors.New("modem: read timeout")
)

// Modem speaks AT+CSIM over a line oriented byte stream.
type Modem struct {
	w      io.Writer
	r      *bufio.Reader
	closer io.Closer
}

// New wraps rw, typically a serial port. Close closes rw if it is an io.Closer.
func New(rw io.ReadWriter) *Modem {
	m := &Modem{w: rw, r: bufio.NewReader(timeoutReader{rw})}
	if c, ok := rw.(io.Closer); ok {
		m.closer = c
	}
	return m
}

// Open opens a serial port at baud, 8N1. A baud of 0 uses DefaultBaudRate.
func Open(port string, baud int) (*Modem, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", port, err)
	}
	if err := p.SetReadTimeout(DefaultReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("configuring %s: %w", port, err)
	}
	return New(p), nil
}

// Ports lists the serial ports of the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Transmit sends one APDU through AT+CSIM and returns the card response.
func (m *Modem) Transmit(cmd []byte) ([]byte, error) {
	req := fmt.Sprintf("AT+CSIM=%d,\"%s\"\r\n", 2*len(cmd), strings.ToUpper(hex.EncodeToString(cmd)))
	if _, err := io.WriteString(m.w, req); err != nil {
		return nil, fmt.Errorf("writing AT+CSIM: %w", err)
	}

	// Skip the echo and unsolicited result codes.
	var line string
	for {
		l, err := m.readLine()
		if err != nil {
			return nil, err
		}
		if isError(l) {
			return nil, fmt.Errorf("%w: %s", ErrModem, l)
		}
		if strings.HasPrefix(l, "+CSIM:") {
			line = l
			break
		}
	}

	resp, err := parseCSIM(line)
	if err != nil {
		return nil, err
	}

	for {
		l, err := m.readLine()
		if err != nil {
			return nil, err
		}
		if l == "OK" {
			return resp, nil
		}
		if isError(l) {
			return nil, fmt.Errorf("%w: %s", ErrModem, l)
		}
	}
}

// timeoutReader reports the empty read a serial port returns when its read
// timeout expires as ErrTimeout. bufio would otherwise retry it.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n == 0 && err == nil && len(p) > 0 {
		return 0, ErrTimeout
	}
	return n, err
}

// Close closes the underlying port.
func (m *Modem) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

func (m *Modem) readLine() (string, error) {
	l, err := m.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading modem: %w", err)
	}
	return strings.TrimSpace(l), nil
}

func isError(line string) bool {
	return line == "ERROR" || strings.HasPrefix(line, "+CME ERROR")
}

// parseCSIM decodes `+CSIM: <len>,"<hex>"`. Quotes are optional.
func parseCSIM(line string) ([]byte, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "+CSIM:"))
	count, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed %q", ErrModem, line)
	}

	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil {
		return nil, fmt.Errorf("%w: length in %q: %v", ErrModem, line, err)
	}
	data = strings.Trim(strings.TrimSpace(data), `"`)
	if len(data) != n {
		return nil, fmt.Errorf("%w: announced %d hex digits, got %d", ErrModem, n, len(data))
	}

	resp, err := hex.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModem, err)
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("%w: response without status word", ErrModem)
	}
	return resp, nil
}
