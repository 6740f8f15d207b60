// Package transport holds the carriers of raw APDUs and the decorators that
// can be stacked on any of them.
//
// A carrier is an iso7816.Transmitter: one call sends a complete command and
// returns the complete response, status word included. Carriers live in the
// sub-packages (pcsc for PC/SC readers, modem for AT+CSIM over a serial line).
// Decorators wrap a carrier and keep its contract.
package transport

import "github.com/gregLibert/iot-safe/pkg/iso7816"

// Func adapts a function to iso7816.Transmitter.
type Func func(cmd []byte) ([]byte, error)

// Transmit calls f(cmd).
func (f Func) Transmit(cmd []byte) ([]byte, error) {
	return f(cmd)
}

// Chain wraps card with decorators, the first one being the outermost.
func Chain(card iso7816.Transmitter, decorators ...func(iso7816.Transmitter) iso7816.Transmitter) iso7816.Transmitter {
	for i := len(decorators) - 1; i >= 0; i-- {
		card = decorators[i](card)
	}
	return card
}

// insLabel returns the INS byte of a command as a metric or log label.
func insLabel(cmd []byte) string {
	if len(cmd) < 2 {
		return "none"
	}
	return iso7816.InsCode(cmd[1]).String()
}

// swLabel returns the status word of a response as a label.
func swLabel(resp []byte) string {
	if len(resp) < 2 {
		return "none"
	}
	return iso7816.NewStatusWord(resp[len(resp)-2], resp[len(resp)-1]).String()
}
