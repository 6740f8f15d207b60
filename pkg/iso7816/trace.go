package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// TRANSACTION:
// One Command APDU (C-APDU) sent by the terminal followed by one Response APDU
// (R-APDU) sent back by the card (ISO 7816-3).
//
// TRACE:
// The chronological list of transactions produced by one logical request.
// A single intent ("compute signature") may take several exchanges because of
// GET RESPONSE (61XX/9FXX) and Le correction (6CXX); the last transaction
// carries the outcome.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace, or nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the final transaction in the trace was successful.
// Intermediate 61XX or 6CXX answers do not matter.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Status returns the status word of the final response, or 0 for an empty trace.
func (t Trace) Status() StatusWord {
	last := t.Last()
	if last == nil || last.Response == nil {
		return 0
	}
	return last.Response.Status
}

// Data returns the data field of the final response.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Describe renders every exchange of the trace followed by the final data.
func (t Trace) Describe(title string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== %s REPORT ===\n", strings.ToUpper(title))

	for i, tx := range t {
		cmd := tx.Command
		fmt.Fprintf(&sb, "[%d] Command: %s (CLA %02X, P1 %02X, P2 %02X)\n",
			i+1, cmd.Instruction.Raw, cmd.Class.Raw, cmd.P1, cmd.P2)
		if len(cmd.Data) > 0 {
			fmt.Fprintf(&sb, "    + Data:    %X\n", cmd.Data)
		}
		if cmd.Ne > 0 {
			fmt.Fprintf(&sb, "    + Le:      %d\n", cmd.Ne)
		}
		if tx.Response == nil {
			sb.WriteString("    - No Response.\n")
			continue
		}
		sb.WriteString(describeResult(tx.Response.Status))
	}
	sb.WriteString("\n")

	sb.WriteString("[=] DATA OUTCOME:\n")
	if data := t.Data(); len(data) > 0 {
		fmt.Fprintf(&sb, "    + Length: %d bytes\n", len(data))
		fmt.Fprintf(&sb, "    + Dump:   %X\n", data)
		fmt.Fprintf(&sb, "    + ASCII:  %q\n", tlv.MakeSafeASCII(data))
	} else {
		sb.WriteString("    - No Data Received.\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// describeResult renders the "+ Result:" line of a report.
func describeResult(sw StatusWord) string {
	mark, desc := "[OK]", "SW_NO_ERROR"

	switch {
	case sw.HasMoreData():
		desc = fmt.Sprintf("%02X (%d) bytes still available", sw.SW2(), sw.SW2())
	case sw.IsWrongLength():
		mark = "[!!]"
		desc = fmt.Sprintf("Wrong length, correct is %02X (%d)", sw.SW2(), sw.SW2())
	case sw != SW_NO_ERROR:
		mark = "[!!]"
		desc = sw.Verbose()
	}

	return fmt.Sprintf("    + Result:  [%02X %02X] %s %s\n", sw.SW1(), sw.SW2(), mark, desc)
}
