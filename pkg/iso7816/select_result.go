package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// SelectResult wraps the trace of a SELECT command to give access to the
// File Control Information and to a human-readable report.
type SelectResult struct {
	Trace
}

// NewSelectResult creates a SelectResult from a raw transaction trace.
// The trace must start with a SELECT command (INS 0xA4).
func NewSelectResult(t Trace) (*SelectResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}
	if t[0].Command.Instruction.Raw != INS_SELECT {
		return nil, fmt.Errorf("trace must start with SELECT command (got %02X)", byte(t[0].Command.Instruction.Raw))
	}
	return &SelectResult{Trace: t}, nil
}

// FCI parses the File Control Information of the final response, following
// the P2 of the initial SELECT.
func (r *SelectResult) FCI() (*FileControlInfo, error) {
	if !r.IsSuccess() {
		return nil, fmt.Errorf("selection failed, cannot parse FCI")
	}

	data := r.Data()
	if len(data) == 0 {
		return nil, fmt.Errorf("no response data found")
	}
	return ParseSelectData(data, r.Trace[0].Command.P2)
}

// Describe generates a report of the selection: the initial request, the
// continuation steps and a field-by-field dump of the FCI.
func (r *SelectResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== SELECT COMMAND REPORT ===\n")

	first := r.Trace[0]
	cmd := first.Command

	sb.WriteString("[1] Command: SELECT FILE (Initial Request)\n")
	fmt.Fprintf(&sb, "    + Method:  %02X -> %s\n", cmd.P1, SelectionMethod(cmd.P1))
	fmt.Fprintf(&sb, "    + Control: %02X -> %s | %s\n", cmd.P2, OccurrenceOf(cmd.P2), ControlOf(cmd.P2))
	if len(cmd.Data) > 0 {
		fmt.Fprintf(&sb, "    + Data:    %X (%q)\n", cmd.Data, tlv.MakeSafeASCII(cmd.Data))
	}
	if first.Response != nil {
		sb.WriteString(describeResult(first.Response.Status))
		if len(first.Response.Data) > 0 {
			fmt.Fprintf(&sb, "    + Payload: %d bytes received directly\n", len(first.Response.Data))
		}
	}
	sb.WriteString("\n")

	if len(r.Trace) > 1 {
		last := r.Last()
		fmt.Fprintf(&sb, "[2] Protocol: Auto-handling (Sequence of %d steps)\n", len(r.Trace))

		action := "Unknown"
		switch last.Command.Instruction.Raw {
		case INS_GET_RESPONSE:
			action = "GET RESPONSE"
		case INS_SELECT:
			action = "RE-SELECT (Correction)"
		}
		fmt.Fprintf(&sb, "    + Action:  Sending %s\n", action)
		sb.WriteString(describeResult(r.Status()))

		if data := r.Data(); len(data) > 0 {
			fmt.Fprintf(&sb, "    + Payload: %d bytes received\n", len(data))
			fmt.Fprintf(&sb, "      Dump:    %X\n", data)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("[=] FINAL OUTCOME:\n")

	fci, err := r.FCI()
	if err != nil || fci == nil {
		if len(r.Data()) > 0 {
			fmt.Fprintf(&sb, "    - FCI Parsing Failed: %v\n", err)
		} else {
			sb.WriteString("    - No Data returned to parse.\n")
		}
		return sb.String()
	}

	var structures []string
	if fci.FCP != nil {
		structures = append(structures, "FCP")
	}
	if fci.FMD != nil {
		structures = append(structures, "FMD")
	}
	if len(fci.ProprietaryRawData) > 0 {
		structures = append(structures, "ProprietaryRaw")
	}
	if len(structures) == 0 {
		structures = []string{"None"}
	}
	fmt.Fprintf(&sb, "    - Structure: %s\n", strings.Join(structures, " + "))

	var fields strings.Builder
	tlv.WriteStructFields(&fields, "FCP", fci.FCP)
	tlv.WriteStructFields(&fields, "FMD", fci.FMD)
	if fields.Len() > 0 {
		sb.WriteString(fields.String())
		sb.WriteString("\n")
	}
	for _, u := range fci.Unknown {
		fmt.Fprintf(&sb, "    - Unknown Tag %s: %X\n", u.Tag, u.Value)
	}
	if len(fci.ProprietaryRawData) > 0 {
		fmt.Fprintf(&sb, "    - Proprietary:   %X\n", fci.ProprietaryRawData)
	}

	return sb.String()
}
