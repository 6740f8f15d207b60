package iso7816

import (
	"fmt"
	"log/slog"
)

// CLIENT & PROTOCOL LOGIC:
// The Client drives one logical request over the physical connection and hides
// the continuation procedures T=0 cards expose to the application layer.
// They only apply when the card answered with the two status bytes alone:
//
// 1. "61 XX" / "9F XX" (Response Available):
//    XX bytes are waiting. The client sends GET RESPONSE (INS C0, P1=P2=00,
//    Le=XX) on the logical channel of the previous command.
//
// 2. "6C XX" (Wrong Length):
//    The card rejected Le and suggests XX. The client re-sends the previous
//    command with Le = XX.
//
// Each answer replaces the previous one; the final response is the one that
// is not a continuation. A misbehaving card could keep the exchange going
// forever, so the number of continuation steps is bounded.
//
// Send() returns a Trace holding every atomic transaction of the request.

// DefaultMaxContinuations bounds the GET RESPONSE / Le correction steps of one request.
const DefaultMaxContinuations = 5

// Transmitter abstracts the physical card connection.
// Transmit sends one raw C-APDU and returns the raw R-APDU (data + SW1 SW2).
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
// It is not safe for concurrent use.
type Client struct {
	Card Transmitter

	// Logger receives one debug record per exchange. Nil disables logging.
	Logger *slog.Logger

	// MaxContinuations overrides DefaultMaxContinuations when > 0.
	MaxContinuations int
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Client) maxContinuations() int {
	if c.MaxContinuations > 0 {
		return c.MaxContinuations
	}
	return DefaultMaxContinuations
}

// Send transmits a command and resolves 61xx, 9Fxx and 6Cxx answers.
// On error the returned trace holds the exchanges that did complete.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace
	log := c.logger()
	current := cmd

	for step := 0; ; step++ {
		raw, err := current.Bytes()
		if err != nil {
			return trace, fmt.Errorf("encoding error: %w", err)
		}

		rawResp, err := c.Card.Transmit(raw)
		if err != nil {
			return trace, fmt.Errorf("%w: %w", ErrTransport, err)
		}

		resp, err := ParseResponseAPDU(rawResp)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: current, Response: resp})

		log.Debug("apdu exchange",
			slog.String("ins", current.Instruction.Raw.String()),
			slog.Int("step", step),
			slog.Int("lc", len(current.Data)),
			slog.Int("rdata", len(resp.Data)),
			slog.String("sw", fmt.Sprintf("%04X", uint16(resp.Status))),
		)

		if len(rawResp) != 2 {
			return trace, nil
		}

		var next *CommandAPDU
		switch {
		case resp.Status.IsWrongLength():
			next = current.Clone()
			next.Ne = LeToNe(resp.Status.SW2())
		case resp.Status.HasMoreData():
			next, err = NewGetResponseCommand(current.Class, resp.Status.SW2())
			if err != nil {
				return trace, err
			}
		default:
			return trace, nil
		}

		if step+1 > c.maxContinuations() {
			return trace, fmt.Errorf("%w: last status %04X after %d steps", ErrContinuationLimit, uint16(resp.Status), step+1)
		}
		current = next
	}
}

// Transmit is Send returning only the final response.
func (c *Client) Transmit(cmd *CommandAPDU) (*ResponseAPDU, error) {
	trace, err := c.Send(cmd)
	if err != nil {
		return nil, err
	}
	return trace.Last().Response, nil
}

// NewGetResponseCommand builds GET RESPONSE for le bytes on the logical
// channel of cla. Chaining, secure messaging and proprietary bits are dropped.
func NewGetResponseCommand(cla Class, le byte) (*CommandAPDU, error) {
	class, err := BasicClass.OnChannel(cla.Channel)
	if err != nil {
		return nil, err
	}
	ins, _ := NewInstruction(INS_GET_RESPONSE)
	return NewCommandAPDU(class, ins, 0x00, 0x00, nil, LeToNe(le)), nil
}
