package iso7816

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// APPLET SESSION:
// A Session owns one application identifier and the channel it was selected
// on. Every command sent through the session is routed to that channel by
// rewriting the channel bits of its CLA byte.
//
// Basic channel:   SELECT by AID on channel 0. 9000, 61XX and 91XX succeed.
// Logical channel: MANAGE CHANNEL open (00 70 00 00 01), the single response
//                  byte is the channel number, then SELECT by AID on it.
//                  9000 and 61XX succeed. A failed SELECT closes the channel
//                  again before the error is returned.
//
// A Session is not safe for concurrent use. Independent sessions on
// independent logical channels may share one Client only if callers serialize
// access to it.

// closeSessionSlots is the number of IoT SAFE session slots reset by CloseSessions.
const closeSessionSlots = 6

// Session routes commands to a selected applet.
type Session struct {
	client *Client
	aid    []byte
	id     uuid.UUID
	log    *slog.Logger

	selected    bool
	basic       bool
	channel     uint8
	selectTrace Trace
}

// NewSession creates an unselected session for aid. A nil logger disables logging.
func NewSession(client *Client, aid []byte, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.New()
	return &Session{
		client: client,
		aid:    bytes.Clone(aid),
		id:     id,
		log:    logger.With(slog.String("session", id.String())),
	}
}

// ID returns the correlation id attached to every log record of the session.
func (s *Session) ID() uuid.UUID { return s.id }

// AID returns a copy of the application identifier.
func (s *Session) AID() []byte { return bytes.Clone(s.aid) }

// IsSelected reports whether an applet is currently selected.
func (s *Session) IsSelected() bool { return s.selected }

// IsBasic reports whether the applet was selected on the basic channel.
func (s *Session) IsBasic() bool { return s.basic }

// Channel returns the logical channel in use (0 for the basic channel).
func (s *Session) Channel() uint8 { return s.channel }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.log }

// SelectResult returns the trace of the last SELECT issued by Select.
func (s *Session) SelectResult() (*SelectResult, error) {
	return NewSelectResult(s.selectTrace)
}

// Select selects the applet, on the basic channel or on a newly opened
// logical channel. A previous selection is released first.
func (s *Session) Select(basic bool) error {
	if s.selected {
		if err := s.Deselect(); err != nil {
			return err
		}
	}

	var err error
	if basic {
		err = s.selectBasic()
	} else {
		err = s.selectLogical()
	}
	if err != nil {
		s.log.Debug("applet selection failed", slog.Bool("basic", basic), slog.Any("error", err))
		return err
	}

	s.log.Info("applet selected",
		slog.String("aid", fmt.Sprintf("%X", s.aid)),
		slog.Bool("basic", s.basic),
		slog.Int("channel", int(s.channel)),
	)
	return nil
}

func (s *Session) selectBasic() error {
	trace, err := s.client.Send(SelectByAID(BasicClass, s.aid))
	s.selectTrace = trace
	if err != nil {
		return fmt.Errorf("select applet: %w", err)
	}

	sw := trace.Status()
	if sw != SW_NO_ERROR && sw.SW1() != SW1_BYTES_AVAILABLE && !sw.IsProactive() {
		return NewStatusError("SELECT", sw)
	}

	s.selected, s.basic, s.channel = true, true, 0
	return nil
}

func (s *Session) selectLogical() error {
	trace, err := s.client.Send(NewOpenChannelCommand())
	if err != nil {
		return fmt.Errorf("open logical channel: %w", err)
	}
	if sw := trace.Status(); sw != SW_NO_ERROR && !sw.IsProactive() {
		return NewStatusError("MANAGE CHANNEL open", sw)
	}

	data := trace.Data()
	if len(data) != 1 || data[0] == 0 || data[0] > MaxChannel {
		return fmt.Errorf("open logical channel: unexpected channel number %X", data)
	}
	channel := data[0]

	cla, err := NewInterindustryClass(false, SMNone, channel)
	if err != nil {
		return err
	}

	trace, err = s.client.Send(SelectByAID(cla, s.aid))
	s.selectTrace = trace
	if err == nil {
		if sw := trace.Status(); sw == SW_NO_ERROR || sw.SW1() == SW1_BYTES_AVAILABLE {
			s.selected, s.basic, s.channel = true, false, channel
			return nil
		}
		err = NewStatusError("SELECT", trace.Status())
	}

	// Never leave the channel open behind a failed selection.
	if _, cerr := s.client.Send(NewCloseChannelCommand(BasicClass, channel)); cerr != nil {
		s.log.Warn("closing logical channel after failed select", slog.Int("channel", int(channel)), slog.Any("error", cerr))
	}
	return fmt.Errorf("select applet on channel %d: %w", channel, err)
}

// Deselect releases the applet. On the basic channel it only clears the
// selection; on a logical channel the channel is closed and the selection
// is cleared only once the card confirmed with 9000.
func (s *Session) Deselect() error {
	if !s.selected {
		return nil
	}
	if s.basic {
		s.selected = false
		return nil
	}

	cla, err := NewInterindustryClass(false, SMNone, s.channel)
	if err != nil {
		return err
	}
	trace, err := s.client.Send(NewCloseChannelCommand(cla, s.channel))
	if err != nil {
		return fmt.Errorf("close logical channel %d: %w", s.channel, err)
	}
	if sw := trace.Status(); sw != SW_NO_ERROR {
		return NewStatusError("MANAGE CHANNEL close", sw)
	}

	s.log.Info("applet deselected", slog.Int("channel", int(s.channel)))
	s.selected = false
	s.channel = 0
	return nil
}

// Close deselects the applet if it is still selected.
func (s *Session) Close() error {
	return s.Deselect()
}

// Send routes cmd to the session channel and runs it through the Client.
// The caller's command is left untouched.
func (s *Session) Send(cmd *CommandAPDU) (Trace, error) {
	if !s.selected {
		return nil, ErrNotSelected
	}

	cla, err := cmd.Class.OnChannel(s.channel)
	if err != nil {
		return nil, err
	}
	routed := cmd.Clone()
	routed.Class = cla

	return s.client.Send(routed)
}

// Transmit is Send returning only the final response.
func (s *Session) Transmit(cmd *CommandAPDU) (*ResponseAPDU, error) {
	trace, err := s.Send(cmd)
	if err != nil {
		return nil, err
	}
	return trace.Last().Response, nil
}

// CloseSessions resets the applet session slots 0-5 on the current channel
// (CLA 2A 01 <slot> 00). Failures are ignored.
func (s *Session) CloseSessions() {
	cla, err := NewInterindustryClass(false, SMNone, s.channel)
	if err != nil {
		return
	}
	ins, _ := NewInstruction(INS_PERFORM_SECURITY_OPERATION)

	for slot := byte(0); slot < closeSessionSlots; slot++ {
		cmd := NewCommandAPDU(cla, ins, 0x01, slot, nil, MaxShortLe)
		if _, err := s.client.Send(cmd); err != nil {
			s.log.Debug("close session slot", slog.Int("slot", int(slot)), slog.Any("error", err))
		}
	}
}
