package iotsafe

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
)

// cla is the class byte of every IoT SAFE command before channel routing.
const cla byte = 0x00

// Options configures an Applet. The zero value is usable.
type Options struct {
	// AID overrides DefaultAID.
	AID []byte

	// Logger receives session and exchange records. Nil disables logging.
	Logger *slog.Logger

	// MaxContinuations overrides iso7816.DefaultMaxContinuations when > 0.
	MaxContinuations int

	// AppendFileTerminator makes ReadFile append a zero byte to the file
	// content, for callers expecting the data as a C string.
	AppendFileTerminator bool
}

// Applet is a handle on the IoT SAFE applet of one card.
// It is not safe for concurrent use.
type Applet struct {
	session    *iso7816.Session
	log        *slog.Logger
	terminator bool
}

// New binds an Applet to card. Select must be called before any operation.
func New(card iso7816.Transmitter, opts Options) *Applet {
	aid := opts.AID
	if len(aid) == 0 {
		aid = DefaultAID
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := iso7816.NewClient(card)
	client.Logger = logger
	client.MaxContinuations = opts.MaxContinuations

	session := iso7816.NewSession(client, aid, logger)
	return &Applet{
		session:    session,
		log:        session.Logger(),
		terminator: opts.AppendFileTerminator,
	}
}

// Session exposes the underlying applet session.
func (a *Applet) Session() *iso7816.Session { return a.session }

// Select selects the applet on the basic channel or on a logical channel.
func (a *Applet) Select(basic bool) error { return a.session.Select(basic) }

// Deselect releases the applet and its logical channel.
func (a *Applet) Deselect() error { return a.session.Deselect() }

// Close deselects the applet if still selected.
func (a *Applet) Close() error { return a.session.Close() }

// IsSelected reports whether the applet is selected.
func (a *Applet) IsSelected() bool { return a.session.IsSelected() }

// CloseSessions resets the applet session slots. Errors are ignored.
func (a *Applet) CloseSessions() { a.session.CloseSessions() }

// call builds an IoT SAFE command, sends it on the session channel and
// returns the response data if the status word is one of accept (9000 when
// accept is empty).
func (a *Applet) call(op string, ins, p1, p2 byte, data []byte, ne int, accept ...iso7816.StatusWord) ([]byte, error) {
	cmd, err := iso7816.NewRawCommand(cla, ins, p1, p2, data, ne)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a.exchange(op, cmd, accept...)
}

func (a *Applet) exchange(op string, cmd *iso7816.CommandAPDU, accept ...iso7816.StatusWord) ([]byte, error) {
	resp, err := a.session.Transmit(cmd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(accept) == 0 {
		accept = []iso7816.StatusWord{iso7816.SW_NO_ERROR}
	}
	if !slices.Contains(accept, resp.Status) {
		a.log.Debug("command rejected", slog.String("op", op), slog.String("sw", resp.Status.String()))
		return nil, rejected(op, resp.Status)
	}
	return resp.Data, nil
}
