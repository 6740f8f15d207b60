// Package pcsc carries APDUs to a card inserted in a PC/SC reader.
package pcsc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ebfe/scard"
)

// ErrNoReader is returned when no reader matches.
var ErrNoReader = errors.New("pcsc: no smart card reader found")

// Reader is a connection to the card of one reader.
type Reader struct {
	ctx  *scard.Context
	card *scard.Card
	name string
}

// ListReaders returns the names of the readers known to the PC/SC daemon.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("listing readers: %w", err)
	}
	return readers, nil
}

// Connect opens the card of the reader designated by selector: an index in
// the reader list, a case-insensitive part of its name, or "" for the first
// reader. T=0 and T=1 are both offered to the card.
func Connect(selector string) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("listing readers: %w", err)
	}
	name, err := pickReader(readers, selector)
	if err != nil {
		ctx.Release()
		return nil, err
	}

	// Restricting the protocols avoids "Parameter Incorrect" on some readers.
	card, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("connecting to %q: %w", name, err)
	}
	return &Reader{ctx: ctx, card: card, name: name}, nil
}

func pickReader(readers []string, selector string) (string, error) {
	if len(readers) == 0 {
		return "", ErrNoReader
	}
	if selector == "" {
		return readers[0], nil
	}
	if i, err := strconv.Atoi(selector); err == nil {
		if i < 0 || i >= len(readers) {
			return "", fmt.Errorf("%w: index %d, %d reader(s) available", ErrNoReader, i, len(readers))
		}
		return readers[i], nil
	}
	for _, r := range readers {
		if strings.Contains(strings.ToLower(r), strings.ToLower(selector)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: none matches %q", ErrNoReader, selector)
}

// Name returns the reader name.
func (r *Reader) Name() string { return r.name }

// Transmit sends one APDU to the card.
func (r *Reader) Transmit(cmd []byte) ([]byte, error) {
	resp, err := r.card.Transmit(cmd)
	if err != nil {
		return nil, fmt.Errorf("pcsc transmit: %w", err)
	}
	return resp, nil
}

// Close disconnects from the card, leaving it powered, and releases the context.
func (r *Reader) Close() error {
	return errors.Join(
		r.card.Disconnect(scard.LeaveCard),
		r.ctx.Release(),
	)
}
