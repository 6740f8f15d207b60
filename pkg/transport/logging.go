package transport

import (
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
)

// Logging traces every raw exchange of the wrapped carrier.
// Commands and responses are logged at Debug level as upper case hex,
// failures at Warn level.
type Logging struct {
	next iso7816.Transmitter
	log  *slog.Logger
}

// WithLogging wraps next. A nil logger uses slog.Default().
func WithLogging(next iso7816.Transmitter, logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{next: next, log: logger}
}

// LoggingDecorator returns WithLogging as a Chain decorator.
func LoggingDecorator(logger *slog.Logger) func(iso7816.Transmitter) iso7816.Transmitter {
	return func(next iso7816.Transmitter) iso7816.Transmitter {
		return WithLogging(next, logger)
	}
}

// Transmit forwards cmd and logs the exchange.
func (l *Logging) Transmit(cmd []byte) ([]byte, error) {
	start := time.Now()
	resp, err := l.next.Transmit(cmd)
	elapsed := time.Since(start)

	if err != nil {
		l.log.Warn("apdu transmit failed",
			slog.String("snd", upperHex(cmd)),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
		return nil, err
	}

	l.log.Debug("apdu",
		slog.String("ins", insLabel(cmd)),
		slog.String("snd", upperHex(cmd)),
		slog.String("rcv", upperHex(resp)),
		slog.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
