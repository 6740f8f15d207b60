package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	transportPCSC  = "pcsc"
	transportModem = "modem"
)

// Config is the resolved configuration of one invocation. Every key can come
// from a flag, an IOTSAFE_* environment variable or the config file.
type Config struct {
	// Transport is pcsc or modem.
	Transport string

	// Reader designates the PC/SC reader (index or name part).
	Reader string

	// Port and Baud configure the modem serial line.
	Port string
	Baud int

	// Basic selects the applet on the basic channel.
	Basic bool

	AID []byte

	Verbose bool

	// MetricsFile receives the APDU metrics when not empty.
	MetricsFile string
}

func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Transport:   strings.ToLower(v.GetString("transport")),
		Reader:      v.GetString("reader"),
		Port:        v.GetString("port"),
		Baud:        v.GetInt("baud"),
		Basic:       v.GetBool("basic"),
		Verbose:     v.GetBool("verbose"),
		MetricsFile: v.GetString("metrics-file"),
	}

	switch cfg.Transport {
	case transportPCSC:
	case transportModem:
		if cfg.Port == "" {
			return nil, fmt.Errorf("transport %s needs a port", cfg.Transport)
		}
		if cfg.Baud <= 0 {
			return nil, fmt.Errorf("invalid baud rate %d", cfg.Baud)
		}
	default:
		return nil, fmt.Errorf("unknown transport %q (want %s or %s)", cfg.Transport, transportPCSC, transportModem)
	}

	aid, err := hex.DecodeString(strings.ReplaceAll(v.GetString("aid"), " ", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid aid: %w", err)
	}
	if len(aid) < 5 || len(aid) > 16 {
		return nil, fmt.Errorf("invalid aid: %d bytes, want 5 to 16", len(aid))
	}
	cfg.AID = aid

	return cfg, nil
}
