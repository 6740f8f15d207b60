package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gregLibert/iot-safe/pkg/iotsafe"
	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/transport"
	"github.com/gregLibert/iot-safe/pkg/transport/modem"
	"github.com/gregLibert/iot-safe/pkg/transport/pcsc"
)

const envPrefix = "IOTSAFE"

// dialFunc opens the card transport described by cfg.
type dialFunc func(cfg *Config) (iso7816.Transmitter, io.Closer, error)

func dialTransport(cfg *Config) (iso7816.Transmitter, io.Closer, error) {
	switch cfg.Transport {
	case transportModem:
		m, err := modem.Open(cfg.Port, cfg.Baud)
		if err != nil {
			return nil, nil, err
		}
		return m, m, nil
	default:
		r, err := pcsc.Connect(cfg.Reader)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	}
}

type cli struct {
	v    *viper.Viper
	cfg  *Config
	log  *slog.Logger
	dial dialFunc
}

func newRootCmd(dial dialFunc) *cobra.Command {
	c := &cli{v: viper.New(), dial: dial}

	root := &cobra.Command{
		Use:   "iot-safe",
		Short: "Drive the GSMA IoT SAFE applet of a SIM or eUICC",
		Long: `iot-safe selects the GSMA IoT SAFE applet and runs one of its operations:
random generation, signature, key pair generation, key agreement, PRF,
certificate retrieval or public key upload.

The card is reached through a PC/SC reader (--transport pcsc) or the AT+CSIM
command of a cellular modem (--transport modem). Every flag can also be set
with an IOTSAFE_* environment variable (IOTSAFE_PORT, IOTSAFE_METRICS_FILE...)
or in the YAML file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (YAML)")
	f.String("transport", transportPCSC, "card transport (pcsc, modem)")
	f.String("reader", "", "PC/SC reader index or name part (default first reader)")
	f.String("port", "/dev/ttyUSB2", "modem serial port")
	f.Int("baud", modem.DefaultBaudRate, "modem baud rate")
	f.Bool("basic", false, "select the applet on the basic channel instead of a logical channel")
	f.String("aid", strings.ToUpper(hex.EncodeToString(iotsafe.DefaultAID)), "applet AID (hex)")
	f.String("metrics-file", "", "write APDU metrics to this file (Prometheus text format)")
	f.BoolP("verbose", "v", false, "log every APDU on stderr")
	if err := c.v.BindPFlags(f); err != nil {
		panic(err)
	}

	root.AddCommand(
		c.readersCmd(),
		c.selectCmd(),
		c.randomCmd(),
		c.signCmd(),
		c.keygenCmd(),
		c.certCmd(),
		c.putKeyCmd(),
		c.dhCmd(),
		c.prfCmd(),
		c.closeSessionsCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if file := c.v.GetString("config"); file != "" {
		c.v.SetConfigFile(file)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := loadConfig(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// withApplet opens the transport, selects the applet and runs fn. The applet
// is deselected and the transport closed afterwards, whatever fn returned.
func (c *cli) withApplet(fn func(a *iotsafe.Applet) error) (err error) {
	card, closer, err := c.dial(c.cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closer.Close()) }()

	reg := prometheus.NewRegistry()
	metrics := transport.NewMetrics(reg)
	card = transport.Chain(card, metrics.Instrument, transport.LoggingDecorator(c.log))

	if path := c.cfg.MetricsFile; path != "" {
		defer func() {
			if werr := prometheus.WriteToTextfile(path, reg); werr != nil {
				err = errors.Join(err, fmt.Errorf("writing metrics: %w", werr))
			}
		}()
	}

	a := iotsafe.New(card, iotsafe.Options{AID: c.cfg.AID, Logger: c.log})
	if err := a.Select(c.cfg.Basic); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.Close()) }()

	return fn(a)
}
