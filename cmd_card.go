package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregLibert/iot-safe/pkg/iotsafe"
	"github.com/gregLibert/iot-safe/pkg/transport/modem"
	"github.com/gregLibert/iot-safe/pkg/transport/pcsc"
)

func (c *cli) readersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "List PC/SC readers, or serial ports with --transport modem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := pcsc.ListReaders
			if c.cfg.Transport == transportModem {
				list = modem.Ports
			}
			names, err := list()
			if err != nil {
				return err
			}
			for i, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, name)
			}
			return nil
		},
	}
}

func (c *cli) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select",
		Short: "Select the applet and print the SELECT exchange",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApplet(func(a *iotsafe.Applet) error {
				s := a.Session()
				res, err := s.SelectResult()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "AID:     %X\n", s.AID())
				if s.IsBasic() {
					fmt.Fprintln(out, "Channel: basic")
				} else {
					fmt.Fprintf(out, "Channel: logical %d\n", s.Channel())
				}
				fmt.Fprintln(out, res.Describe())
				return nil
			})
		},
	}
}

func (c *cli) closeSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close-sessions",
		Short: "Reset the applet session slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApplet(func(a *iotsafe.Applet) error {
				a.CloseSessions()
				return nil
			})
		},
	}
}

func (c *cli) randomCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Generate random bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApplet(func(a *iotsafe.Applet) error {
				data, err := a.GenerateRandom(length)
				if err != nil {
					return err
				}
				printHex(cmd, data)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&length, "length", "n", 16, "number of bytes (1-255)")
	return cmd
}

func printHex(cmd *cobra.Command, data []byte) {
	fmt.Fprintln(cmd.OutOrStdout(), strings.ToUpper(fmt.Sprintf("%x", data)))
}
