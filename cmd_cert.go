package main

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gregLibert/iot-safe/pkg/iotsafe"
)

func (c *cli) certCmd() *cobra.Command {
	var (
		container uint8
		asPEM     bool
	)
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Read the certificate of a container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApplet(func(a *iotsafe.Applet) error {
				der, err := a.GetCertificate(container)
				if err != nil {
					return err
				}

				// Some applets pad the file; x509 wants the exact DER.
				if cert, err := x509.ParseCertificate(trimDER(der)); err == nil {
					c.log.Info("certificate",
						slog.String("subject", cert.Subject.String()),
						slog.String("issuer", cert.Issuer.String()),
						slog.Time("not_after", cert.NotAfter),
					)
				} else {
					c.log.Warn("container does not hold a parsable certificate", slog.Any("error", err))
				}

				if asPEM {
					return pem.Encode(cmd.OutOrStdout(), &pem.Block{Type: "CERTIFICATE", Bytes: trimDER(der)})
				}
				printHex(cmd, der)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Uint8Var(&container, "container", iotsafe.ContainerCertClient, "certificate container id")
	f.BoolVar(&asPEM, "pem", false, "print PEM instead of hex")
	return cmd
}

// trimDER cuts der after its outer SEQUENCE when the header can be read.
func trimDER(der []byte) []byte {
	if len(der) < 2 || der[0] != 0x30 {
		return der
	}
	n, size := int(der[1]), 2
	if der[1]&0x80 != 0 {
		k := int(der[1] & 0x7F)
		if k == 0 || k > 3 || len(der) < 2+k {
			return der
		}
		n = 0
		for _, b := range der[2 : 2+k] {
			n = n<<8 | int(b)
		}
		size += k
	}
	if end := size + n; end <= len(der) {
		return bytes.Clone(der[:end])
	}
	return der
}
