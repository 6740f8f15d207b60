package main

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gregLibert/iot-safe/pkg/iotsafe"
)

var algorithms = map[string]iotsafe.Algorithm{
	"sha256-ecdsa":     iotsafe.SHA256WithECDSA,
	"sha384-ecdsa":     iotsafe.SHA384WithECDSA,
	"sha512-ecdsa":     iotsafe.SHA512WithECDSA,
	"sha256-rsa-pkcs1": iotsafe.SHA256WithRSAPKCS1,
	"sha384-rsa-pkcs1": iotsafe.SHA384WithRSAPKCS1,
	"sha512-rsa-pkcs1": iotsafe.SHA512WithRSAPKCS1,
	"sha256-rsa-pss":   iotsafe.SHA256WithRSAPSS,
}

func algorithmNames() string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// digest hashes data with the hash part of alg.
func digest(alg iotsafe.Algorithm, data []byte) ([]byte, error) {
	switch alg.Hash() {
	case iotsafe.HashSHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case iotsafe.HashSHA384:
		sum := sha512.Sum384(data)
		return sum[:], nil
	case iotsafe.HashSHA512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	}
	return nil, fmt.Errorf("unsupported hash %04X", uint16(alg.Hash()))
}

func decodeHex(name, s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return b, nil
}

func (c *cli) signCmd() *cobra.Command {
	var (
		container uint8
		algName   string
		hashHex   string
		dataFile  string
		asBase64  bool
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a digest, or a file hashed on the host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			alg, ok := algorithms[strings.ToLower(algName)]
			if !ok {
				return fmt.Errorf("unknown algorithm %q (want one of %s)", algName, algorithmNames())
			}

			var sum []byte
			switch {
			case hashHex != "" && dataFile != "":
				return fmt.Errorf("--hash and --data-file are exclusive")
			case hashHex != "":
				b, err := decodeHex("hash", hashHex)
				if err != nil {
					return err
				}
				sum = b
			case dataFile != "":
				data, err := os.ReadFile(dataFile)
				if err != nil {
					return err
				}
				if sum, err = digest(alg, data); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --hash or --data-file is required")
			}

			return c.withApplet(func(a *iotsafe.Applet) error {
				sig, err := a.Sign(container, alg, sum)
				if err != nil {
					return err
				}
				if asBase64 {
					fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(sig))
					return nil
				}
				printHex(cmd, sig)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Uint8Var(&container, "container", iotsafe.ContainerKey, "private key container id")
	f.StringVar(&algName, "algorithm", "sha256-ecdsa", "signature algorithm ("+algorithmNames()+")")
	f.StringVar(&hashHex, "hash", "", "digest to sign (hex)")
	f.StringVar(&dataFile, "data-file", "", "file to hash and sign")
	f.BoolVar(&asBase64, "base64", false, "print the DER signature in base64")
	return cmd
}

func (c *cli) keygenCmd() *cobra.Command {
	var (
		container uint8
		asPEM     bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair in a container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApplet(func(a *iotsafe.Applet) error {
				kp, err := a.GenerateKeyPair(container)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "private key id: %X\n", kp.PrivateKeyID)
				fmt.Fprintf(out, "public key id:  %X\n", kp.PublicKeyID)
				fmt.Fprintf(out, "public key:     %X\n", kp.PublicKey)
				if !asPEM {
					return nil
				}

				pub, err := kp.ECDSAPublicKey()
				if err != nil {
					return err
				}
				der, err := x509.MarshalPKIXPublicKey(pub)
				if err != nil {
					return err
				}
				return pem.Encode(out, &pem.Block{Type: "PUBLIC KEY", Bytes: der})
			})
		},
	}
	f := cmd.Flags()
	f.Uint8Var(&container, "container", iotsafe.ContainerClientEphemeralKey, "key container id")
	f.BoolVar(&asPEM, "pem", false, "also print the P-256 public key as PEM")
	return cmd
}

func (c *cli) putKeyCmd() *cobra.Command {
	var (
		container uint8
		keyHex    string
	)
	cmd := &cobra.Command{
		Use:   "put-key",
		Short: "Store a public key in a container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := decodeHex("key", keyHex)
			if err != nil {
				return err
			}
			return c.withApplet(func(a *iotsafe.Applet) error {
				return a.PutServerPublicKey(container, key)
			})
		},
	}
	f := cmd.Flags()
	f.Uint8Var(&container, "container", iotsafe.ContainerServerEphemeralKey, "public key container id")
	f.StringVar(&keyHex, "key", "", "public key (hex)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func (c *cli) dhCmd() *cobra.Command {
	var client, server uint8
	cmd := &cobra.Command{
		Use:   "dh",
		Short: "Compute a shared secret between two containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApplet(func(a *iotsafe.Applet) error {
				secret, err := a.ComputeDH(client, server)
				if err != nil {
					return err
				}
				printHex(cmd, secret)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.Uint8Var(&client, "client", iotsafe.ContainerClientEphemeralKey, "private key container id")
	f.Uint8Var(&server, "server", iotsafe.ContainerServerEphemeralKey, "public key container id")
	return cmd
}

func (c *cli) prfCmd() *cobra.Command {
	var (
		secretHex    string
		pskContainer uint8
		premaster    string
		label        string
		seedHex      string
		length       int
	)
	cmd := &cobra.Command{
		Use:   "prf",
		Short: "Derive bytes with the TLS PRF",
		Long: `Derive bytes with the TLS PRF of the applet.

The secret is either given with --secret, or kept in the applet and designated
with --psk-container. --premaster adds an ECDHE premaster secret to the PSK.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := decodeHex("seed", seedHex)
			if err != nil {
				return err
			}
			secret, err := decodeHex("secret", secretHex)
			if err != nil {
				return err
			}
			pms, err := decodeHex("premaster", premaster)
			if err != nil {
				return err
			}
			psk := cmd.Flags().Changed("psk-container")
			if psk == (len(secret) > 0) {
				return fmt.Errorf("exactly one of --secret or --psk-container is required")
			}

			return c.withApplet(func(a *iotsafe.Applet) error {
				var out []byte
				var err error
				switch {
				case !psk:
					out, err = a.ComputePRFWithSecret(secret, []byte(label), seed, length)
				case len(pms) > 0:
					out, err = a.ComputePRFWithPSKECDHE([]byte{pskContainer}, pms, []byte(label), seed, length)
				default:
					out, err = a.ComputePRFWithPSK([]byte{pskContainer}, []byte(label), seed, length)
				}
				if err != nil {
					return err
				}
				printHex(cmd, out)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&secretHex, "secret", "", "secret (hex)")
	f.Uint8Var(&pskContainer, "psk-container", 0, "pre-shared key container id")
	f.StringVar(&premaster, "premaster", "", "ECDHE premaster secret (hex), with --psk-container")
	f.StringVar(&label, "label", "master secret", "PRF label")
	f.StringVar(&seedHex, "seed", "", "PRF seed (hex)")
	f.IntVarP(&length, "length", "n", 48, "number of bytes (1-255)")
	return cmd
}
