package iotsafe

import (
	"fmt"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// COMPUTE PRF: 00 48 <mode> 00 [86 secret id] [76 secret label] [D1 secret]
// [D4 premaster] D2 <label || seed> D3 01 <length> 00
//
// The applet runs the TLS 1.2 PRF over the selected secret and answers with
// exactly <length> bytes.

// MaxPRFLength is the largest output of one COMPUTE PRF.
const MaxPRFLength = 255

// PRFRequest holds the inputs of COMPUTE PRF.
type PRFRequest struct {
	Mode PRFMode

	SecretID    []byte
	SecretLabel []byte
	Secret      []byte
	Premaster   []byte

	// LabelAndSeed is the TLS label followed by the seed.
	LabelAndSeed []byte

	Length int
}

// ComputePRF runs the PRF and returns req.Length bytes.
func (a *Applet) ComputePRF(req PRFRequest) ([]byte, error) {
	const op = "COMPUTE PRF"

	if req.Length < 1 || req.Length > MaxPRFLength {
		return nil, fmt.Errorf("%s: %w: length %d not in [1, %d]", op, iso7816.ErrInvalidParameters, req.Length, MaxPRFLength)
	}

	b := tlv.NewBuilder(maxPayload).
		AddOptional(tagSecretID, req.SecretID).
		AddOptional(tagSecretLabel, req.SecretLabel).
		AddOptional(tagSecret, req.Secret).
		AddOptional(tagPremasterSecret, req.Premaster).
		Add(tagLabelAndSeed, req.LabelAndSeed).
		AddByte(tagPRFLength, byte(req.Length))
	body, err := payload(op, b, iso7816.ErrInvalidParameters)
	if err != nil {
		return nil, err
	}

	data, err := a.call(op, insComputePRF, byte(req.Mode), 0x00, body, iso7816.MaxShortLe)
	if err != nil {
		return nil, err
	}
	if len(data) != req.Length {
		return nil, malformed(op, "got %d bytes, want %d", len(data), req.Length)
	}
	return data, nil
}

func labelAndSeed(label, seed []byte) []byte {
	out := make([]byte, 0, len(label)+len(seed))
	out = append(out, label...)
	return append(out, seed...)
}

// ComputePRFWithSecret derives n bytes from a secret provided by the host.
func (a *Applet) ComputePRFWithSecret(secret, label, seed []byte, n int) ([]byte, error) {
	return a.ComputePRF(PRFRequest{
		Mode:         PRFGeneral,
		Secret:       secret,
		LabelAndSeed: labelAndSeed(label, seed),
		Length:       n,
	})
}

// ComputePRFWithPSK derives n bytes from the pre-shared key in container
// secretID.
func (a *Applet) ComputePRFWithPSK(secretID, label, seed []byte, n int) ([]byte, error) {
	return a.ComputePRF(PRFRequest{
		Mode:         PRFPSKPlain,
		SecretID:     secretID,
		LabelAndSeed: labelAndSeed(label, seed),
		Length:       n,
	})
}

// ComputePRFWithPSKECDHE derives n bytes from the pre-shared key in container
// secretID combined with an ECDHE premaster secret.
func (a *Applet) ComputePRFWithPSKECDHE(secretID, premaster, label, seed []byte, n int) ([]byte, error) {
	return a.ComputePRF(PRFRequest{
		Mode:         PRFPSKECDHE,
		SecretID:     secretID,
		Premaster:    premaster,
		LabelAndSeed: labelAndSeed(label, seed),
		Length:       n,
	})
}
