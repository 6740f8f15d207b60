package iotsafe

import (
	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// COMPUTE DH: 00 46 00 00 [84 priv id] [85 pub id] [74 priv label] [75 pub label] 00
// The answer is the raw shared secret.

// DHRequest designates the two keys of a key agreement.
type DHRequest struct {
	PrivateKeyID    []byte
	PublicKeyID     []byte
	PrivateKeyLabel []byte
	PublicKeyLabel  []byte
}

// ComputeDHWith runs a key agreement between two keys stored in the applet.
func (a *Applet) ComputeDHWith(req DHRequest) ([]byte, error) {
	const op = "COMPUTE DH"

	b := tlv.NewBuilder(maxPayload).
		AddOptional(tagPrivateKeyID, req.PrivateKeyID).
		AddOptional(tagPublicKeyID, req.PublicKeyID).
		AddOptional(tagPrivateKeyLabel, req.PrivateKeyLabel).
		AddOptional(tagPublicKeyLabel, req.PublicKeyLabel)
	body, err := payload(op, b, iso7816.ErrInvalidParameters)
	if err != nil {
		return nil, err
	}

	secret, err := a.call(op, insComputeDH, 0x00, 0x00, body, iso7816.MaxShortLe)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, malformed(op, "empty shared secret")
	}
	return secret, nil
}

// ComputeDH derives the shared secret of the client key pair in container
// client and the server public key in container server.
func (a *Applet) ComputeDH(client, server byte) ([]byte, error) {
	return a.ComputeDHWith(DHRequest{
		PrivateKeyID: []byte{client},
		PublicKeyID:  []byte{server},
	})
}
