package iotsafe

import (
	"fmt"
	"log/slog"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// PUT PUBLIC KEY:
//
// Init:   00 24 00 00 <85 key id> [75 key label] 00
// Update: 00 D8 <P1> 00 <chunk> 00
//
// The update stream is 34 <BER length> <key>, cut into 255 byte commands.
// P1 is 80 on the last command and 00 on the ones before it; each of those
// must be acknowledged with 9000 before the next one is sent.

// PutPublicKeyInit designates the container receiving the next public key.
func (a *Applet) PutPublicKeyInit(keyID, label []byte) error {
	const op = "PUT PUBLIC KEY init"

	b := tlv.NewBuilder(maxPayload).
		AddOptional(tagPublicKeyID, keyID).
		AddOptional(tagPublicKeyLabel, label)
	body, err := payload(op, b, iso7816.ErrInvalidParameters)
	if err != nil {
		return err
	}

	_, err = a.call(op, insPutPublicKeyInit, 0x00, 0x00, body, iso7816.MaxShortLe)
	return err
}

// PutPublicKeyUpdate uploads key into the container named by PutPublicKeyInit.
func (a *Applet) PutPublicKeyUpdate(key []byte) error {
	const op = "PUT PUBLIC KEY update"

	if len(key) == 0 {
		return fmt.Errorf("%s: %w: empty key", op, iso7816.ErrInvalidParameters)
	}
	stream, err := tlv.AppendLength([]byte{tagPublicKeyData}, len(key))
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidLength, err)
	}
	stream = append(stream, key...)

	chunks := 0
	for len(stream) > maxPayload {
		if _, err := a.call(op, insPutPublicKeyUpdate, p1MoreChunks, 0x00, stream[:maxPayload], iso7816.MaxShortLe); err != nil {
			return fmt.Errorf("chunk %d: %w", chunks, err)
		}
		stream = stream[maxPayload:]
		chunks++
	}

	if _, err := a.call(op, insPutPublicKeyUpdate, p1LastChunk, 0x00, stream, iso7816.MaxShortLe); err != nil {
		return fmt.Errorf("chunk %d: %w", chunks, err)
	}
	a.log.Debug("public key uploaded", slog.Int("size", len(key)), slog.Int("commands", chunks+1))
	return nil
}

// PutServerPublicKey stores key in container id.
func (a *Applet) PutServerPublicKey(id byte, key []byte) error {
	if err := a.PutPublicKeyInit([]byte{id}, nil); err != nil {
		return err
	}
	return a.PutPublicKeyUpdate(key)
}
