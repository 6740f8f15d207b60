package iotsafe

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// GENERATE KEY PAIR: 00 B9 00 00 <84 key id> [74 key label] 00
//
// Response: 84 <private key id> 85 <public key id> 34 <public key data>
// The public key data is 69 bytes long and ends with the uncompressed point.

// KeyPair describes a key pair generated inside the applet.
type KeyPair struct {
	PrivateKeyID []byte
	PublicKeyID  []byte
	PublicKey    []byte
}

// GenerateKeyPair generates a key pair in container id.
func (a *Applet) GenerateKeyPair(id byte) (*KeyPair, error) {
	return a.GenerateKeyPairWith([]byte{id}, nil)
}

// GenerateKeyPairWith generates a key pair in the container designated by
// keyID and/or label.
func (a *Applet) GenerateKeyPairWith(keyID, label []byte) (*KeyPair, error) {
	const op = "GENERATE KEY PAIR"

	b := tlv.NewBuilder(maxPayload).
		AddOptional(tagPrivateKeyID, keyID).
		AddOptional(tagPrivateKeyLabel, label)
	body, err := payload(op, b, iso7816.ErrInvalidParameters)
	if err != nil {
		return nil, err
	}

	data, err := a.call(op, insGenerateKeyPair, 0x00, 0x00, body, iso7816.MaxShortLe)
	if err != nil {
		return nil, err
	}
	return parseKeyPair(op, data)
}

func parseKeyPair(op string, data []byte) (*KeyPair, error) {
	objects, err := tlv.ParseSimple(data)
	if err != nil {
		return nil, malformed(op, "%v", err)
	}

	want := []byte{tagPrivateKeyID, tagPublicKeyID, tagPublicKeyData}
	if len(objects) < len(want) {
		return nil, malformed(op, "%d objects, want %d", len(objects), len(want))
	}
	for i, tag := range want {
		if objects[i].Tag != tag {
			return nil, malformed(op, "object %d has tag %02X, want %02X", i, objects[i].Tag, tag)
		}
	}

	kp := &KeyPair{
		PrivateKeyID: bytes.Clone(objects[0].Value),
		PublicKeyID:  bytes.Clone(objects[1].Value),
		PublicKey:    bytes.Clone(objects[2].Value),
	}
	if len(kp.PublicKey) != PublicKeySize {
		return nil, malformed(op, "public key of %d bytes, want %d", len(kp.PublicKey), PublicKeySize)
	}
	return kp, nil
}

// Point returns the uncompressed point carried by the public key data.
func (k *KeyPair) Point() ([]byte, error) {
	if len(k.PublicKey) < pointSize {
		return nil, fmt.Errorf("public key of %d bytes is too short", len(k.PublicKey))
	}
	point := k.PublicKey[len(k.PublicKey)-pointSize:]
	if point[0] != 0x04 {
		return nil, fmt.Errorf("public key is not an uncompressed point (%02X)", point[0])
	}
	return point, nil
}

// ECDSAPublicKey decodes the public key as a P-256 ECDSA key.
func (k *KeyPair) ECDSAPublicKey() (*ecdsa.PublicKey, error) {
	point, err := k.Point()
	if err != nil {
		return nil, err
	}
	// crypto/ecdh validates that the point is on the curve.
	if _, err := ecdh.P256().NewPublicKey(point); err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}

	half := (len(point) - 1) / 2
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(point[1 : 1+half]),
		Y:     new(big.Int).SetBytes(point[1+half:]),
	}, nil
}
