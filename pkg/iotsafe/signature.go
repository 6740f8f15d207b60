package iotsafe

import (
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// COMPUTE SIGNATURE:
//
// Init:   00 2A 00 00 <84 key id> [74 key label] A1 01 <mode> 91 02 <hash> 92 01 <sign>
//
// Update: 00 2B <P1> 00 <data objects> 00, P1 80 on the command that
// completes the signature, 00 on the ones before it.
//
//   Full-text:  9B <BER length> <message>. The object is cut into 255 byte
//               commands when it does not fit in one.
//   Last-block: 9A <last block> 9C <intermediate hash> 9D 04 <bytes hashed>
//   Padding:    9E <digest>
//
// The applet answers 33 <BER length> <r || s>, sometimes with a stray 00
// before the length. r and s are rebuilt into an ASN.1 ECDSA-Sig-Value.

// SignatureInit holds the parameters of COMPUTE SIGNATURE init.
type SignatureInit struct {
	KeyID    []byte
	KeyLabel []byte
	Mode     OperationMode
	Hash     HashAlgorithm
	Sign     SignAlgorithm
}

// SignatureUpdate holds the data of COMPUTE SIGNATURE update.
type SignatureUpdate struct {
	Mode OperationMode

	// Data is the message (full-text), the last block (last-block) or the
	// digest (padding).
	Data []byte

	// IntermediateHash and HashedBytes are only used in last-block mode.
	IntermediateHash []byte
	HashedBytes      uint32
}

func checkMode(op string, m OperationMode) error {
	switch m {
	case ModeFullText, ModeLastBlock, ModePadding:
		return nil
	}
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidOperation, m)
}

// ComputeSignatureInit opens a signature session on the applet.
func (a *Applet) ComputeSignatureInit(req SignatureInit) error {
	const op = "COMPUTE SIGNATURE init"

	if err := checkMode(op, req.Mode); err != nil {
		return err
	}

	b := tlv.NewBuilder(maxPayload).
		AddOptional(tagPrivateKeyID, req.KeyID).
		AddOptional(tagPrivateKeyLabel, req.KeyLabel).
		AddByte(tagOperationMode, byte(req.Mode)).
		AddUint16(tagHashAlgorithm, uint16(req.Hash)).
		AddByte(tagSignAlgorithm, byte(req.Sign))
	body, err := payload(op, b, ErrInvalidLength)
	if err != nil {
		return err
	}

	_, err = a.call(op, insSignatureInit, 0x00, 0x00, body, 0)
	return err
}

// ComputeSignatureUpdate sends the data to sign and returns the DER encoded
// signature.
func (a *Applet) ComputeSignatureUpdate(req SignatureUpdate) ([]byte, error) {
	const op = "COMPUTE SIGNATURE update"

	var last []byte
	switch req.Mode {
	case ModeFullText:
		stream, err := tlv.AppendLength([]byte{tagDataToSign}, len(req.Data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidLength, err)
		}
		stream = append(stream, req.Data...)

		for len(stream) > maxPayload {
			if _, err := a.call(op, insSignatureUpdate, p1MoreChunks, 0x00, stream[:maxPayload], iso7816.MaxShortLe); err != nil {
				return nil, err
			}
			stream = stream[maxPayload:]
		}
		last = stream

	case ModeLastBlock:
		if len(req.Data) > maxLastBlock {
			return nil, fmt.Errorf("%s: %w: last block of %d bytes, max %d", op, ErrInvalidLength, len(req.Data), maxLastBlock)
		}
		if n := len(req.IntermediateHash); n < minIntermediateHash || n > maxIntermediateHash {
			return nil, fmt.Errorf("%s: %w: intermediate hash of %d bytes, want [%d, %d]", op, ErrInvalidLength, n, minIntermediateHash, maxIntermediateHash)
		}
		b := tlv.NewBuilder(maxPayload).
			Add(tagLastBlock, req.Data).
			Add(tagIntermediateHash, req.IntermediateHash).
			AddUint32(tagHashedBytes, req.HashedBytes)
		body, err := payload(op, b, ErrInvalidLength)
		if err != nil {
			return nil, err
		}
		last = body

	case ModePadding:
		if len(req.Data) == 0 || len(req.Data) > maxPaddedData {
			return nil, fmt.Errorf("%s: %w: digest of %d bytes, want [1, %d]", op, ErrInvalidLength, len(req.Data), maxPaddedData)
		}
		body, err := payload(op, tlv.NewBuilder(maxPayload).Add(tagPaddedData, req.Data), ErrInvalidLength)
		if err != nil {
			return nil, err
		}
		last = body

	default:
		return nil, checkMode(op, req.Mode)
	}

	data, err := a.call(op, insSignatureUpdate, p1LastChunk, 0x00, last, iso7816.MaxShortLe)
	if err != nil {
		return nil, err
	}
	return decodeSignature(op, data)
}

// decodeSignature turns 33 <len> <r || s> into a DER ECDSA-Sig-Value.
func decodeSignature(op string, data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != tagSignature {
		return nil, malformed(op, "signature object missing: % X", data)
	}
	rest := data[1:]
	if rest[0] == 0x00 {
		rest = rest[1:]
	}

	n, consumed, err := tlv.DecodeLength(rest)
	if err != nil {
		return nil, malformed(op, "signature length: %v", err)
	}
	rest = rest[consumed:]
	if n == 0 || n%2 != 0 || len(rest) < n {
		return nil, malformed(op, "signature of %d bytes with %d available", n, len(rest))
	}

	r := new(big.Int).SetBytes(rest[:n/2])
	s := new(big.Int).SetBytes(rest[n/2 : n])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, malformed(op, "encoding signature: %v", err)
	}
	return der, nil
}

// SignInit prepares a signature of a precomputed digest with the key in
// container id.
func (a *Applet) SignInit(id byte, alg Algorithm) error {
	return a.ComputeSignatureInit(SignatureInit{
		KeyID: []byte{id},
		Mode:  ModePadding,
		Hash:  alg.Hash(),
		Sign:  alg.Sign(),
	})
}

// SignFinal signs digest and returns the DER encoded signature.
func (a *Applet) SignFinal(digest []byte) ([]byte, error) {
	return a.ComputeSignatureUpdate(SignatureUpdate{Mode: ModePadding, Data: digest})
}

// Sign signs digest with the key in container id.
func (a *Applet) Sign(id byte, alg Algorithm, digest []byte) ([]byte, error) {
	if err := a.SignInit(id, alg); err != nil {
		return nil, err
	}
	sig, err := a.SignFinal(digest)
	if err != nil {
		return nil, err
	}
	a.log.Debug("digest signed", slog.Int("container", int(id)), slog.Int("size", len(sig)))
	return sig, nil
}
