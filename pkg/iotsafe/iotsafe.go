// Package iotsafe drives the GSMA IoT SAFE applet: a root of trust living on a
// SIM or eUICC that stores keys and certificates in containers and performs
// signatures, key agreement and key derivation on behalf of the host.
//
// Every operation builds a flat simple-TLV payload (see tlv.Builder), sends it
// through an iso7816.Session bound to the applet, checks the status word and
// decodes the answer. Payloads never exceed one short APDU; data that does not
// fit (full-text signing, public key upload) is split over several commands.
package iotsafe

import (
	"fmt"

	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// DefaultAID is the application identifier of the IoT SAFE applet.
var DefaultAID = tlv.Hex("A0000000 3053F124 01770101 495341")

// IoT SAFE instruction codes. All are sent with CLA 00 plus the channel bits.
const (
	insGetRandom          byte = 0x84
	insGetFileLength      byte = 0xCB
	insGenerateKeyPair    byte = 0xB9
	insSignatureInit      byte = 0x2A
	insSignatureUpdate    byte = 0x2B
	insComputeDH          byte = 0x46
	insComputePRF         byte = 0x48
	insPutPublicKeyInit   byte = 0x24
	insPutPublicKeyUpdate byte = 0xD8
)

// Command and response data object tags.
const (
	tagFileLabel        byte = 0x73
	tagFileID           byte = 0x83
	tagFileSize         byte = 0x20
	tagFileMetadata     byte = 0xC3
	tagPrivateKeyLabel  byte = 0x74
	tagPrivateKeyID     byte = 0x84
	tagPublicKeyLabel   byte = 0x75
	tagPublicKeyID      byte = 0x85
	tagSecretLabel      byte = 0x76
	tagSecretID         byte = 0x86
	tagPublicKeyData    byte = 0x34
	tagSignature        byte = 0x33
	tagOperationMode    byte = 0xA1
	tagHashAlgorithm    byte = 0x91
	tagSignAlgorithm    byte = 0x92
	tagLastBlock        byte = 0x9A
	tagDataToSign       byte = 0x9B
	tagIntermediateHash byte = 0x9C
	tagHashedBytes      byte = 0x9D
	tagPaddedData       byte = 0x9E
	tagSecret           byte = 0xD1
	tagLabelAndSeed     byte = 0xD2
	tagPRFLength        byte = 0xD3
	tagPremasterSecret  byte = 0xD4
)

// P1 values of the chunked commands.
const (
	p1MoreChunks byte = 0x00
	p1LastChunk  byte = 0x80
)

// HashAlgorithm is the hash bitmask of the signature init command.
type HashAlgorithm uint16

const (
	HashSHA256 HashAlgorithm = 0x0001
	HashSHA384 HashAlgorithm = 0x0002
	HashSHA512 HashAlgorithm = 0x0004
)

// SignAlgorithm is the signature bitmask of the signature init command.
type SignAlgorithm uint8

const (
	SignRSAPKCS1 SignAlgorithm = 0x01
	SignRSAPSS   SignAlgorithm = 0x02
	SignECDSA    SignAlgorithm = 0x04
)

// Algorithm combines a hash (high byte) and a signature algorithm (low byte).
type Algorithm uint32

const (
	SHA256WithECDSA    = Algorithm(uint32(HashSHA256)<<8 | uint32(SignECDSA))
	SHA384WithECDSA    = Algorithm(uint32(HashSHA384)<<8 | uint32(SignECDSA))
	SHA512WithECDSA    = Algorithm(uint32(HashSHA512)<<8 | uint32(SignECDSA))
	SHA256WithRSAPKCS1 = Algorithm(uint32(HashSHA256)<<8 | uint32(SignRSAPKCS1))
	SHA256WithRSAPSS   = Algorithm(uint32(HashSHA256)<<8 | uint32(SignRSAPSS))
	SHA384WithRSAPKCS1 = Algorithm(uint32(HashSHA384)<<8 | uint32(SignRSAPKCS1))
	SHA512WithRSAPKCS1 = Algorithm(uint32(HashSHA512)<<8 | uint32(SignRSAPKCS1))
)

// NewAlgorithm combines hash and sign.
func NewAlgorithm(hash HashAlgorithm, sign SignAlgorithm) Algorithm {
	return Algorithm(uint32(hash)<<8 | uint32(sign))
}

// Hash returns the hash part of a.
func (a Algorithm) Hash() HashAlgorithm { return HashAlgorithm(a >> 8) }

// Sign returns the signature part of a.
func (a Algorithm) Sign() SignAlgorithm { return SignAlgorithm(a & 0xFF) }

// OperationMode selects how the data to sign reaches the applet.
type OperationMode byte

const (
	// ModeFullText streams the whole message, the applet hashes it.
	ModeFullText  OperationMode = 0x01
	// ModeLastBlock sends the last block plus the intermediate hash state.
	ModeLastBlock OperationMode = 0x02
	// ModePadding sends an already computed digest.
	ModePadding   OperationMode = 0x03
)

func (m OperationMode) String() string {
	switch m {
	case ModeFullText:
		return "full-text"
	case ModeLastBlock:
		return "last-block"
	case ModePadding:
		return "padding"
	default:
		return fmt.Sprintf("mode-%02X", byte(m))
	}
}

// PRFMode is P1 of COMPUTE PRF.
type PRFMode byte

const (
	PRFGeneral  PRFMode = 0x00
	PRFPSKPlain PRFMode = 0x01
	PRFPSKECDHE PRFMode = 0x02
)

// Container identifiers of the reference applet profile.
const (
	ContainerKey                byte = 0x01
	ContainerCertClient         byte = 0x02
	ContainerCertServer         byte = 0x03
	ContainerClientEphemeralKey byte = 0x04
	ContainerServerEphemeralKey byte = 0x05
)

// Size limits of the command fields.
const (
	maxPayload          = 255
	maxLastBlock        = 128
	minIntermediateHash = 32
	maxIntermediateHash = 64
	maxPaddedData       = 64

	// PublicKeySize is the size of the public key data object returned by
	// key generation. It ends with an uncompressed P-256 point.
	PublicKeySize = 69

	// pointSize is an uncompressed P-256 point: 04 || X || Y.
	pointSize = 1 + 2*32
)
