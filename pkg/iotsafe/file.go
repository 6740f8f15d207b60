package iotsafe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

// FILE ACCESS:
// Files (certificates mostly) are addressed by a data object in the command
// body: 83 <file id> and/or 73 <file label>.
//
// Length discovery: 00 CB C3 00 <selector> 00. The answer is the file
// metadata, either wrapped in a C3 template or bare:
//
//   C3 L
//      73 L label   83 L id   60 01 ..   4A 01 ..   21 01 ..
//      20 02 <size, big-endian>
//
// Reading: the applet is selected again on the current channel, then
// 00 B0 <offset> <selector> 00 is repeated until the whole size is read or
// the applet answers with no data.

// FileRef designates a file by identifier, by label, or both.
type FileRef struct {
	ID    []byte
	Label []byte
}

// FileByID designates a file by its container identifier.
func FileByID(id ...byte) FileRef {
	return FileRef{ID: id}
}

func (f FileRef) encode(op string) ([]byte, error) {
	b := tlv.NewBuilder(maxPayload).
		AddOptional(tagFileID, f.ID).
		AddOptional(tagFileLabel, f.Label)
	return payload(op, b, iso7816.ErrInvalidParameters)
}

// FileLength asks the applet for the size of a file.
func (a *Applet) FileLength(file FileRef) (int, error) {
	const op = "GET FILE LENGTH"

	selector, err := file.encode(op)
	if err != nil {
		return 0, err
	}
	data, err := a.call(op, insGetFileLength, tagFileMetadata, 0x00, selector, iso7816.MaxShortLe)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, malformed(op, "empty metadata")
	}

	if data[0] == tagFileMetadata && len(data) >= 2 {
		data = data[2:]
	}

	// The card may pad or truncate the tail; anything parsed before the
	// problem still counts.
	objects, perr := tlv.ParseSimple(data)
	a.log.Debug("file metadata", slog.String("objects", tlv.DescribeSimple(objects)))
	size, ok := tlv.Find(objects, tagFileSize)
	if !ok {
		if perr != nil {
			return 0, malformed(op, "metadata: %v", perr)
		}
		return 0, malformed(op, "no size object (tag %02X)", tagFileSize)
	}
	if len(size) != 2 {
		return 0, malformed(op, "size object has %d bytes, want 2", len(size))
	}

	n := int(binary.BigEndian.Uint16(size))
	if n == 0 {
		return 0, malformed(op, "file size is zero")
	}
	return n, nil
}

// ReadFile reads a file of the application identified by path. A length of
// zero asks the applet for the file size first.
func (a *Applet) ReadFile(path []byte, file FileRef, length int) ([]byte, error) {
	const op = "READ FILE"

	if len(path) == 0 || len(path) > iso7816.MaxShortLc {
		return nil, fmt.Errorf("%s: %w: path of %d bytes", op, iso7816.ErrInvalidParameters, len(path))
	}
	if length < 0 || length > iso7816.MaxReadBinarySelectorOffset {
		return nil, fmt.Errorf("%s: %w: length %d", op, iso7816.ErrInvalidParameters, length)
	}

	if _, err := a.exchange(op, iso7816.SelectByAID(iso7816.BasicClass, path)); err != nil {
		return nil, err
	}

	selector, err := file.encode(op)
	if err != nil {
		return nil, err
	}

	if length == 0 {
		if length, err = a.FileLength(file); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.log.Debug("file length discovered", slog.Int("length", length))
	}

	var buf bytes.Buffer
	buf.Grow(length + 1)

	for buf.Len() < length {
		cmd, err := iso7816.NewReadBinaryCommand(iso7816.BasicClass, buf.Len(), selector)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		chunk, err := a.exchange(op, cmd)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		buf.Write(chunk)
	}

	if a.terminator {
		buf.WriteByte(0x00)
	}
	return buf.Bytes(), nil
}

// GetCertificate reads the certificate stored in container id of the applet.
func (a *Applet) GetCertificate(id byte) ([]byte, error) {
	return a.ReadFile(a.session.AID(), FileByID(id), 0)
}
