// Package tlv implements the tag-length-value encodings spoken by smart cards.
//
// It covers three needs:
//   - the BER length field codec (EncodeLength / DecodeLength),
//   - flat single-byte-tag payloads used by the IoT SAFE applet (Builder / ParseSimple),
//   - mapping real BER-TLV templates (FCI and friends) into Go structs through
//     struct tags, on top of github.com/moov-io/bertlv.
package tlv

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal decodes raw BER-TLV data and maps it into target, a pointer to a
// struct whose fields carry `tlv:"<hex tag>"` tags. A field tagged
// `tlv:",unknown"` of type []bertlv.TLV collects whatever was not mapped.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps already decoded packets into target.
// A tag may appear several times when the destination field is a slice of structs.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errors.New("target must be a non-nil pointer")
	}
	v = v.Elem()
	t := v.Type()

	used := make([]bool, len(packets))
	var unknown reflect.Value

	for i := 0; i < v.NumField(); i++ {
		name, opt := parseTag(t.Field(i).Tag.Get("tlv"))
		if opt == "unknown" {
			unknown = v.Field(i)
			continue
		}
		if name == "" {
			continue
		}

		for idx, p := range packets {
			if !strings.EqualFold(p.Tag, name) {
				continue
			}
			if err := assign(p, v.Field(i)); err != nil {
				return fmt.Errorf("tag %s: %w", name, err)
			}
			used[idx] = true
		}
	}

	if !unknown.IsValid() || !unknown.CanSet() {
		return nil
	}
	var leftovers []bertlv.TLV
	for idx, p := range packets {
		if !used[idx] {
			leftovers = append(leftovers, p)
		}
	}
	if len(leftovers) > 0 {
		unknown.Set(reflect.ValueOf(leftovers))
	}
	return nil
}

func parseTag(s string) (name, opt string) {
	name, opt, _ = strings.Cut(s, ",")
	return strings.ToUpper(name), opt
}

// assign stores one packet in field, growing slices of structs as needed.
func assign(p bertlv.TLV, field reflect.Value) error {
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeInto(p, elem); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeInto(p, field)
}

func decodeInto(p bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(p))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawValue(p))
	case field.Kind() == reflect.String:
		field.SetString(hex.EncodeToString(p.Value))
	case field.Kind() == reflect.Struct:
		return decodeTemplate(p, field.Addr().Interface())
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return decodeTemplate(p, field.Interface())
	}
	return nil
}

func decodeTemplate(p bertlv.TLV, target interface{}) error {
	if len(p.TLVs) > 0 {
		return UnmarshalFromPackets(p.TLVs, target)
	}
	return Unmarshal(p.Value, target)
}

// rawValue returns the value bytes of p, re-encoding nested packets if needed.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

// GetValue scans BER-TLV data for tag and returns its raw value.
func GetValue(data []byte, tag uint) ([]byte, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, err
	}

	want := fmt.Sprintf("%X", tag)
	for _, p := range packets {
		if strings.EqualFold(p.Tag, want) {
			return rawValue(p), nil
		}
	}
	return nil, fmt.Errorf("tag %s not found", want)
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}
