package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/iot-safe/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// FILE CONTROL INFORMATION (FCI) according to ISO/IEC 7816-4.
//
// The data returned by SELECT depends on P2 (bits 4-3):
// - 00: FCI, an optional '6F' wrapper around '62' (FCP) and/or '64' (FMD).
//       Many applets, IoT SAFE ones included, put the tags flat in '6F'.
// - 01: FCP, template '62' is mandatory.
// - 10: FMD, template '64' is mandatory.
// - 11: no data.

// FCPTemplate (File Control Parameters) - Tag '62'.
type FCPTemplate struct {
	DataSizeExcludingStruct []byte `tlv:"80" fmt:"int"`
	TotalFileSize           []byte `tlv:"81" fmt:"int"`
	FileDescriptor          []byte `tlv:"82"`
	FileIdentifier          []byte `tlv:"83"`
	DFName                  []byte `tlv:"84" fmt:"ascii"`
	ProprietaryInfoRaw      []byte `tlv:"85"`
	SecurityAttrProprietary []byte `tlv:"86"`
	ShortEFIdentifier       []byte `tlv:"88"`
	LifeCycleStatus         []byte `tlv:"8A"`
	SecurityAttrCompact     []byte `tlv:"8C"`
	ProprietaryDataBER      []byte `tlv:"A5"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FMDTemplate (File Management Data) - Tag '64'.
type FMDTemplate struct {
	ApplicationIdentifier []byte `tlv:"84" fmt:"ascii"`
	ApplicationLabel      []byte `tlv:"50" fmt:"ascii"`
	ProprietaryData53     []byte `tlv:"53"`
	ProprietaryData73     []byte `tlv:"73"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FileControlInfo is the parsed data field of a SELECT response.
type FileControlInfo struct {
	FCP *FCPTemplate
	FMD *FMDTemplate

	// Unknown holds tags matching neither template (flat FCI only).
	Unknown []bertlv.TLV

	// ProprietaryRawData holds responses that are not BER-TLV at all.
	ProprietaryRawData []byte
}

// GetAID returns the application identifier (tag 84) from FCP, then FMD.
func (fci *FileControlInfo) GetAID() []byte {
	if aid := fci.DFName(); len(aid) > 0 {
		return aid
	}
	if fci.FMD != nil {
		return fci.FMD.ApplicationIdentifier
	}
	return nil
}

// DFName returns the Dedicated File Name (Tag 84) from FCP.
func (fci *FileControlInfo) DFName() []byte {
	if fci.FCP != nil {
		return fci.FCP.DFName
	}
	return nil
}

// ApplicationLabel returns the Application Label (Tag 50) from FMD.
func (fci *FileControlInfo) ApplicationLabel() []byte {
	if fci.FMD != nil {
		return fci.FMD.ApplicationLabel
	}
	return nil
}

// ParseSelectData parses the data field from a SELECT response according to P2.
// It returns nil, nil when there is nothing to parse.
func ParseSelectData(data []byte, p2 byte) (*FileControlInfo, error) {
	if len(data) == 0 {
		return nil, nil
	}

	// Private class tags (C0-FF) at the start: not a template.
	if data[0] >= 0xC0 {
		return &FileControlInfo{ProprietaryRawData: data}, nil
	}

	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	fci := &FileControlInfo{FCP: &FCPTemplate{}, FMD: &FMDTemplate{}}

	switch ControlOf(p2) {
	case ReturnFCP:
		return fci, requireTemplate(packets, "62", fci.FCP)
	case ReturnFMD:
		return fci, requireTemplate(packets, "64", fci.FMD)
	case ReturnFCI:
		return fci, parseFCI(packets, fci)
	default:
		return nil, nil
	}
}

func parseFCI(packets []bertlv.TLV, fci *FileControlInfo) error {
	if wrapper, ok := findPacket(packets, "6F"); ok {
		packets = wrapper.TLVs
	}

	foundFCP := unmarshalTemplate(packets, "62", fci.FCP)
	foundFMD := unmarshalTemplate(packets, "64", fci.FMD)
	if foundFCP || foundFMD {
		return nil
	}

	// Flat layout: FCP tags first, leftovers offered to FMD, the rest is unknown.
	if err := tlv.UnmarshalFromPackets(packets, fci.FCP); err != nil {
		return fmt.Errorf("flat FCP unmarshal failed: %w", err)
	}
	rest := fci.FCP.Unknown
	fci.FCP.Unknown = nil

	if err := tlv.UnmarshalFromPackets(rest, fci.FMD); err != nil {
		return fmt.Errorf("flat FMD unmarshal failed: %w", err)
	}
	fci.Unknown = fci.FMD.Unknown
	fci.FMD.Unknown = nil
	return nil
}

func requireTemplate(packets []bertlv.TLV, tag string, target interface{}) error {
	if !unmarshalTemplate(packets, tag, target) {
		return fmt.Errorf("mandatory tag '%s' not found", tag)
	}
	return nil
}

func unmarshalTemplate(packets []bertlv.TLV, tag string, target interface{}) bool {
	p, ok := findPacket(packets, tag)
	if !ok {
		return false
	}
	return tlv.UnmarshalFromPackets(p.TLVs, target) == nil
}

func findPacket(packets []bertlv.TLV, tag string) (bertlv.TLV, bool) {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return p, true
		}
	}
	return bertlv.TLV{}, false
}
