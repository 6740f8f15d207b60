package tlv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

type containerInfo struct {
	KeyID    []byte `tlv:"84"`
	Label    []byte `tlv:"74" fmt:"ascii"`
	Size     []byte `tlv:"20" fmt:"int"`
	Digest   []byte
	Missing  []byte `tlv:"85"`
	Leftover []bertlv.TLV
}

func TestWriteStructFields(t *testing.T) {
	info := containerInfo{
		KeyID:  []byte{0x01},
		Label:  []byte("key\x00"),
		Size:   []byte{0x01, 0x2C},
		Digest: []byte{0xCA, 0xFE},
		Leftover: []bertlv.TLV{
			{Tag: "DF20", Value: []byte{0x01, 0x02}},
		},
	}
	want := []string{
		"    - Key.KeyID (84): 01",
		`    - Key.Label (74): 6B657900 ("key.")`,
		"    - Key.Size (20): 012C (Dec: 300)",
		"    - Key.Digest: CAFE",
		"    - Key.Unknown Tag DF20: 0102",
	}

	for name, input := range map[string]any{"pointer": &info, "value": info} {
		t.Run(name, func(t *testing.T) {
			var sb strings.Builder
			WriteStructFields(&sb, "Key", input)
			if diff := cmp.Diff(want, strings.Split(sb.String(), "\n")); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteStructFields_Appends(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Container:")
	WriteStructFields(&sb, "C", containerInfo{KeyID: []byte{0x02}})
	WriteStructFields(&sb, "C", (*containerInfo)(nil))
	WriteStructFields(&sb, "C", containerInfo{})

	if got, want := sb.String(), "Container:\n    - C.KeyID (84): 02"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMakeSafeASCII(t *testing.T) {
	if got := MakeSafeASCII([]byte("IoT\x00SAFE\x7F")); got != "IoT.SAFE." {
		t.Errorf("MakeSafeASCII() = %q", got)
	}
}

func TestDescribeSimple(t *testing.T) {
	objs := []Object{
		{Tag: 0x84, Value: []byte{0x01}},
		{Tag: 0x34, Value: []byte{0x04, 0xAA}},
	}
	want := "    - Tag 84 (1 bytes): 01\n    - Tag 34 (2 bytes): 04AA"

	if diff := cmp.Diff(want, DescribeSimple(objs)); diff != "" {
		t.Errorf("DescribeSimple mismatch (-want +got):\n%s", diff)
	}
}
