package iotsafe

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

func TestComputePRFWithSecret(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 48 00 00 10 D102AABB D2076C6162656C0102 D30130 00", resp: fill(0x77, 48) + "9000"},
	)

	out, err := a.ComputePRFWithSecret([]byte{0xAA, 0xBB}, []byte("label"), []byte{0x01, 0x02}, 48)
	if err != nil {
		t.Fatalf("ComputePRFWithSecret() error: %v", err)
	}
	card.done()

	if diff := cmp.Diff(tlv.Hex(fill(0x77, 48)), out); diff != "" {
		t.Errorf("PRF output mismatch (-want +got):\n%s", diff)
	}
}

func TestComputePRFWithPSK(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 48 01 00 0A 860106 D20201 02 D30110 00", resp: fill(0x01, 16) + "9000"},
	)

	if _, err := a.ComputePRFWithPSK([]byte{0x06}, []byte{0x01}, []byte{0x02}, 16); err != nil {
		t.Fatalf("ComputePRFWithPSK() error: %v", err)
	}
	card.done()
}

func TestComputePRFWithPSKECDHE(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 48 02 00 0D 860101 D402CCDD D20101 D30120 00", resp: fill(0x42, 32) + "9000"},
	)

	if _, err := a.ComputePRFWithPSKECDHE([]byte{0x01}, []byte{0xCC, 0xDD}, nil, []byte{0x01}, 32); err != nil {
		t.Fatalf("ComputePRFWithPSKECDHE() error: %v", err)
	}
	card.done()
}

func TestComputePRF_WrongOutputLength(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 48 00 00 09 D10101 D20100 D30120 00", resp: fill(0x42, 31) + "9000"},
	)

	_, err := a.ComputePRF(PRFRequest{
		Mode:         PRFGeneral,
		Secret:       []byte{0x01},
		LabelAndSeed: []byte{0x00},
		Length:       32,
	})
	card.done()
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestComputePRF_Validation(t *testing.T) {
	a, card := selectedApplet(t, Options{})

	for _, n := range []int{0, 256} {
		_, err := a.ComputePRF(PRFRequest{LabelAndSeed: []byte{1}, Length: n})
		if !errors.Is(err, iso7816.ErrInvalidParameters) {
			t.Errorf("Length %d: error = %v, want ErrInvalidParameters", n, err)
		}
	}

	_, err := a.ComputePRF(PRFRequest{Secret: make([]byte, 200), LabelAndSeed: make([]byte, 60), Length: 32})
	if !errors.Is(err, iso7816.ErrInvalidParameters) {
		t.Errorf("oversized payload: error = %v, want ErrInvalidParameters", err)
	}
	card.done()
}
