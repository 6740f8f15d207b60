package iotsafe

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
	"github.com/gregLibert/iot-safe/pkg/tlv"
)

func TestGenerateRandom(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"success", "00112233445566778899AABBCCDDEEFF 9000"},
		{"warning accepted", "00112233445566778899AABBCCDDEEFF 6300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, card := selectedApplet(t, Options{},
				step{cmd: "00 84 00 00 10", resp: tt.resp},
			)

			got, err := a.GenerateRandom(16)
			if err != nil {
				t.Fatalf("GenerateRandom() error: %v", err)
			}
			card.done()

			want := tlv.Hex("00112233445566778899AABBCCDDEEFF")
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("random mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerateRandom_WrongLengthAnswer(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 84 00 00 10", resp: "0011 9000"},
	)

	_, err := a.GenerateRandom(16)
	card.done()
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
	if _, ok := iso7816.StatusOf(err); ok {
		t.Error("a length mismatch must not carry a status word")
	}
}

func TestGenerateRandom_Rejected(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 84 00 00 20", resp: "6985"},
	)

	_, err := a.GenerateRandom(32)
	card.done()

	if !errors.Is(err, ErrInvalidResponse) || !errors.Is(err, iso7816.ErrCardRejected) {
		t.Fatalf("error = %v, want ErrInvalidResponse and ErrCardRejected", err)
	}
	if sw, _ := iso7816.StatusOf(err); sw != iso7816.SW_ERR_COND_OF_USE_NOT_SAT {
		t.Errorf("status = %04X, want 6985", uint16(sw))
	}
}

func TestGenerateRandom_InvalidLength(t *testing.T) {
	a, card := selectedApplet(t, Options{})

	for _, n := range []int{0, -1, 256, 1024} {
		if _, err := a.GenerateRandom(n); !errors.Is(err, iso7816.ErrInvalidParameters) {
			t.Errorf("GenerateRandom(%d) error = %v, want ErrInvalidParameters", n, err)
		}
	}
	card.done()
}
