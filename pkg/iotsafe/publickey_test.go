package iotsafe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
)

func testKey(n int) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return key
}

func TestPutPublicKeyUpdate_Chunked(t *testing.T) {
	key := testKey(600)
	stream := append([]byte{0x34, 0x82, 0x02, 0x58}, key...)

	a, card := selectedApplet(t, Options{},
		step{cmd: fmt.Sprintf("00 D8 00 00 FF %X 00", stream[:255]), resp: "9000"},
		step{cmd: fmt.Sprintf("00 D8 00 00 FF %X 00", stream[255:510]), resp: "9000"},
		step{cmd: fmt.Sprintf("00 D8 80 00 5E %X 00", stream[510:]), resp: "9000"},
	)

	if err := a.PutPublicKeyUpdate(key); err != nil {
		t.Fatalf("PutPublicKeyUpdate() error: %v", err)
	}
	card.done()
}

func TestPutPublicKeyUpdate_AbortsOnIntermediateFailure(t *testing.T) {
	key := testKey(600)
	stream := append([]byte{0x34, 0x82, 0x02, 0x58}, key...)

	a, card := selectedApplet(t, Options{},
		step{cmd: fmt.Sprintf("00 D8 00 00 FF %X 00", stream[:255]), resp: "9000"},
		step{cmd: fmt.Sprintf("00 D8 00 00 FF %X 00", stream[255:510]), resp: "6A84"},
	)

	err := a.PutPublicKeyUpdate(key)
	card.done()

	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
	if sw, _ := iso7816.StatusOf(err); sw != iso7816.SW_ERR_NOT_ENOUGH_MEMORY {
		t.Errorf("status = %04X, want 6A84", uint16(sw))
	}
}

func TestPutServerPublicKey(t *testing.T) {
	_, point := testPoint(t)

	a, card := selectedApplet(t, Options{},
		step{cmd: "00 24 00 00 03 850105 00", resp: "9000"},
		step{cmd: fmt.Sprintf("00 D8 80 00 43 3441 %X 00", point), resp: "9000"},
	)

	if err := a.PutServerPublicKey(ContainerServerEphemeralKey, point); err != nil {
		t.Fatalf("PutServerPublicKey() error: %v", err)
	}
	card.done()
}

func TestPutServerPublicKey_InitRejected(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 24 00 00 03 850105 00", resp: "6A88"},
	)

	err := a.PutServerPublicKey(ContainerServerEphemeralKey, testKey(65))
	card.done()
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestPutPublicKeyInit_WithLabel(t *testing.T) {
	a, card := selectedApplet(t, Options{},
		step{cmd: "00 24 00 00 09 7507 736572766572 31 00", resp: "9000"},
	)

	if err := a.PutPublicKeyInit(nil, []byte("server1")); err != nil {
		t.Fatalf("PutPublicKeyInit() error: %v", err)
	}
	card.done()
}

func TestPutPublicKeyUpdate_Empty(t *testing.T) {
	a, card := selectedApplet(t, Options{})
	err := a.PutPublicKeyUpdate(nil)
	card.done()
	if !errors.Is(err, iso7816.ErrInvalidParameters) {
		t.Errorf("error = %v, want ErrInvalidParameters", err)
	}
}
