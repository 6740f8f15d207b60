package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregLibert/iot-safe/pkg/tlv"
)

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.Set("transport", "MODEM")
	v.Set("port", "/dev/ttyACM0")
	v.Set("baud", 9600)
	v.Set("basic", true)
	v.Set("aid", "A0 00 00 00 30 53 F1 24 01 77 01 01 49 53 41")

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Transport: transportModem,
		Port:      "/dev/ttyACM0",
		Baud:      9600,
		Basic:     true,
		AID:       tlv.Hex("A00000003053F12401770101495341"),
	}, cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
		want string
	}{
		{"transport", map[string]any{"transport": "usb"}, "unknown transport"},
		{"modem port", map[string]any{"transport": "modem", "baud": 9600}, "needs a port"},
		{"modem baud", map[string]any{"transport": "modem", "port": "/dev/ttyUSB0"}, "invalid baud"},
		{"aid hex", map[string]any{"transport": "pcsc", "aid": "A0G0"}, "invalid aid"},
		{"aid short", map[string]any{"transport": "pcsc", "aid": "A000"}, "want 5 to 16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := loadConfig(v)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iot-safe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport: modem\nbaud: 0\n"), 0o600))

	dial, _ := scriptedDial(t)
	_, _, err := run(t, dial, "--config", path, "random")
	assert.ErrorContains(t, err, "invalid baud rate 0")
}

func TestConfigFile_Missing(t *testing.T) {
	dial, _ := scriptedDial(t)
	_, _, err := run(t, dial, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "random")
	assert.ErrorContains(t, err, "reading config")
}
