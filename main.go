// Command iot-safe talks to the GSMA IoT SAFE applet of a SIM, through a
// PC/SC reader or a cellular modem.
//
//	iot-safe random --length 16
//	iot-safe --transport modem --port /dev/ttyUSB2 cert --container 2 --pem
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(dialTransport).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
