//go:build rp2040

package main

import (
	"errors"
	"machine"
	"time"
)

var (
	errBadPin           = errors.New("gpio: pin out of range")
	errPinNotConfigured = errors.New("gpio: pin not configured")
	errBadADCChannel    = errors.New("adc: unsupported channel")
	errPIOBusy          = errors.New("pio: state machine already claimed")
)

// haltWithError never returns. It blinks the on-board LED and repeats the
// error on USB so a host attaching later still sees it.
func haltWithError(err error) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	msg := []byte("[MAIN] Startup failed: " + err.Error() + "\n")
	for {
		writeUSB(msg)
		for i := 0; i < 5; i++ {
			led.High()
			time.Sleep(100 * time.Millisecond)
			led.Low()
			time.Sleep(100 * time.Millisecond)
		}
	}
}
