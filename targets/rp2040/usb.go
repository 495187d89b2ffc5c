//go:build rp2040

package main

import (
	"machine"
)

// The console runs over USB CDC; on RP2040 machine.Serial is the CDC port
// and its descriptors come from the TinyGo runtime.

var consecutiveWriteFailures uint32

// InitUSB configures the CDC port
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// readUSB hands every byte already received to sink and returns how many
// there were. It never waits for more.
func readUSB(sink func(byte)) int {
	n := 0
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			break
		}
		sink(b)
		n++
	}
	return n
}

// writeUSB writes out console output, handling partial writes. Output is
// dropped when the host is not reading.
func writeUSB(data []byte) {
	written := 0
	for written < len(data) {
		n, err := machine.Serial.Write(data[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
}
