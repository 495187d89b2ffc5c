//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"steplift/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hardwareClock is the 1 MHz timer as seen by the control loop.
// Only the low word is used; it wraps every ~71.6 minutes and every
// consumer compares differences.
var hardwareClock = core.ClockFunc(GetHardwareTime)

// GetHardwareTime reads the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// busyWaitMicros spins on the hardware timer. Used for step pulse widths
// only, which are a few microseconds.
func busyWaitMicros(us uint32) {
	start := timerRAWL.Get()
	for timerRAWL.Get()-start < us {
	}
}
