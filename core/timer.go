package core

// Clock is the elapsed-time source for the control loop.
// Micros returns a free-running microsecond counter; it is allowed to wrap,
// so callers only ever compare differences (now - then) in uint32 arithmetic.
type Clock interface {
	Micros() uint32
}

const (
	// MicrosPerSecond converts step rates to step intervals
	MicrosPerSecond = 1000000

	// MaxIntervalMillis is the longest timeout a wrap-safe comparison can
	// measure: half the counter range, about 35 minutes
	MaxIntervalMillis = (1 << 31) / 1000
)

// ElapsedMicros returns the wrap-safe difference between two clock readings
func ElapsedMicros(now, then uint32) uint32 {
	return now - then
}

// MillisToMicros converts a millisecond duration to clock microseconds.
// Durations past MaxIntervalMillis saturate there.
func MillisToMicros(ms uint32) uint32 {
	if ms > MaxIntervalMillis {
		ms = MaxIntervalMillis
	}
	return ms * 1000
}

// ClockFunc adapts a plain function to the Clock interface.
// Targets use it to wrap their hardware timer read.
type ClockFunc func() uint32

// Micros calls f
func (f ClockFunc) Micros() uint32 {
	return f()
}
