package lift

import (
	"errors"
	"strings"

	"steplift/core"
)

// Status line field keys, in wire order
const (
	keyState       = "STATE"
	keyFloor       = "FLOOR"
	keyTargetFloor = "TARGET_FLOOR"
	keyPos         = "POS"
	keyError       = "ERROR"
)

var (
	// ErrNotStatusLine is returned for lines that are not status reports
	ErrNotStatusLine = errors.New("not a status line")

	// ErrBadStatusField is returned when a status field is missing or malformed
	ErrBadStatusField = errors.New("malformed status field")
)

// FormatStatusLine renders the status report (no trailing newline):
//
//	STATE=<ordinal> FLOOR=<n> TARGET_FLOOR=<n> POS=<steps> ERROR=<code>
func FormatStatusLine(s Status) string {
	return keyState + "=" + core.Itoa(int(s.State)) +
		" " + keyFloor + "=" + core.Itoa(int(s.CurrentFloor)) +
		" " + keyTargetFloor + "=" + core.Itoa(int(s.TargetFloor)) +
		" " + keyPos + "=" + core.Itoa64(s.Position) +
		" " + keyError + "=" + core.Itoa(int(s.Error))
}

// IsStatusLine reports whether line looks like a status report
func IsStatusLine(line string) bool {
	return strings.HasPrefix(core.TrimSpace(line), keyState+"=")
}

// ParseStatusLine parses a line produced by FormatStatusLine.
// Only the fields carried on the wire are filled in.
func ParseStatusLine(line string) (Status, error) {
	var s Status

	line = core.TrimSpace(line)
	if !IsStatusLine(line) {
		return s, ErrNotStatusLine
	}

	fields := strings.Fields(line)
	keys := [...]string{keyState, keyFloor, keyTargetFloor, keyPos, keyError}
	if len(fields) != len(keys) {
		return s, ErrBadStatusField
	}

	var values [len(keys)]int64
	for i, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key != keys[i] {
			return s, ErrBadStatusField
		}
		n, ok := core.Atoi(value)
		if !ok {
			return s, ErrBadStatusField
		}
		values[i] = n
	}

	if values[0] < 0 || values[0] > int64(StateError) ||
		values[1] < 0 || values[1] > NumFloors ||
		values[2] < 0 || values[2] > NumFloors ||
		values[4] < 0 || values[4] > 255 {
		return s, ErrBadStatusField
	}

	s.State = State(values[0])
	s.CurrentFloor = uint8(values[1])
	s.TargetFloor = uint8(values[2])
	s.Position = values[3]
	s.Error = ErrorCode(values[4])
	return s, nil
}
