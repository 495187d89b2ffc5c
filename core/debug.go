package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Level is the severity of a diagnostic message
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

// String returns the tag printed in front of a message
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// Log is the diagnostics sink shared by the control components.
// It never allocates a formatter, so it stays usable on TinyGo targets:
// messages are built with string concatenation and Itoa.
type Log struct {
	writer DebugWriter
	level  Level
}

// NewLog creates a log writing messages at or above level to writer
func NewLog(writer DebugWriter, level Level) *Log {
	return &Log{writer: writer, level: level}
}

// NopLog returns a log that drops everything (tests, benchmarks)
func NopLog() *Log {
	return &Log{}
}

// SetWriter sets the platform-specific output function.
// This allows platforms to redirect diagnostics to UART, USB, slog, etc.
func (l *Log) SetWriter(writer DebugWriter) {
	l.writer = writer
}

// SetLevel changes the minimum level that reaches the writer
func (l *Log) SetLevel(level Level) {
	l.level = level
}

// Enabled reports whether messages at level would be written
func (l *Log) Enabled(level Level) bool {
	return l != nil && l.writer != nil && level >= l.level
}

// Debug writes a high-volume message (per-step, per-tick detail)
func (l *Log) Debug(msg string) {
	l.emit(LevelDebug, msg)
}

// Info writes a normal operational message
func (l *Log) Info(msg string) {
	l.emit(LevelInfo, msg)
}

// Warn writes an anomaly that does not stop operation
func (l *Log) Warn(msg string) {
	l.emit(LevelWarn, msg)
}

func (l *Log) emit(level Level, msg string) {
	if !l.Enabled(level) {
		return
	}
	if level == LevelWarn {
		msg = "WARNING: " + msg
	}
	l.writer(msg)
}

// TimingEvent captures a timing-critical event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // Clock (us) at event
	Position  int64  // Position after the event
	Value     uint32 // Context-dependent value (interval or lateness, us)
}

// Event type codes
const (
	EvtStep     = 1 // Step emitted on time
	EvtLateStep = 2 // Step emitted later than one interval past the previous step
	EvtArrive   = 3 // MoveTo target reached
	EvtStop     = 4 // Stop command
	EvtRezero   = 5 // Coordinate system re-zeroed
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

// TimingRing is a fixed-size ring of the latest motion events.
// Recording never blocks and never allocates.
type TimingRing struct {
	events [TimingRingSize]TimingEvent
	head   uint8 // Next write position
	total  uint32
}

// Record captures an event in the ring buffer
func (r *TimingRing) Record(eventType uint8, clock uint32, position int64, value uint32) {
	if r == nil {
		return
	}
	idx := r.head
	r.events[idx] = TimingEvent{
		EventType: eventType,
		Clock:     clock,
		Position:  position,
		Value:     value,
	}
	r.head = (idx + 1) % TimingRingSize
	r.total++
}

// Total returns how many events were ever recorded
func (r *TimingRing) Total() uint32 {
	return r.total
}

// Events returns the recorded events from oldest to newest
func (r *TimingRing) Events() []TimingEvent {
	out := make([]TimingEvent, 0, TimingRingSize)
	start := r.head
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := r.events[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Dump writes the ring to log (call on fault, after motion stopped)
func (r *TimingRing) Dump(log *Log) {
	if r == nil || !log.Enabled(LevelInfo) {
		return
	}

	log.Info("[TIMING] === Timing Ring Dump ===")
	log.Info("[TIMING] Total events: " + Utoa(r.total))

	for _, evt := range r.Events() {
		var name string
		switch evt.EventType {
		case EvtStep:
			name = "STEP"
		case EvtLateStep:
			name = "LATE_STEP!"
		case EvtArrive:
			name = "ARRIVE"
		case EvtStop:
			name = "STOP"
		case EvtRezero:
			name = "REZERO"
		default:
			name = "UNKNOWN"
		}

		log.Info("[TIMING] " + name +
			" clock=" + Utoa(evt.Clock) +
			" pos=" + Itoa64(evt.Position) +
			" v=" + Utoa(evt.Value))
	}
	log.Info("[TIMING] === End Dump ===")
}

// Clear empties the ring
func (r *TimingRing) Clear() {
	for i := range r.events {
		r.events[i] = TimingEvent{}
	}
	r.head = 0
	r.total = 0
}
