// Digital switch inputs: limit switches and panel buttons.
// A switch is confirmed only after its pin has held the new level for the
// configured settle time, the time-based equivalent of endstop oversampling.
package core

// Endstop flags
const (
	ESF_PIN_HIGH = 1 << 0 // Pin level when triggered (1=high, 0=low)
	ESF_PULL_UP  = 1 << 1 // Input uses the internal pull-up
)

// Endstop represents a configured GPIO switch input
type Endstop struct {
	Name         string     // Name used in diagnostics
	Pin          GPIOPin    // GPIO pin for switch input
	Flags        uint8      // ESF_* flags
	SettleMicros uint32     // Time the raw level must hold before it is accepted (0 = raw)
	gpio         GPIODriver // Driver the pin was configured on

	triggered    bool   // Confirmed state
	pending      bool   // Raw state waiting to settle
	pendingSince uint32 // When pending was first seen
}

// NewEndstop configures pin as an input and returns the switch.
// pinHigh is the level that means "triggered"; active-low switches wired to
// ground pass pinHigh=false with pullUp=true.
func NewEndstop(gpio GPIODriver, name string, pin GPIOPin, pinHigh, pullUp bool, settleMicros uint32) (*Endstop, error) {
	es := &Endstop{
		Name:         name,
		Pin:          pin,
		SettleMicros: settleMicros,
		gpio:         gpio,
	}
	if pinHigh {
		es.Flags |= ESF_PIN_HIGH
	}

	// Pull-up/pull-down configuration
	if pullUp {
		es.Flags |= ESF_PULL_UP
		if err := gpio.ConfigureInputPullUp(pin); err != nil {
			return nil, err
		}
	} else {
		if err := gpio.ConfigureInputPullDown(pin); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// ReadRaw samples the pin and applies the trigger polarity
func (es *Endstop) ReadRaw() bool {
	pinHigh := es.gpio.ReadPin(es.Pin)
	expectHigh := (es.Flags & ESF_PIN_HIGH) != 0
	return pinHigh == expectHigh
}

// Update samples the pin and returns the confirmed state
func (es *Endstop) Update(now uint32) bool {
	raw := es.ReadRaw()
	if es.SettleMicros == 0 {
		es.triggered = raw
		es.pending = raw
		return raw
	}

	if raw == es.triggered {
		// Bounce back to the confirmed level - restart settling
		es.pending = raw
		return es.triggered
	}

	if raw != es.pending {
		// First sample at the new level
		es.pending = raw
		es.pendingSince = now
		return es.triggered
	}

	if ElapsedMicros(now, es.pendingSince) >= es.SettleMicros {
		es.triggered = raw
	}
	return es.triggered
}

// Triggered returns the last confirmed state without sampling
func (es *Endstop) Triggered() bool {
	return es.triggered
}
