package lift

import (
	"steplift/core"
)

// PanelEvent is an operator action recognised on the panel buttons
type PanelEvent uint8

const (
	PanelNone       PanelEvent = iota
	PanelStop                  // STOP pressed
	PanelCalibShort            // CALIB pressed and released before the long-press time
	PanelCalibLong             // CALIB held for the long-press time
)

// String returns the event name
func (e PanelEvent) String() string {
	switch e {
	case PanelNone:
		return "NONE"
	case PanelStop:
		return "STOP"
	case PanelCalibShort:
		return "CALIB"
	case PanelCalibLong:
		return "CALIB_LONG"
	default:
		return "UNKNOWN"
	}
}

// Panel turns the STOP and CALIB buttons into events.
// Both buttons are active low with pull-ups; either may be absent.
type Panel struct {
	stop  *core.Endstop
	calib *core.Endstop

	longPressMicros uint32

	stopWasDown  bool
	calibWasDown bool
	calibSince   uint32
	longFired    bool

	log *core.Log
}

// NewPanel configures the button pins. A pin below zero means "not fitted".
func NewPanel(cfg Config, gpio core.GPIODriver, log *core.Log) (*Panel, error) {
	if log == nil {
		log = core.NopLog()
	}
	longPress := cfg.LongPressMs
	if longPress == 0 {
		longPress = DefaultLongPressMs
	}

	p := &Panel{
		longPressMicros: core.MillisToMicros(longPress),
		log:             log,
	}
	settle := core.MillisToMicros(cfg.ButtonSettleMs)

	if cfg.Pins.StopButtonPin >= 0 {
		es, err := core.NewEndstop(gpio, "stop", core.GPIOPin(cfg.Pins.StopButtonPin), false, true, settle)
		if err != nil {
			return nil, err
		}
		p.stop = es
	}
	if cfg.Pins.CalibButtonPin >= 0 {
		es, err := core.NewEndstop(gpio, "calib", core.GPIOPin(cfg.Pins.CalibButtonPin), false, true, settle)
		if err != nil {
			return nil, err
		}
		p.calib = es
	}

	return p, nil
}

// Update samples the buttons and returns at most one event.
// STOP fires on press and wins over CALIB in the same tick.
func (p *Panel) Update(now uint32) PanelEvent {
	event := PanelNone

	if p.calib != nil {
		down := p.calib.Update(now)
		switch {
		case down && !p.calibWasDown:
			p.calibSince = now
			p.longFired = false
		case down && !p.longFired:
			if core.ElapsedMicros(now, p.calibSince) >= p.longPressMicros {
				p.longFired = true
				event = PanelCalibLong
			}
		case !down && p.calibWasDown && !p.longFired:
			event = PanelCalibShort
		}
		p.calibWasDown = down
	}

	if p.stop != nil {
		down := p.stop.Update(now)
		if down && !p.stopWasDown {
			event = PanelStop
		}
		p.stopWasDown = down
	}

	if event != PanelNone {
		p.log.Info("[PANEL] " + event.String())
	}
	return event
}
