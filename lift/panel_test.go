package lift

import (
	"testing"

	"steplift/core"
	"steplift/sim"
)

func newTestPanel(t *testing.T) (*Panel, *sim.GPIO, Config) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ButtonSettleMs = 20
	cfg.LongPressMs = 3000

	gpio := sim.NewGPIO()
	p, err := NewPanel(cfg, gpio, nil)
	if err != nil {
		t.Fatalf("NewPanel failed: %v", err)
	}
	return p, gpio, cfg
}

// press holds a button (active low) for holdMs, sampling every ms.
// Returns every event seen, including after release.
func press(p *Panel, gpio *sim.GPIO, pin core.GPIOPin, now *uint32, holdMs uint32) []PanelEvent {
	var events []PanelEvent
	step := func() {
		*now += 1000
		if e := p.Update(*now); e != PanelNone {
			events = append(events, e)
		}
	}

	gpio.Drive(pin, false)
	for i := uint32(0); i < holdMs; i++ {
		step()
	}
	gpio.Drive(pin, true)
	for i := 0; i < 50; i++ {
		step()
	}
	return events
}

func TestPanelStopButton(t *testing.T) {
	p, gpio, cfg := newTestPanel(t)
	now := uint32(0)

	events := press(p, gpio, core.GPIOPin(cfg.Pins.StopButtonPin), &now, 100)
	if len(events) != 1 || events[0] != PanelStop {
		t.Errorf("Expected one STOP event, got %v", events)
	}
}

func TestPanelStopButtonBounceIgnored(t *testing.T) {
	p, gpio, cfg := newTestPanel(t)
	pin := core.GPIOPin(cfg.Pins.StopButtonPin)
	now := uint32(0)

	// 5 ms blips never reach the 20 ms settle time
	for i := 0; i < 10; i++ {
		gpio.Drive(pin, i%2 == 0)
		for j := 0; j < 5; j++ {
			now += 1000
			if e := p.Update(now); e != PanelNone {
				t.Fatalf("Expected bounce ignored, got %s", e)
			}
		}
	}
}

func TestPanelCalibShortPress(t *testing.T) {
	p, gpio, cfg := newTestPanel(t)
	now := uint32(0)

	events := press(p, gpio, core.GPIOPin(cfg.Pins.CalibButtonPin), &now, 500)
	if len(events) != 1 || events[0] != PanelCalibShort {
		t.Errorf("Expected one short CALIB event, got %v", events)
	}
}

func TestPanelCalibLongPress(t *testing.T) {
	p, gpio, cfg := newTestPanel(t)
	now := uint32(0)

	events := press(p, gpio, core.GPIOPin(cfg.Pins.CalibButtonPin), &now, 4000)
	if len(events) != 1 || events[0] != PanelCalibLong {
		t.Errorf("Expected one long CALIB event and no short one on release, got %v", events)
	}
}

func TestPanelWithoutButtons(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pins.StopButtonPin = -1
	cfg.Pins.CalibButtonPin = -1

	p, err := NewPanel(cfg, sim.NewGPIO(), nil)
	if err != nil {
		t.Fatalf("NewPanel failed: %v", err)
	}
	if e := p.Update(1000); e != PanelNone {
		t.Errorf("Expected no events, got %s", e)
	}
}
