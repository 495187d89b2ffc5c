package sim

import (
	"steplift/core"
)

// Shaft models the physical lift car. Height is measured in steps above the
// bottom stop; the top limit switch closes at SwitchHeight and the car cannot
// travel past the bottom stop or the top buffer (pulses there are lost, as
// on a stalled motor).
type Shaft struct {
	Height       int64 // Car height above the bottom stop (steps)
	SwitchHeight int64 // Height where the top limit switch closes
	TopBuffer    int64 // Overtravel allowed above the switch before the car stalls
	Stalled      int   // Pulses lost against an end stop
}

// NewShaft places the car at height with the top switch at switchHeight
func NewShaft(height, switchHeight int64) *Shaft {
	return &Shaft{
		Height:       height,
		SwitchHeight: switchHeight,
		TopBuffer:    100,
	}
}

// OnStep moves the car one step; wire it to Backend.OnStep
func (s *Shaft) OnStep(up bool) {
	if up {
		if s.Height >= s.SwitchHeight+s.TopBuffer {
			s.Stalled++
			return
		}
		s.Height++
		return
	}
	if s.Height <= 0 {
		s.Stalled++
		return
	}
	s.Height--
}

// TopSwitchClosed reports whether the car is at or above the switch
func (s *Shaft) TopSwitchClosed() bool {
	return s.Height >= s.SwitchHeight
}

// Attach connects the shaft to a backend and to the top switch input pin.
// activeLow wires the switch to ground like the real board (pin reads low
// when closed).
func (s *Shaft) Attach(backend *Backend, gpio *GPIO, topPin core.GPIOPin, activeLow bool) {
	backend.OnStep = s.OnStep
	gpio.Inputs[topPin] = func() bool {
		closed := s.TopSwitchClosed()
		if activeLow {
			return !closed
		}
		return closed
	}
}
