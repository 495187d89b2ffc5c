package sim

import (
	"errors"

	"steplift/core"
)

var errPinNotConfigured = errors.New("pin not configured")

// GPIO is an in-memory GPIO driver. Inputs configured with a pull-up idle
// high, pull-down inputs idle low, until a test drives them with Drive.
type GPIO struct {
	pins       map[core.GPIOPin]bool
	configured map[core.GPIOPin]bool

	// Inputs overrides pin reads with a live source (e.g. the shaft model)
	Inputs map[core.GPIOPin]func() bool
}

// NewGPIO returns an empty driver
func NewGPIO() *GPIO {
	return &GPIO{
		pins:       make(map[core.GPIOPin]bool),
		configured: make(map[core.GPIOPin]bool),
		Inputs:     make(map[core.GPIOPin]func() bool),
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.configured[pin] = true
	g.pins[pin] = false
	return nil
}

func (g *GPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	g.configured[pin] = true
	g.pins[pin] = true
	return nil
}

func (g *GPIO) ConfigureInputPullDown(pin core.GPIOPin) error {
	g.configured[pin] = true
	g.pins[pin] = false
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	if !g.configured[pin] {
		return errPinNotConfigured
	}
	g.pins[pin] = value
	return nil
}

func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	if !g.configured[pin] {
		return false, errPinNotConfigured
	}
	if src, ok := g.Inputs[pin]; ok {
		return src(), nil
	}
	return g.pins[pin], nil
}

func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	value, _ := g.GetPin(pin)
	return value
}

// Drive forces the external level on an input pin
func (g *GPIO) Drive(pin core.GPIOPin, level bool) {
	g.pins[pin] = level
}

// Level returns the last level written to or driven on a pin
func (g *GPIO) Level(pin core.GPIOPin) bool {
	return g.pins[pin]
}

// ADC is an in-memory ADC driver with settable channel readings
type ADC struct {
	Values     map[core.ADCChannelID]core.ADCValue
	configured map[core.ADCChannelID]bool
}

// NewADC returns a driver where every channel reads 0
func NewADC() *ADC {
	return &ADC{
		Values:     make(map[core.ADCChannelID]core.ADCValue),
		configured: make(map[core.ADCChannelID]bool),
	}
}

func (a *ADC) Init(cfg core.ADCConfig) error {
	return nil
}

func (a *ADC) ConfigureChannel(ch core.ADCChannelID) error {
	a.configured[ch] = true
	return nil
}

func (a *ADC) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if !a.configured[ch] {
		return 0, errPinNotConfigured
	}
	return a.Values[ch], nil
}

// Set changes a channel reading, clamped to 12 bits
func (a *ADC) Set(ch core.ADCChannelID, v core.ADCValue) {
	if v > core.ADCMax {
		v = core.ADCMax
	}
	a.Values[ch] = v
}
