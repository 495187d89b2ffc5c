package core

// StepperBackend defines the hardware abstraction for the step/dir driver.
// Implementations can use GPIO, PIO, or a simulation.
type StepperBackend interface {
	// Init initializes the stepper hardware
	// stepPin: GPIO pin for step pulses
	// dirPin: GPIO pin for direction signal
	// invertStep: invert step pin polarity
	// invertDir: invert direction pin polarity
	Init(stepPin, dirPin uint8, invertStep, invertDir bool) error

	// Step generates a single fixed-width step pulse.
	// Any busy-wait for the pulse width must be bounded and short.
	Step()

	// SetDirection sets the direction output
	// dir: true = up (positive steps), false = down
	SetDirection(dir bool)

	// Stop immediately halts stepping and leaves the step line idle
	Stop()

	// GetName returns backend implementation name
	GetName() string
}

// StepperEnable drives the optional active-low EN line of a step/dir driver
type StepperEnable struct {
	gpio   GPIODriver
	pin    GPIOPin
	invert bool
	used   bool
}

// NewStepperEnable configures pin as the driver enable output.
// invert=true means the driver is enabled when the pin is low (A4988, TMC2209).
func NewStepperEnable(gpio GPIODriver, pin GPIOPin, invert bool) (*StepperEnable, error) {
	if err := gpio.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	return &StepperEnable{gpio: gpio, pin: pin, invert: invert, used: true}, nil
}

// Enable powers the driver outputs
func (e *StepperEnable) Enable() error {
	if e == nil || !e.used {
		return nil
	}
	return e.gpio.SetPin(e.pin, !e.invert)
}

// Disable releases the motor
func (e *StepperEnable) Disable() error {
	if e == nil || !e.used {
		return nil
	}
	return e.gpio.SetPin(e.pin, e.invert)
}
