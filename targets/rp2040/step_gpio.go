//go:build rp2040

package main

import (
	"machine"
)

// StepperGPIO drives step/dir by toggling GPIO pins from the control loop
type StepperGPIO struct {
	stepPin    machine.Pin
	dirPin     machine.Pin
	invertStep bool
	invertDir  bool
	pulseWidth uint32
}

// NewStepperGPIO creates a GPIO backend with the given step pulse width
func NewStepperGPIO(pulseWidthMicros uint32) *StepperGPIO {
	if pulseWidthMicros == 0 {
		pulseWidthMicros = 2
	}
	return &StepperGPIO{pulseWidth: pulseWidthMicros}
}

// Init initializes the stepper GPIO pins
func (s *StepperGPIO) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	s.stepPin = machine.Pin(stepPin)
	s.dirPin = machine.Pin(dirPin)
	s.invertStep = invertStep
	s.invertDir = invertDir

	s.stepPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	s.stepPin.Set(s.invertStep)
	s.SetDirection(false)
	return nil
}

// Step generates a single step pulse
func (s *StepperGPIO) Step() {
	s.stepPin.Set(!s.invertStep)
	busyWaitMicros(s.pulseWidth)
	s.stepPin.Set(s.invertStep)
}

// SetDirection sets the direction output
func (s *StepperGPIO) SetDirection(dir bool) {
	s.dirPin.Set(dir != s.invertDir)
}

// Stop leaves the step line idle
func (s *StepperGPIO) Stop() {
	s.stepPin.Set(s.invertStep)
}

// GetName returns the backend name
func (s *StepperGPIO) GetName() string {
	return "GPIO"
}
