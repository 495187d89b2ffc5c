//go:build rp2040

package main

// PIO step backend: the control loop still decides when to step, the PIO
// state machine only shapes the pulse so its width does not cost CPU time.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Command word, shifted out LSB first:
//
//	Bits 0-15:  pulse count minus one
//	Bits 16-23: delay cycles after each pulse
//	Bit 24:     direction level
//
// buildStepperProgram creates the step program. The step line is driven
// to idle after every pulse, so invert only swaps the two SET values.
func buildStepperProgram(invertStep bool) []uint16 {
	active, idle := uint8(1), uint8(0)
	if invertStep {
		active, idle = 0, 1
	}

	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16 (pulse count - 1)
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8 (delay cycles)
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1 (direction)
		// step_loop:
		asm.Set(rp2pio.SetDestPins, active).Delay(7).Encode(), // 4: set pins, active [7]
		asm.Set(rp2pio.SetDestPins, idle).Encode(),            // 5: set pins, idle
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

const (
	stepperPIOOrigin = 0 // Load at offset 0 for correct jump addresses

	// The pulse is held for 8 PIO cycles (SET plus 7 delay)
	pulseCycles = 8

	pioDirBit = 1 << 24
)

// PIOStepperBackend implements core.StepperBackend on one PIO state machine
type PIOStepperBackend struct {
	pio        *rp2pio.PIO
	sm         rp2pio.StateMachine
	stepPin    machine.Pin
	dirPin     machine.Pin
	invertDir  bool
	direction  bool
	pulseWidth uint32
}

// NewPIOStepperBackend creates a new PIO-based stepper backend
// pioNum: 0 for PIO0, 1 for PIO1
// smNum: 0-3 for state machine number
func NewPIOStepperBackend(pioNum, smNum uint8, pulseWidthMicros uint32) *PIOStepperBackend {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	if pulseWidthMicros == 0 {
		pulseWidthMicros = 2
	}

	return &PIOStepperBackend{
		pio:        pioHW,
		sm:         pioHW.StateMachine(smNum),
		pulseWidth: pulseWidthMicros,
	}
}

// Init loads the program and starts the state machine
func (b *PIOStepperBackend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)
	b.invertDir = invertDir

	// Claim the state machine before touching it
	if !b.sm.TryClaim() {
		return errPIOBusy
	}

	program := buildStepperProgram(invertStep)
	offset, err := b.pio.AddProgram(program, stepperPIOOrigin)
	if err != nil {
		return err
	}

	b.stepPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	b.dirPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.stepPin, 1)
	cfg.SetOutPins(b.dirPin, 1)

	// Shift right, explicit PULL, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	// Scale the PIO clock so pulseCycles last pulseWidth microseconds
	div := machine.CPUFrequency() / 1000000 * b.pulseWidth / pulseCycles
	if div == 0 {
		div = 1
	}
	if div > 0xffff {
		div = 0xffff
	}
	cfg.SetClkDivIntFrac(uint16(div), 0)

	b.sm.Init(offset, cfg)

	// Pin directions must be set after Init
	b.sm.SetPindirsConsecutive(b.stepPin, 1, true)
	b.sm.SetPindirsConsecutive(b.dirPin, 1, true)
	b.sm.SetPinsConsecutive(b.stepPin, 1, invertStep)
	b.sm.SetPinsConsecutive(b.dirPin, 1, invertDir)

	b.sm.SetEnabled(true)
	return nil
}

// Step queues one pulse with the current direction
func (b *PIOStepperBackend) Step() {
	cmd := uint32(1) << 16 // one pulse, one delay cycle
	if b.direction != b.invertDir {
		cmd |= pioDirBit
	}

	// The FIFO holds 4 words; at lift step rates it never fills
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(cmd)
}

// SetDirection sets the direction for the next pulses
func (b *PIOStepperBackend) SetDirection(dir bool) {
	b.direction = dir
}

// Stop drops any queued pulses
func (b *PIOStepperBackend) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
}

// GetName returns the backend name
func (b *PIOStepperBackend) GetName() string {
	return "PIO"
}
