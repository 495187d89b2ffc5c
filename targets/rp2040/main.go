//go:build rp2040

package main

import (
	"machine"
	"time"

	"steplift/core"
	"steplift/lift"
	"steplift/lift/config"
)

// panicsRecovered counts loop passes that panicked
var panicsRecovered uint32

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	// Board settings are embedded at build time; fall back if they are invalid
	cfg := lift.DefaultConfig()
	board, boardErr := config.BoardConfig()
	if boardErr == nil {
		cfg = *board
	}

	var stepper core.StepperBackend
	if cfg.Pins.UsePIOStepper {
		stepper = NewPIOStepperBackend(0, 0, cfg.Pins.PulseWidthMicro)
	} else {
		stepper = NewStepperGPIO(cfg.Pins.PulseWidthMicro)
	}

	// A nil log sends diagnostics to the console, interleaved with replies
	ctl, err := lift.NewController(cfg, lift.Hardware{
		GPIO:    NewRPGPIODriver(),
		ADC:     NewRPAdcDriver(),
		Stepper: stepper,
		Clock:   hardwareClock,
	}, nil)
	if err != nil {
		haltWithError(err)
	}

	if boardErr != nil {
		ctl.Console.WriteLine("[MAIN] Board config rejected, using defaults: " + boardErr.Error())
	}

	var display *StatusDisplay
	if cfg.Pins.DisplayEnabled {
		display, err = NewStatusDisplay(cfg.Pins.DisplayI2CAddr)
		if err != nil {
			// The lift runs without its display
			ctl.Console.WriteLine("[MAIN] Display unavailable: " + err.Error())
			display = nil
		}
	}

	for {
		serviceOnce(ctl, display)
	}
}

// serviceOnce is one pass of the control loop. The motion engine issues at
// most one step per pass, so the pass must stay short.
func serviceOnce(ctl *lift.Controller, display *StatusDisplay) {
	defer func() {
		if r := recover(); r != nil {
			panicsRecovered++
			ctl.SM.Stop()
			ctl.Console.WriteLine("[MAIN] Recovered from panic, motion stopped")
		}
	}()

	readUSB(ctl.ProcessByte)

	ctl.Service()

	writeUSB(ctl.Output())

	if display != nil {
		display.Update(ctl.Status(), GetHardwareTime())
	}

	// Only yield when idle so stepping keeps its rate
	if !ctl.Motion.IsMoving() {
		time.Sleep(10 * time.Microsecond)
	}
}
