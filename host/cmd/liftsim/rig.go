package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"steplift/core"
	"steplift/lift"
	"steplift/sim"
)

// event is an operator input delivered to the control loop
type event struct {
	command string // Console line
	button  string // "stop" or "calib"
	pressed bool
	pot     int // Potentiometer raw value, -1 = unchanged
}

// StatusMessage is the periodic snapshot broadcast to websocket clients
type StatusMessage struct {
	Type        string  `json:"type"`
	State       string  `json:"state"`
	StateCode   int     `json:"stateCode"`
	Floor       int     `json:"floor"`
	TargetFloor int     `json:"targetFloor"`
	Position    int64   `json:"position"`
	Error       string  `json:"error"`
	ErrorCode   int     `json:"errorCode"`
	Speed       float64 `json:"speed"`
	MaxSpeed    float64 `json:"maxSpeed"`
	Height      int64   `json:"height"`
	TopSwitch   bool    `json:"topSwitch"`
	Calibrated  bool    `json:"calibrated"`
	Travel      int64   `json:"travel"`
}

// ConsoleMessage carries one console line to websocket clients
type ConsoleMessage struct {
	Type string `json:"type"`
	Line string `json:"line"`
}

// rig is the simulated lift: controller, hardware models and the loop that
// owns them. Only run touches these fields.
type rig struct {
	cfg   lift.Config
	ctl   *lift.Controller
	gpio  *sim.GPIO
	adc   *sim.ADC
	shaft *sim.Shaft

	events chan event
	output func(string) // Receives every console line
	status func(StatusMessage)

	statusEvery time.Duration
}

func newRig(cfg lift.Config, height, switchHeight int64, potRaw int, output func(string), status func(StatusMessage)) (*rig, error) {
	r := &rig{
		cfg:         cfg,
		gpio:        sim.NewGPIO(),
		adc:         sim.NewADC(),
		shaft:       sim.NewShaft(height, switchHeight),
		events:      make(chan event, 64),
		output:      output,
		status:      status,
		statusEvery: 100 * time.Millisecond,
	}

	backend := &sim.Backend{}
	r.shaft.Attach(backend, r.gpio, cfg.Pins.TopSwitchPin, !cfg.Pins.TopSwitchHigh)
	r.adc.Set(cfg.Pins.PotChannel, core.ADCValue(potRaw))

	// Diagnostics go to slog; console replies are printed by the loop
	log := core.NewLog(func(msg string) {
		slog.Info(msg, "component", "lift")
		r.output(msg)
	}, core.LevelInfo)

	ctl, err := lift.NewController(cfg, lift.Hardware{
		GPIO:    r.gpio,
		ADC:     r.adc,
		Stepper: backend,
		Clock:   sim.NewWallClock(),
	}, log)
	if err != nil {
		return nil, err
	}
	r.ctl = ctl
	return r, nil
}

// submit queues an event for the loop without blocking the caller for long
func (r *rig) submit(ctx context.Context, ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-time.After(time.Second):
		slog.Warn("Control loop busy, dropping input", "command", ev.command, "button", ev.button)
		return false
	}
}

// run is the control loop. It never blocks: inputs are drained without
// waiting, then the controller is serviced.
func (r *rig) run(ctx context.Context) {
	defer func() {
		if err := r.ctl.Shutdown(); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
		r.flush()
	}()

	lastStatus := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

	drain:
		for {
			select {
			case ev := <-r.events:
				r.apply(ev)
			default:
				break drain
			}
		}

		r.ctl.Service()
		r.flush()

		if time.Since(lastStatus) >= r.statusEvery {
			lastStatus = time.Now()
			r.status(r.snapshot())
		}

		// Yield; step intervals are at least 1/PotSpeedMax s, far above this
		time.Sleep(20 * time.Microsecond)
	}
}

func (r *rig) apply(ev event) {
	if ev.command != "" {
		r.ctl.ProcessLine(ev.command)
	}
	if ev.pot >= 0 {
		r.adc.Set(r.cfg.Pins.PotChannel, core.ADCValue(ev.pot))
	}

	var pin int
	switch ev.button {
	case "stop":
		pin = r.cfg.Pins.StopButtonPin
	case "calib":
		pin = r.cfg.Pins.CalibButtonPin
	default:
		return
	}
	if pin >= 0 {
		// Buttons are active low
		r.gpio.Drive(core.GPIOPin(pin), !ev.pressed)
	}
}

// flush hands console output to the sink line by line
func (r *rig) flush() {
	out := r.ctl.Output()
	if len(out) == 0 {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		r.output(line)
	}
}

func (r *rig) snapshot() StatusMessage {
	st := r.ctl.Status()
	ms := r.ctl.MotionState()
	return StatusMessage{
		Type:        "status",
		State:       st.State.String(),
		StateCode:   int(st.State),
		Floor:       int(st.CurrentFloor),
		TargetFloor: int(st.TargetFloor),
		Position:    st.Position,
		Error:       st.Error.String(),
		ErrorCode:   int(st.Error),
		Speed:       ms.Speed,
		MaxSpeed:    ms.MaxSpeed,
		Height:      r.shaft.Height,
		TopSwitch:   r.shaft.TopSwitchClosed(),
		Calibrated:  r.ctl.Calib.Valid(),
		Travel:      r.ctl.Calib.FullTravelSteps(),
	}
}
