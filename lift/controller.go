package lift

import (
	"errors"

	"steplift/core"
)

var (
	errNoGPIO    = errors.New("lift: GPIO driver required")
	errNoStepper = errors.New("lift: stepper backend required")
	errNoClock   = errors.New("lift: clock required")
)

// Hardware bundles the platform drivers the controller runs on
type Hardware struct {
	GPIO    core.GPIODriver
	ADC     core.ADCDriver // Optional; without it the speed ceiling stays at MaxSpeed
	Stepper core.StepperBackend
	Clock   core.Clock
}

// Controller owns every lift component and runs the control loop body.
// It is the only owner of motion, calibration and lift state; call all of
// its methods from one goroutine.
type Controller struct {
	cfg Config
	hw  Hardware
	log *core.Log

	Motion  *core.MotionEngine
	Floors  *FloorMap
	Calib   *Calibrator
	SM      *StateMachine
	Inputs  *Inputs
	Panel   *Panel
	Console *Console

	enable *core.StepperEnable
	timing core.TimingRing

	statusIntervalMicros uint32
	lastStatus           uint32
	ticks                uint64
}

// NewController wires the components onto hw and boots the state machine.
// A nil log sends diagnostics to the console output, as the firmware does.
func NewController(cfg Config, hw Hardware, log *core.Log) (*Controller, error) {
	if hw.GPIO == nil {
		return nil, errNoGPIO
	}
	if hw.Stepper == nil {
		return nil, errNoStepper
	}
	if hw.Clock == nil {
		return nil, errNoClock
	}

	c := &Controller{
		cfg:     cfg,
		hw:      hw,
		Console: NewConsole(),
	}
	if log == nil {
		log = core.NewLog(c.Console.WriteLine, core.LevelInfo)
	}
	c.log = log

	pins := cfg.Pins
	if err := hw.Stepper.Init(pins.StepPin, pins.DirPin, pins.InvertStep, pins.InvertDir); err != nil {
		return nil, err
	}
	if pins.EnablePin >= 0 {
		en, err := core.NewStepperEnable(hw.GPIO, core.GPIOPin(pins.EnablePin), pins.InvertEnable)
		if err != nil {
			return nil, err
		}
		if err := en.Enable(); err != nil {
			return nil, err
		}
		c.enable = en
	}

	c.Motion = core.NewMotionEngine(cfg.Motion, hw.Stepper, hw.Clock, log)
	c.Motion.Timing = &c.timing

	c.Floors = NewFloorMap(log)
	c.Calib = NewCalibrator(cfg.Calibration, c.Motion, c.Floors, log)
	c.SM = NewStateMachine(cfg, c.Motion, c.Calib, c.Floors, hw.Clock, log)
	c.SM.Timing = &c.timing

	inputs, err := NewInputs(cfg, hw.GPIO, hw.ADC, log)
	if err != nil {
		return nil, err
	}
	c.Inputs = inputs

	if pins.StopButtonPin >= 0 || pins.CalibButtonPin >= 0 {
		panel, err := NewPanel(cfg, hw.GPIO, log)
		if err != nil {
			return nil, err
		}
		c.Panel = panel
	}

	c.registerCommands()

	c.statusIntervalMicros = core.MillisToMicros(cfg.StatusIntervalMs)
	c.lastStatus = hw.Clock.Micros()

	c.SM.Init()
	c.Console.Banner()
	return c, nil
}

// registerCommands binds the console tokens to state machine commands
func (c *Controller) registerCommands() {
	sm := c.SM
	con := c.Console

	con.Register("F1", "move to floor 1", func() error { sm.MoveToFloor(1); return nil })
	con.Register("F2", "move to floor 2", func() error { sm.MoveToFloor(2); return nil })
	con.Register("F3", "move to floor 3", func() error { sm.MoveToFloor(3); return nil })
	con.Register("STOP", "stop immediately", func() error { sm.Stop(); return nil })
	con.Register("CALIB", "start calibration (home up)", func() error { sm.StartCalibration(); return nil })
	con.Register("CALIB_DOWN_START", "calibration: descend from the top switch", func() error { sm.CalibDownStart(); return nil })
	con.Register("CALIB_DOWN_SAVE", "calibration: save the bottom", func() error { sm.CalibDownSave(); return nil })
	con.Register("STATUS", "print the status line", func() error { c.SendStatus(); return nil })
	con.Register("CLEAR", "clear an error", func() error { sm.ClearError(); return nil })
	con.Register("MAN_UP", "jog up", func() error { sm.ManualUpStart(); return nil })
	con.Register("MAN_DOWN", "jog down", func() error { sm.ManualDownStart(); return nil })
	con.Register("MAN_STOP", "end jog", func() error { sm.ManualStop(); return nil })
}

// Service runs one loop iteration: sample inputs, handle panel buttons,
// tick the state machine, then service the motion engine.
func (c *Controller) Service() {
	now := c.hw.Clock.Micros()
	c.ticks++

	sample := c.Inputs.Sample(now)

	if c.Panel != nil {
		c.handlePanel(c.Panel.Update(now))
	}

	c.SM.Service(sample)
	c.Motion.Service()

	if c.statusIntervalMicros != 0 && core.ElapsedMicros(now, c.lastStatus) >= c.statusIntervalMicros {
		c.lastStatus = now
		c.SendStatus()
	}
}

func (c *Controller) handlePanel(event PanelEvent) {
	switch event {
	case PanelStop:
		c.SM.Stop()
	case PanelCalibShort:
		c.SM.StartCalibration()
	case PanelCalibLong:
		c.Calib.ForceReset()
		c.SM.ForceNeedCalibration()
	}
}

// ProcessByte feeds one byte from the command link
func (c *Controller) ProcessByte(b byte) {
	c.Console.ProcessByte(b)
}

// ProcessLine runs one command line
func (c *Controller) ProcessLine(line string) {
	c.Console.ProcessLine(line)
}

// Output returns pending console output and clears it
func (c *Controller) Output() []byte {
	return c.Console.Output()
}

// SendStatus queues the status line
func (c *Controller) SendStatus() {
	c.Console.WriteLine(FormatStatusLine(c.SM.Status()))
}

// Status returns the state machine snapshot
func (c *Controller) Status() Status {
	return c.SM.Status()
}

// MotionState returns the motion engine snapshot
func (c *Controller) MotionState() core.MotionState {
	return c.Motion.State()
}

// Timing returns the motion timing ring
func (c *Controller) Timing() *core.TimingRing {
	return &c.timing
}

// Ticks returns how many times Service has run
func (c *Controller) Ticks() uint64 {
	return c.ticks
}

// Shutdown stops the motor and releases the driver
func (c *Controller) Shutdown() error {
	c.SM.Stop()
	return c.enable.Disable()
}
