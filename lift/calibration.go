package lift

import (
	"steplift/core"
)

// Motor is the part of the motion engine the lift logic drives.
// *core.MotionEngine implements it.
type Motor interface {
	MoveTo(target int64)
	Stop()
	ManualDirection(dir int8)
	StartFastDescent()
	SetCurrentPosition(pos int64)
	SetSpeedFromPot(raw uint16)
	Position() int64
}

var _ Motor = (*core.MotionEngine)(nil)

// Calibrator runs the homing / descent / save procedure that measures the
// shaft. Each step is invoked by the state machine; nothing here is self-driving.
type Calibrator struct {
	cfg    CalibrationConfig
	motor  Motor
	floors *FloorMap
	log    *core.Log

	valid bool
}

// NewCalibrator creates a sequencer and syncs its valid flag from floors
func NewCalibrator(cfg CalibrationConfig, motor Motor, floors *FloorMap, log *core.Log) *Calibrator {
	if log == nil {
		log = core.NopLog()
	}
	if cfg.TopMarginSteps < 0 {
		cfg.TopMarginSteps = 0
	}
	if cfg.MinTravelSteps <= 0 {
		cfg.MinTravelSteps = DefaultMinTravelSteps
	}

	log.Info("[CALIB] Init")
	return &Calibrator{
		cfg:    cfg,
		motor:  motor,
		floors: floors,
		log:    log,
		valid:  floors.Calibrated(),
	}
}

// Valid reports whether a complete calibration is in effect
func (c *Calibrator) Valid() bool {
	return c.valid && c.floors.FullTravelSteps() > 0
}

// FullTravelSteps returns the measured travel (0 = uncalibrated)
func (c *Calibrator) FullTravelSteps() int64 {
	return c.floors.FullTravelSteps()
}

// ForceReset discards the calibration
func (c *Calibrator) ForceReset() {
	c.log.Info("[CALIB] Force reset calibration")
	c.floors.SetFullTravelSteps(0)
	c.valid = false
}

// StartHomingUp jogs up toward the top limit switch.
// The caller watches the switch and calls OnTopReached.
func (c *Calibrator) StartHomingUp() {
	c.log.Info("[CALIB] Homing UP: manual up")
	c.motor.ManualDirection(1)
}

// OnTopReached stops on the switch and makes it the zero reference
func (c *Calibrator) OnTopReached() {
	c.motor.Stop()
	c.motor.SetCurrentPosition(0)
	c.log.Info("[CALIB] Top reached, position set to 0 (TopSwitch)")
}

// StartMovingDown descends fast; positions go negative from the switch
func (c *Calibrator) StartMovingDown() {
	c.log.Info("[CALIB] Moving DOWN for calibration (manual down)")
	c.motor.StartFastDescent()
}

// SaveBottom stops at the bottom, derives the travel length and re-zeroes
// the coordinate system there. Travel shorter than MinTravelSteps is clamped
// up and reported with clamped=true; it is never rejected.
func (c *Calibrator) SaveBottom() (travel int64, clamped bool) {
	c.motor.Stop()

	bottom := c.motor.Position()
	c.log.Info("[CALIB] Bottom raw position = " + core.Itoa64(bottom))

	distance := absSteps(bottom)
	c.log.Info("[CALIB] Distance Bottom -> TopSwitch = " + core.Itoa64(distance))

	travel = distance - c.cfg.TopMarginSteps
	if travel < c.cfg.MinTravelSteps {
		c.log.Warn("[CALIB] fullTravelSteps too small (" + core.Itoa64(travel) +
			"), forcing to MIN_TRAVEL_STEPS=" + core.Itoa64(c.cfg.MinTravelSteps))
		travel = c.cfg.MinTravelSteps
		clamped = true
	}

	c.floors.SetFullTravelSteps(travel)
	c.motor.SetCurrentPosition(0)
	c.valid = true

	c.log.Info("[CALIB] Calibration done. fullTravelSteps=" + core.Itoa64(travel))
	return travel, clamped
}
