package core

// Stepper motion engine for the lift axis.
// Converts a target position or a manual direction into an accel-limited
// speed and emits single step pulses from a polling loop (no timer interrupts).

import (
	"math"
)

// MotionMode selects what the engine is driving toward
type MotionMode uint8

const (
	ModeIdle         MotionMode = iota // Ramp to zero and stay there
	ModeMoveToTarget                   // Trapezoidal move to Target
	ModeManual                         // Constant manual speed in ManualDir
)

// String returns the mode name used in diagnostics
func (m MotionMode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeMoveToTarget:
		return "MOVE_TO"
	case ModeManual:
		return "MANUAL"
	default:
		return "UNKNOWN"
	}
}

const (
	// MinSpeed below which no steps are emitted (avoids buzzing at near-zero rates)
	MinSpeed = 50.0 // steps/s

	// MinAcceleration is the floor applied by SetAcceleration
	MinAcceleration = 10.0 // steps/s^2
)

// MotionConfig holds the motion profile parameters
type MotionConfig struct {
	MaxSpeed          float64 `json:"max_speed"`           // Cruise ceiling (steps/s)
	Acceleration      float64 `json:"acceleration"`        // Accel and decel (steps/s^2)
	ManualSpeed       float64 `json:"manual_speed"`        // Jog speed (steps/s)
	FastDescentFactor float64 `json:"fast_descent_factor"` // Manual speed multiplier for calibration descent
	PotRawMax         uint16  `json:"pot_raw_max"`         // Full-scale potentiometer reading
	PotSpeedMin       float64 `json:"pot_speed_min"`       // Speed ceiling at pot = 0
	PotSpeedMax       float64 `json:"pot_speed_max"`       // Speed ceiling at pot = full scale
}

// DefaultMotionConfig returns the profile the lift hardware was tuned with
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		MaxSpeed:          2500,
		Acceleration:      1800,
		ManualSpeed:       400,
		FastDescentFactor: 3,
		PotRawMax:         ADCMax,
		PotSpeedMin:       200,
		PotSpeedMax:       2000,
	}
}

// MotionState is the engine's observable state. Only the engine mutates it.
type MotionState struct {
	Position     int64      // Current position in steps (signed, arbitrary zero)
	Target       int64      // Target position for ModeMoveToTarget
	Speed        float64    // Current speed (steps/s, sign = direction)
	MaxSpeed     float64    // Cruise ceiling (steps/s)
	Acceleration float64    // steps/s^2
	Mode         MotionMode // What the engine is driving toward
	ManualDir    int8       // +1 up, -1 down, 0 none
	FastDescent  bool       // Multiply manual speed while descending (calibration)
}

// MotionEngine owns the stepper position/speed state.
// Service must be called every control-loop iteration.
type MotionEngine struct {
	state   MotionState
	cfg     MotionConfig
	backend StepperBackend
	clock   Clock
	log     *Log

	// Timing ring for post-mortem (optional)
	Timing *TimingRing

	lastStepMicros    uint32 // When the last step pulse was emitted
	lastServiceMicros uint32 // When speed was last recomputed
	dirUp             bool   // Direction line as last written
	dirValid          bool   // Direction line written at least once
	stepping          bool   // Speed was at or above MinSpeed on the last Service
}

// NewMotionEngine creates an idle engine at position 0
func NewMotionEngine(cfg MotionConfig, backend StepperBackend, clock Clock, log *Log) *MotionEngine {
	if log == nil {
		log = NopLog()
	}
	if cfg.FastDescentFactor <= 0 {
		cfg.FastDescentFactor = 1
	}

	e := &MotionEngine{
		cfg:     cfg,
		backend: backend,
		clock:   clock,
		log:     log,
	}
	e.state.MaxSpeed = cfg.MaxSpeed
	e.state.Acceleration = cfg.Acceleration
	if e.state.MaxSpeed < MinSpeed {
		e.state.MaxSpeed = MinSpeed
	}
	if e.state.Acceleration < MinAcceleration {
		e.state.Acceleration = MinAcceleration
	}

	now := clock.Micros()
	e.lastStepMicros = now
	e.lastServiceMicros = now

	log.Info("[MOTOR] Init: backend=" + backend.GetName())
	return e
}

// State returns a snapshot of the motion state
func (e *MotionEngine) State() MotionState {
	return e.state
}

// Position returns the current position in steps
func (e *MotionEngine) Position() int64 {
	return e.state.Position
}

// Speed returns the current signed speed (steps/s)
func (e *MotionEngine) Speed() float64 {
	return e.state.Speed
}

// Mode returns the current motion mode
func (e *MotionEngine) Mode() MotionMode {
	return e.state.Mode
}

// IsMoving reports whether the engine is driving or still has speed
func (e *MotionEngine) IsMoving() bool {
	return e.state.Mode != ModeIdle || e.state.Speed != 0
}

// SetMaxSpeed sets the cruise ceiling, floored at MinSpeed
func (e *MotionEngine) SetMaxSpeed(speed float64) {
	if speed < MinSpeed {
		speed = MinSpeed
	}
	e.state.MaxSpeed = speed
}

// SetAcceleration sets accel/decel, floored at MinAcceleration
func (e *MotionEngine) SetAcceleration(accel float64) {
	if accel < MinAcceleration {
		accel = MinAcceleration
	}
	e.state.Acceleration = accel
}

// SetSpeedFromPot maps a raw potentiometer reading linearly onto the
// configured speed band and applies it as the speed ceiling
func (e *MotionEngine) SetSpeedFromPot(raw uint16) {
	full := e.cfg.PotRawMax
	if full == 0 {
		full = ADCMax
	}
	if raw > full {
		raw = full
	}
	span := e.cfg.PotSpeedMax - e.cfg.PotSpeedMin
	e.SetMaxSpeed(e.cfg.PotSpeedMin + span*(float64(raw)/float64(full)))
}

// MoveTo starts a trapezoidal move to an absolute position.
// Direction is resolved by Service from the sign of the remaining distance.
func (e *MotionEngine) MoveTo(target int64) {
	if e.state.Speed == 0 {
		e.lastServiceMicros = e.clock.Micros()
	}
	e.state.Target = target
	e.state.Mode = ModeMoveToTarget
	e.state.ManualDir = 0
	e.log.Info("[MOTOR] MoveTo " + Itoa64(target))
}

// Stop halts immediately: speed drops to zero and any move or jog is cancelled
func (e *MotionEngine) Stop() {
	e.state.Mode = ModeIdle
	e.state.ManualDir = 0
	e.state.Speed = 0
	e.state.FastDescent = false
	e.backend.Stop()
	e.dirValid = false
	e.stepping = false
	e.Timing.Record(EvtStop, e.clock.Micros(), e.state.Position, 0)
	e.log.Info("[MOTOR] Stop")
}

// ManualDirection starts jogging at the manual speed.
// dir > 0 moves up, dir < 0 down; dir == 0 ends the jog.
// The ramp always starts from rest.
func (e *MotionEngine) ManualDirection(dir int8) {
	switch {
	case dir > 0:
		e.state.Mode = ModeManual
		e.state.ManualDir = 1
		e.log.Info("[MOTOR] Manual UP")
	case dir < 0:
		e.state.Mode = ModeManual
		e.state.ManualDir = -1
		e.log.Info("[MOTOR] Manual DOWN")
	default:
		e.state.Mode = ModeIdle
		e.state.ManualDir = 0
		e.state.FastDescent = false
		e.log.Info("[MOTOR] Manual STOP")
	}
	e.state.Speed = 0
	e.stepping = false
	e.lastServiceMicros = e.clock.Micros()
}

// StartFastDescent jogs down at FastDescentFactor times the manual speed.
// The flag is cleared by Stop.
func (e *MotionEngine) StartFastDescent() {
	e.ManualDirection(-1)
	e.state.FastDescent = true
	e.log.Info("[MOTOR] Calib DOWN FAST (x" + Ftoa(e.cfg.FastDescentFactor) + ")")
}

// SetCurrentPosition re-zeroes the coordinate system.
// The target snaps to the new position so no phantom move follows.
func (e *MotionEngine) SetCurrentPosition(pos int64) {
	e.state.Position = pos
	e.state.Target = pos
	e.Timing.Record(EvtRezero, e.clock.Micros(), pos, 0)
	e.log.Info("[MOTOR] Set position=" + Itoa64(pos))
}

// desiredSpeed returns the signed speed the engine should ramp toward.
// arrived is true when a MoveTo just reached its target.
func (e *MotionEngine) desiredSpeed() (speed float64, arrived bool) {
	s := &e.state

	switch s.Mode {
	case ModeManual:
		base := e.cfg.ManualSpeed
		if s.FastDescent && s.ManualDir < 0 {
			base *= e.cfg.FastDescentFactor
		}
		return base * float64(s.ManualDir), false

	case ModeMoveToTarget:
		distanceToGo := s.Target - s.Position
		if distanceToGo == 0 {
			return 0, true
		}

		dist := math.Abs(float64(distanceToGo))
		allowed := s.MaxSpeed

		// Braking distance at the current speed: v^2 / (2a)
		brakeDist := (s.Speed * s.Speed) / (2 * s.Acceleration)
		if brakeDist > dist {
			allowed = math.Sqrt(2 * s.Acceleration * dist)
			if allowed < MinSpeed {
				allowed = MinSpeed
			}
		}

		if distanceToGo < 0 {
			return -allowed, false
		}
		return allowed, false
	}

	return 0, false
}

// Service advances the speed ramp and emits at most one step pulse.
// Call it every loop iteration; step timing accuracy depends on how often it runs.
func (e *MotionEngine) Service() {
	now := e.clock.Micros()
	dt := float64(ElapsedMicros(now, e.lastServiceMicros)) / MicrosPerSecond
	e.lastServiceMicros = now

	s := &e.state

	target, arrived := e.desiredSpeed()
	if arrived {
		s.Mode = ModeIdle
		s.Speed = 0
		e.stepping = false
		e.Timing.Record(EvtArrive, now, s.Position, 0)
		e.log.Debug("[MOTOR] Arrived at " + Itoa64(s.Position))
		return
	}

	// Ramp toward the desired speed by at most accel*dt, never overshooting
	maxDeltaV := s.Acceleration * dt
	if s.Speed < target {
		s.Speed += maxDeltaV
		if s.Speed > target {
			s.Speed = target
		}
	} else if s.Speed > target {
		s.Speed -= maxDeltaV
		if s.Speed < target {
			s.Speed = target
		}
	}

	speedAbs := math.Abs(s.Speed)
	if speedAbs < MinSpeed {
		e.stepping = false
		return
	}

	interval := uint32(MicrosPerSecond / speedAbs)
	if !e.stepping {
		// Leaving rest: the first step is due now, not late by the idle time
		e.stepping = true
		e.lastStepMicros = now - interval
	}
	sinceStep := ElapsedMicros(now, e.lastStepMicros)
	if sinceStep < interval {
		return
	}

	e.lastStepMicros = now
	e.step()

	if sinceStep >= 2*interval {
		e.Timing.Record(EvtLateStep, now, s.Position, sinceStep-interval)
	} else {
		e.Timing.Record(EvtStep, now, s.Position, interval)
	}
}

// step emits one pulse in the direction of the current speed
func (e *MotionEngine) step() {
	up := e.state.Speed > 0
	if !e.dirValid || up != e.dirUp {
		e.backend.SetDirection(up)
		e.dirUp = up
		e.dirValid = true
	}

	e.backend.Step()

	if up {
		e.state.Position++
	} else {
		e.state.Position--
	}
}
