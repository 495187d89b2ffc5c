package lift

import (
	"steplift/core"
)

// InputSample is one tick's worth of raw inputs
type InputSample struct {
	TopSwitch bool   // Top limit switch closed (debounced)
	PotRaw    uint16 // Speed potentiometer reading, 0..4095
	PotValid  bool   // PotRaw was read this tick
}

// StateMachine is the supervisory controller. It owns the operating state,
// gates every command by state and detects motion faults. All methods run on
// the control loop; none of them block.
type StateMachine struct {
	motor  Motor
	calib  *Calibrator
	floors *FloorMap
	clock  core.Clock
	log    *core.Log

	// Timing is dumped to the log when the lift faults (optional)
	Timing *core.TimingRing

	tolerance     int64
	timeoutMicros uint32

	state          State
	currentFloor   uint8 // 0 while travelling or jogging
	targetFloor    uint8
	targetPosition int64
	errorCode      ErrorCode
	motionStart    uint32
}

// NewStateMachine creates a machine in StateBoot. Call Init before Service.
func NewStateMachine(cfg Config, motor Motor, calib *Calibrator, floors *FloorMap, clock core.Clock, log *core.Log) *StateMachine {
	if log == nil {
		log = core.NopLog()
	}
	tol := cfg.PositionTolerance
	if tol < 0 {
		tol = 0
	}
	timeout := cfg.MotionTimeoutMs
	if timeout == 0 {
		timeout = DefaultMotionTimeoutMs
	}

	return &StateMachine{
		motor:         motor,
		calib:         calib,
		floors:        floors,
		clock:         clock,
		log:           log,
		tolerance:     tol,
		timeoutMicros: core.MillisToMicros(timeout),
		state:         StateBoot,
	}
}

// Init leaves StateBoot for Idle when a calibration is present, otherwise
// for NeedCalibration. It has no effect once the machine has booted.
func (sm *StateMachine) Init() {
	if sm.state != StateBoot {
		return
	}

	if sm.calib.Valid() {
		sm.state = StateIdle
		sm.currentFloor = sm.floors.NearestFloor(sm.motor.Position())
		sm.log.Info("[SM] Calibration OK, starting in IDLE")
		return
	}

	sm.state = StateNeedCalibration
	sm.log.Info("[SM] No calibration, NEED_CALIB")
}

// State returns the current operating state
func (sm *StateMachine) State() State {
	return sm.state
}

// Status returns a snapshot for reporters
func (sm *StateMachine) Status() Status {
	return Status{
		State:          sm.state,
		CurrentFloor:   sm.currentFloor,
		TargetFloor:    sm.targetFloor,
		TargetPosition: sm.targetPosition,
		Position:       sm.motor.Position(),
		Error:          sm.errorCode,
		MotionStart:    sm.motionStart,
	}
}

// Service runs one tick: it applies the speed ceiling and evaluates the
// autonomous transitions of the current state.
func (sm *StateMachine) Service(in InputSample) {
	if in.PotValid {
		sm.motor.SetSpeedFromPot(in.PotRaw)
	}

	switch sm.state {
	case StateCalibHomingUp:
		if in.TopSwitch {
			sm.log.Info("[SM] CALIB: reached top switch")
			sm.calib.OnTopReached()
			sm.state = StateCalibMovingDown
		}

	case StateMoving:
		sm.serviceMoving(in.TopSwitch)

	default:
		// Boot, NeedCalibration, CalibMovingDown, Idle, ManualMove and Error
		// only change state on commands
	}
}

// serviceMoving checks arrival, then the watchdog, then the top switch.
// The first check that fires decides the tick.
func (sm *StateMachine) serviceMoving(topSwitch bool) {
	diff := sm.targetPosition - sm.motor.Position()

	if absSteps(diff) <= sm.tolerance {
		sm.motor.Stop()
		sm.currentFloor = sm.targetFloor
		sm.targetFloor = 0
		sm.state = StateIdle
		sm.log.Info("[SM] Reached target floor: " + core.Itoa(int(sm.currentFloor)))
		return
	}

	if core.ElapsedMicros(sm.clock.Micros(), sm.motionStart) > sm.timeoutMicros {
		sm.log.Warn("[SM] Motion timeout! ERROR")
		sm.fault(ErrMotionTimeout)
		return
	}

	if topSwitch && diff > 0 {
		sm.log.Warn("[SM] Unexpected top switch! ERROR")
		sm.fault(ErrUnexpectedLimitSwitch)
	}
}

// fault halts the motor and latches the error until ClearError
func (sm *StateMachine) fault(code ErrorCode) {
	sm.motor.Stop()
	sm.state = StateError
	sm.errorCode = code
	sm.currentFloor = 0
	sm.log.Info("[SM] Error " + core.Itoa(int(code)) + " (" + code.String() + ")")
	sm.Timing.Dump(sm.log)
}

// MoveToFloor starts a move to floor f (1..3).
// Allowed only from Idle or Moving with a valid calibration.
func (sm *StateMachine) MoveToFloor(f uint8) {
	switch sm.state {
	case StateNeedCalibration, StateCalibHomingUp, StateCalibMovingDown:
		sm.log.Info("[SM] Move command ignored: NEED_CALIB/CALIB")
		return
	case StateError:
		sm.log.Info("[SM] Move command ignored: ERROR state")
		return
	}
	if f < 1 || f > NumFloors {
		sm.log.Info("[SM] Invalid floor")
		return
	}
	if sm.state != StateIdle && sm.state != StateMoving {
		sm.log.Info("[SM] Move command ignored: not in IDLE/MOVING")
		return
	}
	if !sm.calib.Valid() {
		sm.log.Info("[SM] Move command ignored: no calibration")
		return
	}

	pos := sm.motor.Position()
	dest := sm.floors.PositionForFloor(f)

	if absSteps(dest-pos) <= sm.tolerance {
		if sm.state == StateMoving {
			sm.motor.Stop()
		}
		sm.currentFloor = f
		sm.targetFloor = 0
		sm.state = StateIdle
		sm.log.Info("[SM] Already at floor " + core.Itoa(int(f)))
		return
	}

	sm.targetFloor = f
	sm.targetPosition = dest
	sm.currentFloor = 0
	sm.state = StateMoving
	sm.motionStart = sm.clock.Micros()
	sm.motor.MoveTo(dest)

	sm.log.Info("[SM] Moving to floor " + core.Itoa(int(f)) +
		" (target pos " + core.Itoa64(dest) + ")")
}

// Stop halts the motor in any state. A floor move or jog ends in Idle.
func (sm *StateMachine) Stop() {
	sm.motor.Stop()

	if sm.state == StateMoving || sm.state == StateManualMove {
		sm.state = StateIdle
		sm.targetFloor = 0
		sm.currentFloor = sm.floors.FloorAt(sm.motor.Position(), sm.tolerance)
		sm.log.Info("[SM] STOP: motor stopped, go to IDLE")
		return
	}
	sm.log.Info("[SM] STOP: no movement")
}

// StartCalibration begins homing up. Rejected while the car is moving.
func (sm *StateMachine) StartCalibration() {
	if sm.state == StateMoving || sm.state == StateManualMove {
		sm.log.Info("[SM] Cannot start calib while moving")
		return
	}

	sm.log.Info("[SM] Start calibration: homing up")
	sm.state = StateCalibHomingUp
	sm.errorCode = ErrNone
	sm.currentFloor = 0
	sm.targetFloor = 0
	sm.calib.StartHomingUp()
}

// CalibDownStart starts the fast descent once the top has been found
func (sm *StateMachine) CalibDownStart() {
	if sm.state != StateCalibMovingDown {
		sm.log.Info("[SM] CALIB_DOWN_START ignored: not in CALIB_MOVING_DOWN")
		return
	}
	sm.log.Info("[SM] Start moving down for calibration")
	sm.calib.StartMovingDown()
}

// CalibDownSave records the bottom and finishes calibration on floor 1
func (sm *StateMachine) CalibDownSave() {
	if sm.state != StateCalibMovingDown {
		sm.log.Info("[SM] CALIB_DOWN_SAVE ignored: not in CALIB_MOVING_DOWN")
		return
	}
	sm.log.Info("[SM] Save bottom position")
	sm.calib.SaveBottom()
	sm.currentFloor = 1
	sm.targetFloor = 0
	sm.state = StateIdle
}

// ManualUpStart jogs up
func (sm *StateMachine) ManualUpStart() {
	if !sm.manualAllowed() {
		sm.log.Info("[SM] MAN_UP ignored in current state")
		return
	}
	sm.log.Info("[SM] Manual move UP")
	sm.enterManual(1)
}

// ManualDownStart jogs down
func (sm *StateMachine) ManualDownStart() {
	if !sm.manualAllowed() {
		sm.log.Info("[SM] MAN_DOWN ignored in current state")
		return
	}
	sm.log.Info("[SM] Manual move DOWN")
	sm.enterManual(-1)
}

func (sm *StateMachine) manualAllowed() bool {
	switch sm.state {
	case StateError, StateCalibHomingUp, StateCalibMovingDown:
		return false
	}
	return true
}

func (sm *StateMachine) enterManual(dir int8) {
	sm.state = StateManualMove
	sm.targetFloor = 0
	sm.currentFloor = 0
	sm.motor.ManualDirection(dir)
}

// ManualStop ends a jog
func (sm *StateMachine) ManualStop() {
	if sm.state != StateManualMove {
		sm.log.Debug("[SM] MAN_STOP ignored: not in MANUAL_MOVE")
		return
	}
	sm.log.Info("[SM] Manual move STOP")
	sm.motor.Stop()
	sm.state = StateIdle
	sm.currentFloor = sm.floors.FloorAt(sm.motor.Position(), sm.tolerance)
}

// ClearError leaves StateError for Idle, or NeedCalibration when the
// calibration is gone
func (sm *StateMachine) ClearError() {
	if sm.state != StateError {
		sm.log.Info("[SM] CLEAR: not in ERROR")
		return
	}
	sm.log.Info("[SM] CLEAR: error cleared")
	sm.errorCode = ErrNone
	sm.targetFloor = 0

	if sm.calib.Valid() {
		sm.state = StateIdle
		sm.currentFloor = sm.floors.FloorAt(sm.motor.Position(), sm.tolerance)
		return
	}
	sm.state = StateNeedCalibration
}

// ForceNeedCalibration unconditionally stops the motor and demands a new
// calibration (hard reset input)
func (sm *StateMachine) ForceNeedCalibration() {
	sm.log.Info("[SM] Force NEED_CALIB")
	sm.motor.Stop()
	sm.state = StateNeedCalibration
	sm.errorCode = ErrNone
	sm.targetFloor = 0
	sm.currentFloor = 0
}
