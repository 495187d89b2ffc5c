package lift

import (
	"strings"
	"testing"

	"steplift/core"
	"steplift/sim"
)

type smFixture struct {
	sm     *StateMachine
	motor  *fakeMotor
	clock  *sim.Clock
	calib  *Calibrator
	floors *FloorMap
}

func newFixture(travel int64, log *core.Log) *smFixture {
	motor := &fakeMotor{}
	clock := sim.NewClock(5000)
	floors := NewFloorMap(log)
	if travel > 0 {
		floors.SetFullTravelSteps(travel)
	}
	cfg := DefaultConfig()
	calib := NewCalibrator(cfg.Calibration, motor, floors, log)
	sm := NewStateMachine(cfg, motor, calib, floors, clock, log)
	sm.Init()
	return &smFixture{sm: sm, motor: motor, clock: clock, calib: calib, floors: floors}
}

// enter drives a calibrated fixture into state using commands only
func (f *smFixture) enter(t *testing.T, state State) {
	t.Helper()
	switch state {
	case StateIdle:
	case StateMoving:
		f.sm.MoveToFloor(3)
	case StateManualMove:
		f.sm.ManualUpStart()
	case StateCalibHomingUp:
		f.sm.StartCalibration()
	case StateCalibMovingDown:
		f.sm.StartCalibration()
		f.sm.Service(InputSample{TopSwitch: true})
	case StateError:
		f.sm.MoveToFloor(3)
		f.sm.Service(InputSample{TopSwitch: true})
	case StateNeedCalibration:
		f.sm.ForceNeedCalibration()
	default:
		t.Fatalf("cannot enter %s", state)
	}
	if f.sm.State() != state {
		t.Fatalf("Expected fixture in %s, got %s", state, f.sm.State())
	}
}

func TestBootWithoutCalibration(t *testing.T) {
	f := newFixture(0, nil)

	if f.sm.State() != StateNeedCalibration {
		t.Fatalf("Expected NEED_CALIB, got %s", f.sm.State())
	}

	f.sm.MoveToFloor(1)
	if f.sm.State() != StateNeedCalibration {
		t.Errorf("Expected NEED_CALIB after rejected move, got %s", f.sm.State())
	}
	if f.motor.moveCalls != 0 {
		t.Errorf("Expected no move issued, got %d", f.motor.moveCalls)
	}

	// Init is one-shot
	f.floors.SetFullTravelSteps(4800)
	f.sm.Init()
	if f.sm.State() != StateNeedCalibration {
		t.Errorf("Expected second Init to be ignored, got %s", f.sm.State())
	}
}

func TestBootWithCalibration(t *testing.T) {
	motor := &fakeMotor{pos: 2390}
	floors := NewFloorMap(nil)
	floors.SetFullTravelSteps(4800)
	cfg := DefaultConfig()
	calib := NewCalibrator(cfg.Calibration, motor, floors, nil)
	sm := NewStateMachine(cfg, motor, calib, floors, sim.NewClock(0), nil)

	if sm.State() != StateBoot {
		t.Fatalf("Expected BOOT before Init, got %s", sm.State())
	}
	sm.Init()

	if sm.State() != StateIdle {
		t.Errorf("Expected IDLE, got %s", sm.State())
	}
	if sm.Status().CurrentFloor != 2 {
		t.Errorf("Expected floor 2, got %d", sm.Status().CurrentFloor)
	}
}

func TestCalibrationScenario(t *testing.T) {
	f := newFixture(0, nil)

	f.sm.StartCalibration()
	if f.sm.State() != StateCalibHomingUp {
		t.Fatalf("Expected CALIB_HOMING_UP, got %s", f.sm.State())
	}
	if f.motor.manualDir != 1 {
		t.Errorf("Expected homing up, got dir %d", f.motor.manualDir)
	}

	f.motor.pos = 3100
	f.sm.Service(InputSample{TopSwitch: false})
	if f.sm.State() != StateCalibHomingUp {
		t.Errorf("Expected to keep homing without the switch, got %s", f.sm.State())
	}

	f.sm.Service(InputSample{TopSwitch: true})
	if f.sm.State() != StateCalibMovingDown {
		t.Fatalf("Expected CALIB_MOVING_DOWN, got %s", f.sm.State())
	}
	if f.motor.pos != 0 {
		t.Errorf("Expected position reference reset to 0, got %d", f.motor.pos)
	}
	if f.motor.moving {
		t.Error("Expected motor stopped on the switch")
	}

	f.sm.CalibDownStart()
	if f.motor.manualDir != -1 || !f.motor.fast {
		t.Errorf("Expected fast descent, got dir %d fast %v", f.motor.manualDir, f.motor.fast)
	}

	f.motor.pos = -5000
	f.sm.CalibDownSave()

	st := f.sm.Status()
	if st.State != StateIdle {
		t.Errorf("Expected IDLE after save, got %s", st.State)
	}
	if st.CurrentFloor != 1 || st.TargetFloor != 0 {
		t.Errorf("Expected floor 1 / target 0, got %d / %d", st.CurrentFloor, st.TargetFloor)
	}
	if f.calib.FullTravelSteps() != 4800 {
		t.Errorf("Expected travel 4800, got %d", f.calib.FullTravelSteps())
	}
	want := map[uint8]int64{1: 0, 2: 2400, 3: 4800}
	for floor, pos := range want {
		if got := f.floors.PositionForFloor(floor); got != pos {
			t.Errorf("Expected floor %d at %d, got %d", floor, pos, got)
		}
	}
}

func TestMoveToFloorIssuesMove(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(2)
	st := f.sm.Status()
	if st.State != StateMoving {
		t.Fatalf("Expected MOVING, got %s", st.State)
	}
	if f.motor.target != 2400 || f.motor.moveCalls != 1 {
		t.Errorf("Expected one move to 2400, got %d calls to %d", f.motor.moveCalls, f.motor.target)
	}
	if st.TargetFloor != 2 || st.TargetPosition != 2400 {
		t.Errorf("Expected target floor 2 at 2400, got %d at %d", st.TargetFloor, st.TargetPosition)
	}
	if st.MotionStart != f.clock.Micros() {
		t.Errorf("Expected motion start %d, got %d", f.clock.Micros(), st.MotionStart)
	}

	// Still in flight
	f.motor.pos = 1000
	f.sm.Service(InputSample{})
	if f.sm.State() != StateMoving {
		t.Errorf("Expected MOVING mid-flight, got %s", f.sm.State())
	}

	// Within tolerance counts as arrival
	f.motor.pos = 2391
	f.sm.Service(InputSample{})
	st = f.sm.Status()
	if st.State != StateIdle || st.CurrentFloor != 2 || st.TargetFloor != 0 {
		t.Errorf("Expected IDLE at floor 2, got %s floor %d target %d", st.State, st.CurrentFloor, st.TargetFloor)
	}
	if f.motor.stopCalls != 1 {
		t.Errorf("Expected motor stopped on arrival, got %d stops", f.motor.stopCalls)
	}
}

func TestMoveToFloorRetarget(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.motor.pos = 3000
	f.sm.MoveToFloor(1)

	if f.sm.State() != StateMoving || f.motor.target != 0 {
		t.Errorf("Expected retarget to floor 1, got %s target %d", f.sm.State(), f.motor.target)
	}
}

func TestMoveToFloorInvalidFloor(t *testing.T) {
	f := newFixture(4800, nil)

	for _, floor := range []uint8{0, 4, 9} {
		f.sm.MoveToFloor(floor)
		if f.sm.State() != StateIdle || f.motor.moveCalls != 0 {
			t.Errorf("Expected floor %d rejected, got %s with %d moves", floor, f.sm.State(), f.motor.moveCalls)
		}
	}
}

func TestAlreadyAtFloor(t *testing.T) {
	f := newFixture(4800, nil)
	f.motor.pos = 2405

	f.sm.MoveToFloor(2)

	st := f.sm.Status()
	if st.State != StateIdle {
		t.Errorf("Expected IDLE, got %s", st.State)
	}
	if st.CurrentFloor != 2 {
		t.Errorf("Expected floor 2, got %d", st.CurrentFloor)
	}
	if f.motor.moveCalls != 0 {
		t.Errorf("Expected no physical move, got %d", f.motor.moveCalls)
	}
}

func TestAlreadyAtFloorWhileMovingStops(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.motor.pos = 2400
	stops := f.motor.stopCalls
	f.sm.MoveToFloor(2)

	if f.sm.State() != StateIdle || f.sm.Status().CurrentFloor != 2 {
		t.Errorf("Expected IDLE at floor 2, got %s floor %d", f.sm.State(), f.sm.Status().CurrentFloor)
	}
	if f.motor.stopCalls != stops+1 || f.motor.moving {
		t.Error("Expected the running move to be stopped")
	}
}

func TestMotionTimeout(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.clock.Advance(20000 * 1000)
	f.sm.Service(InputSample{})
	if f.sm.State() != StateMoving {
		t.Fatalf("Expected MOVING exactly at the timeout, got %s", f.sm.State())
	}

	f.clock.Advance(1)
	f.sm.Service(InputSample{})

	st := f.sm.Status()
	if st.State != StateError {
		t.Fatalf("Expected ERROR, got %s", st.State)
	}
	if st.Error != ErrMotionTimeout {
		t.Errorf("Expected error code 1, got %d", st.Error)
	}
	if f.motor.moving {
		t.Error("Expected motor stopped")
	}
}

func TestMotionTimeoutAcrossClockWrap(t *testing.T) {
	f := newFixture(4800, nil)
	f.clock.Set(0xFFFFFF00)

	f.sm.MoveToFloor(3)
	f.clock.Advance(1000)
	f.sm.Service(InputSample{})
	if f.sm.State() != StateMoving {
		t.Errorf("Expected MOVING after wrap, got %s", f.sm.State())
	}

	f.clock.Advance(20000 * 1000)
	f.sm.Service(InputSample{})
	if f.sm.Status().Error != ErrMotionTimeout {
		t.Errorf("Expected timeout after wrap, got %s", f.sm.Status().Error)
	}
}

func TestArrivalWinsOverTimeout(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.clock.Advance(30000 * 1000)
	f.motor.pos = 4795
	f.sm.Service(InputSample{TopSwitch: true})

	st := f.sm.Status()
	if st.State != StateIdle || st.Error != ErrNone || st.CurrentFloor != 3 {
		t.Errorf("Expected arrival at floor 3, got %s error %d floor %d", st.State, st.Error, st.CurrentFloor)
	}
}

func TestTimeoutWinsOverTopSwitch(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.clock.Advance(30000 * 1000)
	f.sm.Service(InputSample{TopSwitch: true})

	if f.sm.Status().Error != ErrMotionTimeout {
		t.Errorf("Expected timeout code, got %s", f.sm.Status().Error)
	}
}

func TestUnexpectedTopSwitch(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.motor.pos = 1500
	f.sm.Service(InputSample{TopSwitch: true})

	st := f.sm.Status()
	if st.State != StateError || st.Error != ErrUnexpectedLimitSwitch {
		t.Errorf("Expected ERROR code 2, got %s code %d", st.State, st.Error)
	}
	if f.motor.moving {
		t.Error("Expected motor stopped")
	}
}

func TestTopSwitchIgnoredMovingDown(t *testing.T) {
	f := newFixture(4800, nil)
	f.motor.pos = 4800

	f.sm.MoveToFloor(1)
	f.sm.Service(InputSample{TopSwitch: true})

	if f.sm.State() != StateMoving {
		t.Errorf("Expected MOVING when descending with the switch closed, got %s", f.sm.State())
	}
}

func TestStop(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.motor.pos = 1000
	f.sm.Stop()

	st := f.sm.Status()
	if st.State != StateIdle || st.TargetFloor != 0 {
		t.Errorf("Expected IDLE with no target, got %s target %d", st.State, st.TargetFloor)
	}
	if st.CurrentFloor != 0 {
		t.Errorf("Expected unknown floor between floors, got %d", st.CurrentFloor)
	}

	// Always safe
	stops := f.motor.stopCalls
	f.sm.Stop()
	if f.sm.State() != StateIdle || f.motor.stopCalls != stops+1 {
		t.Error("Expected STOP in IDLE to stop the motor and keep IDLE")
	}

	f.sm.ForceNeedCalibration()
	f.sm.Stop()
	if f.sm.State() != StateNeedCalibration {
		t.Errorf("Expected STOP to keep NEED_CALIB, got %s", f.sm.State())
	}
}

func TestManualMove(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.ManualDownStart()
	if f.sm.State() != StateManualMove || f.motor.manualDir != -1 {
		t.Fatalf("Expected manual down, got %s dir %d", f.sm.State(), f.motor.manualDir)
	}

	f.sm.ManualUpStart()
	if f.motor.manualDir != 1 {
		t.Errorf("Expected direction reversal to up, got %d", f.motor.manualDir)
	}

	f.motor.pos = 4803
	f.sm.ManualStop()
	st := f.sm.Status()
	if st.State != StateIdle || f.motor.moving {
		t.Errorf("Expected IDLE and stopped, got %s", st.State)
	}
	if st.CurrentFloor != 3 {
		t.Errorf("Expected floor 3 resolved from position, got %d", st.CurrentFloor)
	}
}

func TestManualMoveWhileMovingCancelsTarget(t *testing.T) {
	f := newFixture(4800, nil)

	f.sm.MoveToFloor(3)
	f.sm.ManualDownStart()

	st := f.sm.Status()
	if st.State != StateManualMove || st.TargetFloor != 0 {
		t.Errorf("Expected MANUAL_MOVE with no target, got %s target %d", st.State, st.TargetFloor)
	}
}

func TestCommandGuards(t *testing.T) {
	type command struct {
		name string
		run  func(*StateMachine)
	}
	commands := map[string]command{
		"calib":      {"StartCalibration", (*StateMachine).StartCalibration},
		"downStart":  {"CalibDownStart", (*StateMachine).CalibDownStart},
		"downSave":   {"CalibDownSave", (*StateMachine).CalibDownSave},
		"manUp":      {"ManualUpStart", (*StateMachine).ManualUpStart},
		"manDown":    {"ManualDownStart", (*StateMachine).ManualDownStart},
		"manStop":    {"ManualStop", (*StateMachine).ManualStop},
		"clearError": {"ClearError", (*StateMachine).ClearError},
		"floor2":     {"MoveToFloor(2)", func(sm *StateMachine) { sm.MoveToFloor(2) }},
	}

	tests := []struct {
		from  State
		cmd   string
		after State
	}{
		{StateMoving, "calib", StateMoving},
		{StateManualMove, "calib", StateManualMove},
		{StateIdle, "calib", StateCalibHomingUp},
		{StateNeedCalibration, "calib", StateCalibHomingUp},
		{StateError, "calib", StateCalibHomingUp},
		{StateCalibMovingDown, "calib", StateCalibHomingUp},

		{StateIdle, "downStart", StateIdle},
		{StateCalibHomingUp, "downStart", StateCalibHomingUp},
		{StateCalibMovingDown, "downStart", StateCalibMovingDown},
		{StateIdle, "downSave", StateIdle},
		{StateCalibHomingUp, "downSave", StateCalibHomingUp},
		{StateCalibMovingDown, "downSave", StateIdle},

		{StateError, "manUp", StateError},
		{StateCalibHomingUp, "manUp", StateCalibHomingUp},
		{StateCalibMovingDown, "manDown", StateCalibMovingDown},
		{StateIdle, "manUp", StateManualMove},
		{StateNeedCalibration, "manDown", StateManualMove},
		{StateMoving, "manDown", StateManualMove},

		{StateIdle, "manStop", StateIdle},
		{StateMoving, "manStop", StateMoving},
		{StateManualMove, "manStop", StateIdle},

		{StateIdle, "clearError", StateIdle},
		{StateMoving, "clearError", StateMoving},
		{StateError, "clearError", StateIdle},

		{StateError, "floor2", StateError},
		{StateCalibHomingUp, "floor2", StateCalibHomingUp},
		{StateCalibMovingDown, "floor2", StateCalibMovingDown},
		{StateNeedCalibration, "floor2", StateNeedCalibration},
		{StateManualMove, "floor2", StateManualMove},
		{StateIdle, "floor2", StateMoving},
		{StateMoving, "floor2", StateMoving},
	}

	for _, tt := range tests {
		f := newFixture(4800, nil)
		f.enter(t, tt.from)
		cmd := commands[tt.cmd]

		cmd.run(f.sm)
		if f.sm.State() != tt.after {
			t.Errorf("%s from %s: expected %s, got %s", cmd.name, tt.from, tt.after, f.sm.State())
		}
	}
}

func TestClearErrorWithoutCalibration(t *testing.T) {
	f := newFixture(4800, nil)
	f.enter(t, StateError)

	f.calib.ForceReset()
	f.sm.ClearError()

	st := f.sm.Status()
	if st.State != StateNeedCalibration || st.Error != ErrNone {
		t.Errorf("Expected NEED_CALIB with no error, got %s code %d", st.State, st.Error)
	}
}

func TestForceNeedCalibration(t *testing.T) {
	f := newFixture(4800, nil)
	f.sm.MoveToFloor(3)

	f.sm.ForceNeedCalibration()

	st := f.sm.Status()
	if st.State != StateNeedCalibration || st.Error != ErrNone || st.TargetFloor != 0 {
		t.Errorf("Unexpected status after force: %+v", st)
	}
	if f.motor.moving {
		t.Error("Expected motor stopped")
	}
}

func TestServiceFeedsPotentiometer(t *testing.T) {
	f := newFixture(0, nil)

	f.sm.Service(InputSample{PotRaw: 1234, PotValid: true})
	if f.motor.potRaw != 1234 {
		t.Errorf("Expected pot 1234 applied, got %d", f.motor.potRaw)
	}

	f.sm.Service(InputSample{PotRaw: 99})
	if f.motor.potRaw != 1234 {
		t.Errorf("Expected invalid pot sample ignored, got %d", f.motor.potRaw)
	}
}

func TestErrorDumpsTimingRing(t *testing.T) {
	var lines []string
	log := core.NewLog(func(s string) { lines = append(lines, s) }, core.LevelInfo)

	f := newFixture(4800, log)
	f.sm.Timing = &core.TimingRing{}
	f.sm.Timing.Record(core.EvtStep, 100, 1, 500)

	f.enter(t, StateError)

	var dumped bool
	for _, line := range lines {
		if strings.Contains(line, "[TIMING] STEP") {
			dumped = true
		}
	}
	if !dumped {
		t.Errorf("Expected timing ring dump in log, got %q", lines)
	}
}

func TestCurrentFloorUnknownWhileTravelling(t *testing.T) {
	f := newFixture(4800, nil)
	start := f.sm.Status().CurrentFloor
	if start == 0 {
		t.Fatal("Expected a known floor after boot")
	}

	f.enter(t, StateMoving)
	if got := f.sm.Status().CurrentFloor; got != 0 {
		t.Errorf("Expected floor 0 while moving away from floor %d, got %d", start, got)
	}
	if got := f.sm.Status().TargetFloor; got != 3 {
		t.Errorf("Expected target floor 3, got %d", got)
	}

	f.sm.Stop()
	f.enter(t, StateManualMove)
	if got := f.sm.Status().CurrentFloor; got != 0 {
		t.Errorf("Expected floor 0 while jogging, got %d", got)
	}

	f.sm.ManualStop()
	if got := f.sm.Status().CurrentFloor; got != f.floors.FloorAt(f.motor.pos, DefaultPositionTolerance) {
		t.Errorf("Expected floor resolved from position after jog, got %d", got)
	}
}
