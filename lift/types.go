package lift

import (
	"steplift/core"
)

// NumFloors is the fixed number of stops in the shaft
const NumFloors = 3

// State is the lift's operating state. The ordinal is part of the status line.
type State uint8

const (
	StateBoot State = iota
	StateNeedCalibration
	StateCalibHomingUp
	StateCalibMovingDown
	StateIdle
	StateMoving
	StateManualMove
	StateError
)

// String returns the state name used in diagnostics and on the display
func (s State) String() string {
	switch s {
	case StateBoot:
		return "BOOT"
	case StateNeedCalibration:
		return "NEED_CALIB"
	case StateCalibHomingUp:
		return "CALIB_HOMING_UP"
	case StateCalibMovingDown:
		return "CALIB_MOVING_DOWN"
	case StateIdle:
		return "IDLE"
	case StateMoving:
		return "MOVING"
	case StateManualMove:
		return "MANUAL_MOVE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode identifies the fault that put the lift into StateError
type ErrorCode uint8

const (
	ErrNone                  ErrorCode = iota // No fault
	ErrMotionTimeout                          // Move did not finish in time
	ErrUnexpectedLimitSwitch                  // Top switch closed while moving up
)

// String returns the error name
func (e ErrorCode) String() string {
	switch e {
	case ErrNone:
		return "NONE"
	case ErrMotionTimeout:
		return "MOTION_TIMEOUT"
	case ErrUnexpectedLimitSwitch:
		return "UNEXPECTED_LIMIT_SWITCH"
	default:
		return "UNKNOWN"
	}
}

// Status is a snapshot of the state machine for reporters
type Status struct {
	State          State
	CurrentFloor   uint8 // 0 = unknown / between floors
	TargetFloor    uint8 // 0 = none
	TargetPosition int64
	Position       int64
	Error          ErrorCode
	MotionStart    uint32 // Clock (us) when the current move was issued
}

// PinConfig maps lift signals to hardware pins
type PinConfig struct {
	StepPin         uint8             `json:"step_pin"`         // Step pulse output
	DirPin          uint8             `json:"dir_pin"`          // Direction output
	EnablePin       int               `json:"enable_pin"`       // Driver enable output (-1 = not wired)
	InvertStep      bool              `json:"invert_step"`      // Step pulse is active low
	InvertDir       bool              `json:"invert_dir"`       // Swap up/down on the direction line
	InvertEnable    bool              `json:"invert_enable"`    // Driver is enabled when the pin is low
	TopSwitchPin    core.GPIOPin      `json:"top_switch_pin"`   // Top limit switch input
	TopSwitchHigh   bool              `json:"top_switch_high"`  // Switch reads high when closed (false = active low)
	StopButtonPin   int               `json:"stop_button_pin"`  // STOP button input (-1 = none)
	CalibButtonPin  int               `json:"calib_button_pin"` // CALIB button input (-1 = none)
	PotChannel      core.ADCChannelID `json:"pot_channel"`      // Speed potentiometer ADC channel
	PotEnabled      bool              `json:"pot_enabled"`      // Read the potentiometer every tick
	DisplayEnabled  bool              `json:"display_enabled"`  // Status LCD attached on the I2C bus
	DisplayI2CAddr  uint8             `json:"display_i2c_addr"` // LCD backpack address (0 = driver default)
	UsePIOStepper   bool              `json:"use_pio_stepper"`  // Generate step pulses with a PIO state machine
	PulseWidthMicro uint32            `json:"pulse_width_us"`   // Step pulse width (us)
}

// CalibrationConfig holds the calibration constants
type CalibrationConfig struct {
	TopMarginSteps int64 `json:"top_margin_steps"` // Clearance kept between the switch and floor 3
	MinTravelSteps int64 `json:"min_travel_steps"` // Shortest travel accepted (shorter is clamped up)
}

// Config is the complete lift configuration
type Config struct {
	Pins        PinConfig         `json:"pins"`
	Motion      core.MotionConfig `json:"motion"`
	Calibration CalibrationConfig `json:"calibration"`

	PositionTolerance int64  `json:"position_tolerance"` // Steps from a floor that count as "at the floor"
	MotionTimeoutMs   uint32 `json:"motion_timeout_ms"`  // Floor move watchdog
	SwitchSettleMs    uint32 `json:"switch_settle_ms"`   // Debounce time for the top switch
	ButtonSettleMs    uint32 `json:"button_settle_ms"`   // Debounce time for panel buttons
	LongPressMs       uint32 `json:"long_press_ms"`      // CALIB button hold time that forces recalibration
	StatusIntervalMs  uint32 `json:"status_interval_ms"` // Periodic status line (0 = only on STATUS)
}

// Defaults for fields left zero in a Config
const (
	DefaultTopMarginSteps    = 200
	DefaultMinTravelSteps    = 200
	DefaultPositionTolerance = 10
	DefaultMotionTimeoutMs   = 20000
	DefaultLongPressMs       = 3000
	DefaultButtonSettleMs    = 20
)

// DefaultConfig returns the configuration of the reference build:
// step/dir/enable on 18/19/21, switches and buttons active low with pull-ups,
// speed potentiometer on ADC channel 0.
func DefaultConfig() Config {
	return Config{
		Pins: PinConfig{
			StepPin:         18,
			DirPin:          19,
			EnablePin:       21,
			InvertEnable:    true,
			TopSwitchPin:    20,
			StopButtonPin:   16,
			CalibButtonPin:  17,
			PotChannel:      0,
			PotEnabled:      true,
			PulseWidthMicro: 2,
		},
		Motion: core.DefaultMotionConfig(),
		Calibration: CalibrationConfig{
			TopMarginSteps: DefaultTopMarginSteps,
			MinTravelSteps: DefaultMinTravelSteps,
		},
		PositionTolerance: DefaultPositionTolerance,
		MotionTimeoutMs:   DefaultMotionTimeoutMs,
		SwitchSettleMs:    0,
		ButtonSettleMs:    DefaultButtonSettleMs,
		LongPressMs:       DefaultLongPressMs,
	}
}
