package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"os"

	"steplift/core"
	"steplift/lift"
)

var (
	errSamePins       = errors.New("config: step and direction pins must differ")
	errSpeedBand      = errors.New("config: pot speed band is inverted")
	errTopMargin      = errors.New("config: top margin must not be negative")
	errTolerance      = errors.New("config: position tolerance must not be negative")
	errSwitchOnButton = errors.New("config: top switch shares a pin with a button")
	errTimingRange    = errors.New("config: timing value exceeds clock range")
)

// boardJSON is the configuration flashed with the firmware
//
//go:embed board.json
var boardJSON []byte

// LoadConfig parses a JSON configuration and returns a lift Config.
// Keys left out of the JSON keep the values of lift.DefaultConfig.
// Unknown keys are an error.
func LoadConfig(jsonData []byte) (*lift.Config, error) {
	config := lift.DefaultConfig()

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFile reads and parses a JSON configuration file
func LoadFile(path string) (*lift.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(data)
}

// BoardConfig returns the configuration embedded in the firmware image
func BoardConfig() (*lift.Config, error) {
	return LoadConfig(boardJSON)
}

// DefaultConfig returns the reference build configuration
func DefaultConfig() *lift.Config {
	config := lift.DefaultConfig()
	return &config
}

// applyDefaults replaces zero values that would disable the lift with
// sensible defaults
func applyDefaults(config *lift.Config) {
	motion := &config.Motion
	defaults := core.DefaultMotionConfig()

	// Default motion parameters
	if motion.MaxSpeed <= 0 {
		motion.MaxSpeed = defaults.MaxSpeed
	}
	if motion.Acceleration <= 0 {
		motion.Acceleration = defaults.Acceleration
	}
	if motion.ManualSpeed <= 0 {
		motion.ManualSpeed = defaults.ManualSpeed
	}
	if motion.FastDescentFactor <= 0 {
		motion.FastDescentFactor = defaults.FastDescentFactor
	}
	if motion.PotRawMax == 0 || motion.PotRawMax > core.ADCMax {
		motion.PotRawMax = core.ADCMax
	}
	if motion.PotSpeedMax <= 0 {
		motion.PotSpeedMin = defaults.PotSpeedMin
		motion.PotSpeedMax = defaults.PotSpeedMax
	}

	// Calibration
	if config.Calibration.MinTravelSteps <= 0 {
		config.Calibration.MinTravelSteps = lift.DefaultMinTravelSteps
	}

	// Supervision
	if config.MotionTimeoutMs == 0 {
		config.MotionTimeoutMs = lift.DefaultMotionTimeoutMs
	}
	if config.LongPressMs == 0 {
		config.LongPressMs = lift.DefaultLongPressMs
	}
	if config.Pins.PulseWidthMicro == 0 {
		config.Pins.PulseWidthMicro = 2
	}
}

// validate rejects configurations the controller cannot run safely
func validate(config *lift.Config) error {
	pins := config.Pins
	if pins.StepPin == pins.DirPin {
		return errSamePins
	}
	if config.Motion.PotSpeedMin > config.Motion.PotSpeedMax {
		return errSpeedBand
	}
	if config.Calibration.TopMarginSteps < 0 {
		return errTopMargin
	}
	if config.PositionTolerance < 0 {
		return errTolerance
	}
	top := int(pins.TopSwitchPin)
	if top == pins.StopButtonPin || top == pins.CalibButtonPin {
		return errSwitchOnButton
	}

	// Timeouts are compared as wrap-safe clock differences
	for _, ms := range []uint32{
		config.MotionTimeoutMs,
		config.SwitchSettleMs,
		config.ButtonSettleMs,
		config.LongPressMs,
		config.StatusIntervalMs,
	} {
		if ms > core.MaxIntervalMillis {
			return errTimingRange
		}
	}
	return nil
}
