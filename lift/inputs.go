package lift

import (
	"steplift/core"
)

// Inputs samples the top limit switch and the speed potentiometer
type Inputs struct {
	top *core.Endstop

	adc        core.ADCDriver
	potChannel core.ADCChannelID
	potEnabled bool
	potRaw     uint16
	potErrors  uint32

	log *core.Log
}

// NewInputs configures the switch pin and, when enabled, the ADC channel
func NewInputs(cfg Config, gpio core.GPIODriver, adc core.ADCDriver, log *core.Log) (*Inputs, error) {
	if log == nil {
		log = core.NopLog()
	}

	// Active-low switches close to ground and need the pull-up
	pullUp := !cfg.Pins.TopSwitchHigh
	top, err := core.NewEndstop(gpio, "top", cfg.Pins.TopSwitchPin, cfg.Pins.TopSwitchHigh, pullUp,
		core.MillisToMicros(cfg.SwitchSettleMs))
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		top:        top,
		adc:        adc,
		potChannel: cfg.Pins.PotChannel,
		log:        log,
	}

	if adc != nil && cfg.Pins.PotEnabled {
		if err := adc.Init(core.ADCConfig{}); err != nil {
			return nil, err
		}
		if err := adc.ConfigureChannel(cfg.Pins.PotChannel); err != nil {
			return nil, err
		}
		in.potEnabled = true
	}

	log.Info("[IO] Init")
	return in, nil
}

// Sample reads all inputs for one tick.
// A failed potentiometer read leaves PotValid false so the speed ceiling is kept.
func (in *Inputs) Sample(now uint32) InputSample {
	sample := InputSample{
		TopSwitch: in.top.Update(now),
	}

	if in.potEnabled {
		raw, err := in.adc.ReadRaw(in.potChannel)
		if err != nil {
			in.potErrors++
			if in.potErrors == 1 {
				in.log.Warn("[IO] Potentiometer read failed: " + err.Error())
			}
		} else {
			if raw > core.ADCMax {
				raw = core.ADCMax
			}
			in.potRaw = uint16(raw)
			sample.PotRaw = in.potRaw
			sample.PotValid = true
		}
	}

	return sample
}

// TopSwitch returns the last confirmed switch state
func (in *Inputs) TopSwitch() bool {
	return in.top.Triggered()
}

// PotRaw returns the last good potentiometer reading
func (in *Inputs) PotRaw() uint16 {
	return in.potRaw
}
