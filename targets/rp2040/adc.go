//go:build rp2040

package main

import (
	"machine"

	"steplift/core"
)

// RpAdcDriver implements core.ADCDriver using TinyGo's machine.ADC.
// Channels 0-3 are GP26-GP29.
type RpAdcDriver struct {
	channels [4]*machine.ADC
}

// NewRPAdcDriver constructs the driver but does not Init() it yet.
func NewRPAdcDriver() *RpAdcDriver {
	return &RpAdcDriver{}
}

func (d *RpAdcDriver) Init(cfg core.ADCConfig) error {
	machine.InitADC()
	return nil
}

// ConfigureChannel sets the channel's pin to analog mode
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	if int(ch) >= len(d.channels) {
		return errBadADCChannel
	}
	if d.channels[ch] != nil {
		return nil
	}

	pins := [4]machine.Pin{machine.ADC0, machine.ADC1, machine.ADC2, machine.ADC3}
	adc := machine.ADC{Pin: pins[ch]}
	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}

	d.channels[ch] = &adc
	return nil
}

// ReadRaw returns a raw 12-bit ADC value (0-4095) from a channel.
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if int(ch) >= len(d.channels) {
		return 0, errBadADCChannel
	}
	if d.channels[ch] == nil {
		if err := d.ConfigureChannel(ch); err != nil {
			return 0, err
		}
	}

	// machine.ADC.Get scales to 16 bits; the converter itself is 12-bit
	return core.ADCValue(d.channels[ch].Get() >> 4), nil
}
