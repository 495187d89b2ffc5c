package core

// ADCChannelID identifies a logical ADC channel.
type ADCChannelID uint8

// ADCValue is the raw ADC reading as seen by the rest of the firmware.
// Convention here: 12-bit value in [0, ADCMax].
type ADCValue uint16

// ADCMax is the full-scale raw reading of a 12-bit converter
const ADCMax = 4095

// ADCConfig is the high-level config the core cares about.
type ADCConfig struct {
	Reference  uint32 // Reference voltage in millivolts (0 = target default)
	Resolution uint32 // Bits (0 = target default)
}

// ADCDriver is the abstract ADC interface that core code uses.
type ADCDriver interface {
	// Init powers up and configures the ADC peripheral.
	Init(cfg ADCConfig) error

	// ConfigureChannel prepares a channel for analog input.
	// For pin-muxed channels, this should set pin to analog mode.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw performs a one-shot sample from the given channel.
	// Returns a 12-bit value (0..ADCMax).
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}
