package sim

// Backend is a StepperBackend that counts pulses instead of driving pins
type Backend struct {
	Up       bool  // Direction line (true = up)
	Steps    int64 // Net signed pulse count
	Pulses   int   // Total pulses emitted
	DirFlips int   // Direction changes
	Stops    int   // Stop calls

	// OnStep, if set, is called after every pulse with the direction
	OnStep func(up bool)

	invertDir bool
}

// Init records the polarity; pins are ignored
func (b *Backend) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.invertDir = invertDir
	return nil
}

// Step emits one simulated pulse
func (b *Backend) Step() {
	up := b.Up != b.invertDir
	if up {
		b.Steps++
	} else {
		b.Steps--
	}
	b.Pulses++
	if b.OnStep != nil {
		b.OnStep(up)
	}
}

// SetDirection latches the direction line
func (b *Backend) SetDirection(dir bool) {
	if dir != b.Up {
		b.DirFlips++
	}
	b.Up = dir
}

// Stop counts stop requests
func (b *Backend) Stop() {
	b.Stops++
}

// GetName returns backend implementation name
func (b *Backend) GetName() string {
	return "SIM"
}
