//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/hd44780i2c"

	"steplift/core"
	"steplift/lift"
)

const (
	displayWidth  = 16
	displayHeight = 2

	// I2C writes to the backpack take milliseconds; redraw at most this often
	displayRefreshMicros = 250000
)

// StatusDisplay shows the lift state on a 16x2 HD44780 behind a PCF8574
// backpack on I2C0 (SDA=GP4, SCL=GP5).
type StatusDisplay struct {
	lcd        hd44780i2c.Device
	lines      [displayHeight]string
	lastUpdate uint32
}

// NewStatusDisplay configures I2C0 and the LCD. addr 0 uses 0x27.
func NewStatusDisplay(addr uint8) (*StatusDisplay, error) {
	if addr == 0 {
		addr = 0x27
	}

	err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 100000,
	})
	if err != nil {
		return nil, err
	}

	d := &StatusDisplay{lcd: hd44780i2c.New(machine.I2C0, addr)}
	d.lcd.Configure(hd44780i2c.Config{
		Width:  displayWidth,
		Height: displayHeight,
	})
	d.lcd.ClearDisplay()
	return d, nil
}

// Update redraws the lines that changed since the last refresh
func (d *StatusDisplay) Update(st lift.Status, now uint32) {
	if core.ElapsedMicros(now, d.lastUpdate) < displayRefreshMicros {
		return
	}
	d.lastUpdate = now

	lines := statusLines(st)
	for row, text := range lines {
		if text == d.lines[row] {
			continue
		}
		d.lines[row] = text
		d.lcd.SetCursor(0, uint8(row))
		d.lcd.Print([]byte(text))
	}
}

// statusLines renders a status snapshot as two padded LCD rows
func statusLines(st lift.Status) [displayHeight]string {
	top := st.State.String()
	if st.State == lift.StateError {
		top += " " + st.Error.String()
	}

	floor := "-"
	if st.CurrentFloor != 0 {
		floor = core.Itoa(int(st.CurrentFloor))
	}
	bottom := "F" + floor
	if st.TargetFloor != 0 {
		bottom += ">" + core.Itoa(int(st.TargetFloor))
	}
	bottom += " " + core.Itoa64(st.Position)

	return [displayHeight]string{pad(top), pad(bottom)}
}

func pad(s string) string {
	if len(s) > displayWidth {
		return s[:displayWidth]
	}
	for len(s) < displayWidth {
		s += " "
	}
	return s
}
