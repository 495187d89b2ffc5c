package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

var errNilConfig = errors.New("serial: config cannot be nil")

// NativePort is a hardware serial port opened with github.com/tarm/serial.
// A read that times out returns 0, io.EOF.
type NativePort struct {
	port   *serial.Port
	device string
}

// Open opens the console device described by cfg
func Open(cfg *Config) (*NativePort, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return &NativePort{port: port, device: cfg.Device}, nil
}

func (p *NativePort) Read(b []byte) (int, error)  { return p.port.Read(b) }
func (p *NativePort) Write(b []byte) (int, error) { return p.port.Write(b) }

// Close closes the serial port
func (p *NativePort) Close() error {
	return p.port.Close()
}

// Flush discards data received but not yet read
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Device returns the device path the port was opened on
func (p *NativePort) Device() string {
	return p.device
}
