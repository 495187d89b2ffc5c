// Package serial opens the lift controller console port. The controller
// speaks newline terminated text, so the port is a plain byte stream.
package serial

import (
	"io"
	"net"
)

// Port is a console connection: the native serial port on real hardware,
// an in-memory pipe in tests
type Port interface {
	io.ReadWriteCloser

	// Flush discards received data that has not been read yet
	Flush() error
}

// DefaultBaud is the lift controller console baud rate. USB CDC ignores it.
const DefaultBaud = 115200

// Config holds serial port configuration
type Config struct {
	Device      string // e.g. "/dev/ttyACM0", "COM3"
	Baud        int    // 0 = DefaultBaud
	ReadTimeout int    // Milliseconds; 0 blocks until data arrives
}

// DefaultConfig returns the console settings for device. Reads time out
// after 100 ms so readers can notice shutdown.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

// pipePort is one end of an in-memory console
type pipePort struct {
	net.Conn
}

// Flush is a no-op; a pipe never holds unread data
func (p pipePort) Flush() error {
	return nil
}

// Pipe returns two connected in-memory ports. Bytes written to one are read
// from the other, and a write blocks until the other end has read it.
func Pipe() (host, device Port) {
	a, b := net.Pipe()
	return pipePort{a}, pipePort{b}
}
