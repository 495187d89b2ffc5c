// Package link talks to a lift controller over its line-oriented console:
// it sends command tokens and tracks the status lines the controller prints.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"steplift/host/serial"
	"steplift/lift"
)

// ErrClosed is returned once the link has been closed or the port failed
var ErrClosed = errors.New("link closed")

// Tokens accepted by the controller console
var Tokens = []string{
	"F1", "F2", "F3", "STOP", "CALIB", "CALIB_DOWN_START", "CALIB_DOWN_SAVE",
	"STATUS", "CLEAR", "MAN_UP", "MAN_DOWN", "MAN_STOP",
}

const bannerPrefix = "[SERIAL] Ready. Commands: "

// Link represents a connection to a lift controller
type Link struct {
	port   serial.Port
	logger *slog.Logger

	lines    chan string
	statusCh chan lift.Status
	done     chan struct{}

	mu         sync.Mutex
	last       lift.Status
	haveStatus bool
	commands   []string
	readErr    error

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Connect opens device with the default console settings
func Connect(device string) (*Link, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a serial port and starts reading from it
func ConnectWithConfig(cfg *serial.Config) (*Link, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	// Drop anything the controller printed before we attached
	if err := port.Flush(); err != nil {
		slog.Warn("Serial flush failed", "device", cfg.Device, "error", err)
	}

	return New(port, slog.Default()), nil
}

// New starts a link on an already open port
func New(port serial.Port, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Link{
		port:     port,
		logger:   logger,
		lines:    make(chan string, 256),
		statusCh: make(chan lift.Status, 1),
		done:     make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// readLoop splits the byte stream into lines until the port fails or the
// link is closed. Read timeouts that return no data are not errors.
func (l *Link) readLoop() {
	defer close(l.lines)

	buf := make([]byte, 256)
	var line []byte
	for {
		n, err := l.port.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case '\r':
			case '\n':
				l.handleLine(string(line))
				line = line[:0]
			default:
				line = append(line, b)
			}
		}
		if errors.Is(err, io.EOF) && n == 0 {
			// tarm/serial reports a read timeout as EOF
			select {
			case <-l.done:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			select {
			case <-l.done:
			default:
				l.logger.Error("Serial read failed", "error", err)
			}
			l.mu.Lock()
			l.readErr = err
			l.mu.Unlock()
			return
		}
		select {
		case <-l.done:
			return
		default:
		}
	}
}

func (l *Link) handleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if lift.IsStatusLine(line) {
		st, err := lift.ParseStatusLine(line)
		if err != nil {
			l.logger.Warn("Bad status line", "line", line, "error", err)
		} else {
			l.mu.Lock()
			l.last = st
			l.haveStatus = true
			l.mu.Unlock()

			// Keep only the newest status for waiters
			select {
			case <-l.statusCh:
			default:
			}
			l.statusCh <- st
		}
	} else if rest, ok := strings.CutPrefix(line, bannerPrefix); ok {
		var cmds []string
		for _, tok := range strings.Split(rest, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				cmds = append(cmds, tok)
			}
		}
		l.mu.Lock()
		l.commands = cmds
		l.mu.Unlock()
	}

	select {
	case l.lines <- line:
	default:
		l.logger.Debug("Dropping console line, reader is behind", "line", line)
	}
}

// Lines returns every non-empty line received. The channel closes when the
// port stops delivering data.
func (l *Link) Lines() <-chan string {
	return l.lines
}

// Send writes one command token
func (l *Link) Send(token string) error {
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, "\r\n") {
		return fmt.Errorf("invalid token %q", token)
	}
	if len(token) > lift.MaxLineLength {
		return fmt.Errorf("token too long: %d bytes", len(token))
	}

	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := l.port.Write([]byte(token + "\n")); err != nil {
		return fmt.Errorf("failed to send %s: %w", token, err)
	}
	return nil
}

// RequestStatus sends STATUS and waits for the reply
func (l *Link) RequestStatus(ctx context.Context) (lift.Status, error) {
	// Discard a stale report so the answer belongs to this request
	select {
	case <-l.statusCh:
	default:
	}

	if err := l.Send("STATUS"); err != nil {
		return lift.Status{}, err
	}
	return l.WaitStatus(ctx)
}

// WaitStatus waits for the next status line
func (l *Link) WaitStatus(ctx context.Context) (lift.Status, error) {
	select {
	case st := <-l.statusCh:
		return st, nil
	case <-l.done:
		return lift.Status{}, ErrClosed
	case <-ctx.Done():
		return lift.Status{}, ctx.Err()
	}
}

// WaitFor polls the status every interval until cond holds
func (l *Link) WaitFor(ctx context.Context, interval time.Duration, cond func(lift.Status) bool) (lift.Status, error) {
	for {
		st, err := l.RequestStatus(ctx)
		if err != nil {
			return st, err
		}
		if cond(st) {
			return st, nil
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// LastStatus returns the most recent status line seen
func (l *Link) LastStatus() (lift.Status, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.haveStatus
}

// Commands returns the command list announced in the controller banner
func (l *Link) Commands() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.commands))
	copy(out, l.commands)
	return out
}

// Err returns the error that stopped the reader, if any
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readErr
}

// Close closes the connection to the controller
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.port.Close()
	})
	return err
}
