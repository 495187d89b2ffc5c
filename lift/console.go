package lift

import (
	"steplift/core"
)

// MaxLineLength is the longest command line accepted; longer lines are dropped
const MaxLineLength = 63

// Console turns the serial byte stream into command tokens and collects the
// text to send back. Output is buffered until Output is called.
type Console struct {
	registry *core.CommandRegistry

	inputBuffer  []byte
	overflow     bool // Current line exceeded MaxLineLength; drop until LF
	outputBuffer []byte
}

// NewConsole creates a console with no commands registered
func NewConsole() *Console {
	return &Console{
		registry:     core.NewCommandRegistry(),
		inputBuffer:  make([]byte, 0, MaxLineLength+1),
		outputBuffer: make([]byte, 0, 256),
	}
}

// Register adds a command token
func (c *Console) Register(token, help string, handler core.CommandHandler) {
	c.registry.Register(token, help, handler)
}

// Commands returns the registered tokens, in registration order
func (c *Console) Commands() []string {
	return c.registry.Names()
}

// Banner queues the ready message listing every command
func (c *Console) Banner() {
	c.Send("[SERIAL] Ready. Commands: " + c.registry.GetDictionary() + "\n")
}

// ProcessByte feeds one received byte. CR is ignored and LF ends a line.
func (c *Console) ProcessByte(b byte) {
	switch b {
	case '\r':
		return
	case '\n':
		if !c.overflow && len(c.inputBuffer) > 0 {
			line := string(c.inputBuffer)
			c.inputBuffer = c.inputBuffer[:0]
			c.ProcessLine(line)
		}
		c.inputBuffer = c.inputBuffer[:0]
		c.overflow = false
		return
	}

	if c.overflow {
		return
	}
	if len(c.inputBuffer) >= MaxLineLength {
		c.inputBuffer = c.inputBuffer[:0]
		c.overflow = true
		return
	}
	c.inputBuffer = append(c.inputBuffer, b)
}

// ProcessBytes feeds a chunk of received bytes
func (c *Console) ProcessBytes(data []byte) {
	for _, b := range data {
		c.ProcessByte(b)
	}
}

// ProcessLine runs one command line. Blank lines are ignored.
func (c *Console) ProcessLine(line string) {
	token := core.TrimSpace(line)
	if token == "" {
		return
	}

	if err := c.registry.Dispatch(token); err != nil {
		if err == core.ErrUnknownCommand {
			c.Send("[SERIAL] Unknown command: " + token + "\n")
			return
		}
		c.Send("[SERIAL] " + token + ": " + err.Error() + "\n")
	}
}

// Send queues text for the link
func (c *Console) Send(text string) {
	c.outputBuffer = append(c.outputBuffer, text...)
}

// WriteLine queues text followed by a newline (usable as a core.DebugWriter)
func (c *Console) WriteLine(text string) {
	c.Send(text)
	c.Send("\n")
}

// Output returns any pending output and clears the buffer
func (c *Console) Output() []byte {
	if len(c.outputBuffer) == 0 {
		return nil
	}

	output := make([]byte, len(c.outputBuffer))
	copy(output, c.outputBuffer)
	c.outputBuffer = c.outputBuffer[:0]
	return output
}
