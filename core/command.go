package core

import (
	"errors"
)

// ErrUnknownCommand is returned by Dispatch for a token with no handler
var ErrUnknownCommand = errors.New("unknown command")

// CommandHandler runs one console command
type CommandHandler func() error

// Command represents a console command token
type Command struct {
	ID      uint16
	Name    string // Token as typed on the link (e.g. "F1", "CALIB")
	Help    string // One-line description for the dictionary
	Handler CommandHandler
}

// CommandRegistry maps command tokens to handlers.
// It is owned by the control loop and is not safe for concurrent use.
type CommandRegistry struct {
	commands   map[string]*Command
	order      []string
	nextID     uint16
	dictionary string // Token list sent in the ready banner
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*Command),
	}
}

// Register adds a command to the registry.
// Registering an existing name replaces its handler and keeps its ID.
func (r *CommandRegistry) Register(name string, help string, handler CommandHandler) uint16 {
	if cmd, exists := r.commands[name]; exists {
		cmd.Help = help
		cmd.Handler = handler
		r.rebuildDictionary()
		return cmd.ID
	}

	id := r.nextID
	r.nextID++

	r.commands[name] = &Command{
		ID:      id,
		Name:    name,
		Help:    help,
		Handler: handler,
	}
	r.order = append(r.order, name)

	r.rebuildDictionary()

	return id
}

// GetCommand retrieves a command by token
func (r *CommandRegistry) GetCommand(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	return len(r.commands)
}

// Names returns the tokens in registration order
func (r *CommandRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Dispatch calls the handler registered for name
func (r *CommandRegistry) Dispatch(name string) error {
	cmd, ok := r.commands[name]
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}

	return cmd.Handler()
}

// GetDictionary returns the comma separated token list
func (r *CommandRegistry) GetDictionary() string {
	return r.dictionary
}

// rebuildDictionary rebuilds the dictionary string
func (r *CommandRegistry) rebuildDictionary() {
	dict := ""
	for i, name := range r.order {
		if i > 0 {
			dict += ", "
		}
		dict += name
	}
	r.dictionary = dict
}
