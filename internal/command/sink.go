package command

import (
	"sync"

	"go.uber.org/zap"
)

// Sink receives outbound commands.
type Sink interface {
	Send(Command) error
}

// Recorder keeps every command it receives.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
}

func (r *Recorder) Send(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
	return nil
}

// Commands returns a copy of the received commands in order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// LogSink writes each command as a log entry. A nil Logger uses the
// global zap logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Send(c Command) error {
	l := s.Logger
	if l == nil {
		l = zap.L()
	}
	l.Info("command",
		zap.Stringer("kind", c.Kind),
		zap.Uint16("channel", c.Channel),
		zap.Uint32("state", c.StateID),
	)
	return nil
}
