// Package command defines the commands the flight computer hands to the
// ground-link bridge and the sinks that receive them.
package command

import "fmt"

type Kind uint8

const (
	FirePyroKind Kind = iota
	TogglePyroKind
	ChangeStateKind
	HeartbeatKind
	TelemetryKind
)

func (k Kind) String() string {
	switch k {
	case FirePyroKind:
		return "fire_pyro"
	case TogglePyroKind:
		return "toggle_pyro"
	case ChangeStateKind:
		return "change_state"
	case HeartbeatKind:
		return "heartbeat"
	case TelemetryKind:
		return "telemetry"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Command is one request. Channel is meaningful for pyro commands, StateID
// for ChangeState.
type Command struct {
	Kind    Kind
	Channel uint16
	StateID uint32
}

func FirePyro(channel uint16) Command   { return Command{Kind: FirePyroKind, Channel: channel} }
func TogglePyro(channel uint16) Command { return Command{Kind: TogglePyroKind, Channel: channel} }
func ChangeState(id uint32) Command     { return Command{Kind: ChangeStateKind, StateID: id} }
func Heartbeat() Command                { return Command{Kind: HeartbeatKind} }
func Telemetry() Command                { return Command{Kind: TelemetryKind} }

func (c Command) String() string {
	switch c.Kind {
	case FirePyroKind, TogglePyroKind:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Channel)
	case ChangeStateKind:
		return fmt.Sprintf("%s(%d)", c.Kind, c.StateID)
	}
	return c.Kind.String()
}
