// Package ipc carries commands from client tools to the running window
// manager over a unix socket. A connection holds exactly one command: the
// client writes it, half-closes, and reads the reply until EOF.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned for payloads that do not decode to a Command.
var ErrMalformed = errors.New("malformed command")

// Kind is the top-level command variant.
type Kind int

const (
	KindWM Kind = iota
	KindGetConfig
	KindGetVersion
	KindExit
)

// WMCommand is a command that changes window manager state.
type WMCommand int

const (
	CloseWindow WMCommand = iota
)

var wmCommandNames = map[WMCommand]string{
	CloseWindow: "CloseWindow",
}

func (c WMCommand) String() string {
	if name, ok := wmCommandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("WMCommand(%d)", int(c))
}

var kindNames = map[Kind]string{
	KindWM:         "WM",
	KindGetConfig:  "GetConfig",
	KindGetVersion: "GetVersion",
	KindExit:       "Exit",
}

// Command is one request from a client. WM is meaningful only when Kind is
// KindWM.
type Command struct {
	Kind Kind
	WM   WMCommand
}

// Convenience constructors.
var (
	CmdCloseWindow = Command{Kind: KindWM, WM: CloseWindow}
	CmdGetConfig   = Command{Kind: KindGetConfig}
	CmdGetVersion  = Command{Kind: KindGetVersion}
	CmdExit        = Command{Kind: KindExit}
)

func (c Command) String() string {
	if c.Kind == KindWM {
		return "WM(" + c.WM.String() + ")"
	}
	if name, ok := kindNames[c.Kind]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c.Kind))
}

// IsQuery reports whether the command only reads state.
func (c Command) IsQuery() bool {
	return c.Kind == KindGetConfig || c.Kind == KindGetVersion
}

// MarshalJSON encodes unit variants as bare strings and the WM variant as
// {"WM": "<sub-command>"}.
func (c Command) MarshalJSON() ([]byte, error) {
	if c.Kind == KindWM {
		name, ok := wmCommandNames[c.WM]
		if !ok {
			return nil, fmt.Errorf("unknown wm command %d", int(c.WM))
		}
		return json.Marshal(map[string]string{"WM": name})
	}
	name, ok := kindNames[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown command kind %d", int(c.Kind))
	}
	return json.Marshal(name)
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		for kind, name := range kindNames {
			if kind != KindWM && name == unit {
				*c = Command{Kind: kind}
				return nil
			}
		}
		return fmt.Errorf("%w: unknown command %q", ErrMalformed, unit)
	}

	var tagged map[string]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: expected exactly one variant", ErrMalformed)
	}
	sub, ok := tagged["WM"]
	if !ok {
		return fmt.Errorf("%w: unknown variant", ErrMalformed)
	}
	for wm, name := range wmCommandNames {
		if name == sub {
			*c = Command{Kind: KindWM, WM: wm}
			return nil
		}
	}
	return fmt.Errorf("%w: unknown wm command %q", ErrMalformed, sub)
}

// Decode parses one command payload.
func Decode(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		if errors.Is(err, ErrMalformed) {
			return Command{}, err
		}
		return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}
