package app

import (
	"errors"
	"fmt"

	"github.com/Gaurav-Gosain/r3/internal/ipc"
)

// ErrUnsupported is returned for commands the loop has no handler for.
// Queries are answered by the IPC workers and never reach the loop.
var ErrUnsupported = errors.New("command not supported by the event loop")

var errExit = errors.New("exit")

func (l *Loop) dispatch(cmd ipc.Command) error {
	l.log.Debug("Dispatching command", "cmd", cmd)
	switch cmd.Kind {
	case ipc.KindWM:
		if cmd.WM == ipc.CloseWindow {
			return l.wm.KillFocused()
		}
	case ipc.KindExit:
		return errExit
	}
	return fmt.Errorf("%v: %w", cmd, ErrUnsupported)
}
