package wm

import (
	"errors"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
)

// Render recolors every frame border, raises the focused frame, and hands
// input focus to the focused client. Every request is attempted; failures
// are joined into the returned error.
func (m *Manager) Render() error {
	type pending struct {
		op  string
		win xproto.Window
		req xconn.Request
	}
	var reqs []pending

	for _, p := range m.frames.Pairs() {
		focused := m.focus != xproto.WindowNone && (m.focus == p.Client || m.focus == p.Frame)
		color := m.look.Border
		if focused {
			color = m.look.FocusedBorder
		}
		reqs = append(reqs, pending{"set border", p.Frame,
			m.conn.ChangeWindowAttributes(p.Frame, xproto.CwBorderPixel, []uint32{color})})
		if focused {
			raise := m.conn.ConfigureWindow(p.Frame, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
			m.ignored.AddTyped(raise.Sequence(), xproto.EnterNotify)
			reqs = append(reqs, pending{"raise frame", p.Frame, raise})
		}
	}

	var target xproto.Window
	if m.focus != xproto.WindowNone {
		target = m.focus
		if p, ok := m.frames.Resolve(m.focus); ok {
			target = p.Client
		}
		reqs = append(reqs, pending{"set input focus", target,
			m.conn.SetInputFocus(xproto.InputFocusPointerRoot, target, xproto.TimeCurrentTime)})
	}

	var errs []error
	for _, r := range reqs {
		if err := r.req.Check(); err != nil {
			errs = append(errs, &RequestError{Op: r.op, Window: r.win, Err: err})
		}
	}
	if target != xproto.WindowNone {
		if err := m.conn.SetActiveWindow(target); err != nil {
			errs = append(errs, &RequestError{Op: "set active window", Window: target, Err: err})
		}
	}
	return errors.Join(errs...)
}
