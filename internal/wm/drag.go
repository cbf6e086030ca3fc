package wm

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/Gaurav-Gosain/r3/internal/geom"
)

// DragKind is what a pointer drag does to the frame under it.
type DragKind int

const (
	DragMove DragKind = iota
	DragResize
)

// dragState is the anchor captured at button press. The kind is decided on
// every motion event from the buttons held at that moment.
type dragState struct {
	frame  xproto.Window
	anchor geom.Point
	start  geom.Rect
}

// dragKind maps held buttons to a drag: button 1 moves, button 3 resizes.
func dragKind(state uint16) (DragKind, bool) {
	switch {
	case state&xproto.KeyButMaskButton1 != 0:
		return DragMove, true
	case state&xproto.KeyButMaskButton3 != 0:
		return DragResize, true
	default:
		return 0, false
	}
}

func (m *Manager) onButtonPress(ev xproto.ButtonPressEvent) error {
	p, ok := m.frames.Resolve(ev.Event)
	if !ok {
		return nil
	}
	geo, err := m.conn.GetGeometry(p.Frame)
	if err != nil {
		return &RequestError{Op: "get frame geometry", Window: p.Frame, Err: err}
	}
	m.drag = &dragState{
		frame:  p.Frame,
		anchor: geom.Point{X: int(ev.RootX), Y: int(ev.RootY)},
		start: geom.Rect{
			X: int(geo.X), Y: int(geo.Y),
			Width: int(geo.Width), Height: int(geo.Height),
			Border: int(geo.BorderWidth),
		},
	}
	m.focus = p.Client

	raise := m.conn.ConfigureWindow(p.Frame, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	m.ignored.AddTyped(raise.Sequence(), xproto.EnterNotify)
	if err := raise.Check(); err != nil {
		return &RequestError{Op: "raise frame", Window: p.Frame, Err: err}
	}
	return nil
}

func (m *Manager) onMotionNotify(ev xproto.MotionNotifyEvent) error {
	if m.drag == nil {
		return nil
	}
	kind, ok := dragKind(ev.State)
	if !ok {
		// Motion that raced the release.
		return nil
	}
	delta := geom.Point{X: int(ev.RootX), Y: int(ev.RootY)}.Sub(m.drag.anchor)

	switch kind {
	case DragMove:
		return m.MoveWindow(m.drag.frame, m.drag.start.Moved(delta).Origin())
	case DragResize:
		q, ok := m.drag.start.Quadrant(m.drag.anchor)
		if !ok {
			return nil
		}
		return m.ResizeWindow(m.drag.frame, m.drag.start.Resized(q, delta))
	}
	return nil
}

func (m *Manager) onButtonRelease(xproto.ButtonReleaseEvent) error {
	m.drag = nil
	return nil
}
