package wm

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// HandleEvent applies one server event. Events matching a live suppression
// entry are dropped before dispatch.
func (m *Manager) HandleEvent(ev xgb.Event) error {
	if seq, code, ok := eventSequence(ev); ok && m.ignored.IsIgnored(seq, code) {
		m.log.Debug("Suppressed event", "event", ev)
		return nil
	}

	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		return m.onMapRequest(e)
	case xproto.UnmapNotifyEvent:
		return m.onUnmapNotify(e)
	case xproto.DestroyNotifyEvent:
		m.forget(e.Window)
		return nil
	case xproto.ConfigureRequestEvent:
		return m.onConfigureRequest(e)
	case xproto.ButtonPressEvent:
		return m.onButtonPress(e)
	case xproto.ButtonReleaseEvent:
		return m.onButtonRelease(e)
	case xproto.MotionNotifyEvent:
		return m.onMotionNotify(e)
	case xproto.EnterNotifyEvent:
		return m.onEnterNotify(e)
	case xproto.ClientMessageEvent:
		return m.onClientMessage(e)
	default:
		m.log.Debug("Unhandled event", "event", ev)
		return nil
	}
}

// eventSequence extracts the sequence number and response type of the
// events the manager acts on.
func eventSequence(ev xgb.Event) (uint16, byte, bool) {
	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		return e.Sequence, xproto.MapRequest, true
	case xproto.UnmapNotifyEvent:
		return e.Sequence, xproto.UnmapNotify, true
	case xproto.DestroyNotifyEvent:
		return e.Sequence, xproto.DestroyNotify, true
	case xproto.ConfigureRequestEvent:
		return e.Sequence, xproto.ConfigureRequest, true
	case xproto.ButtonPressEvent:
		return e.Sequence, xproto.ButtonPress, true
	case xproto.ButtonReleaseEvent:
		return e.Sequence, xproto.ButtonRelease, true
	case xproto.MotionNotifyEvent:
		return e.Sequence, xproto.MotionNotify, true
	case xproto.EnterNotifyEvent:
		return e.Sequence, xproto.EnterNotify, true
	case xproto.ClientMessageEvent:
		return e.Sequence, xproto.ClientMessage, true
	}
	return 0, 0, false
}

func (m *Manager) onMapRequest(ev xproto.MapRequestEvent) error {
	if _, _, err := m.FrameWindow(ev.Window, false); err != nil {
		return err
	}
	mapping := m.conn.MapWindow(ev.Window)
	m.ignored.AddTyped(mapping.Sequence(), xproto.EnterNotify)
	if err := mapping.Check(); err != nil {
		return &RequestError{Op: "map client", Window: ev.Window, Err: err}
	}
	m.focus = ev.Window
	return nil
}

func (m *Manager) onUnmapNotify(ev xproto.UnmapNotifyEvent) error {
	// Reparenting an already mapped window during the startup scan makes
	// the server unmap it from the root first.
	if ev.Event == m.root {
		return nil
	}
	return m.UnframeWindow(ev.Window)
}

// onConfigureRequest grants whatever the client asked for. For managed
// windows position goes to the frame and size goes to both.
func (m *Manager) onConfigureRequest(ev xproto.ConfigureRequestEvent) error {
	p, managed := m.frames.Resolve(ev.Window)
	if !managed {
		mask, values := configureValues(ev, ev.ValueMask)
		if err := m.conn.ConfigureWindow(ev.Window, mask, values).Check(); err != nil {
			return &RequestError{Op: "configure window", Window: ev.Window, Err: err}
		}
		return nil
	}

	const geometry = xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight
	if mask, values := configureValues(ev, ev.ValueMask&geometry); mask != 0 {
		req := m.conn.ConfigureWindow(p.Frame, mask, values)
		m.ignored.AddTyped(req.Sequence(), xproto.EnterNotify)
		if err := req.Check(); err != nil {
			return &RequestError{Op: "configure frame", Window: p.Frame, Err: err}
		}
	}
	const sizeOnly = xproto.ConfigWindowWidth | xproto.ConfigWindowHeight
	if mask, values := configureValues(ev, ev.ValueMask&sizeOnly); mask != 0 {
		if err := m.conn.ConfigureWindow(p.Client, mask, values).Check(); err != nil {
			return &RequestError{Op: "configure client", Window: p.Client, Err: err}
		}
	}
	return nil
}

// configureValues builds a ConfigureWindow value list for the bits in mask,
// in the bit order the protocol requires.
func configureValues(ev xproto.ConfigureRequestEvent, mask uint16) (uint16, []uint32) {
	fields := []struct {
		bit   uint16
		value uint32
	}{
		{xproto.ConfigWindowX, coord(int(ev.X))},
		{xproto.ConfigWindowY, coord(int(ev.Y))},
		{xproto.ConfigWindowWidth, uint32(ev.Width)},
		{xproto.ConfigWindowHeight, uint32(ev.Height)},
		{xproto.ConfigWindowBorderWidth, uint32(ev.BorderWidth)},
		{xproto.ConfigWindowSibling, uint32(ev.Sibling)},
		{xproto.ConfigWindowStackMode, uint32(ev.StackMode)},
	}
	var out uint16
	var values []uint32
	for _, f := range fields {
		if mask&f.bit != 0 {
			out |= f.bit
			values = append(values, f.value)
		}
	}
	return out, values
}

func (m *Manager) onEnterNotify(ev xproto.EnterNotifyEvent) error {
	if _, ok := m.frames.Resolve(ev.Event); ok {
		m.focus = ev.Event
	}
	return nil
}

// onClientMessage answers sync probes: an R3_SYNC message sent to the root
// is echoed back to the window named in its first data word once every
// earlier event has been handled.
func (m *Manager) onClientMessage(ev xproto.ClientMessageEvent) error {
	if ev.Type != m.atoms.Sync || ev.Format != 32 || len(ev.Data.Data32) == 0 {
		return nil
	}
	reply := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(ev.Data.Data32[0]),
		Type:   m.atoms.Sync,
		Data:   xproto.ClientMessageDataUnionData32New(ev.Data.Data32),
	}
	req := m.conn.SendEvent(reply.Window, xproto.EventMaskNoEvent, string(reply.Bytes()))
	if err := req.Check(); err != nil {
		return &RequestError{Op: "answer sync", Window: reply.Window, Err: err}
	}
	return nil
}
