package wm

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/Gaurav-Gosain/r3/internal/geom"
)

// FrameWindow wraps client in a new frame. During the startup scan
// (existed is true) unviewable and override-redirect windows are left
// alone; framed reports whether a frame was made.
func (m *Manager) FrameWindow(client xproto.Window, existed bool) (frame xproto.Window, framed bool, err error) {
	if _, ok := m.frames.Resolve(client); ok {
		return xproto.WindowNone, false, nil
	}

	geo, err := m.conn.GetGeometry(client)
	if err != nil {
		return xproto.WindowNone, false, &RequestError{Op: "get geometry", Window: client, Err: err}
	}
	if existed {
		attrs, err := m.conn.GetWindowAttributes(client)
		if err != nil {
			return xproto.WindowNone, false, &RequestError{Op: "get attributes", Window: client, Err: err}
		}
		if attrs.OverrideRedirect || attrs.MapState != xproto.MapStateViewable {
			return xproto.WindowNone, false, nil
		}
	}

	frame, err = m.conn.NewWindowID()
	if err != nil {
		return xproto.WindowNone, false, err
	}

	err = m.conn.CreateWindow(frame, m.root,
		geo.X, geo.Y, geo.Width, geo.Height, m.look.BorderWidth,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwEventMask,
		[]uint32{m.look.Background, m.look.FocusedBorder, m.masks.FrameReparent},
	).Check()
	if err != nil {
		return xproto.WindowNone, false, &RequestError{Op: "create frame", Window: client, Err: err}
	}

	// A failure from here on leaves a half-built frame; tear it down.
	abandon := func(op string, err error) (xproto.Window, bool, error) {
		m.frames.Remove(frame)
		m.conn.ReparentWindow(client, m.root, geo.X, geo.Y)
		m.conn.DestroyWindow(frame)
		return xproto.WindowNone, false, &RequestError{Op: op, Window: client, Err: err}
	}

	if err := m.conn.ChangeProperty(frame, m.atoms.Frame, xproto.AtomString, 8, []byte("1")).Check(); err != nil {
		return abandon("tag frame", err)
	}
	if err := m.conn.ChangeWindowAttributes(client, xproto.CwEventMask, []uint32{m.masks.Client}).Check(); err != nil {
		return abandon("select client events", err)
	}
	if err := m.conn.ChangeSaveSet(xproto.SetModeInsert, client).Check(); err != nil {
		return abandon("add to save set", err)
	}

	reparent := m.conn.ReparentWindow(client, frame, 0, 0)
	m.ignored.AddTyped(reparent.Sequence(), xproto.EnterNotify)
	if err := reparent.Check(); err != nil {
		return abandon("reparent into frame", err)
	}

	mapping := m.conn.MapWindow(frame)
	m.ignored.AddTyped(mapping.Sequence(), xproto.EnterNotify)
	if err := mapping.Check(); err != nil {
		return abandon("map frame", err)
	}

	if err := m.frames.Insert(client, frame); err != nil {
		return abandon("record frame", err)
	}

	err = m.conn.GrabButton(client, m.masks.Grab, m.root, xproto.ButtonIndexAny, xproto.ModMaskAny).Check()
	if err != nil {
		return abandon("grab buttons", err)
	}
	if err := m.conn.ChangeWindowAttributes(frame, xproto.CwEventMask, []uint32{m.masks.Frame}).Check(); err != nil {
		return abandon("select frame events", err)
	}

	m.log.Debug("Framed window", "client", client, "frame", frame, "existed", existed)
	return frame, true, nil
}

// UnframeWindow gives target's client back to the root and destroys its
// frame. It is a no-op for windows that are not managed. When target is the
// frame itself the frame is already gone and only the bookkeeping is
// dropped.
func (m *Manager) UnframeWindow(target xproto.Window) error {
	p, ok := m.frames.Resolve(target)
	if !ok {
		return nil
	}
	if target == p.Frame {
		m.forget(target)
		return nil
	}

	unmap := m.conn.UnmapWindow(p.Frame)
	m.ignored.AddTyped(unmap.Sequence(), xproto.EnterNotify)
	if err := unmap.Check(); err != nil {
		m.forget(target)
		return &RequestError{Op: "unmap frame", Window: p.Frame, Err: err}
	}

	// The client may already be gone, so these are not checked.
	m.conn.ReparentWindow(p.Client, m.root, 0, 0)
	m.conn.ChangeSaveSet(xproto.SetModeDelete, p.Client)
	m.conn.DestroyWindow(p.Frame)

	m.forget(target)
	m.log.Debug("Unframed window", "client", p.Client, "frame", p.Frame)
	return m.conn.Flush()
}

// forget drops target's pair and any focus or drag that refers to it.
func (m *Manager) forget(target xproto.Window) {
	p, ok := m.frames.Remove(target)
	if !ok {
		return
	}
	if m.focus == p.Client || m.focus == p.Frame {
		m.focus = xproto.WindowNone
	}
	if m.drag != nil && m.drag.frame == p.Frame {
		m.drag = nil
	}
}

// KillFocused closes whatever currently has focus. Focus is cleared first.
func (m *Manager) KillFocused() error {
	target := m.focus
	m.focus = xproto.WindowNone
	if target == xproto.WindowNone {
		m.log.Debug("Close requested with nothing focused")
		return nil
	}
	return m.KillWindow(target)
}

// KillWindow asks target's client to close through WM_DELETE_WINDOW when it
// supports that, and otherwise destroys the frame, taking the client with
// it. Unmanaged windows are destroyed directly. The root is never killed.
func (m *Manager) KillWindow(target xproto.Window) error {
	if target == xproto.WindowNone || target == m.root {
		return nil
	}
	p, ok := m.frames.Resolve(target)
	if !ok {
		p = Pair{Client: target, Frame: target}
	}

	if m.supportsDelete(p.Client) {
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: p.Client,
			Type:   m.atoms.WMProtocols,
			Data: xproto.ClientMessageDataUnionData32New([]uint32{
				uint32(m.atoms.WMDeleteWindow), xproto.TimeCurrentTime, 0, 0, 0,
			}),
		}
		if err := m.conn.SendEvent(p.Client, xproto.EventMaskNoEvent, string(ev.Bytes())).Check(); err != nil {
			return &RequestError{Op: "send delete window", Window: p.Client, Err: err}
		}
		m.log.Debug("Asked window to close", "client", p.Client)
	} else {
		if err := m.conn.DestroyWindow(p.Frame).Check(); err != nil {
			return &RequestError{Op: "destroy frame", Window: p.Frame, Err: err}
		}
		m.log.Debug("Destroyed window", "client", p.Client, "frame", p.Frame)
	}
	return m.conn.Flush()
}

// supportsDelete reports whether win lists WM_DELETE_WINDOW in
// WM_PROTOCOLS.
func (m *Manager) supportsDelete(win xproto.Window) bool {
	prop, err := m.conn.GetProperty(win, m.atoms.WMProtocols, xproto.AtomAtom)
	if err != nil || prop == nil || prop.Format != 32 {
		return false
	}
	for v := prop.Value; len(v) >= 4; v = v[4:] {
		if xproto.Atom(xgb.Get32(v)) == m.atoms.WMDeleteWindow {
			return true
		}
	}
	return false
}

// MoveWindow places target's frame with its outer corner at pos.
func (m *Manager) MoveWindow(target xproto.Window, pos geom.Point) error {
	p, ok := m.frames.Resolve(target)
	if !ok {
		return nil
	}
	req := m.conn.ConfigureWindow(p.Frame, xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{coord(pos.X), coord(pos.Y)})
	m.ignored.AddTyped(req.Sequence(), xproto.EnterNotify)
	if err := req.Check(); err != nil {
		return &RequestError{Op: "move frame", Window: p.Frame, Err: err}
	}
	return nil
}

// ResizeWindow sets target's frame geometry to r and makes the client fill
// the frame interior.
func (m *Manager) ResizeWindow(target xproto.Window, r geom.Rect) error {
	p, ok := m.frames.Resolve(target)
	if !ok {
		return nil
	}
	const mask = xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight

	frameReq := m.conn.ConfigureWindow(p.Frame, mask,
		[]uint32{coord(r.X), coord(r.Y), size(r.Width), size(r.Height)})
	m.ignored.AddTyped(frameReq.Sequence(), xproto.EnterNotify)
	clientReq := m.conn.ConfigureWindow(p.Client, mask,
		[]uint32{0, 0, size(r.Width), size(r.Height)})

	if err := frameReq.Check(); err != nil {
		return &RequestError{Op: "resize frame", Window: p.Frame, Err: err}
	}
	if err := clientReq.Check(); err != nil {
		return &RequestError{Op: "resize client", Window: p.Client, Err: err}
	}
	return nil
}

// coord encodes a signed position for a ConfigureWindow value list.
func coord(v int) uint32 { return uint32(int32(v)) }

func size(v int) uint32 { return uint32(max(v, 1)) }
