// Package testutil provides an in-memory X server for exercising the window
// manager without a display.
//
// FakeX plays two roles. Through the xconn.Conn methods it is the server as
// the window manager sees it. Through the helper methods (CreateClient,
// MapClient, DestroyClient, ...) tests act as other X clients. Only the
// window manager's event selections are modelled, so events are delivered
// exactly when the manager would receive them.
package testutil

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
)

// =============================================================================
// Server state
// =============================================================================

// Property is a stored window property.
type Property struct {
	Type   xproto.Atom
	Format byte
	Data   []byte
}

// FakeWindow is a snapshot of one window.
type FakeWindow struct {
	ID               xproto.Window
	Parent           xproto.Window
	X, Y             int16
	Width, Height    uint16
	BorderWidth      uint16
	Mapped           bool
	OverrideRedirect bool
	EventMask        uint32
	BackPixel        uint32
	BorderPixel      uint32
	Props            map[xproto.Atom]Property
	Children         []xproto.Window
}

func (w *FakeWindow) clone() FakeWindow {
	out := *w
	out.Props = make(map[xproto.Atom]Property, len(w.Props))
	for k, v := range w.Props {
		out.Props[k] = v
	}
	out.Children = slices.Clone(w.Children)
	return out
}

// SentEvent is one SendEvent request.
type SentEvent struct {
	Dest xproto.Window
	Mask uint32
	Raw  []byte
}

// ClientMessage decodes the event as a ClientMessage.
func (s SentEvent) ClientMessage() (xproto.ClientMessageEvent, bool) {
	if len(s.Raw) < 32 || s.Raw[0]&0x7f != xproto.ClientMessage {
		return xproto.ClientMessageEvent{}, false
	}
	ev, ok := xproto.ClientMessageEventNew(s.Raw).(xproto.ClientMessageEvent)
	return ev, ok
}

// ErrFakeClosed is returned by requests issued after Close.
var ErrFakeClosed = errors.New("fake X connection closed")

const (
	rootID       xproto.Window = 0x100
	managerBase                = 0x200000
	clientBase                 = 0x400000
	firstAtom    xproto.Atom   = 100
	eventBacklog               = 4096
)

// FakeX is an in-memory X server.
type FakeX struct {
	mu sync.Mutex

	windows  map[xproto.Window]*FakeWindow
	saveSet  map[xproto.Window]bool
	grabs    map[xproto.Window]int
	atoms    map[string]xproto.Atom
	nextAtom xproto.Atom

	nextManagerID uint32
	nextClientID  uint32
	seq           uint16

	events chan xconn.Event
	sent   []SentEvent
	log    []string
	fail   map[string]error

	focus         xproto.Window
	active        xproto.Window
	supportingWM  string
	serverGrabbed bool
	otherWM       bool
	closed        bool
	syncMagic     uint32
}

var _ xconn.Conn = (*FakeX)(nil)

// NewFakeX returns a server with an empty 1024x768 root.
func NewFakeX() *FakeX {
	f := &FakeX{
		windows:       make(map[xproto.Window]*FakeWindow),
		saveSet:       make(map[xproto.Window]bool),
		grabs:         make(map[xproto.Window]int),
		atoms:         make(map[string]xproto.Atom),
		nextAtom:      firstAtom,
		nextManagerID: managerBase,
		nextClientID:  clientBase,
		events:        make(chan xconn.Event, eventBacklog),
		fail:          make(map[string]error),
	}
	f.windows[rootID] = &FakeWindow{
		ID:     rootID,
		Width:  1024,
		Height: 768,
		Mapped: true,
		Props:  make(map[xproto.Atom]Property),
	}
	return f
}

// =============================================================================
// Requests
// =============================================================================

type fakeRequest struct {
	seq uint16
	err error
}

func (r fakeRequest) Sequence() uint16 { return r.seq }
func (r fakeRequest) Check() error     { return r.err }

// begin records a request and returns its sequence number and any failure
// injected for it. The lock must be held.
func (f *FakeX) begin(op string) (uint16, error) {
	f.seq++
	f.log = append(f.log, op)
	if f.closed {
		return f.seq, ErrFakeClosed
	}
	if err, ok := f.fail[op]; ok {
		delete(f.fail, op)
		return f.seq, err
	}
	return f.seq, nil
}

func badWindow(win xproto.Window) error {
	return xproto.WindowError{NiceName: "Window", BadValue: uint32(win)}
}

func (f *FakeX) Root() xproto.Window { return rootID }

func (f *FakeX) NewWindowID() (xproto.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := xproto.Window(f.nextManagerID)
	f.nextManagerID++
	return id, nil
}

func (f *FakeX) InternAtoms(names []string) ([]xproto.Atom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin("InternAtom"); err != nil {
		return nil, err
	}
	out := make([]xproto.Atom, len(names))
	for i, name := range names {
		out[i] = f.internLocked(name)
	}
	return out, nil
}

func (f *FakeX) internLocked(name string) xproto.Atom {
	if a, ok := f.atoms[name]; ok {
		return a
	}
	a := f.nextAtom
	f.nextAtom++
	f.atoms[name] = a
	return a
}

func (f *FakeX) QueryTree(win xproto.Window) (*xproto.QueryTreeReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("QueryTree")
	if err != nil {
		return nil, err
	}
	w, ok := f.windows[win]
	if !ok {
		return nil, badWindow(win)
	}
	return &xproto.QueryTreeReply{
		Sequence:    seq,
		Root:        rootID,
		Parent:      w.Parent,
		ChildrenLen: uint16(len(w.Children)),
		Children:    slices.Clone(w.Children),
	}, nil
}

func (f *FakeX) GetGeometry(win xproto.Window) (*xproto.GetGeometryReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("GetGeometry")
	if err != nil {
		return nil, err
	}
	w, ok := f.windows[win]
	if !ok {
		return nil, badWindow(win)
	}
	return &xproto.GetGeometryReply{
		Sequence:    seq,
		Depth:       24,
		Root:        rootID,
		X:           w.X,
		Y:           w.Y,
		Width:       w.Width,
		Height:      w.Height,
		BorderWidth: w.BorderWidth,
	}, nil
}

func (f *FakeX) GetWindowAttributes(win xproto.Window) (*xproto.GetWindowAttributesReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("GetWindowAttributes")
	if err != nil {
		return nil, err
	}
	w, ok := f.windows[win]
	if !ok {
		return nil, badWindow(win)
	}
	return &xproto.GetWindowAttributesReply{
		Sequence:         seq,
		Class:            xproto.WindowClassInputOutput,
		MapState:         f.mapStateLocked(w),
		OverrideRedirect: w.OverrideRedirect,
		YourEventMask:    w.EventMask,
	}, nil
}

func (f *FakeX) mapStateLocked(w *FakeWindow) byte {
	if !w.Mapped {
		return xproto.MapStateUnmapped
	}
	for p := w.Parent; p != 0; {
		parent, ok := f.windows[p]
		if !ok || !parent.Mapped {
			return xproto.MapStateUnviewable
		}
		p = parent.Parent
	}
	return xproto.MapStateViewable
}

func (f *FakeX) GetProperty(win xproto.Window, prop, typ xproto.Atom) (*xproto.GetPropertyReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("GetProperty")
	if err != nil {
		return nil, err
	}
	w, ok := f.windows[win]
	if !ok {
		return nil, badWindow(win)
	}
	p, ok := w.Props[prop]
	if !ok {
		return &xproto.GetPropertyReply{Sequence: seq}, nil
	}
	reply := &xproto.GetPropertyReply{Sequence: seq, Format: p.Format, Type: p.Type}
	if typ != xproto.GetPropertyTypeAny && typ != p.Type {
		return reply, nil
	}
	reply.Value = slices.Clone(p.Data)
	reply.ValueLen = uint32(len(p.Data))
	if p.Format > 8 {
		reply.ValueLen /= uint32(p.Format / 8)
	}
	return reply, nil
}

// applyAttributes consumes a CW value list in bit order.
func applyAttributes(w *FakeWindow, mask uint32, values []uint32) {
	for bit := uint32(1); bit <= xproto.CwCursor; bit <<= 1 {
		if mask&bit == 0 || len(values) == 0 {
			continue
		}
		v := values[0]
		values = values[1:]
		switch bit {
		case xproto.CwBackPixel:
			w.BackPixel = v
		case xproto.CwBorderPixel:
			w.BorderPixel = v
		case xproto.CwOverrideRedirect:
			w.OverrideRedirect = v != 0
		case xproto.CwEventMask:
			w.EventMask = v
		}
	}
}

func (f *FakeX) CreateWindow(wid, parent xproto.Window, x, y int16, width, height, borderWidth uint16, mask uint32, values []uint32) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("CreateWindow")
	if err == nil {
		err = f.createLocked(wid, parent, x, y, width, height, borderWidth, mask, values)
	}
	return fakeRequest{seq, err}
}

func (f *FakeX) createLocked(wid, parent xproto.Window, x, y int16, width, height, borderWidth uint16, mask uint32, values []uint32) error {
	p, ok := f.windows[parent]
	if !ok {
		return badWindow(parent)
	}
	if _, exists := f.windows[wid]; exists {
		return xproto.ValueError{NiceName: "IDChoice", BadValue: uint32(wid)}
	}
	w := &FakeWindow{
		ID:          wid,
		Parent:      parent,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BorderWidth: borderWidth,
		Props:       make(map[xproto.Atom]Property),
	}
	applyAttributes(w, mask, values)
	f.windows[wid] = w
	p.Children = append(p.Children, wid)
	return nil
}

func (f *FakeX) ChangeWindowAttributes(win xproto.Window, mask uint32, values []uint32) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("ChangeWindowAttributes")
	if err != nil {
		return fakeRequest{seq, err}
	}
	w, ok := f.windows[win]
	if !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	if win == rootID && f.otherWM && mask&xproto.CwEventMask != 0 {
		return fakeRequest{seq, xproto.AccessError{NiceName: "Access"}}
	}
	applyAttributes(w, mask, values)
	return fakeRequest{seq, nil}
}

func (f *FakeX) ChangeProperty(win xproto.Window, prop, typ xproto.Atom, format byte, data []byte) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("ChangeProperty")
	if err != nil {
		return fakeRequest{seq, err}
	}
	w, ok := f.windows[win]
	if !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	w.Props[prop] = Property{Type: typ, Format: format, Data: slices.Clone(data)}
	return fakeRequest{seq, nil}
}

func (f *FakeX) ChangeSaveSet(mode byte, win xproto.Window) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("ChangeSaveSet")
	if err != nil {
		return fakeRequest{seq, err}
	}
	if _, ok := f.windows[win]; !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	if mode == xproto.SetModeInsert {
		f.saveSet[win] = true
	} else {
		delete(f.saveSet, win)
	}
	return fakeRequest{seq, nil}
}

func (f *FakeX) ReparentWindow(win, parent xproto.Window, x, y int16) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("ReparentWindow")
	if err != nil {
		return fakeRequest{seq, err}
	}
	w, ok := f.windows[win]
	if !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	np, ok := f.windows[parent]
	if !ok {
		return fakeRequest{seq, badWindow(parent)}
	}
	if w.Mapped {
		// The server unmaps the window from its old parent first.
		f.notifyLocked(w, func(event xproto.Window) xgb.Event {
			return xproto.UnmapNotifyEvent{Sequence: f.seq, Event: event, Window: win}
		})
	}
	if old, ok := f.windows[w.Parent]; ok {
		old.Children = slices.DeleteFunc(old.Children, func(c xproto.Window) bool { return c == win })
	}
	w.Parent = parent
	w.X, w.Y = x, y
	np.Children = append(np.Children, win)
	return fakeRequest{seq, nil}
}

func (f *FakeX) MapWindow(win xproto.Window) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("MapWindow")
	if err != nil {
		return fakeRequest{seq, err}
	}
	w, ok := f.windows[win]
	if !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	w.Mapped = true
	return fakeRequest{seq, nil}
}

func (f *FakeX) UnmapWindow(win xproto.Window) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("UnmapWindow")
	if err != nil {
		return fakeRequest{seq, err}
	}
	w, ok := f.windows[win]
	if !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	f.unmapLocked(w)
	return fakeRequest{seq, nil}
}

func (f *FakeX) unmapLocked(w *FakeWindow) {
	if !w.Mapped {
		return
	}
	w.Mapped = false
	f.notifyLocked(w, func(event xproto.Window) xgb.Event {
		return xproto.UnmapNotifyEvent{Sequence: f.seq, Event: event, Window: w.ID}
	})
}

func (f *FakeX) DestroyWindow(win xproto.Window) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("DestroyWindow")
	if err != nil {
		return fakeRequest{seq, err}
	}
	w, ok := f.windows[win]
	if !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	if win != rootID {
		f.destroyLocked(w)
	}
	return fakeRequest{seq, nil}
}

// destroyLocked unmaps w, then destroys its inferiors bottom-up before w.
func (f *FakeX) destroyLocked(w *FakeWindow) {
	f.unmapLocked(w)
	var walk func(*FakeWindow)
	walk = func(n *FakeWindow) {
		for _, c := range slices.Clone(n.Children) {
			if child, ok := f.windows[c]; ok {
				walk(child)
			}
		}
		f.notifyLocked(n, func(event xproto.Window) xgb.Event {
			return xproto.DestroyNotifyEvent{Sequence: f.seq, Event: event, Window: n.ID}
		})
		delete(f.windows, n.ID)
		delete(f.saveSet, n.ID)
		delete(f.grabs, n.ID)
	}
	walk(w)
	if parent, ok := f.windows[w.Parent]; ok {
		parent.Children = slices.DeleteFunc(parent.Children, func(c xproto.Window) bool { return c == w.ID })
	}
	if f.focus == w.ID {
		f.focus = xproto.InputFocusPointerRoot
	}
}

func (f *FakeX) ConfigureWindow(win xproto.Window, mask uint16, values []uint32) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("ConfigureWindow")
	if err != nil {
		return fakeRequest{seq, err}
	}
	w, ok := f.windows[win]
	if !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	for bit := uint16(1); bit <= xproto.ConfigWindowStackMode; bit <<= 1 {
		if mask&bit == 0 || len(values) == 0 {
			continue
		}
		v := values[0]
		values = values[1:]
		switch bit {
		case xproto.ConfigWindowX:
			w.X = int16(int32(v))
		case xproto.ConfigWindowY:
			w.Y = int16(int32(v))
		case xproto.ConfigWindowWidth:
			w.Width = uint16(v)
		case xproto.ConfigWindowHeight:
			w.Height = uint16(v)
		case xproto.ConfigWindowBorderWidth:
			w.BorderWidth = uint16(v)
		case xproto.ConfigWindowStackMode:
			if v == xproto.StackModeAbove {
				if parent, ok := f.windows[w.Parent]; ok {
					parent.Children = slices.DeleteFunc(parent.Children, func(c xproto.Window) bool { return c == win })
					parent.Children = append(parent.Children, win)
				}
			}
		}
	}
	return fakeRequest{seq, nil}
}

func (f *FakeX) GrabButton(win xproto.Window, eventMask uint16, confineTo xproto.Window, button byte, modifiers uint16) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("GrabButton")
	if err != nil {
		return fakeRequest{seq, err}
	}
	if _, ok := f.windows[win]; !ok {
		return fakeRequest{seq, badWindow(win)}
	}
	f.grabs[win]++
	return fakeRequest{seq, nil}
}

func (f *FakeX) GrabServer() xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("GrabServer")
	if err == nil {
		f.serverGrabbed = true
	}
	return fakeRequest{seq, err}
}

func (f *FakeX) UngrabServer() xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("UngrabServer")
	if err == nil {
		f.serverGrabbed = false
	}
	return fakeRequest{seq, err}
}

func (f *FakeX) SetInputFocus(revertTo byte, focus xproto.Window, time xproto.Timestamp) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("SetInputFocus")
	if err != nil {
		return fakeRequest{seq, err}
	}
	if focus > xproto.InputFocusPointerRoot {
		if _, ok := f.windows[focus]; !ok {
			return fakeRequest{seq, badWindow(focus)}
		}
	}
	f.focus = focus
	return fakeRequest{seq, nil}
}

func (f *FakeX) SendEvent(dest xproto.Window, eventMask uint32, event string) xconn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, err := f.begin("SendEvent")
	if err != nil {
		return fakeRequest{seq, err}
	}
	if _, ok := f.windows[dest]; !ok {
		return fakeRequest{seq, badWindow(dest)}
	}
	f.sent = append(f.sent, SentEvent{Dest: dest, Mask: eventMask, Raw: []byte(event)})
	return fakeRequest{seq, nil}
}

func (f *FakeX) SetSupportingWM(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin("SetSupportingWM"); err != nil {
		return err
	}
	f.supportingWM = name
	return nil
}

func (f *FakeX) SetActiveWindow(win xproto.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.begin("SetActiveWindow"); err != nil {
		return err
	}
	f.active = win
	return nil
}

func (f *FakeX) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFakeClosed
	}
	return nil
}

func (f *FakeX) Events() <-chan xconn.Event { return f.events }

// Close ends the event stream with xconn.ErrClosed.
func (f *FakeX) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.events <- xconn.Event{Err: xconn.ErrClosed}
}

// notifyLocked delivers a structure event about w: on w itself when the
// manager selected StructureNotify there, and on its parent when the
// manager selected SubstructureNotify there.
func (f *FakeX) notifyLocked(w *FakeWindow, build func(event xproto.Window) xgb.Event) {
	if w.EventMask&xproto.EventMaskStructureNotify != 0 {
		f.postLocked(build(w.ID))
	}
	if parent, ok := f.windows[w.Parent]; ok && parent.EventMask&xproto.EventMaskSubstructureNotify != 0 {
		f.postLocked(build(parent.ID))
	}
}

func (f *FakeX) postLocked(ev xgb.Event) {
	if f.closed {
		return
	}
	f.events <- xconn.Event{Event: ev}
}

// =============================================================================
// Other clients
// =============================================================================

// CreateClient creates an unmapped top-level window as another client would.
func (f *FakeX) CreateClient(x, y int16, width, height uint16) xproto.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := xproto.Window(f.nextClientID)
	f.nextClientID++
	if err := f.createLocked(id, rootID, x, y, width, height, 0, 0, nil); err != nil {
		panic(err)
	}
	return id
}

// SetOverrideRedirect marks win as override-redirect.
func (f *FakeX) SetOverrideRedirect(win xproto.Window, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[win]; ok {
		w.OverrideRedirect = on
	}
}

// MapClient maps win on behalf of its owner. Top-level windows go through
// the manager when it holds substructure redirect on the root.
func (f *FakeX) MapClient(win xproto.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[win]
	if !ok {
		return
	}
	parent := f.windows[w.Parent]
	if !w.OverrideRedirect && parent != nil && parent.EventMask&xproto.EventMaskSubstructureRedirect != 0 {
		f.postLocked(xproto.MapRequestEvent{Sequence: f.seq, Parent: parent.ID, Window: win})
		return
	}
	w.Mapped = true
}

// UnmapClient unmaps win on behalf of its owner.
func (f *FakeX) UnmapClient(win xproto.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[win]; ok {
		f.unmapLocked(w)
	}
}

// DestroyClient destroys win on behalf of its owner.
func (f *FakeX) DestroyClient(win xproto.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[win]; ok && win != rootID {
		f.destroyLocked(w)
	}
}

// SetProtocols sets WM_PROTOCOLS on win to the named atoms.
func (f *FakeX) SetProtocols(win xproto.Window, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[win]
	if !ok {
		return
	}
	data := make([]byte, 4*len(names))
	for i, name := range names {
		xgb.Put32(data[4*i:], uint32(f.internLocked(name)))
	}
	w.Props[f.internLocked("WM_PROTOCOLS")] = Property{Type: xproto.AtomAtom, Format: 32, Data: data}
}

// Inject queues an arbitrary event for the manager.
func (f *FakeX) Inject(ev xgb.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postLocked(ev)
}

// InjectError queues a protocol error that no request claimed.
func (f *FakeX) InjectError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events <- xconn.Event{Err: err}
}

// Pending drains the queued events without blocking.
func (f *FakeX) Pending() []xgb.Event {
	var out []xgb.Event
	for {
		select {
		case ev := <-f.events:
			if ev.Event != nil {
				out = append(out, ev.Event)
			}
		default:
			return out
		}
	}
}

// Sync sends an R3_SYNC probe to the root and waits for the manager to echo
// it back, which means every event queued before the probe was handled.
func (f *FakeX) Sync(timeout time.Duration) error {
	f.mu.Lock()
	f.syncMagic++
	magic := f.syncMagic
	probe := xproto.Window(f.nextClientID)
	f.nextClientID++
	if err := f.createLocked(probe, rootID, -15, -15, 1, 1, 0, xproto.CwOverrideRedirect, []uint32{1}); err != nil {
		f.mu.Unlock()
		return err
	}
	f.windows[probe].Mapped = true
	syncAtom := f.internLocked(xconn.AtomSync)
	f.postLocked(xproto.ClientMessageEvent{
		Format:   32,
		Sequence: f.seq,
		Window:   rootID,
		Type:     syncAtom,
		Data:     xproto.ClientMessageDataUnionData32New([]uint32{uint32(probe), magic, 0, 0, 0}),
	})
	f.mu.Unlock()

	defer f.DestroyClient(probe)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, s := range f.Sent() {
			if s.Dest != probe {
				continue
			}
			if ev, ok := s.ClientMessage(); ok && ev.Type == syncAtom && ev.Data.Data32[1] == magic {
				return nil
			}
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("no sync reply within %v", timeout)
}

// SetOtherWM makes the next attempt to select events on the root fail with
// BadAccess, as if another manager were running.
func (f *FakeX) SetOtherWM(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otherWM = on
}

// FailNext makes the next request named op fail with err.
func (f *FakeX) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

// =============================================================================
// Inspection
// =============================================================================

// Atom returns the atom for name, interning it if needed.
func (f *FakeX) Atom(name string) xproto.Atom {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.internLocked(name)
}

// Window returns a snapshot of win.
func (f *FakeX) Window(win xproto.Window) (FakeWindow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[win]
	if !ok {
		return FakeWindow{}, false
	}
	return w.clone(), true
}

// Exists reports whether win has not been destroyed.
func (f *FakeX) Exists(win xproto.Window) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.windows[win]
	return ok
}

// TopLevel returns the mapped, non override-redirect children of the root
// in stacking order.
func (f *FakeX) TopLevel() []xproto.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []xproto.Window
	for _, c := range f.windows[rootID].Children {
		if w := f.windows[c]; w.Mapped && !w.OverrideRedirect {
			out = append(out, c)
		}
	}
	return out
}

// InSaveSet reports save-set membership.
func (f *FakeX) InSaveSet(win xproto.Window) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveSet[win]
}

// Grabs returns how many button grabs are active on win.
func (f *FakeX) Grabs(win xproto.Window) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grabs[win]
}

// Sent returns every SendEvent request so far.
func (f *FakeX) Sent() []SentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

// InputFocus returns the window last given input focus.
func (f *FakeX) InputFocus() xproto.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focus
}

// ActiveWindow returns the last _NET_ACTIVE_WINDOW value.
func (f *FakeX) ActiveWindow() xproto.Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// SupportingWM returns the advertised manager name.
func (f *FakeX) SupportingWM() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supportingWM
}

// ServerGrabbed reports whether a server grab is held.
func (f *FakeX) ServerGrabbed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serverGrabbed
}

// Requests returns the names of the requests issued so far.
func (f *FakeX) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.log)
}

// Sequence returns the sequence number of the last request.
func (f *FakeX) Sequence() uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}
