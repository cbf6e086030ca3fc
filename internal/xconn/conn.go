// Package xconn is the window manager's view of the X server.
//
// The core talks to a Conn rather than to *xgb.Conn directly so the same
// code runs against the real server (XConn) and against the in-memory server
// used by tests. Types on the interface are the xproto ones.
package xconn

import (
	"errors"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Property names published for external tooling.
const (
	AtomPID        = "R3_PID"
	AtomSocketPath = "R3_SOCKET_PATH"
	AtomSync       = "R3_SYNC"
	AtomFrame      = "R3_FRAME"
)

// ErrClosed is delivered on the event stream when the server connection
// goes away.
var ErrClosed = errors.New("x connection closed")

// Event is one item read from the server: either an event or an error that
// was not claimed by a checked request.
type Event struct {
	Event xgb.Event
	Err   error
}

// Request is a request already written to the connection. Check waits for
// the server to process it and returns the protocol error, if any. Callers
// that do not care about the outcome simply never call Check.
type Request interface {
	Sequence() uint16
	Check() error
}

// Conn is the subset of the X protocol the window manager uses.
type Conn interface {
	Root() xproto.Window
	NewWindowID() (xproto.Window, error)
	InternAtoms(names []string) ([]xproto.Atom, error)

	QueryTree(win xproto.Window) (*xproto.QueryTreeReply, error)
	GetGeometry(win xproto.Window) (*xproto.GetGeometryReply, error)
	GetWindowAttributes(win xproto.Window) (*xproto.GetWindowAttributesReply, error)
	GetProperty(win xproto.Window, prop, typ xproto.Atom) (*xproto.GetPropertyReply, error)

	CreateWindow(wid, parent xproto.Window, x, y int16, width, height, borderWidth uint16, mask uint32, values []uint32) Request
	ChangeWindowAttributes(win xproto.Window, mask uint32, values []uint32) Request
	ChangeProperty(win xproto.Window, prop, typ xproto.Atom, format byte, data []byte) Request
	ChangeSaveSet(mode byte, win xproto.Window) Request
	ReparentWindow(win, parent xproto.Window, x, y int16) Request
	MapWindow(win xproto.Window) Request
	UnmapWindow(win xproto.Window) Request
	DestroyWindow(win xproto.Window) Request
	ConfigureWindow(win xproto.Window, mask uint16, values []uint32) Request
	GrabButton(win xproto.Window, eventMask uint16, confineTo xproto.Window, button byte, modifiers uint16) Request
	GrabServer() Request
	UngrabServer() Request
	SetInputFocus(revertTo byte, focus xproto.Window, time xproto.Timestamp) Request
	SendEvent(dest xproto.Window, eventMask uint32, event string) Request

	// SetSupportingWM advertises an EWMH compliant manager called name.
	SetSupportingWM(name string) error
	// SetActiveWindow updates _NET_ACTIVE_WINDOW on the root.
	SetActiveWindow(win xproto.Window) error

	// Flush blocks until every request issued so far has been processed.
	Flush() error
	// Events streams server events. The stream ends with ErrClosed.
	Events() <-chan Event
	Close()
}
