package xconn

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/charmbracelet/log"
)

// eventBuffer bounds how far the pump may read ahead of the main loop.
const eventBuffer = 256

// XConn is a Conn backed by a real server connection.
type XConn struct {
	conn   *xgb.Conn
	xu     *xgbutil.XUtil
	root   xproto.Window
	events chan Event
	done   chan struct{}
	dirty  atomic.Bool
	once   sync.Once
	log    *log.Logger
}

var _ Conn = (*XConn)(nil)

// Dial connects to display, or $DISPLAY when display is empty, and starts
// reading events.
func Dial(display string, logger *log.Logger) (*XConn, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	xu, err := xgbutil.NewConnXgb(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize xgbutil: %w", err)
	}

	c := &XConn{
		conn:   conn,
		xu:     xu,
		root:   xproto.Setup(conn).DefaultScreen(conn).Root,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
		log:    logger.WithPrefix("x"),
	}
	go c.pump()
	return c, nil
}

func (c *XConn) pump() {
	for {
		ev, xerr := c.conn.WaitForEvent()
		var item Event
		switch {
		case ev == nil && xerr == nil:
			c.log.Debug("event stream ended")
			item = Event{Err: ErrClosed}
		case xerr != nil:
			item = Event{Err: xerr}
		default:
			item = Event{Event: ev}
		}

		select {
		case c.events <- item:
		case <-c.done:
			return
		}
		if item.Err == ErrClosed {
			return
		}
	}
}

func (c *XConn) Root() xproto.Window { return c.root }

func (c *XConn) NewWindowID() (xproto.Window, error) {
	return xproto.NewWindowId(c.conn)
}

// InternAtoms sends every InternAtom request before waiting on the first
// reply.
func (c *XConn) InternAtoms(names []string) ([]xproto.Atom, error) {
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(c.conn, false, uint16(len(name)), name)
	}
	atoms := make([]xproto.Atom, len(names))
	for i, cookie := range cookies {
		reply, err := cookie.Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to intern %s: %w", names[i], err)
		}
		atoms[i] = reply.Atom
	}
	return atoms, nil
}

func (c *XConn) QueryTree(win xproto.Window) (*xproto.QueryTreeReply, error) {
	return xproto.QueryTree(c.conn, win).Reply()
}

func (c *XConn) GetGeometry(win xproto.Window) (*xproto.GetGeometryReply, error) {
	return xproto.GetGeometry(c.conn, xproto.Drawable(win)).Reply()
}

func (c *XConn) GetWindowAttributes(win xproto.Window) (*xproto.GetWindowAttributesReply, error) {
	return xproto.GetWindowAttributes(c.conn, win).Reply()
}

func (c *XConn) GetProperty(win xproto.Window, prop, typ xproto.Atom) (*xproto.GetPropertyReply, error) {
	return xproto.GetProperty(c.conn, false, win, prop, typ, 0, math.MaxUint32).Reply()
}

// request adapts an xgb void cookie. Every void request is sent checked so
// that errors for requests nobody checks are dropped with the cookie instead
// of surfacing on the event stream.
type request struct {
	seq   uint16
	check func() error
}

func (r request) Sequence() uint16 { return r.seq }
func (r request) Check() error     { return r.check() }

func (c *XConn) issued(seq uint16, check func() error) Request {
	c.dirty.Store(true)
	return request{seq: seq, check: check}
}

func (c *XConn) CreateWindow(wid, parent xproto.Window, x, y int16, width, height, borderWidth uint16, mask uint32, values []uint32) Request {
	ck := xproto.CreateWindowChecked(c.conn, xproto.WindowClassCopyFromParent, wid, parent,
		x, y, width, height, borderWidth,
		xproto.WindowClassInputOutput, xproto.Visualid(xproto.WindowClassCopyFromParent),
		mask, values)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) ChangeWindowAttributes(win xproto.Window, mask uint32, values []uint32) Request {
	ck := xproto.ChangeWindowAttributesChecked(c.conn, win, mask, values)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) ChangeProperty(win xproto.Window, prop, typ xproto.Atom, format byte, data []byte) Request {
	units := uint32(len(data))
	if format > 8 {
		units /= uint32(format / 8)
	}
	ck := xproto.ChangePropertyChecked(c.conn, xproto.PropModeReplace, win, prop, typ, format, units, data)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) ChangeSaveSet(mode byte, win xproto.Window) Request {
	ck := xproto.ChangeSaveSetChecked(c.conn, mode, win)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) ReparentWindow(win, parent xproto.Window, x, y int16) Request {
	ck := xproto.ReparentWindowChecked(c.conn, win, parent, x, y)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) MapWindow(win xproto.Window) Request {
	ck := xproto.MapWindowChecked(c.conn, win)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) UnmapWindow(win xproto.Window) Request {
	ck := xproto.UnmapWindowChecked(c.conn, win)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) DestroyWindow(win xproto.Window) Request {
	ck := xproto.DestroyWindowChecked(c.conn, win)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) ConfigureWindow(win xproto.Window, mask uint16, values []uint32) Request {
	ck := xproto.ConfigureWindowChecked(c.conn, win, mask, values)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) GrabButton(win xproto.Window, eventMask uint16, confineTo xproto.Window, button byte, modifiers uint16) Request {
	ck := xproto.GrabButtonChecked(c.conn, false, win, eventMask,
		xproto.GrabModeAsync, xproto.GrabModeAsync,
		confineTo, xproto.CursorNone, button, modifiers)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) GrabServer() Request {
	ck := xproto.GrabServerChecked(c.conn)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) UngrabServer() Request {
	ck := xproto.UngrabServerChecked(c.conn)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) SetInputFocus(revertTo byte, focus xproto.Window, time xproto.Timestamp) Request {
	ck := xproto.SetInputFocusChecked(c.conn, revertTo, focus, time)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) SendEvent(dest xproto.Window, eventMask uint32, event string) Request {
	ck := xproto.SendEventChecked(c.conn, false, dest, eventMask, event)
	return c.issued(ck.Sequence, ck.Check)
}

func (c *XConn) SetSupportingWM(name string) error {
	dummy := c.xu.Dummy()
	if err := ewmh.SupportingWmCheckSet(c.xu, c.root, dummy); err != nil {
		return fmt.Errorf("failed to set supporting wm check on root: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.xu, dummy, dummy); err != nil {
		return fmt.Errorf("failed to set supporting wm check on child: %w", err)
	}
	if err := ewmh.WmNameSet(c.xu, dummy, name); err != nil {
		return fmt.Errorf("failed to set wm name: %w", err)
	}
	supported := []string{"_NET_SUPPORTED", "_NET_SUPPORTING_WM_CHECK", "_NET_WM_NAME", "_NET_ACTIVE_WINDOW"}
	if err := ewmh.SupportedSet(c.xu, supported); err != nil {
		return fmt.Errorf("failed to set supported hints: %w", err)
	}
	return nil
}

func (c *XConn) SetActiveWindow(win xproto.Window) error {
	return ewmh.ActiveWindowSet(c.xu, win)
}

// Flush does a round trip, but only when something was sent since the
// last one.
func (c *XConn) Flush() error {
	if !c.dirty.Swap(false) {
		return nil
	}
	if _, err := xproto.GetInputFocus(c.conn).Reply(); err != nil {
		return fmt.Errorf("failed to sync with X server: %w", err)
	}
	return nil
}

func (c *XConn) Events() <-chan Event { return c.events }

func (c *XConn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
