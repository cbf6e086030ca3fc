// Package wm is the window manager core: it frames client windows, tracks
// which frame holds which client, tracks focus, and implements interactive
// move and resize.
//
// A Manager is not safe for concurrent use. The event loop owns it.
package wm

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/Gaurav-Gosain/r3/internal/suppress"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
	"github.com/charmbracelet/log"
)

// Name is advertised through _NET_WM_NAME.
const Name = "r3"

// ErrAnotherWM is returned by Become when the server refuses substructure
// redirection on the root.
var ErrAnotherWM = errors.New("another window manager is already running")

// RequestError is a checked request that the server rejected.
type RequestError struct {
	Op     string
	Window xproto.Window
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s (window %d): %v", e.Op, e.Window, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Appearance is the frame decoration, already resolved to pixel values.
type Appearance struct {
	BorderWidth   uint16
	Background    uint32
	Border        uint32
	FocusedBorder uint32
}

// Options configures a Manager.
type Options struct {
	Appearance Appearance
	Logger     *log.Logger
	// Suppress replaces the default suppression table.
	Suppress *suppress.Table
}

// Manager is the window manager state for one screen.
type Manager struct {
	conn    xconn.Conn
	root    xproto.Window
	atoms   Atoms
	masks   Masks
	look    Appearance
	frames  *FrameMap
	ignored *suppress.Table
	drag    *dragState
	focus   xproto.Window
	log     *log.Logger
}

// New interns atoms and returns a Manager that has not yet claimed the
// screen.
func New(conn xconn.Conn, opts Options) (*Manager, error) {
	atoms, err := InternAtoms(conn)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ignored := opts.Suppress
	if ignored == nil {
		ignored = suppress.New()
	}
	return &Manager{
		conn:    conn,
		root:    conn.Root(),
		atoms:   atoms,
		masks:   NewMasks(),
		look:    opts.Appearance,
		frames:  NewFrameMap(),
		ignored: ignored,
		log:     logger.WithPrefix("wm"),
	}, nil
}

// Atoms returns the interned atom table.
func (m *Manager) Atoms() Atoms { return m.atoms }

// Focus returns the current focus target, or xproto.WindowNone.
func (m *Manager) Focus() xproto.Window { return m.focus }

// Managed returns a snapshot of every client/frame pair.
func (m *Manager) Managed() []Pair { return m.frames.Pairs() }

// FrameOf returns the frame holding client.
func (m *Manager) FrameOf(client xproto.Window) (xproto.Window, bool) {
	p, ok := m.frames.Resolve(client)
	if !ok || p.Client != client {
		return xproto.WindowNone, false
	}
	return p.Frame, true
}

// Become claims the window manager role on the root window, frames every
// window that is already visible, and publishes the discovery properties.
func (m *Manager) Become(socketPath string, pid int) error {
	err := m.conn.ChangeWindowAttributes(m.root, xproto.CwEventMask, []uint32{m.masks.Acquire}).Check()
	if err != nil {
		var access xproto.AccessError
		if errors.As(err, &access) {
			return ErrAnotherWM
		}
		return fmt.Errorf("failed to select substructure redirect: %w", err)
	}

	if err := m.scan(); err != nil {
		return err
	}

	if err := m.conn.ChangeWindowAttributes(m.root, xproto.CwEventMask, []uint32{m.masks.Root}).Check(); err != nil {
		return fmt.Errorf("failed to select root events: %w", err)
	}

	props := []struct {
		atom  xproto.Atom
		value string
	}{
		{m.atoms.PID, strconv.Itoa(pid)},
		{m.atoms.SocketPath, socketPath},
	}
	for _, p := range props {
		if err := m.conn.ChangeProperty(m.root, p.atom, xproto.AtomString, 8, []byte(p.value)).Check(); err != nil {
			return fmt.Errorf("failed to publish root property: %w", err)
		}
	}

	if err := m.conn.SetSupportingWM(Name); err != nil {
		m.log.Warn("Failed to advertise EWMH support", "err", err)
	}

	m.log.Info("Managing screen", "root", m.root, "windows", m.frames.Len())
	return m.conn.Flush()
}

// scan frames the root's existing children while the server is grabbed so
// no window can appear or vanish halfway through.
func (m *Manager) scan() (err error) {
	if err := m.conn.GrabServer().Check(); err != nil {
		return fmt.Errorf("failed to grab server: %w", err)
	}
	defer func() {
		if uerr := m.conn.UngrabServer().Check(); uerr != nil && err == nil {
			err = fmt.Errorf("failed to ungrab server: %w", uerr)
		}
	}()

	tree, err := m.conn.QueryTree(m.root)
	if err != nil {
		return fmt.Errorf("failed to query root children: %w", err)
	}
	for _, child := range tree.Children {
		if _, _, err := m.FrameWindow(child, true); err != nil {
			m.log.Warn("Skipping window during startup scan", "window", child, "err", err)
		}
	}
	return nil
}
