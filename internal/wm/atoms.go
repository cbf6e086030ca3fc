package wm

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
)

// Atoms holds every atom the manager uses, interned once at startup.
type Atoms struct {
	WMProtocols    xproto.Atom
	WMDeleteWindow xproto.Atom

	PID        xproto.Atom
	SocketPath xproto.Atom
	Sync       xproto.Atom
	Frame      xproto.Atom
}

// InternAtoms resolves the fixed atom set in a single batch.
func InternAtoms(conn xconn.Conn) (Atoms, error) {
	var a Atoms
	table := []struct {
		name string
		dst  *xproto.Atom
	}{
		{"WM_PROTOCOLS", &a.WMProtocols},
		{"WM_DELETE_WINDOW", &a.WMDeleteWindow},
		{xconn.AtomPID, &a.PID},
		{xconn.AtomSocketPath, &a.SocketPath},
		{xconn.AtomSync, &a.Sync},
		{xconn.AtomFrame, &a.Frame},
	}

	names := make([]string, len(table))
	for i, e := range table {
		names[i] = e.name
	}
	atoms, err := conn.InternAtoms(names)
	if err != nil {
		return Atoms{}, fmt.Errorf("failed to intern atoms: %w", err)
	}
	if len(atoms) != len(table) {
		return Atoms{}, fmt.Errorf("interned %d atoms, want %d", len(atoms), len(table))
	}
	for i, e := range table {
		*e.dst = atoms[i]
	}
	return a, nil
}
