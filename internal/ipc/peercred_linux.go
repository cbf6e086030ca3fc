//go:build linux

package ipc

import (
	"net"

	"golang.org/x/sys/unix"
)

type peer struct {
	PID int
	UID int
}

// peerCred returns the credentials of the process on the other end of c.
func peerCred(c *net.UnixConn) (peer, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return peer{}, err
	}
	var cred *unix.Ucred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return peer{}, err
	}
	if credErr != nil {
		return peer{}, credErr
	}
	return peer{PID: int(cred.Pid), UID: int(cred.Uid)}, nil
}
