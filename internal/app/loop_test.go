package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/Gaurav-Gosain/r3/internal/ipc"
	"github.com/Gaurav-Gosain/r3/internal/testutil"
	"github.com/Gaurav-Gosain/r3/internal/wm"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
	"github.com/charmbracelet/log"
)

const testVersion = "r3 test"

type harness struct {
	x       *testutil.FakeX
	srv     *ipc.Server
	queue   *ipc.Queue
	signals chan os.Signal
	path    string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// start claims a fake screen and runs a loop over it until the test ends.
// before runs after Become and ahead of the loop.
func start(t *testing.T, before func(h *harness)) *harness {
	t.Helper()
	logger := log.New(io.Discard)

	x := testutil.NewFakeX()
	m, err := wm.New(x, wm.Options{
		Appearance: wm.Appearance{BorderWidth: 10, Background: 0x0000ff, Border: 0xaaaaaa, FocusedBorder: 0xff0000},
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("wm.New failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "r3", "ipc-socket.4242")
	if err := m.Become(path, 4242); err != nil {
		t.Fatalf("Become failed: %v", err)
	}

	queue := ipc.NewQueue()
	srv, err := ipc.Listen(path, queue, ipc.Options{
		Version:     testVersion,
		ReadTimeout: time.Second,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	h := &harness{
		x:       x,
		srv:     srv,
		queue:   queue,
		signals: make(chan os.Signal, 1),
		path:    path,
		done:    make(chan struct{}),
	}
	if before != nil {
		before(h)
	}

	loop := New(x, m, srv, queue, Options{Signals: h.signals, Timeout: 5 * time.Millisecond, Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.err = loop.Run(ctx)
		close(h.done)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
			t.Error("loop did not stop on cleanup")
		}
		srv.Wait()
	})
	return h
}

// wait returns the loop's result once it stops.
func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case <-h.done:
		return h.err
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func (h *harness) send(t *testing.T, cmd ipc.Command) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := ipc.Send(ctx, h.path, cmd)
	if err != nil {
		t.Fatalf("Send(%v) failed: %v", cmd, err)
	}
	return reply
}

func (h *harness) sync(t *testing.T) {
	t.Helper()
	if err := h.x.Sync(5 * time.Second); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
}

func (h *harness) openWindow(t *testing.T, protocols ...string) xproto.Window {
	t.Helper()
	client := h.x.CreateClient(0, 0, 30, 30)
	if len(protocols) > 0 {
		h.x.SetProtocols(client, protocols...)
	}
	h.x.MapClient(client)
	h.sync(t)
	return client
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func socketGone(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}

func TestLoopFramesMappedWindow(t *testing.T) {
	h := start(t, nil)
	client := h.openWindow(t)

	top := h.x.TopLevel()
	if len(top) != 1 {
		t.Fatalf("TopLevel() = %v, want one frame", top)
	}
	frame, _ := h.x.Window(top[0])
	if frame.X != 0 || frame.Y != 0 || frame.Width != 30 || frame.Height != 30 || frame.BorderWidth != 10 {
		t.Errorf("frame geometry = (%d,%d %dx%d bw %d), want (0,0 30x30 bw 10)",
			frame.X, frame.Y, frame.Width, frame.Height, frame.BorderWidth)
	}
	c, _ := h.x.Window(client)
	if c.Parent != frame.ID || c.X != 0 || c.Y != 0 {
		t.Errorf("client at parent %d (%d,%d), want frame %d (0,0)", c.Parent, c.X, c.Y, frame.ID)
	}

	eventually(t, "input focus on the new window", func() bool {
		return h.x.InputFocus() == client
	})
	eventually(t, "focused border", func() bool {
		f, _ := h.x.Window(frame.ID)
		return f.BorderPixel == 0xff0000
	})
}

func TestLoopCloseWithoutDeleteProtocol(t *testing.T) {
	h := start(t, nil)
	client := h.openWindow(t)

	if reply := h.send(t, ipc.CmdCloseWindow); reply != ipc.Ack {
		t.Fatalf("reply = %q, want %q", reply, ipc.Ack)
	}
	eventually(t, "window to be destroyed", func() bool {
		return len(h.x.TopLevel()) == 0 && !h.x.Exists(client)
	})
	for _, s := range h.x.Sent() {
		if ev, ok := s.ClientMessage(); ok && ev.Type == h.x.Atom("WM_PROTOCOLS") {
			t.Errorf("sent WM_PROTOCOLS message to %d", s.Dest)
		}
	}
}

func TestLoopCloseWithDeleteProtocol(t *testing.T) {
	h := start(t, nil)
	client := h.openWindow(t, "WM_DELETE_WINDOW")

	if reply := h.send(t, ipc.CmdCloseWindow); reply != ipc.Ack {
		t.Fatalf("reply = %q, want %q", reply, ipc.Ack)
	}
	eventually(t, "WM_DELETE_WINDOW message", func() bool {
		for _, s := range h.x.Sent() {
			ev, ok := s.ClientMessage()
			if ok && s.Dest == client && ev.Type == h.x.Atom("WM_PROTOCOLS") &&
				xproto.Atom(ev.Data.Data32[0]) == h.x.Atom("WM_DELETE_WINDOW") {
				return true
			}
		}
		return false
	})
	h.sync(t)
	if !h.x.Exists(client) || len(h.x.TopLevel()) != 1 {
		t.Error("window removed before its owner closed it")
	}
}

func TestLoopExitDropsQueuedCommands(t *testing.T) {
	var client xproto.Window
	h := start(t, func(h *harness) {
		client = h.x.CreateClient(0, 0, 30, 30)
		h.x.MapClient(client)
		h.queue.Push(ipc.CmdExit)
		h.queue.Push(ipc.CmdCloseWindow)
	})

	if err := h.wait(t); err != nil {
		t.Fatalf("Run() = %v, want nil after Exit", err)
	}
	if !socketGone(h.path) {
		t.Error("socket still present after exit")
	}
	if !h.x.Exists(client) {
		t.Error("command queued after Exit was applied")
	}
	if h.queue.Len() != 0 {
		t.Errorf("queue holds %d commands after exit", h.queue.Len())
	}
}

func TestLoopExitOverIPC(t *testing.T) {
	h := start(t, nil)
	if reply := h.send(t, ipc.CmdExit); reply != ipc.Ack {
		t.Fatalf("reply = %q, want %q", reply, ipc.Ack)
	}
	if err := h.wait(t); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !socketGone(h.path) {
		t.Error("socket still present after exit")
	}
}

func TestLoopQueriesAnsweredByWorker(t *testing.T) {
	h := start(t, nil)
	if reply := h.send(t, ipc.CmdGetVersion); reply != testVersion {
		t.Errorf("GetVersion reply = %q, want %q", reply, testVersion)
	}
	h.sync(t)
	select {
	case <-h.done:
		t.Fatalf("loop stopped after a query: %v", h.err)
	default:
	}
}

func TestLoopStopsOnSignal(t *testing.T) {
	h := start(t, nil)
	h.signals <- syscall.SIGTERM
	if err := h.wait(t); err != nil {
		t.Fatalf("Run() = %v, want nil on SIGTERM", err)
	}
	if !socketGone(h.path) {
		t.Error("socket still present after SIGTERM")
	}
}

func TestLoopFatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		cause func(h *harness)
		check func(err error) bool
	}{
		{
			name:  "connection closed",
			cause: func(h *harness) { h.x.Close() },
			check: func(err error) bool {
				return errors.Is(err, xconn.ErrClosed) || errors.Is(err, testutil.ErrFakeClosed)
			},
		},
		{
			name:  "stray protocol error",
			cause: func(h *harness) { h.x.InjectError(xproto.WindowError{BadValue: 7}) },
			check: func(err error) bool {
				var werr xproto.WindowError
				return errors.As(err, &werr)
			},
		},
		{
			name:  "query reached the loop",
			cause: func(h *harness) { h.queue.Push(ipc.CmdGetConfig) },
			check: func(err error) bool { return errors.Is(err, ErrUnsupported) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := start(t, nil)
			tt.cause(h)
			err := h.wait(t)
			if err == nil || !tt.check(err) {
				t.Errorf("Run() = %v, want fatal %s error", err, tt.name)
			}
			if !socketGone(h.path) {
				t.Error("socket still present after fatal error")
			}
		})
	}
}
