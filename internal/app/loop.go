// Package app runs the window manager's event loop: it owns the X
// connection, the IPC server and the command queue, and is the only place
// that drives the window manager core.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Gaurav-Gosain/r3/internal/config"
	"github.com/Gaurav-Gosain/r3/internal/ipc"
	"github.com/Gaurav-Gosain/r3/internal/wm"
	"github.com/Gaurav-Gosain/r3/internal/xconn"
	"github.com/charmbracelet/log"
)

// Options configures a Loop.
type Options struct {
	// Signals ends the loop after the current iteration when it delivers.
	Signals <-chan os.Signal
	// Timeout bounds each wait. Zero means config.LoopTimeout.
	Timeout time.Duration
	Logger  *log.Logger
}

// Loop multiplexes X events, IPC connections, queued commands and
// termination signals onto one goroutine.
type Loop struct {
	conn    xconn.Conn
	wm      *wm.Manager
	server  *ipc.Server
	queue   *ipc.Queue
	signals <-chan os.Signal
	timeout time.Duration
	log     *log.Logger

	// dirty is set once something was handled since the last render.
	dirty bool
}

// New returns a loop over an already claimed screen and a listening server.
func New(conn xconn.Conn, manager *wm.Manager, server *ipc.Server, queue *ipc.Queue, opts Options) *Loop {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.LoopTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		conn:    conn,
		wm:      manager,
		server:  server,
		queue:   queue,
		signals: opts.Signals,
		timeout: timeout,
		log:     logger.WithPrefix("loop"),
	}
}

// Run processes events until an Exit command, a termination signal, ctx
// cancellation, or a fatal error. The IPC socket is closed and removed on
// return in every case.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	for {
		if err := l.drain(); err != nil {
			return err
		}

		timer.Reset(l.timeout)
		stop := false
		select {
		case item := <-l.conn.Events():
			if err := l.handle(item); err != nil {
				return err
			}

		case c := <-l.server.Ready():
			l.server.Serve(c)
			l.acceptPending()

		case <-l.queue.Wake():
			if err := l.serviceCommands(); err != nil {
				if errors.Is(err, errExit) {
					l.log.Info("Exit requested")
					return nil
				}
				return err
			}

		case sig := <-l.signals:
			l.log.Info("Received signal, shutting down", "signal", sig)
			stop = true

		case err := <-l.server.Errors():
			return fmt.Errorf("ipc listener failed: %w", err)

		case <-ctx.Done():
			l.log.Info("Context cancelled, shutting down")
			return nil

		case <-timer.C:
		}

		if stop {
			return nil
		}
	}
}

// drain handles every event already queued on the connection without
// waiting, then renders and flushes.
func (l *Loop) drain() error {
	for drained := false; !drained; {
		select {
		case item := <-l.conn.Events():
			if err := l.handle(item); err != nil {
				return err
			}
		default:
			drained = true
		}
	}

	if l.dirty {
		l.dirty = false
		if err := l.wm.Render(); err != nil {
			l.log.Warn("Render pass had failures", "err", err)
		}
	}
	if err := l.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush X connection: %w", err)
	}
	return nil
}

// handle applies one item from the event stream. Stream errors are fatal;
// handler errors are logged.
func (l *Loop) handle(item xconn.Event) error {
	if item.Err != nil {
		if errors.Is(item.Err, xconn.ErrClosed) {
			return fmt.Errorf("lost connection to the X server: %w", item.Err)
		}
		return fmt.Errorf("unexpected X error: %w", item.Err)
	}
	l.dirty = true
	if err := l.wm.HandleEvent(item.Event); err != nil {
		l.log.Warn("Failed to handle event", "event", item.Event, "err", err)
	}
	return nil
}

// acceptPending hands every connection the acceptor already holds to a
// worker.
func (l *Loop) acceptPending() {
	for {
		select {
		case c := <-l.server.Ready():
			l.server.Serve(c)
		default:
			return
		}
	}
}

// serviceCommands dispatches the whole queue in FIFO order. Commands behind
// an Exit are dropped.
func (l *Loop) serviceCommands() error {
	cmds := l.queue.Drain()
	for i, cmd := range cmds {
		err := l.dispatch(cmd)
		if err == nil {
			continue
		}
		if errors.Is(err, errExit) {
			if rest := len(cmds) - i - 1; rest > 0 {
				l.log.Debug("Dropping commands queued behind exit", "count", rest)
			}
			return err
		}
		var reqErr *wm.RequestError
		if errors.As(err, &reqErr) {
			l.log.Warn("Command failed", "cmd", cmd, "err", err)
			continue
		}
		return err
	}
	l.dirty = l.dirty || len(cmds) > 0
	return nil
}

func (l *Loop) shutdown() {
	if err := l.server.Close(); err != nil {
		l.log.Warn("Failed to close IPC socket", "path", l.server.Path(), "err", err)
	}
	l.log.Debug("Removed IPC socket", "path", l.server.Path())
}
