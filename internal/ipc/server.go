package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Ack is the reply to a command that was accepted onto the queue.
const Ack = "ok"

// Options configures a Server.
type Options struct {
	// Version answers GetVersion.
	Version string
	// Config answers GetConfig. It must not change after Listen.
	Config []byte
	// ReadTimeout bounds how long a worker waits for a peer to finish
	// writing its command. Zero disables the deadline.
	ReadTimeout time.Duration
	Logger      *log.Logger
}

// Server owns the listening socket. Accepted connections are handed to the
// event loop through Ready, and the loop hands each one back to Serve, which
// reads it on its own goroutine.
type Server struct {
	path  string
	ln    *net.UnixListener
	queue *Queue
	opts  Options
	log   *log.Logger

	ready  chan net.Conn
	errs   chan error
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	wg     sync.WaitGroup
}

// Listen creates the socket at path, replacing any leftover file, and starts
// accepting.
func Listen(path string, queue *Queue, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove old socket: %w", err)
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	ln.SetUnlinkOnClose(false)

	s := &Server{
		path:  path,
		ln:    ln,
		queue: queue,
		opts:  opts,
		log:   opts.Logger.WithPrefix("ipc"),
		ready: make(chan net.Conn),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
	go s.accept()
	return s, nil
}

// Path returns the filesystem path of the socket.
func (s *Server) Path() string { return s.path }

// Ready delivers accepted connections.
func (s *Server) Ready() <-chan net.Conn { return s.ready }

// Errors delivers the accept error that stopped the acceptor. Errors caused
// by Close are not reported.
func (s *Server) Errors() <-chan error { return s.errs }

func (s *Server) accept() {
	for {
		conn, err := s.ln.AcceptUnix()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.errs <- fmt.Errorf("accept failed: %w", err)
			return
		}
		select {
		case s.ready <- conn:
		case <-s.done:
			conn.Close()
			return
		}
	}
}

// Serve reads one command from conn on a new goroutine.
func (s *Server) Serve(conn net.Conn) {
	s.wg.Go(func() {
		s.handle(conn)
	})
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	logger := s.log.With("conn", uuid.NewString()[:8])
	if uc, ok := conn.(*net.UnixConn); ok {
		if p, err := peerCred(uc); err == nil {
			logger = logger.With("peer_pid", p.PID, "peer_uid", p.UID)
		}
	}

	if s.opts.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline", "err", err)
			return
		}
	}
	payload, err := io.ReadAll(conn)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			logger.Debug("Read deadline expired, dropping connection")
			return
		}
		logger.Warn("Failed to read command", "err", err)
		return
	}

	cmd, err := Decode(payload)
	if err != nil {
		logger.Warn("Rejected command", "err", err)
		s.reply(conn, logger, "error: "+err.Error())
		return
	}
	logger.Debug("Received command", "cmd", cmd)

	switch cmd.Kind {
	case KindGetVersion:
		s.reply(conn, logger, s.opts.Version)
	case KindGetConfig:
		s.reply(conn, logger, string(s.opts.Config))
	default:
		s.queue.Push(cmd)
		s.reply(conn, logger, Ack)
	}
}

func (s *Server) reply(conn net.Conn, logger *log.Logger, msg string) {
	if _, err := io.WriteString(conn, msg); err != nil {
		logger.Debug("Failed to write reply", "err", err)
	}
}

// Close stops accepting and removes the socket file. Workers still reading
// finish on their own.
func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
		err = s.ln.Close()
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	})
	return err
}

// Wait blocks until every worker started by Serve has returned.
func (s *Server) Wait() { s.wg.Wait() }
