package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func startServer(t *testing.T, opts Options) (*Server, *Queue) {
	t.Helper()
	q := NewQueue()
	path := filepath.Join(t.TempDir(), "r3", "ipc-socket.1")
	srv, err := Listen(path, q, opts)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case c := <-srv.Ready():
				srv.Serve(c)
			case <-stop:
				return
			}
		}
	}()
	t.Cleanup(func() {
		close(stop)
		srv.Close()
		srv.Wait()
	})
	return srv, q
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServerAcksAndEnqueues(t *testing.T) {
	srv, q := startServer(t, Options{})
	ctx := testContext(t)

	for _, cmd := range []Command{CmdCloseWindow, CmdExit} {
		reply, err := Send(ctx, srv.Path(), cmd)
		if err != nil {
			t.Fatalf("Send(%v) failed: %v", cmd, err)
		}
		if reply != Ack {
			t.Errorf("Send(%v) reply = %q, want %q", cmd, reply, Ack)
		}
	}

	got := q.Drain()
	if len(got) != 2 || got[0] != CmdCloseWindow || got[1] != CmdExit {
		t.Errorf("queue = %v, want [WM(CloseWindow) Exit]", got)
	}
}

func TestServerAnswersQueries(t *testing.T) {
	opts := Options{
		Version: "r3 1.2.3",
		Config:  []byte("[appearance]\nborder_width = 10\n"),
	}
	srv, q := startServer(t, opts)
	ctx := testContext(t)

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"version", CmdGetVersion, opts.Version},
		{"config", CmdGetConfig, string(opts.Config)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := Send(ctx, srv.Path(), tt.cmd)
			if err != nil {
				t.Fatalf("Send failed: %v", err)
			}
			if reply != tt.want {
				t.Errorf("reply = %q, want %q", reply, tt.want)
			}
		})
	}
	if q.Len() != 0 {
		t.Errorf("queries were enqueued: %v", q.Drain())
	}
}

func TestServerRejectsMalformed(t *testing.T) {
	srv, q := startServer(t, Options{})
	ctx := testContext(t)

	reply, err := sendRaw(ctx, srv.Path(), []byte(`{"WM":"Explode"}`))
	if err != nil {
		t.Fatalf("sendRaw failed: %v", err)
	}
	if !strings.HasPrefix(reply, "error: ") {
		t.Errorf("reply = %q, want an error reply", reply)
	}
	if q.Len() != 0 {
		t.Errorf("malformed payload was enqueued")
	}

	// The server keeps serving after a bad message.
	reply, err = Send(ctx, srv.Path(), CmdExit)
	if err != nil || reply != Ack {
		t.Errorf("Send after malformed = %q, %v, want %q", reply, err, Ack)
	}
}

func TestServerReadDeadline(t *testing.T) {
	srv, q := startServer(t, Options{ReadTimeout: 50 * time.Millisecond})

	conn, err := net.Dial("unix", srv.Path())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(`"Ex`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Never half-close; the server should give up and close on us.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	if n != 0 {
		t.Errorf("got reply %q from abandoned connection", buf[:n])
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		t.Fatal("server did not drop the connection")
	}
	if q.Len() != 0 {
		t.Errorf("abandoned connection enqueued a command")
	}
}

func TestServerCloseRemovesSocket(t *testing.T) {
	q := NewQueue()
	path := filepath.Join(t.TempDir(), "ipc-socket.7")
	if err := os.WriteFile(path, []byte("leftover"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv, err := Listen(path, q, Options{})
	if err != nil {
		t.Fatalf("Listen over leftover file failed: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket still present after Close: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	select {
	case err := <-srv.Errors():
		t.Errorf("Close reported accept error: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}
