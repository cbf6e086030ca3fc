package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
)

// Send delivers cmd to the manager listening at path and returns its reply.
func Send(ctx context.Context, path string, cmd Command) (string, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return "", fmt.Errorf("failed to encode command: %w", err)
	}
	return sendRaw(ctx, path, payload)
}

func sendRaw(ctx context.Context, path string, payload []byte) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := conn.Write(payload); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}
	// The server reads until EOF, so the write side must be shut.
	if err := conn.(*net.UnixConn).CloseWrite(); err != nil {
		return "", fmt.Errorf("failed to close write side: %w", err)
	}
	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	return string(reply), nil
}
