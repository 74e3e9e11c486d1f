// Package ipc is the local Unix-socket channel between a running clipshare
// daemon and the CLI tools. `clipshare status` uses it to read the daemon's
// sync counters; when no daemon is listening the CLI falls back to
// inspecting the shared directory on its own.
//
// Protocol: one request line, one response line, both JSON.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"go.klb.dev/clipshare/internal/bridge"
)

const (
	requestStatus = "status"
	ioDeadline    = 2 * time.Second
)

// Status is the daemon's answer to a status request.
type Status struct {
	Version  string                `json:"version"`
	PID      int                   `json:"pid"`
	Dir      string                `json:"dir"`
	Backend  string                `json:"backend"`
	Started  time.Time             `json:"started"`
	Channels []bridge.ChannelStats `json:"channels"`
}

type request struct {
	Type string `json:"type"`
}

// SocketPath returns the IPC socket path: $CLIPSHARE_SOCKET if set, else
// clipshare.sock in the XDG runtime directory.
func SocketPath() string {
	if s := os.Getenv("CLIPSHARE_SOCKET"); s != "" {
		return s
	}
	return filepath.Join(xdg.RuntimeDir, "clipshare.sock")
}

// IsRunning reports whether a clipshare daemon appears to be listening
// on the IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := net.DialTimeout("unix", SocketPath(), ioDeadline)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates and returns a net.Listener on the IPC socket path, removing
// any stale socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ipc dir: %w", err)
	}
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Serve answers status requests on ln until ctx is done. status is called
// once per request.
func Serve(ctx context.Context, ln net.Listener, status func() Status) {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				slog.Warn("ipc accept failed", "err", err)
			}
			return
		}
		go handle(conn, status)
	}
}

func handle(conn net.Conn, status func() Status) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioDeadline))

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return
	}
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		slog.Debug("ipc: bad request", "err", err)
		return
	}
	if req.Type != requestStatus {
		slog.Debug("ipc: unknown request", "type", req.Type)
		return
	}
	if err := json.NewEncoder(conn).Encode(status()); err != nil {
		slog.Debug("ipc: write failed", "err", err)
	}
}

// Query asks the daemon at path for its status.
func Query(ctx context.Context, path string) (*Status, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioDeadline))

	if err := json.NewEncoder(conn).Encode(request{Type: requestStatus}); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	var st Status
	if err := json.NewDecoder(conn).Decode(&st); err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return &st, nil
}
