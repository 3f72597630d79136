//go:build !windows

package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
)

// DefaultEndpoint returns the unix socket path the daemon listens on.
func DefaultEndpoint() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "clipd", "clipd.sock")
}

func listen(endpoint string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(endpoint), 0o700); err != nil {
		return nil, err
	}
	// A stale socket from an unclean shutdown blocks the listener.
	os.Remove(endpoint)
	return net.Listen("unix", endpoint)
}

func dial(ctx context.Context, endpoint string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", endpoint)
}
