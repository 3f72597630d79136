//go:build windows

package ipc

import (
	"context"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// DefaultEndpoint returns the named pipe the daemon listens on.
func DefaultEndpoint() string {
	return `\\.\pipe\clipd`
}

func listen(endpoint string) (net.Listener, error) {
	return winio.ListenPipe(endpoint, nil)
}

func dial(ctx context.Context, endpoint string) (net.Conn, error) {
	timeout := 5 * time.Second
	if d, ok := ctx.Deadline(); ok {
		timeout = time.Until(d)
	}
	return winio.DialPipe(endpoint, &timeout)
}
