//go:build !windows

package daemon

import (
	"context"

	"clipd/internal/winapi"
)

func (d *Daemon) loop(ctx context.Context) error {
	return winapi.ErrNotSupported
}
