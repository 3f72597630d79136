package daemon

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipd/internal/confine"
	"clipd/internal/geometry"
	"clipd/internal/ipc"
	"clipd/internal/region"
	"clipd/internal/winapi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopWorld struct{}

func (nopWorld) IsTarget(winapi.HWND) bool { return false }
func (nopWorld) Resolve(winapi.HWND, geometry.Mode) (region.Rect, bool) {
	return region.Rect{}, false
}
func (nopWorld) DragInProgress(winapi.HWND) bool { return false }
func (nopWorld) Clip(region.Rect) error          { return nil }
func (nopWorld) Release() error                  { return nil }

// testDaemon builds a daemon around fakes, bypassing the OS wiring.
func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	w := nopWorld{}
	ctrl := confine.New(w, w, nil, w, w, confine.DefaultConfig(), discardLogger())
	return &Daemon{
		controller: ctrl,
		logger:     discardLogger(),
		shutdownCh: make(chan struct{}),
	}
}

func TestHandlePing(t *testing.T) {
	d := testDaemon(t)

	resp, err := d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgPing, ID: 3})
	require.NoError(t, err)
	assert.Equal(t, ipc.MsgPong, resp.Type)
	assert.Equal(t, uint32(3), resp.ID)
}

func TestHandleStatus(t *testing.T) {
	d := testDaemon(t)

	resp, err := d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgStatusRequest, ID: 1})
	require.NoError(t, err)
	require.Equal(t, ipc.MsgStatusResponse, resp.Type)

	var st confine.Status
	require.NoError(t, json.Unmarshal(resp.Payload, &st))
	assert.True(t, st.Enabled)
	assert.False(t, st.Confined)
}

func TestHandleToggle(t *testing.T) {
	d := testDaemon(t)

	resp, err := d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgToggle, ID: 1})
	require.NoError(t, err)

	var tp ipc.TogglePayload
	require.NoError(t, json.Unmarshal(resp.Payload, &tp))
	assert.False(t, tp.Enabled, "controller starts enabled; toggle turns it off")
	assert.False(t, d.controller.Enabled())

	resp, err = d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgToggle, ID: 2})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(resp.Payload, &tp))
	assert.True(t, tp.Enabled)
}

func TestHandleEnableDisable(t *testing.T) {
	d := testDaemon(t)

	_, err := d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgDisable, ID: 1})
	require.NoError(t, err)
	assert.False(t, d.controller.Enabled())

	_, err = d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgEnable, ID: 2})
	require.NoError(t, err)
	assert.True(t, d.controller.Enabled())
}

func TestHandleShutdown(t *testing.T) {
	d := testDaemon(t)

	resp, err := d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgShutdown, ID: 9})
	require.NoError(t, err)
	assert.Equal(t, ipc.MsgShutdownResp, resp.Type)

	select {
	case <-d.shutdownCh:
	default:
		t.Fatal("shutdown channel not closed")
	}

	// A second shutdown must not panic on the closed channel.
	_, err = d.handleMessage(context.Background(), &ipc.Message{Type: ipc.MsgShutdown, ID: 10})
	require.NoError(t, err)
}

func TestHandleUnknownCommand(t *testing.T) {
	d := testDaemon(t)

	_, err := d.handleMessage(context.Background(), &ipc.Message{Type: 0x7777, ID: 1})
	assert.Error(t, err)
}
