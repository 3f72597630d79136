package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// Client is a connection to the daemon's control endpoint.
type Client struct {
	conn   net.Conn
	nextID atomic.Uint32
}

// Dial connects to the control endpoint. Empty endpoint means the
// platform default.
func Dial(ctx context.Context, endpoint string) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint()
	}
	conn, err := dial(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("ipc: dial %s: %w", endpoint, err)
	}
	return &Client{conn: conn}, nil
}

// RoundTrip sends a request and waits for the matching response.
func (c *Client) RoundTrip(ctx context.Context, msgType MessageType, payload any) (*Message, error) {
	id := c.nextID.Add(1)

	msg := &Message{Type: msgType, ID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ipc: encode payload: %w", err)
		}
		msg.Payload = raw
	}

	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	c.conn.SetDeadline(deadline)

	if err := WriteMessage(c.conn, msg); err != nil {
		return nil, err
	}

	resp, err := ReadMessage(c.conn)
	if err != nil {
		return nil, err
	}
	if resp.ID != id {
		return nil, fmt.Errorf("ipc: response id %d does not match request id %d", resp.ID, id)
	}
	if resp.Type == MsgError {
		var ep ErrorPayload
		if err := json.Unmarshal(resp.Payload, &ep); err == nil && ep.Message != "" {
			return nil, fmt.Errorf("ipc: daemon error: %s", ep.Message)
		}
		return nil, fmt.Errorf("ipc: daemon error")
	}
	return resp, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
