// Package ipc provides the control channel between the clipd daemon and
// client tools (clipctl).
//
// The protocol is a length-prefixed JSON frame with a magic/version header:
// request/response only, no event streaming. Commands are deliberately few;
// everything the daemon decides per tick stays on the poll thread and is
// only observed here.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Protocol constants.
const (
	ProtocolVersion = 1
	ProtocolMagic   = 0x43495043 // "CIPC" - Clipd IPC

	// MaxFrameSize bounds a frame; control messages are tiny.
	MaxFrameSize = 64 * 1024
)

// MessageType identifies the type of IPC message.
type MessageType uint16

const (
	MsgPing  MessageType = 0x0001
	MsgPong  MessageType = 0x0002
	MsgError MessageType = 0x0005

	MsgStatusRequest  MessageType = 0x0100
	MsgStatusResponse MessageType = 0x0101

	MsgToggle     MessageType = 0x0200
	MsgToggleResp MessageType = 0x0201
	MsgEnable     MessageType = 0x0202
	MsgDisable    MessageType = 0x0203

	MsgShutdown     MessageType = 0x0300
	MsgShutdownResp MessageType = 0x0301
)

// Message is a single request or response frame.
type Message struct {
	Type    MessageType     `json:"type"`
	ID      uint32          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload carries a failure back to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// TogglePayload reports the toggle state after a toggle command.
type TogglePayload struct {
	Enabled bool `json:"enabled"`
}

// frameHeader is the fixed wire prefix of every message.
//
//	magic   uint32
//	version uint16
//	length  uint32 (JSON body length)
const frameHeaderSize = 10

// WriteMessage writes one framed message to w.
func WriteMessage(w io.Writer, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("message too large: %d bytes", len(body))
	}

	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], ProtocolMagic)
	binary.BigEndian.PutUint16(hdr[4:6], ProtocolVersion)
	binary.BigEndian.PutUint32(hdr[6:10], uint32(len(body)))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message from r.
func ReadMessage(r io.Reader) (*Message, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	if magic := binary.BigEndian.Uint32(hdr[0:4]); magic != ProtocolMagic {
		return nil, fmt.Errorf("bad magic %#x", magic)
	}
	if ver := binary.BigEndian.Uint16(hdr[4:6]); ver != ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version %d", ver)
	}

	length := binary.BigEndian.Uint32(hdr[6:10])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	return &msg, nil
}

// NewErrorMessage builds an error response for a request.
func NewErrorMessage(id uint32, text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: MsgError, ID: id, Payload: payload}
}

// NewResponse builds a response with a JSON payload.
func NewResponse(t MessageType, id uint32, payload any) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		raw = data
	}
	return &Message{Type: t, ID: id, Payload: raw}, nil
}
