package ipc

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	payload, _ := json.Marshal(TogglePayload{Enabled: true})
	in := &Message{Type: MsgToggleResp, ID: 42, Payload: payload}

	var buf bytes.Buffer
	if err := WriteMessage(&buf, in); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	out, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	if out.Type != in.Type {
		t.Errorf("type = %#x, want %#x", out.Type, in.Type)
	}
	if out.ID != in.ID {
		t.Errorf("id = %d, want %d", out.ID, in.ID)
	}

	var tp TogglePayload
	if err := json.Unmarshal(out.Payload, &tp); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !tp.Enabled {
		t.Error("payload lost enabled flag")
	}
}

func TestReadMessageRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, &Message{Type: MsgPing, ID: 1}); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	frame := buf.Bytes()
	binary.BigEndian.PutUint32(frame[0:4], 0xdeadbeef)

	if _, err := ReadMessage(bytes.NewReader(frame)); err == nil {
		t.Fatal("expected error for bad magic")
	} else if !strings.Contains(err.Error(), "magic") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReadMessageRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, &Message{Type: MsgPing, ID: 1}); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	frame := buf.Bytes()
	binary.BigEndian.PutUint16(frame[4:6], 99)

	if _, err := ReadMessage(bytes.NewReader(frame)); err == nil {
		t.Fatal("expected error for bad version")
	}
}

func TestReadMessageRejectsOversizeFrame(t *testing.T) {
	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], ProtocolMagic)
	binary.BigEndian.PutUint16(hdr[4:6], ProtocolVersion)
	binary.BigEndian.PutUint32(hdr[6:10], MaxFrameSize+1)

	if _, err := ReadMessage(bytes.NewReader(hdr[:])); err == nil {
		t.Fatal("expected error for oversize frame")
	}
}

func TestWriteMessageRejectsOversizePayload(t *testing.T) {
	big := json.RawMessage(`"` + strings.Repeat("x", MaxFrameSize) + `"`)
	err := WriteMessage(&bytes.Buffer{}, &Message{Type: MsgPing, ID: 1, Payload: big})
	if err == nil {
		t.Fatal("expected error for oversize payload")
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage(7, "boom")
	if msg.Type != MsgError {
		t.Errorf("type = %#x, want MsgError", msg.Type)
	}
	if msg.ID != 7 {
		t.Errorf("id = %d, want 7", msg.ID)
	}

	var ep ErrorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if ep.Message != "boom" {
		t.Errorf("message = %q, want %q", ep.Message, "boom")
	}
}

func TestServerRoundTrip(t *testing.T) {
	handler := HandlerFunc(func(_ context.Context, msg *Message) (*Message, error) {
		switch msg.Type {
		case MsgPing:
			return &Message{Type: MsgPong, ID: msg.ID}, nil
		default:
			return nil, errUnknown
		}
	})

	srv := NewServer(testEndpoint(t), handler, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Close()

	client, err := Dial(context.Background(), srv.Endpoint())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	resp, err := client.RoundTrip(context.Background(), MsgPing, nil)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.Type != MsgPong {
		t.Errorf("type = %#x, want MsgPong", resp.Type)
	}

	// Handler errors come back as MsgError frames.
	if _, err := client.RoundTrip(context.Background(), MsgToggle, nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

var errUnknown = errors.New("unknown command")

func testEndpoint(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		return `\\.\pipe\clipd-test-` + strconv.Itoa(os.Getpid())
	}
	return filepath.Join(t.TempDir(), "clipd.sock")
}
