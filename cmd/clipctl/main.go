// clipctl is the control CLI for clipd.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"clipd/internal/confine"
	"clipd/internal/ipc"
)

var (
	endpoint = flag.String("endpoint", "", "control endpoint (default: platform default)")
	timeout  = flag.Duration("timeout", 5*time.Second, "request timeout")
	asJSON   = flag.Bool("json", false, "print raw JSON responses")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)

	var err error
	switch cmd {
	case "status":
		err = cmdStatus()
	case "toggle":
		err = cmdToggleLike(ipc.MsgToggle)
	case "enable":
		err = cmdToggleLike(ipc.MsgEnable)
	case "disable":
		err = cmdToggleLike(ipc.MsgDisable)
	case "ping":
		err = cmdPing()
	case "shutdown":
		err = cmdShutdown()
	case "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "clipctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `clipctl - Control utility for clipd

Usage: clipctl [options] <command>

Commands:
  status      Show daemon status (confinement, target focus, counters)
  toggle      Flip clipping on/off
  enable      Turn clipping on
  disable     Turn clipping off
  ping        Check that the daemon is reachable
  shutdown    Stop the daemon (confinement is released first)
  help        Show this help message

Options:
  -endpoint <addr>  Control endpoint (default: platform default)
  -timeout <dur>    Request timeout (default: 5s)
  -json             Print raw JSON responses`)
}

// roundTrip dials the daemon, sends one request, and returns the response.
func roundTrip(msgType ipc.MessageType) (*ipc.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := ipc.Dial(ctx, *endpoint)
	if err != nil {
		return nil, fmt.Errorf("is clipd running? %w", err)
	}
	defer client.Close()

	return client.RoundTrip(ctx, msgType, nil)
}

func cmdStatus() error {
	resp, err := roundTrip(ipc.MsgStatusRequest)
	if err != nil {
		return err
	}

	if *asJSON {
		fmt.Println(string(resp.Payload))
		return nil
	}

	var st confine.Status
	if err := json.Unmarshal(resp.Payload, &st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	fmt.Printf("Enabled:        %v\n", st.Enabled)
	fmt.Printf("Confined:       %v\n", st.Confined)
	if st.Confined {
		fmt.Printf("Region:         (%d,%d)-(%d,%d)\n", st.Region.Left, st.Region.Top, st.Region.Right, st.Region.Bottom)
	}
	fmt.Printf("Target focused: %v\n", st.TargetFocused)
	fmt.Printf("Mode:           %s\n", st.Mode)
	fmt.Printf("Ticks:          %d\n", st.Ticks)
	fmt.Printf("Applies:        %d\n", st.Applies)
	fmt.Printf("Releases:       %d\n", st.Releases)
	if !st.LastChange.IsZero() {
		fmt.Printf("Last change:    %s\n", st.LastChange.Format(time.RFC3339))
	}
	return nil
}

func cmdToggleLike(msgType ipc.MessageType) error {
	resp, err := roundTrip(msgType)
	if err != nil {
		return err
	}

	if *asJSON {
		fmt.Println(string(resp.Payload))
		return nil
	}

	var tp ipc.TogglePayload
	if err := json.Unmarshal(resp.Payload, &tp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if tp.Enabled {
		fmt.Println("clipping enabled")
	} else {
		fmt.Println("clipping disabled")
	}
	return nil
}

func cmdPing() error {
	start := time.Now()
	resp, err := roundTrip(ipc.MsgPing)
	if err != nil {
		return err
	}
	if resp.Type != ipc.MsgPong {
		return fmt.Errorf("unexpected response type %#x", resp.Type)
	}
	fmt.Printf("pong (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func cmdShutdown() error {
	if _, err := roundTrip(ipc.MsgShutdown); err != nil {
		return err
	}
	fmt.Println("shutdown requested")
	return nil
}
