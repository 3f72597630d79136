// Package ipc server.
package ipc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Handler processes a request message and returns a response.
type Handler interface {
	HandleMessage(ctx context.Context, msg *Message) (*Message, error)
}

// HandlerFunc is a function that implements Handler.
type HandlerFunc func(ctx context.Context, msg *Message) (*Message, error)

// HandleMessage implements Handler.
func (f HandlerFunc) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	return f(ctx, msg)
}

// Server accepts control connections and dispatches messages to a handler.
type Server struct {
	endpoint string
	handler  Handler
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
}

// NewServer creates a control server on the given endpoint (named pipe on
// Windows, unix socket path elsewhere). Empty endpoint means the platform
// default.
func NewServer(endpoint string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint()
	}
	return &Server{
		endpoint: endpoint,
		handler:  handler,
		logger:   logger.With("component", "ipc"),
	}
}

// Endpoint returns the endpoint the server listens on.
func (s *Server) Endpoint() string { return s.endpoint }

// Start begins accepting connections. Failure to listen degrades the
// control surface, not the daemon; the caller logs and moves on.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("ipc: server already running")
	}

	ln, err := listen(s.endpoint)
	if err != nil {
		return err
	}

	s.listener = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("control endpoint listening", "endpoint", s.endpoint)
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			s.logger.Debug("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

// serveConn handles one client connection: a short request/response
// exchange, one frame at a time.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		msg, err := ReadMessage(conn)
		if err != nil {
			return
		}

		resp, err := s.handler.HandleMessage(s.ctx, msg)
		if err != nil {
			resp = NewErrorMessage(msg.ID, err.Error())
		}
		if resp == nil {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := WriteMessage(conn, resp); err != nil {
			s.logger.Debug("write response failed", "error", err)
			return
		}
	}
}

// Close stops the server and waits for in-flight connections.
func (s *Server) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	err := s.listener.Close()
	s.mu.Unlock()

	s.wg.Wait()
	return err
}
