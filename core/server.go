package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const connTimeout = 5 * time.Second

// Server listens on a Unix domain socket so local tools can push texts to
// authorized chat users through the active transport.
type Server struct {
	socketPath string
	policy     Authorizer
	notifier   Notifier
	listener   net.Listener
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewServer creates a push socket server.
func NewServer(socketPath string, pol Authorizer, notifier Notifier, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		policy:     pol,
		notifier:   notifier,
		logger:     logger,
	}
}

// Start begins listening. It cleans up stale sockets, creates the directory
// with 0700 permissions, and sets the socket to 0600.
func (s *Server) Start(ctx context.Context) error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	if _, err := os.Stat(s.socketPath); err == nil {
		conn, err := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("another instance is already listening on %s", s.socketPath)
		}
		s.logger.Info("removing stale socket", "path", s.socketPath)
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s.listener = ln
	s.logger.Info("push socket listening", "path", s.socketPath)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()

	return nil
}

// Shutdown stops accepting, waits for in-flight connections and removes
// the socket file.
func (s *Server) Shutdown() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Error("accept error", "error", err)
			}
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(connTimeout))

	data, err := io.ReadAll(io.LimitReader(conn, MaxPayloadBytes+1))
	if err != nil {
		s.writeResponse(conn, Response{Error: "read error"})
		return
	}

	req, err := ValidateRequest(data)
	if err != nil {
		s.logger.Warn("invalid push request", "error", err)
		s.writeResponse(conn, Response{Error: err.Error()})
		return
	}

	switch req.Action {
	case ActionNotify:
		s.writeResponse(conn, s.notify(ctx, req))
	default:
		s.writeResponse(conn, Response{Error: fmt.Sprintf("unknown action %q", req.Action)})
	}
}

func (s *Server) notify(ctx context.Context, req *Request) Response {
	payload, err := ParseNotifyPayload(req.Payload)
	if err != nil {
		return Response{Error: err.Error()}
	}

	if err := s.policy.Authorize(payload.Recipient); err != nil {
		s.logger.Warn("push to unauthorized recipient rejected", "recipient", payload.Recipient)
		return Response{Error: "recipient not authorized"}
	}

	reply := Reply{
		ID:        uuid.New().String(),
		Recipient: payload.Recipient,
		Text:      payload.Text,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), connTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, reply); err != nil {
		s.logger.Error("push failed", "notifier", s.notifier.Name(), "recipient", reply.Recipient, "error", err)
		return Response{Error: "delivery failed"}
	}

	s.logger.Info("push delivered", "id", reply.ID, "notifier", s.notifier.Name(), "recipient", reply.Recipient)
	return Response{OK: true, ID: reply.ID}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	json.NewEncoder(conn).Encode(resp)
}
