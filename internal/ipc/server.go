package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxLineBytes bounds a single request line; anything longer is malformed.
const maxLineBytes = 64 * 1024

// connReadTimeout bounds how long the server waits for a client's request
// line; the server never blocks on a slow client.
const connReadTimeout = 5 * time.Second

// Handler processes one decoded request on the caller's goroutine.
type Handler func(Request) Response

// Server accepts connections on the named endpoint and runs one
// request/response exchange per connection.
type Server struct {
	logger   *logrus.Logger
	listener net.Listener
	handler  Handler
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

// NewServer starts listening on the endpoint. Call Serve to accept.
func NewServer(logger *logrus.Logger, endpoint string, handler Handler) (*Server, error) {
	listener, err := listen(endpoint)
	if err != nil {
		return nil, err
	}
	return &Server{logger: logger, listener: listener, handler: handler}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until Close. Blocking; run on its own
// goroutine.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.WithError(err).Warn("IPC accept failed")
			continue
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Close stops accepting and waits for in-flight connections.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connID := uuid.NewString()
	_ = conn.SetReadDeadline(time.Now().Add(connReadTimeout))

	reader := bufio.NewReaderSize(conn, maxLineBytes)
	line, err := reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		s.logger.WithError(err).WithField("conn", connID).Debug("IPC read failed")
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.WithError(err).WithField("conn", connID).Debug("Malformed IPC request")
		s.writeResponse(conn, connID, ErrorResponse("malformed request: "+err.Error()))
		return
	}

	s.logger.WithFields(logrus.Fields{"conn": connID, "cmd": req.Cmd}).Debug("IPC request")
	s.writeResponse(conn, connID, s.handler(req))
}

// writeResponse is best-effort: a client that went away only costs a
// debug line.
func (s *Server) writeResponse(conn net.Conn, connID string, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.WithError(err).WithField("conn", connID).Error("Failed to encode IPC response")
		payload, _ = json.Marshal(ErrorResponse("internal encoding error"))
	}
	_ = conn.SetWriteDeadline(time.Now().Add(connReadTimeout))
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		s.logger.WithError(err).WithField("conn", connID).Debug("IPC write failed")
	}
}
