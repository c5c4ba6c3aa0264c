package channel

import (
	"errors"
	"net"

	"tickpipe/pkg/exception"
)

var (
	// ErrNilServer is returned when a nil server receiver is used.
	ErrNilServer = errors.New("channel: nil server")
	// ErrAlreadyListening is returned when Listen is called twice.
	ErrAlreadyListening = errors.New("channel: already listening")
	// ErrNotListening is returned when Accept is called before Listen.
	ErrNotListening = errors.New("channel: not listening")
)

// Server listens for framed-channel connections on a TCP address.
type Server struct {
	addr string
	ln   net.Listener
}

// NewServer creates a server for the provided address.
func NewServer(addr string) (*Server, error) {
	if addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	return &Server{addr: addr}, nil
}

// Addr returns the listening address. After Listen it reflects the
// resolved address, which matters when the port was given as 0.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Listen starts listening on the configured address.
func (s *Server) Listen() error {
	if s == nil {
		return ErrNilServer
	}
	if s.ln != nil {
		return ErrAlreadyListening
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Accept waits for the next incoming connection and wraps it.
func (s *Server) Accept() (*Channel, error) {
	if s == nil {
		return nil, ErrNilServer
	}
	if s.ln == nil {
		return nil, ErrNotListening
	}
	conn, err := s.ln.Accept()
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Close stops the listener. Connections already accepted stay open.
func (s *Server) Close() error {
	if s == nil || s.ln == nil {
		return nil
	}
	ln := s.ln
	s.ln = nil
	return ln.Close()
}
