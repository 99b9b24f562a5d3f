package server

import (
	"context"
	"net"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/bebac/spotihifi/internal/engine"
)

// Server accepts client connections and dispatches their requests into
// an engine.Engine. The listener itself and the raw TCP plumbing are
// the one piece of this system specified only by interface contract
// (spec §1); everything downstream of accept is this package's own.
type Server struct {
	listener net.Listener
	eng      *engine.Engine
	logger   *log.Logger
}

// New listens on addr (e.g. "0.0.0.0:6901") and returns a Server ready
// to Serve.
func New(addr string, eng *engine.Engine, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to listen")
	}
	return &Server{listener: ln, eng: eng, logger: logger}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is canceled, at which point it
// closes the listener and returns nil. Each connection is served on
// its own goroutine and survives independently of the others.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return errors.Wrap(err, "accept failed")
			}
		}
		c := newConnection(conn, s.eng, s.logger)
		go c.serve()
	}
}
