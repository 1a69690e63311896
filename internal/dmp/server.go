package dmp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/daemonp/dmp2mqtt/internal/log"
)

// DefaultListenPort is the conventional port panels push realtime
// Serial 3 traffic to.
const DefaultListenPort = 5001

// ServerConfig configures the realtime listener. A zero Port binds an
// ephemeral port; production configuration supplies DefaultListenPort.
type ServerConfig struct {
	Host     string
	Port     int
	MaxFrame int // default DefaultMaxSize
}

// Server accepts inbound panel connections and runs an independent
// read loop per connection: frame, classify, fan out to handlers in
// registration order, acknowledge. The acknowledgment is sent for
// every successfully framed message regardless of classification
// outcome; its job is to suppress panel-side retransmission, not to
// confirm understanding.
type Server struct {
	cfg        ServerConfig
	log        *log.Logger
	classifier *Classifier

	handlersMu sync.RWMutex
	handlers   []Handler
	onError    func(error)

	mu     sync.Mutex
	ln     net.Listener
	cancel context.CancelFunc
	conns  *xsync.MapOf[string, net.Conn]
	wg     sync.WaitGroup
}

// NewServer builds a listener server over the given system-message
// table.
func NewServer(cfg ServerConfig, messages map[string]string, logger *log.Logger) *Server {
	if cfg.MaxFrame == 0 {
		cfg.MaxFrame = DefaultMaxSize
	}
	return &Server{
		cfg:        cfg,
		log:        logger,
		classifier: NewClassifier(messages),
		conns:      xsync.NewMapOf[string, net.Conn](),
	}
}

// Register adds an event handler. Handlers run synchronously in
// registration order; a failing handler is isolated and never
// suppresses delivery to the rest nor the acknowledgment.
func (s *Server) Register(h Handler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, h)
}

// OnError installs a diagnostics sink for per-frame framing and
// classification errors. These are isolated to the frame and never
// terminate a connection loop.
func (s *Server) OnError(fn func(error)) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.onError = fn
}

func (s *Server) reportError(err error) {
	s.handlersMu.RLock()
	fn := s.onError
	s.handlersMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// Start binds the listening socket and begins accepting connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return fmt.Errorf("server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.ln = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.log.Info("Realtime listener on %s", ln.Addr())
	s.wg.Add(1)
	go s.acceptLoop(ctx, ln)
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop closes the listening socket and every live connection. Each
// connection loop exits after its current frame completes.
func (s *Server) Stop() {
	s.mu.Lock()
	ln, cancel := s.ln, s.cancel
	s.ln, s.cancel = nil, nil
	s.mu.Unlock()
	if ln == nil {
		return
	}

	cancel()
	ln.Close()
	s.conns.Range(func(_ string, c net.Conn) bool {
		c.Close()
		return true
	})
	s.wg.Wait()
	s.log.Info("Realtime listener stopped")
}

// Run starts the server and blocks until the context is done, then
// stops it. Bounding the run to a duration is a context concern.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("Accept failed: %v", err)
			continue
		}
		s.log.Debug("Panel connection from %s", conn.RemoteAddr())
		s.conns.Store(conn.RemoteAddr().String(), conn)
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// serveConn runs one connection's read loop. Frames from one
// connection never block another; each connection owns its decoder
// and buffer.
func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.conns.Delete(conn.RemoteAddr().String())
		conn.Close()
		s.log.Debug("Panel connection %s closed", conn.RemoteAddr())
	}()

	dec := NewDecoder(s.cfg.MaxFrame)
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Write(buf[:n])
			for {
				f, ferr := dec.Next()
				if ferr != nil {
					// A buffer that overflowed without a terminator
					// cannot be acknowledged; report and keep reading.
					s.log.Warn("Framing error from %s: %v", conn.RemoteAddr(), ferr)
					s.reportError(ferr)
					continue
				}
				if f == nil {
					break
				}
				s.handleFrame(conn, f)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) handleFrame(conn net.Conn, f Frame) {
	evt, err := s.classifier.Classify(f)
	if err != nil {
		s.log.Warn("Classification error from %s: %v", conn.RemoteAddr(), err)
		s.reportError(err)
	}

	s.handlersMu.RLock()
	handlers := s.handlers
	s.handlersMu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("Event handler panic: %v", r)
				}
			}()
			h(evt)
		}()
	}

	// Acked even when classification was partial; the frame itself
	// arrived intact.
	if _, err := conn.Write(EncodeAck(f.Account())); err != nil {
		s.log.Warn("Failed to acknowledge %s: %v", conn.RemoteAddr(), err)
	}
}
