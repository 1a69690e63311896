package dmp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/daemonp/dmp2mqtt/internal/log"
)

// SessionState tracks where a command session is in its lifecycle.
type SessionState uint32

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateAwaitingReply
	// StateAuthFailed is terminal; a fresh Connect is required.
	StateAuthFailed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateAuthFailed:
		return "auth-failed"
	default:
		return "unknown"
	}
}

// Clock abstracts the timer source for rate limiting and timeouts so
// tests can substitute their own.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Dialer abstracts the connection provider. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Handler receives typed events synchronously, in registration order.
// Handler latency gates the session's reply handling and the listener's
// acknowledgment timing, so keep handlers short.
type Handler func(Event)

// SessionConfig carries everything a Session needs. Zero values pick
// the documented defaults.
type SessionConfig struct {
	Host      string
	Port      int
	Account   string
	RemoteKey string

	ConnectTimeout time.Duration // default 10s
	CommandTimeout time.Duration // default 10s
	AuthWindow     time.Duration // default 2s, reply window after !V2
	RateLimit      time.Duration // default 300ms between dispatches
	MaxPages       int           // default 32, bound for paged queries
	QueueSize      int           // default 64 queued commands

	// Messages is the externally supplied system-message table handed
	// to the classifier.
	Messages map[string]string

	Dialer Dialer
	Clock  Clock
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = 10 * time.Second
	}
	if c.AuthWindow == 0 {
		c.AuthWindow = 2 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = 300 * time.Millisecond
	}
	if c.MaxPages == 0 {
		c.MaxPages = 32
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	return c
}

type pending struct {
	cmd     Command
	reply   chan Reply
	errc    chan error
}

// Session owns one logical connection to a panel. Commands submitted
// concurrently are queued FIFO and dispatched one at a time with the
// configured minimum spacing; at most one command is ever in flight.
type Session struct {
	cfg        SessionConfig
	log        *log.Logger
	classifier *Classifier
	account    int

	state atomic.Uint32

	mu   sync.Mutex // guards conn and lifecycle channels
	conn net.Conn

	handlersMu sync.RWMutex
	handlers   []Handler

	queue   chan *pending
	frames  chan Frame
	readErr chan error
	closed  chan struct{}
	wg      sync.WaitGroup

	lastDispatch time.Time
}

// NewSession builds a session; no connection is made until Connect.
func NewSession(cfg SessionConfig, logger *log.Logger) *Session {
	cfg = cfg.withDefaults()
	acct, _ := strconv.Atoi(strings.TrimSpace(cfg.Account))
	return &Session{
		cfg:        cfg,
		log:        logger,
		classifier: NewClassifier(cfg.Messages),
		account:    acct,
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) {
	prev := SessionState(s.state.Swap(uint32(st)))
	if prev != st {
		s.log.Debug("Session state: %s -> %s", prev, st)
	}
}

// OnEvent registers a handler for out-of-band realtime events arriving
// on the command connection.
func (s *Session) OnEvent(h Handler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Connect dials the panel and authenticates with the remote key. On
// rejection the session lands in the terminal AuthFailed state.
func (s *Session) Connect(ctx context.Context) error {
	switch s.State() {
	case StateDisconnected, StateAuthFailed:
	default:
		return fmt.Errorf("connect from state %s", s.State())
	}

	s.setState(StateConnecting)
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Debug("Connecting to panel at %s", addr)
	conn, err := s.cfg.Dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.queue = make(chan *pending, s.cfg.QueueSize)
	s.frames = make(chan Frame, 16)
	s.readErr = make(chan error, 1)
	s.closed = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.readLoop(conn)

	if err := s.authenticate(); err != nil {
		s.teardown()
		if err == ErrAuthFailed {
			s.setState(StateAuthFailed)
		} else {
			s.setState(StateDisconnected)
		}
		return err
	}

	s.setState(StateReady)
	s.wg.Add(1)
	go s.worker()
	s.log.Info("Connected to panel at %s, account %s", addr, strings.TrimSpace(s.cfg.Account))
	return nil
}

// authenticate sends !V2 and watches the reply window. The panel does
// not ack success; only an explicit NAK is a rejection, and the
// connection staying open is the real success indicator.
func (s *Session) authenticate() error {
	s.setState(StateAuthenticating)
	body, _ := Command{Verb: VerbAuth, Key: s.cfg.RemoteKey}.Encode()
	if err := s.write(body); err != nil {
		return err
	}

	window := s.cfg.Clock.After(s.cfg.AuthWindow)
	for {
		select {
		case f := <-s.frames:
			r := ParseReply(f)
			if r.Kind == ReplyAuth {
				if r.Nak {
					s.log.Error("Panel rejected remote key")
					return ErrAuthFailed
				}
				return nil
			}
			s.dispatchEvent(f)
		case err := <-s.readErr:
			s.log.Error("Connection lost during authentication: %v", err)
			return ErrConnectionLost
		case <-window:
			return nil
		}
	}
}

// Send queues a command and waits for its correlated reply. Timeout
// fails only this command; the session stays usable.
func (s *Session) Send(ctx context.Context, cmd Command) (Reply, error) {
	switch s.State() {
	case StateReady, StateAwaitingReply:
	default:
		return Reply{}, ErrNotConnected
	}

	p := &pending{
		cmd:   cmd,
		reply: make(chan Reply, 1),
		errc:  make(chan error, 1),
	}

	s.mu.Lock()
	queue, closed := s.queue, s.closed
	s.mu.Unlock()

	select {
	case queue <- p:
	case <-closed:
		return Reply{}, ErrSessionClosed
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}

	select {
	case r := <-p.reply:
		return r, nil
	case err := <-p.errc:
		return Reply{}, err
	case <-closed:
		// The worker may have answered just before the close signal.
		select {
		case r := <-p.reply:
			return r, nil
		case err := <-p.errc:
			return Reply{}, err
		default:
			return Reply{}, ErrSessionClosed
		}
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Keepalive sends the !H heartbeat. The panel does not reply to it.
func (s *Session) Keepalive(ctx context.Context) error {
	_, err := s.Send(ctx, Command{Verb: VerbKeepalive})
	return err
}

// Close sends a best-effort disconnect command and tears the session
// down. Queued commands fail with ErrSessionClosed.
func (s *Session) Close() error {
	switch s.State() {
	case StateDisconnected, StateAuthFailed:
		return nil
	}
	if body, err := (Command{Verb: VerbDisconnect}).Encode(); err == nil {
		_ = s.write(body) // the panel may already be gone
	}
	s.teardown()
	s.setState(StateDisconnected)
	s.log.Info("Disconnected from panel")
	return nil
}

func (s *Session) teardown() {
	s.mu.Lock()
	if s.closed != nil {
		select {
		case <-s.closed:
		default:
			close(s.closed)
		}
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	// A Send racing the close signal can still slip a command into the
	// queue after the worker's final drain.
	s.failQueued(ErrSessionClosed)
}

func (s *Session) write(body string) error {
	frame, err := EncodeCommand(s.cfg.Account, body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	s.log.Trace("-> %q", frame)
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	return nil
}

func (s *Session) readLoop(conn net.Conn) {
	defer s.wg.Done()
	dec := NewDecoder(DefaultMaxSize)
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Write(buf[:n])
			for {
				f, ferr := dec.Next()
				if ferr != nil {
					s.log.Warn("Framing error on command connection: %v", ferr)
					continue
				}
				if f == nil {
					break
				}
				select {
				case s.frames <- f:
				case <-s.closed:
					return
				}
			}
		}
		if err != nil {
			select {
			case s.readErr <- err:
			default:
			}
			return
		}
	}
}

// worker serializes all outbound traffic: one command in flight, FIFO
// order across callers, minimum spacing between dispatches.
func (s *Session) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			s.failQueued(ErrSessionClosed)
			return
		case err := <-s.readErr:
			s.lost(err)
			return
		case f := <-s.frames:
			s.dispatchEvent(f)
		case p := <-s.queue:
			if !s.execute(p) {
				return
			}
		}
	}
}

// execute runs one queued command to completion. It returns false when
// the session died underneath it.
func (s *Session) execute(p *pending) bool {
	if wait := s.cfg.RateLimit - s.cfg.Clock.Now().Sub(s.lastDispatch); wait > 0 && !s.lastDispatch.IsZero() {
		select {
		case <-s.cfg.Clock.After(wait):
		case <-s.closed:
			p.errc <- ErrSessionClosed
			s.failQueued(ErrSessionClosed)
			return false
		case err := <-s.readErr:
			p.errc <- ErrConnectionLost
			s.lost(err)
			return false
		}
	}

	body, err := p.cmd.Encode()
	if err != nil {
		p.errc <- err
		return true
	}
	s.log.Debug("Dispatching %s: %s", p.cmd.Verb, body)
	if err := s.write(body); err != nil {
		p.errc <- ErrConnectionLost
		s.lost(err)
		return false
	}
	s.lastDispatch = s.cfg.Clock.Now()

	if !p.cmd.expectsReply() {
		p.reply <- Reply{}
		return true
	}

	s.setState(StateAwaitingReply)
	defer func() {
		if s.State() == StateAwaitingReply {
			s.setState(StateReady)
		}
	}()

	deadline := s.cfg.Clock.After(s.cfg.CommandTimeout)
	for {
		select {
		case f := <-s.frames:
			r := ParseReply(f)
			if p.cmd.matchesReply(r) {
				p.reply <- r
				return true
			}
			// Not the awaited reply: out-of-band realtime traffic.
			s.dispatchEvent(f)
		case <-deadline:
			s.log.Warn("Command %s timed out", p.cmd.Verb)
			p.errc <- ErrCommandTimeout
			return true
		case err := <-s.readErr:
			p.errc <- ErrConnectionLost
			s.lost(err)
			return false
		case <-s.closed:
			p.errc <- ErrSessionClosed
			s.failQueued(ErrSessionClosed)
			return false
		}
	}
}

func (s *Session) lost(err error) {
	s.log.Error("Connection to panel lost: %v", err)
	s.failQueued(ErrConnectionLost)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	s.mu.Unlock()
	s.setState(StateDisconnected)
}

func (s *Session) failQueued(err error) {
	for {
		select {
		case p := <-s.queue:
			p.errc <- err
		default:
			return
		}
	}
}

// dispatchEvent classifies a non-reply frame and fans it out to the
// registered handlers, registration order, one at a time. A failing
// handler never blocks the rest.
func (s *Session) dispatchEvent(f Frame) {
	evt, err := s.classifier.Classify(f)
	if err != nil {
		s.log.Warn("Classification error on command connection: %v", err)
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
}
