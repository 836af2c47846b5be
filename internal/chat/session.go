package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrMailboxFull is returned by Session.Deliver when the connection is not
	// draining its outbound messages fast enough. The message is dropped.
	ErrMailboxFull = errors.New("chat: mailbox full")

	// ErrHeartbeatTimeout is returned by Session.Run when the peer stayed silent
	// for longer than the configured client timeout.
	ErrHeartbeatTimeout = errors.New("chat: heartbeat timeout")

	// ErrNoJoin is returned by Session.Run when the session was not started from an EventJoin.
	ErrNoJoin = errors.New("chat: session must start with a join event")
)

// Transport is the protocol-level connection a Session drives.
//
// Receive blocks, handing each inbound frame to emit in arrival order, until the
// connection closes or fails; it returns nil for an orderly end. Send writes one
// frame and is only ever called from the Session's goroutine. Close releases the
// connection and must make a blocked Receive return.
type Transport interface {
	Receive(emit func(Frame)) error
	Send(f Frame) error
	Close() error
}

// State is a Session's position in its lifecycle.
type State int

const (
	StateConnecting State = iota // handshake accepted, not yet registered
	StateActive                  // registered, heartbeat running
	StateClosing                 // deregistering and closing the transport
	StateClosed                  // terminal
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionConfig tunes a Session. Zero values are replaced with defaults by NewSession.
type SessionConfig struct {
	HeartbeatInterval time.Duration // how often a ping probe is sent (default 5s)
	ClientTimeout     time.Duration // silence allowed before eviction (default 2 × HeartbeatInterval)
	ExcludeSender     bool          // whether a sender receives its own messages
	MailboxSize       int           // outbound buffer per connection (default 256)
}

// DefaultSessionConfig returns the settings the server runs with when nothing is configured.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HeartbeatInterval: 5 * time.Second,
		ClientTimeout:     10 * time.Second,
		ExcludeSender:     true,
		MailboxSize:       256,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	if c.ClientTimeout <= 0 {
		c.ClientTimeout = 2 * c.HeartbeatInterval
	}
	if c.MailboxSize <= 0 {
		c.MailboxSize = 256
	}
	return c
}

// Session drives one connection from registration to teardown: it joins the Hub,
// answers and sends heartbeats, turns inbound text into broadcasts, writes the
// broadcasts addressed to it, and deregisters when the connection ends.
//
// A Session is the only writer to its Transport. The Hub reaches it through
// Deliver, which only queues into the mailbox.
type Session struct {
	hub       *Hub
	transport Transport
	join      Event
	room      string
	cfg       SessionConfig
	now       func() time.Time
	mailbox   chan []byte

	mu            sync.Mutex
	state         State
	id            ConnectionID
	lastHeartbeat time.Time
}

// NewSession prepares a session for transport. join must be an EventJoin (see
// JoinEvent); it names the room the session registers in. Nothing happens until Run.
func NewSession(hub *Hub, transport Transport, join Event, cfg SessionConfig) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		hub:       hub,
		transport: transport,
		join:      join,
		room:      join.Room,
		cfg:       cfg,
		now:       time.Now,
		mailbox:   make(chan []byte, cfg.MailboxSize),
		state:     StateConnecting,
	}
}

// Room returns the room the session joins.
func (s *Session) Room() string { return s.room }

// ID returns the connection ID assigned at registration. It is only meaningful
// once the session has left StateConnecting.
func (s *Session) ID() ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastHeartbeat returns when the peer last showed it was alive.
func (s *Session) LastHeartbeat() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeat
}

// Deliver queues payload for this connection without blocking. It implements Deliverer.
func (s *Session) Deliver(payload []byte) error {
	select {
	case s.mailbox <- payload:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// touch records a liveness signal. lastHeartbeat never moves backwards.
func (s *Session) touch() {
	now := s.now()
	s.mu.Lock()
	if now.After(s.lastHeartbeat) {
		s.lastHeartbeat = now
	}
	s.mu.Unlock()
}

// Run registers the session and serves it until the peer closes, the transport
// fails, the heartbeat times out, or ctx is cancelled. It always leaves the
// session deregistered, the transport closed, and the state StateClosed.
//
// Run returns nil for a close initiated by either side, ErrHeartbeatTimeout on
// eviction, and a wrapped transport error otherwise.
func (s *Session) Run(ctx context.Context) error {
	id, err := s.register(ctx)
	if err != nil {
		_ = s.transport.Close()
		s.setState(StateClosed)
		return fmt.Errorf("chat: register session: %w", err)
	}

	s.mu.Lock()
	s.id = id
	s.lastHeartbeat = s.now()
	s.state = StateActive
	s.mu.Unlock()

	frames := make(chan Frame)
	readDone := make(chan error, 1)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		readDone <- s.transport.Receive(func(f Frame) {
			select {
			case frames <- f:
			case <-stop:
			}
		})
	}()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	closeFrame, runErr := s.serve(ctx, id, frames, readDone, ticker.C)
	ticker.Stop()

	s.setState(StateClosing)
	s.hub.Disconnect(s.room, id)
	if closeFrame != nil {
		if err := s.transport.Send(*closeFrame); err != nil {
			slog.Debug("close frame not sent", "connectionId", id, "error", err)
		}
	}
	if err := s.transport.Close(); err != nil {
		slog.Debug("transport close failed", "connectionId", id, "error", err)
	}
	close(stop)
	wg.Wait()
	s.setState(StateClosed)

	return runErr
}

// register is the Connecting state: it turns the join event into a Hub registration.
func (s *Session) register(ctx context.Context) (ConnectionID, error) {
	if s.join.Kind != EventJoin {
		return 0, ErrNoJoin
	}
	return s.hub.Connect(ctx, s.join.Room, s)
}

// serve is the Active state. It returns the close frame to send on the way out
// (nil when the connection is already gone) and the error Run should report.
func (s *Session) serve(ctx context.Context, id ConnectionID, frames <-chan Frame, readDone <-chan error, tick <-chan time.Time) (*Frame, error) {
	var exclude *ConnectionID
	if s.cfg.ExcludeSender {
		exclude = &id
	}

	for {
		select {
		case <-ctx.Done():
			return &Frame{Kind: FrameClose, CloseCode: CloseGoingAway, Reason: "server shutting down"}, nil

		case err := <-readDone:
			if err != nil {
				slog.Info("chat read failed", "connectionId", id, "room", s.room, "error", err)
				return nil, fmt.Errorf("chat: read: %w", err)
			}
			return nil, nil

		case f := <-frames:
			ev, ok := EventFromFrame(f)
			if !ok {
				slog.Debug("ignoring frame", "connectionId", id, "kind", f.Kind.String())
				continue
			}
			switch ev.Kind {
			case EventHeartbeat:
				s.touch()
				if ev.Reply {
					if err := s.transport.Send(Frame{Kind: FramePong, Data: ev.Payload}); err != nil {
						return nil, fmt.Errorf("chat: write pong: %w", err)
					}
				}
			case EventChat:
				if err := s.hub.Broadcast(s.room, ev.Payload, exclude); err != nil {
					return &Frame{Kind: FrameClose, CloseCode: CloseGoingAway, Reason: "server shutting down"}, nil
				}
			case EventClose:
				// Echo the peer's close code and reason back.
				return &Frame{Kind: FrameClose, CloseCode: ev.CloseCode, Reason: ev.Reason}, nil
			}

		case payload := <-s.mailbox:
			if err := s.transport.Send(Frame{Kind: FrameText, Data: payload}); err != nil {
				return nil, fmt.Errorf("chat: write: %w", err)
			}

		case <-tick:
			if s.now().Sub(s.LastHeartbeat()) > s.cfg.ClientTimeout {
				slog.Warn("heartbeat timed out, evicting", "connectionId", id, "room", s.room, "timeout", s.cfg.ClientTimeout)
				return &Frame{Kind: FrameClose, CloseCode: CloseGoingAway, Reason: "heartbeat timeout"}, ErrHeartbeatTimeout
			}
			if err := s.transport.Send(Frame{Kind: FramePing}); err != nil {
				return nil, fmt.Errorf("chat: write ping: %w", err)
			}
		}
	}
}
