package gemini

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/danmuck/gemctl/internal/observability"
	"github.com/rs/zerolog"
)

// Server accepts TLS connections, runs one application instance per request and
// tracks every live connection until its transport is released.
type Server struct {
	cfg    Config
	app    Application
	logger zerolog.Logger

	mu    sync.Mutex
	apps  map[*Conn]*instance
	conns map[net.Conn]struct{}
	addr  net.Addr
}

// instance is one running application bound to a connection.
type instance struct {
	queue     *Channel
	startedAt time.Time
}

func NewServer(app Application, cfg Config, logger zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		app:    app,
		logger: logger.With().Str("component", "gemini").Logger(),
		apps:   make(map[*Conn]*instance),
		conns:  make(map[net.Conn]struct{}),
	}
}

// Listen opens the TLS listener. A missing or invalid key pair fails here.
func (s *Server) Listen() (net.Listener, error) {
	tlsCfg, err := s.cfg.TLSConfig()
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("cert", s.cfg.CertFile).Str("key", s.cfg.KeyFile).Msg("loaded tls key pair")
	return tls.Listen("tcp", s.cfg.Addr(), tlsCfg)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("starting server")
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on an existing listener. Cancelling ctx closes the
// listener and every tracked connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	observability.RegisterMetrics()
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	defer ln.Close()
	go func() {
		select {
		case <-ctx.Done():
			s.closeAllConns()
			_ = ln.Close()
		case <-done:
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				backoff = nextBackoff(backoff)
				s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return nil
				}
				continue
			}
			s.closeAllConns()
			return err
		}
		backoff = 0
		s.trackConn(conn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// nextBackoff doubles the accept retry delay from 5ms up to one second.
func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		return time.Second
	}
	return d
}

// Addr is the bound listener address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleConn drives one connection's inbound side: handshake, request line, then
// peer-close detection.
func (s *Server) handleConn(ctx context.Context, raw net.Conn) {
	defer s.untrackConn(raw)
	observability.ConnectionOpened()
	defer observability.ConnectionClosed()

	timeout := s.cfg.RequestTimeout
	if timeout > 0 {
		_ = raw.SetDeadline(time.Now().Add(timeout))
	}
	if tlsConn, ok := raw.(*tls.Conn); ok {
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			s.logger.Debug().Err(err).Str("peer", raw.RemoteAddr().String()).Msg("tls handshake failed")
			_ = raw.Close()
			return
		}
	}

	c := NewConn(raw, s.cfg.RootPath, func(c *Conn, scope Scope) *Channel {
		return s.createApplication(ctx, c, scope)
	}, s.logger)
	c.OnConnect()

	buf := make([]byte, MaxRequestSize+1)
	for {
		n, err := raw.Read(buf)
		if n > 0 && c.State() == StateAwaitingRequest {
			if !c.OnData(buf[:n]) && timeout > 0 {
				_ = raw.SetDeadline(time.Time{})
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() && c.State() == StateAwaitingRequest {
				_ = raw.SetWriteDeadline(time.Now().Add(timeout))
				observability.RecordRejectedRequest(StatusBadRequest)
				c.Reject(StatusBadRequest, "Bad Request")
				return
			}
			c.OnEOF()
			return
		}
	}
}

// createApplication starts the application for scope and returns its Channel.
func (s *Server) createApplication(ctx context.Context, c *Conn, scope Scope) *Channel {
	queue := NewChannel()
	s.mu.Lock()
	s.apps[c] = &instance{queue: queue, startedAt: time.Now()}
	s.mu.Unlock()

	go func() {
		err := s.invoke(ctx, scope, queue.Receive, c.HandleReply)
		s.applicationTerminated(c, err)
	}()
	return queue
}

func (s *Server) invoke(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return s.app.Serve(ctx, scope, receive, send)
}

// applicationTerminated runs exactly once per application instance.
func (s *Server) applicationTerminated(c *Conn, err error) {
	defer func() {
		s.mu.Lock()
		delete(s.apps, c)
		s.mu.Unlock()
	}()

	logger := s.logger.With().Str("conn", c.ID).Str("url", c.Scope().URL).Logger()
	if err == nil {
		if c.State() != StateClosed {
			logger.Warn().Msg("application returned before finishing its response")
		}
		logger.Debug().Msg("application terminated")
		return
	}

	observability.RecordApplicationFailure()
	logger.Error().Err(err).Msg("application error")
	if errors.Is(err, ErrProtocolViolation) {
		return
	}
	c.Reject(StatusPermanentFailure, Diagnostic(err))
}

// Connections returns a snapshot of tracked connections with a running application.
func (s *Server) Connections() []ConnInfo {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.apps))
	for c := range s.apps {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	out := make([]ConnInfo, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// ActiveApplications is the size of the application registry.
func (s *Server) ActiveApplications() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
