package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/gemctl/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the protocol phase of one connection.
type State uint8

const (
	StateAwaitingRequest State = iota + 1
	StateDispatched
	StateResponseStarted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingRequest:
		return "awaiting_request"
	case StateDispatched:
		return "dispatched"
	case StateResponseStarted:
		return "response_started"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DispatchFunc starts an application instance for an accepted request and returns
// the Channel used to deliver disconnect to it.
type DispatchFunc func(c *Conn, scope Scope) *Channel

// ConnInfo is a point-in-time view of one connection.
type ConnInfo struct {
	ID       string    `json:"id"`
	Client   string    `json:"client"`
	URL      string    `json:"url,omitempty"`
	State    string    `json:"state"`
	OpenedAt time.Time `json:"opened_at"`
}

// Conn is the protocol state machine for one connection. It owns the transport
// until it is closed, which happens exactly once.
type Conn struct {
	ID string

	mu           sync.Mutex
	transport    net.Conn
	peer         Addr
	state        State
	scope        Scope
	queue        *Channel
	disconnected bool
	buf          []byte
	openedAt     time.Time
	done         chan struct{}

	rootPath string
	dispatch DispatchFunc
	logger   zerolog.Logger
}

func NewConn(transport net.Conn, rootPath string, dispatch DispatchFunc, logger zerolog.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		ID:        id,
		transport: transport,
		state:     StateAwaitingRequest,
		openedAt:  time.Now(),
		done:      make(chan struct{}),
		rootPath:  rootPath,
		dispatch:  dispatch,
		logger:    logger.With().Str("conn", id).Logger(),
	}
}

// OnConnect records the peer address.
func (c *Conn) OnConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		c.peer = addrOf(c.transport.RemoteAddr())
	}
	c.logger = c.logger.With().Str("peer", c.peer.String()).Logger()
}

// OnData feeds inbound bytes while awaiting the request line. It returns true when
// more bytes are needed to decide. Bytes arriving after dispatch are ignored.
func (c *Conn) OnData(data []byte) bool {
	c.mu.Lock()
	if c.state != StateAwaitingRequest || c.transport == nil {
		c.mu.Unlock()
		return false
	}
	c.buf = append(c.buf, data...)
	if needMore(c.buf) {
		c.mu.Unlock()
		return true
	}

	u, err := ParseRequest(c.buf)
	line := requestLine(c.buf)
	c.buf = nil
	if err != nil {
		c.rejectLocked(err)
		c.mu.Unlock()
		return false
	}
	c.scope = newScope(line, u, c.rootPath, c.peer)
	c.state = StateDispatched
	scope := c.scope
	c.mu.Unlock()

	c.logger.Debug().Str("url", scope.URL).Msg("gemini request")
	var queue *Channel
	if c.dispatch != nil {
		queue = c.dispatch(c, scope)
	}
	c.attach(queue)
	return false
}

// OnEOF handles the end of the inbound stream. A partial request line is answered
// with 59; otherwise the transport is released.
func (c *Conn) OnEOF() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return
	}
	if c.state == StateAwaitingRequest && len(c.buf) > 0 {
		c.rejectLocked(badRequest("missing terminator"))
		return
	}
	c.finishLocked()
}

// OnTransportClosed releases the transport and notifies the application. Idempotent.
func (c *Conn) OnTransportClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishLocked()
}

// Reject answers the peer with status/meta and closes, unless a response already started.
func (c *Conn) Reject(status int, meta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return
	}
	if c.state == StateResponseStarted {
		c.finishLocked()
		return
	}
	c.writeErrorLocked(status, meta)
}

// HandleReply renders one application message to the wire. Messages arriving after
// the transport is gone are discarded. Protocol violations force-close the
// connection and are returned to the caller.
func (c *Conn) HandleReply(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return nil
	}
	deadline, _ := ctx.Deadline()
	_ = c.transport.SetWriteDeadline(deadline)

	switch msg.Type {
	case "":
		return c.violationLocked(ErrMissingMessageType)
	case MessageResponseStart:
		if c.state == StateResponseStarted {
			return c.violationLocked(ErrResponseStarted)
		}
		if c.state != StateDispatched {
			return c.violationLocked(fmt.Errorf("%w: response start in state %s", ErrProtocolViolation, c.state))
		}
		c.state = StateResponseStarted
		if err := c.writeLocked([]byte(fmt.Sprintf("%d %s\r\n", msg.Status, msg.Header))); err != nil {
			return nil
		}
		observability.RecordResponse(msg.Status, string(CategoryOf(msg.Status)))
		c.logger.Info().
			Str("url", c.scope.URL).
			Int("status", msg.Status).
			Str("header", msg.Header).
			Msg("gemini response")
		return nil
	case MessageResponseBody:
		if c.state != StateResponseStarted {
			return c.violationLocked(ErrResponseNotStarted)
		}
		if err := c.writeLocked(msg.Body); err != nil {
			return nil
		}
		if !msg.MoreBody {
			observability.RecordResponseDuration(time.Since(c.openedAt))
			c.finishLocked()
		}
		return nil
	default:
		return c.violationLocked(fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type))
	}
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) Scope() Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

func (c *Conn) Peer() Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

// Done is closed once the transport has been released.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) Info() ConnInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnInfo{
		ID:       c.ID,
		Client:   c.peer.String(),
		URL:      c.scope.URL,
		State:    c.state.String(),
		OpenedAt: c.openedAt,
	}
}

// attach binds the application's Channel. A transport closed during dispatch still
// yields its disconnect.
func (c *Conn) attach(queue *Channel) {
	if queue == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = queue
	if c.state == StateClosed {
		c.sendDisconnectLocked()
	}
}

func (c *Conn) rejectLocked(err error) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		reqErr = badRequest(err.Error())
	}
	observability.RecordRejectedRequest(reqErr.Status)
	c.writeErrorLocked(reqErr.Status, reqErr.Meta)
}

func (c *Conn) writeErrorLocked(status int, meta string) {
	c.logger.Warn().Int("status", status).Str("header", meta).Msg("gemini error")
	_ = c.writeLocked([]byte(fmt.Sprintf("%d %s\r\n", status, meta)))
	c.finishLocked()
}

func (c *Conn) violationLocked(err error) error {
	observability.RecordProtocolViolation()
	c.logger.Error().Err(err).Str("state", c.state.String()).Msg("application protocol violation")
	c.finishLocked()
	return err
}

// writeLocked writes to the transport; a failed write means the peer is gone.
func (c *Conn) writeLocked(p []byte) error {
	if _, err := c.transport.Write(p); err != nil {
		c.logger.Debug().Err(err).Msg("transport write failed")
		c.finishLocked()
		return err
	}
	return nil
}

func (c *Conn) finishLocked() {
	if c.transport == nil {
		return
	}
	if err := c.transport.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("transport close")
	}
	c.transport = nil
	c.state = StateClosed
	c.sendDisconnectLocked()
	close(c.done)
}

func (c *Conn) sendDisconnectLocked() {
	if c.queue == nil || c.disconnected {
		return
	}
	c.disconnected = true
	c.queue.Send(Disconnect())
}
