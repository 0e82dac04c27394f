package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"spark-client/pkg/metrics"
	"spark-client/pkg/observe"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "disconnected"
}

// Handler receives one inbound envelope. Handlers run on the read goroutine,
// one at a time, in subscription order.
type Handler func(WSMessage)

// Subscription identifies one registered handler.
type Subscription struct {
	event EventName
	id    uint64
}

// Session is what the channel needs from the signed-in session.
type Session interface {
	Token() (string, bool)
	UserID() string
}

const defaultSendBuffer = 256

var (
	ErrNotConnected = errors.New("socket not connected")
	ErrBufferFull   = errors.New("send buffer full")
)

// Channel is the single long-lived real-time connection of the client.
// There is no automatic reconnect: after a transport failure the state is
// Disconnected until Connect is called again.
type Channel struct {
	url     string
	session Session
	dialer  *websocket.Dialer
	log     *zap.Logger
	buffer  int

	stateVal *observe.Value[State]

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	handlers map[EventName]map[uint64]Handler
	nextID   uint64
	// attempt is bumped by every Connect and Disconnect; a dial that
	// finishes under an older attempt closes its connection.
	attempt uint64
}

type Option func(*Channel)

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

func WithSendBuffer(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.buffer = n
		}
	}
}

func NewChannel(rawURL string, session Session, log *zap.Logger, opts ...Option) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Channel{
		url:      socketURL(rawURL),
		session:  session,
		dialer:   websocket.DefaultDialer,
		log:      log.Named("ws"),
		buffer:   defaultSendBuffer,
		stateVal: observe.NewValue(Disconnected),
		handlers: make(map[EventName]map[uint64]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// socketURL maps http(s) URLs onto ws(s).
func socketURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String()
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange calls fn on every state transition.
func (c *Channel) OnStateChange(fn func(State)) (cancel func()) {
	return c.stateVal.Subscribe(fn)
}

// Connect opens the connection if none is open or opening. Without a token
// the call is abandoned; dial failures are logged and leave the channel
// Disconnected. Neither is returned to the caller.
func (c *Channel) Connect(ctx context.Context) {
	token, ok := c.session.Token()
	if !ok {
		c.log.Warn("cannot connect: not logged in")
		return
	}

	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		c.log.Debug("skipping connect: already " + c.State().String())
		return
	}
	c.state = Connecting
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()
	c.stateVal.Set(Connecting)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		fields := []zap.Field{zap.String("url", c.url), zap.Error(err)}
		if resp != nil {
			fields = append(fields, zap.Int("status", resp.StatusCode))
		}
		c.log.Error("connect error", fields...)
		c.dialFailed(attempt)
		return
	}

	c.mu.Lock()
	if c.state != Connecting || c.attempt != attempt {
		// Disconnect, or a newer Connect, won the race
		c.mu.Unlock()
		conn.Close()
		return
	}
	send := make(chan []byte, c.buffer)
	done := make(chan struct{})
	c.conn, c.send, c.done = conn, send, done
	c.state = Connected
	c.mu.Unlock()
	c.stateVal.Set(Connected)

	c.log.Info("connected", zap.String("url", c.url))

	go c.writePump(conn, send, done)
	go c.readPump(conn)

	c.onConnected()
}

// onConnected announces the user on every fresh connection.
func (c *Channel) onConnected() {
	userID := c.session.UserID()
	if userID == "" {
		return
	}
	c.Emit(EventRegister, Registration{UserID: userID})
	c.log.Debug("sent register", zap.String("user_id", userID))
}

// Emit sends event with payload. It never blocks and never reports failure:
// when not connected, or when the send buffer is full, the event is dropped.
func (c *Channel) Emit(event EventName, payload any) {
	data, err := NewWSMessage(event, payload)
	if err != nil {
		c.log.Error("failed to encode event", zap.String("event", string(event)), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Connected {
		c.log.Warn("dropping event", zap.String("event", string(event)), zap.Error(ErrNotConnected))
		metrics.EmitsDropped.WithLabelValues(string(event)).Inc()
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn("dropping event", zap.String("event", string(event)), zap.Error(ErrBufferFull))
		metrics.EmitsDropped.WithLabelValues(string(event)).Inc()
	}
}

// Subscribe registers h for event. Handlers survive transport failures and
// are only removed by Unsubscribe, Off or Disconnect.
func (c *Channel) Subscribe(event EventName, h Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]Handler)
	}
	c.handlers[event][c.nextID] = h
	return Subscription{event: event, id: c.nextID}
}

func (c *Channel) Unsubscribe(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hs, ok := c.handlers[sub.event]; ok {
		delete(hs, sub.id)
		if len(hs) == 0 {
			delete(c.handlers, sub.event)
		}
	}
}

// Off removes every handler for event.
func (c *Channel) Off(event EventName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

// Disconnect closes the connection and removes all handlers.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.handlers = make(map[EventName]map[uint64]Handler)
	wasConnected := c.state != Disconnected
	if c.done != nil {
		close(c.done)
	}
	c.conn, c.send, c.done = nil, nil, nil
	c.state = Disconnected
	c.attempt++
	c.mu.Unlock()

	if wasConnected {
		c.stateVal.Set(Disconnected)
		c.log.Info("disconnected and cleaned up socket")
	}
}

// dialFailed returns to Disconnected unless a newer attempt owns the state.
func (c *Channel) dialFailed(attempt uint64) {
	c.mu.Lock()
	if c.attempt != attempt || c.state != Connecting {
		c.mu.Unlock()
		return
	}
	c.state = Disconnected
	c.mu.Unlock()

	c.stateVal.Set(Disconnected)
}

// setDisconnected drops conn if it is still the live connection.
func (c *Channel) setDisconnected(conn *websocket.Conn) {
	c.mu.Lock()
	if conn == nil || c.conn != conn {
		c.mu.Unlock()
		return
	}
	if c.done != nil {
		close(c.done)
	}
	c.conn, c.send, c.done = nil, nil, nil
	c.state = Disconnected
	c.mu.Unlock()

	c.stateVal.Set(Disconnected)
}

func (c *Channel) dispatch(msg WSMessage) {
	c.mu.Lock()
	hs := c.handlers[msg.Type]
	ids := make([]uint64, 0, len(hs))
	for id := range hs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Handler, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, hs[id])
	}
	c.mu.Unlock()

	if len(fns) == 0 {
		c.log.Debug("no handler for event", zap.String("event", string(msg.Type)))
		return
	}
	for _, fn := range fns {
		c.call(fn, msg)
	}
}

func (c *Channel) call(fn Handler, msg WSMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in event handler", zap.String("event", string(msg.Type)), zap.Any("panic", r))
		}
	}()
	fn(msg)
}
