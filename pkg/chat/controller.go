package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"spark-client/pkg/metrics"
	chatmodel "spark-client/pkg/models/chat"
	"spark-client/pkg/models/user"
	"spark-client/pkg/observe"
	"spark-client/pkg/sockets/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultAvatar = "/default-avatar.png"

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoUser       = errors.New("no signed-in user")
	ErrClosed       = errors.New("chat room is closed")
)

type Channel interface {
	Emit(event websocket.EventName, payload any)
	Subscribe(event websocket.EventName, h websocket.Handler) websocket.Subscription
	Unsubscribe(sub websocket.Subscription)
}

type API interface {
	ChatRoom(ctx context.Context, roomID string) (chatmodel.Room, error)
	ChatMessages(ctx context.Context, roomID string) ([]chatmodel.Message, error)
}

// Identity supplies the signed-in user.
type Identity interface {
	User() *user.User
}

type Sender struct {
	ID     string
	Name   string
	Avatar string
}

// DisplayMessage is a chat record ready to render.
type DisplayMessage struct {
	ID        string
	ClientID  string
	RoomID    string
	Sender    Sender
	Content   string
	CreatedAt time.Time
	Mine      bool
	// Pending is set on a local echo until the server relays it back.
	Pending bool
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "idle"
}

type State struct {
	Status   Status
	Messages []DisplayMessage
	Room     *chatmodel.Room
	Err      error
}

// Controller drives one open chat room.
type Controller struct {
	roomID string
	ch     Channel
	api    API
	me     Identity
	log    *zap.Logger

	mu       sync.Mutex
	opened   bool
	closed   bool
	loading  bool
	sub      *websocket.Subscription
	room     *chatmodel.Room
	messages []DisplayMessage
	buffered []chatmodel.Payload

	state *observe.Value[State]
}

func NewController(roomID string, ch Channel, api API, me Identity, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		roomID: roomID,
		ch:     ch,
		api:    api,
		me:     me,
		log:    log.Named("chat").With(zap.String("room_id", roomID)),
		state:  observe.NewValue(State{}),
	}
}

func (c *Controller) RoomID() string { return c.roomID }

// Open joins the room, starts listening for live messages and loads the room
// and its history. Live messages that arrive before history is in are held
// back and appended after it. Only a history failure is returned; a room
// failure leaves the counterpart unknown.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.opened {
		c.mu.Unlock()
		return nil
	}
	c.opened = true
	c.loading = true
	c.mu.Unlock()
	c.publish(StatusLoading, nil)

	c.ch.Emit(websocket.EventJoinRoom, chatmodel.Membership{RoomID: c.roomID, UserID: c.myID()})
	sub := c.ch.Subscribe(websocket.EventMessage, c.onMessage)
	c.mu.Lock()
	if c.closed {
		// Close ran before the subscription was recorded
		c.mu.Unlock()
		c.ch.Unsubscribe(sub)
		return ErrClosed
	}
	c.sub = &sub
	c.mu.Unlock()

	var (
		room    *chatmodel.Room
		history []chatmodel.Message
	)
	var g errgroup.Group
	g.Go(func() error {
		r, err := c.api.ChatRoom(ctx, c.roomID)
		if err != nil {
			c.log.Warn("failed to load room", zap.Error(err))
			return nil
		}
		room = &r
		return nil
	})
	g.Go(func() error {
		msgs, err := c.api.ChatMessages(ctx, c.roomID)
		if err != nil {
			return err
		}
		history = msgs
		return nil
	})
	err := g.Wait()

	c.mu.Lock()
	c.loading = false
	if room != nil {
		c.room = room
	}
	if err == nil {
		// echoes sent while loading go after history
		sent := c.messages
		c.messages = c.fromHistory(history)
		for _, m := range sent {
			c.appendLive(m)
		}
	}
	for _, p := range c.buffered {
		c.appendLive(c.fromPayload(p))
	}
	c.buffered = nil
	c.mu.Unlock()

	if err != nil {
		c.log.Error("failed to load messages", zap.Error(err))
		c.publish(StatusError, err)
		return err
	}
	c.log.Debug("history loaded", zap.Int("count", len(history)))
	c.publish(StatusReady, nil)
	return nil
}

func (c *Controller) onMessage(msg websocket.WSMessage) {
	in := ParsePayload(msg)
	if in.Kind == IncomingUnparseable {
		metrics.FramesUndecodable.Inc()
		c.log.Warn("dropping unparseable chat message", zap.ByteString("data", msg.Data), zap.Error(in.Err))
		return
	}
	p := in.Payload
	if p.RoomID != "" && p.RoomID != c.roomID {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.loading {
		c.buffered = append(c.buffered, p)
		c.mu.Unlock()
		return
	}
	added := c.appendLive(c.fromPayload(p))
	c.mu.Unlock()

	if added {
		c.publish(c.state.Get().Status, c.state.Get().Err)
	}
}

// appendLive adds rec unless a record with the same client or server id is
// already shown. A relayed copy of a pending echo confirms it instead; relays
// that drop the client id are matched to the oldest pending echo with the
// same content.
func (c *Controller) appendLive(rec DisplayMessage) bool {
	for i := range c.messages {
		m := &c.messages[i]
		sameClient := rec.ClientID != "" && m.ClientID == rec.ClientID
		sameServer := rec.ID != "" && m.ID == rec.ID
		sameEcho := rec.ClientID == "" && rec.Mine && m.Pending && m.Content == rec.Content
		if !sameClient && !sameServer && !sameEcho {
			continue
		}
		if m.Pending {
			m.Pending = false
			if m.ID == "" {
				m.ID = rec.ID
			}
			return true
		}
		return false
	}
	c.messages = append(c.messages, rec)
	return true
}

// Send emits a private message and shows it immediately as a pending echo.
func (c *Controller) Send(receiverID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	me := c.me.User()
	if me == nil {
		return ErrNoUser
	}

	now := time.Now().UTC()
	p := chatmodel.Payload{
		ClientID:     uuid.NewString(),
		RoomID:       c.roomID,
		SenderID:     me.ID,
		SenderName:   me.DisplayName(),
		SenderAvatar: me.AvatarURL(),
		ReceiverID:   receiverID,
		Content:      content,
		CreatedAt:    &now,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	echo := c.fromPayload(p)
	echo.Pending = true
	c.messages = append(c.messages, echo)
	c.mu.Unlock()

	c.ch.Emit(websocket.EventPrivateMessage, p)
	c.publish(c.state.Get().Status, c.state.Get().Err)
	return nil
}

// Close leaves the room and stops listening. It is safe to call twice.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	opened := c.opened
	sub := c.sub
	c.mu.Unlock()

	if !opened {
		return
	}
	if sub != nil {
		c.ch.Unsubscribe(*sub)
	}
	c.ch.Emit(websocket.EventLeaveRoom, chatmodel.Membership{RoomID: c.roomID, UserID: c.myID()})
}

func (c *Controller) State() State {
	return c.state.Get()
}

func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	return c.state.Subscribe(fn)
}

func (c *Controller) publish(status Status, err error) {
	c.mu.Lock()
	st := State{
		Status:   status,
		Messages: slices.Clone(c.messages),
		Err:      err,
	}
	if c.room != nil {
		r := *c.room
		st.Room = &r
	}
	c.mu.Unlock()
	c.state.Set(st)
}

func (c *Controller) myID() string {
	if u := c.me.User(); u != nil {
		return u.ID
	}
	return ""
}

func (c *Controller) mySender() Sender {
	u := c.me.User()
	if u == nil {
		return Sender{Avatar: DefaultAvatar}
	}
	return Sender{ID: u.ID, Name: u.DisplayName(), Avatar: orDefault(u.AvatarURL())}
}

func (c *Controller) counterpart(senderID string) Sender {
	s := Sender{ID: senderID, Avatar: DefaultAvatar}
	if c.room != nil {
		m := c.room.Counterpart()
		s.Name = m.DisplayName()
		s.Avatar = orDefault(m.Avatar)
	}
	return s
}

// fromHistory maps stored messages in creation order. Ties keep server order.
func (c *Controller) fromHistory(history []chatmodel.Message) []DisplayMessage {
	myID := c.myID()
	out := make([]DisplayMessage, 0, len(history))
	for _, m := range history {
		rec := DisplayMessage{
			ID:        m.ID,
			RoomID:    m.RoomID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
		if m.SenderID == myID && myID != "" {
			rec.Sender, rec.Mine = c.mySender(), true
		} else {
			rec.Sender = c.counterpart(m.SenderID)
		}
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b DisplayMessage) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

func (c *Controller) fromPayload(p chatmodel.Payload) DisplayMessage {
	rec := DisplayMessage{
		ID:       p.ID,
		ClientID: p.ClientID,
		RoomID:   p.RoomID,
		Content:  p.Content,
	}
	if p.CreatedAt != nil {
		rec.CreatedAt = *p.CreatedAt
	} else {
		rec.CreatedAt = time.Now().UTC()
	}

	myID := c.myID()
	switch {
	case p.SenderID == myID && myID != "":
		rec.Sender, rec.Mine = c.mySender(), true
	case p.SenderName != "":
		rec.Sender = Sender{ID: p.SenderID, Name: p.SenderName, Avatar: orDefault(p.SenderAvatar)}
	default:
		rec.Sender = c.counterpart(p.SenderID)
	}
	return rec
}

func orDefault(avatar string) string {
	if avatar == "" {
		return DefaultAvatar
	}
	return avatar
}
