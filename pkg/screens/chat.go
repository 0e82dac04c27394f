package screens

import (
	"context"

	"spark-client/pkg/chat"
	chatmodel "spark-client/pkg/models/chat"

	"go.uber.org/zap"
)

type ChatListAPI interface {
	ChatRooms(ctx context.Context) ([]chatmodel.Room, error)
}

type ChatList struct {
	holder[[]chatmodel.Room]
	api ChatListAPI
}

func NewChatList(parent context.Context, c ChatListAPI, log *zap.Logger) *ChatList {
	l := &ChatList{api: c}
	l.init(parent, log, "chat_list")
	return l
}

func (l *ChatList) Load() error {
	l.loading()
	rooms, err := l.api.ChatRooms(l.ctx)
	if err != nil {
		return l.fail(err)
	}
	l.succeed(rooms)
	return nil
}

// ChatRoom is the screen around one chat.Controller. Leaving the screen
// leaves the room; the channel itself stays up.
type ChatRoom struct {
	scope
	ctrl *chat.Controller
}

func NewChatRoom(parent context.Context, roomID string, ch chat.Channel, c chat.API, me chat.Identity, log *zap.Logger) *ChatRoom {
	r := &ChatRoom{ctrl: chat.NewController(roomID, ch, c, me, log)}
	r.scope.init(parent)
	return r
}

func (r *ChatRoom) Open() error {
	return r.ctrl.Open(r.ctx)
}

// Send messages the room's counterpart, falling back to receiverID when the
// room metadata has not loaded.
func (r *ChatRoom) Send(receiverID, content string) error {
	if st := r.ctrl.State(); st.Room != nil && st.Room.Counterpart().ID != "" {
		receiverID = st.Room.Counterpart().ID
	}
	return r.ctrl.Send(receiverID, content)
}

func (r *ChatRoom) State() chat.State { return r.ctrl.State() }

func (r *ChatRoom) Subscribe(fn func(chat.State)) (cancel func()) {
	return r.ctrl.Subscribe(fn)
}

func (r *ChatRoom) Close() {
	r.ctrl.Close()
	r.scope.Close()
}
