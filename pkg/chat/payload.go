package chat

import (
	"errors"
	"fmt"

	chatmodel "spark-client/pkg/models/chat"
	"spark-client/pkg/sockets/websocket"
)

type IncomingKind int

const (
	IncomingChat IncomingKind = iota + 1
	IncomingUnparseable
)

// Incoming is one decoded message event. Unparseable events carry the reason.
type Incoming struct {
	Kind    IncomingKind
	Payload chatmodel.Payload
	Err     error
}

var errMissingSender = errors.New("payload has no sender")

// ParsePayload decodes the body of a message event. Anything that is not a
// chat payload object with a sender is unparseable.
func ParsePayload(msg websocket.WSMessage) Incoming {
	p, err := websocket.DecodeData[chatmodel.Payload](msg)
	if err != nil {
		return Incoming{Kind: IncomingUnparseable, Err: err}
	}
	if p.SenderID == "" {
		return Incoming{Kind: IncomingUnparseable, Err: fmt.Errorf("%w: %w", websocket.ErrMalformedFrame, errMissingSender)}
	}
	return Incoming{Kind: IncomingChat, Payload: p}
}
