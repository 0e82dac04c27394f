package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject is where deliveries for userID are published.
func Subject(userID string) string {
	return fmt.Sprintf("notifications.%s", userID)
}

// Connect dials the delivery broker. The connection reconnects on its own.
func Connect(url string, log *zap.Logger) (*nats.Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("nats")
	opts := []nats.Option{
		nats.Name("spark-client"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("connected", zap.String("url", nc.ConnectedUrl()))
	return nc, nil
}

// Listener feeds deliveries for one user into a Service.
type Listener struct {
	svc *Service
	log *zap.Logger
	ctx context.Context
	sub *nats.Subscription
}

// Listen subscribes to the user's subject on nc. Handlers run with ctx.
func Listen(ctx context.Context, nc *nats.Conn, userID string, svc *Service, log *zap.Logger) (*Listener, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Listener{svc: svc, log: log.Named("push"), ctx: ctx}

	subject := Subject(userID)
	sub, err := nc.Subscribe(subject, l.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	l.sub = sub
	l.log.Info("listening for notifications", zap.String("subject", subject))
	return l, nil
}

func (l *Listener) handle(msg *nats.Msg) {
	var m Message
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		l.log.Warn("dropping malformed notification", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	if err := l.svc.OnMessage(l.ctx, m); err != nil {
		l.log.Warn("failed to show notification", zap.Error(err))
	}
}

func (l *Listener) Close() error {
	if l.sub == nil {
		return nil
	}
	return l.sub.Unsubscribe()
}
