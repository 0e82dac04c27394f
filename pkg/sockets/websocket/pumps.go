package websocket

import (
	"time"

	"spark-client/pkg/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// server to client
func (c *Channel) readPump(conn *websocket.Conn) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in readPump", zap.Any("panic", r))
		}
		c.setDisconnected(conn)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected close", zap.Error(err))
			} else {
				c.log.Info("connection closed", zap.Error(err))
			}
			return
		}

		for _, frame := range DecodeFrame(message) {
			if frame.Kind == FrameUnparseable {
				metrics.FramesUndecodable.Inc()
				c.log.Warn("dropping undecodable frame", zap.ByteString("raw", frame.Raw), zap.Error(frame.Err))
				continue
			}
			c.dispatch(frame.Message)
		}
	}
}

// client to server
func (c *Channel) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in writePump", zap.Any("panic", r))
		}
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.log.Warn("error getting writer", zap.Error(err))
				c.setDisconnected(conn)
				return
			}
			w.Write(message)

			// Add queued messages to the current frame
			n := len(send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-send)
			}

			if err := w.Close(); err != nil {
				c.log.Warn("error writing frame", zap.Error(err))
				c.setDisconnected(conn)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Warn("error sending ping", zap.Error(err))
				c.setDisconnected(conn)
				return
			}
		}
	}
}
