package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"spark-client/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	token  string
	userID string
}

func (f fakeSession) Token() (string, bool) { return f.token, f.token != "" }
func (f fakeSession) UserID() string        { return f.userID }

// testServer accepts sockets, records what it receives and lets the test push
// raw frames to the most recent connection.
type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	auth     []string
	received []WSMessage
	gone     int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}
	upgrader := websocket.Upgrader{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.conns = append(ts.conns, conn)
		ts.auth = append(ts.auth, r.Header.Get("Authorization"))
		ts.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				ts.mu.Lock()
				ts.gone++
				ts.mu.Unlock()
				return
			}
			for _, f := range DecodeFrame(data) {
				ts.mu.Lock()
				ts.received = append(ts.received, f.Message)
				ts.mu.Unlock()
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) connCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.conns)
}

func (ts *testServer) goneCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.gone
}

func (ts *testServer) messages() []WSMessage {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]WSMessage(nil), ts.received...)
}

func (ts *testServer) push(t *testing.T, frame string) {
	t.Helper()
	ts.mu.Lock()
	conn := ts.conns[len(ts.conns)-1]
	ts.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (ts *testServer) closeLatest() {
	ts.mu.Lock()
	conn := ts.conns[len(ts.conns)-1]
	ts.mu.Unlock()
	conn.Close()
}

func connected(t *testing.T, ts *testServer, sess fakeSession) *Channel {
	t.Helper()
	ch := NewChannel(ts.URL, sess, nil)
	ch.Connect(context.Background())
	require.Equal(t, Connected, ch.State())
	require.Eventually(t, func() bool { return ts.connCount() == 1 }, time.Second, 10*time.Millisecond)
	t.Cleanup(ch.Disconnect)
	return ch
}

func envelope(event EventName, data string) string {
	b, _ := json.Marshal(WSMessage{Type: event, Data: json.RawMessage(data)})
	return string(b)
}

func TestSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/chat", socketURL("http://localhost:8080/chat"))
	assert.Equal(t, "wss://example.com/apis/chat", socketURL("https://example.com/apis/chat"))
	assert.Equal(t, "wss://example.com/x", socketURL("wss://example.com/x"))
}

func TestConnectWithoutTokenDoesNothing(t *testing.T) {
	ts := newTestServer(t)
	ch := NewChannel(ts.URL, fakeSession{}, nil)

	ch.Connect(context.Background())

	assert.Equal(t, Disconnected, ch.State())
	assert.Equal(t, 0, ts.connCount())
}

func TestConnectSendsBearerAndRegister(t *testing.T) {
	ts := newTestServer(t)
	connected(t, ts, fakeSession{token: "T1", userID: "U1"})

	require.Eventually(t, func() bool { return len(ts.messages()) == 1 }, time.Second, 10*time.Millisecond)

	ts.mu.Lock()
	assert.Equal(t, "Bearer T1", ts.auth[0])
	ts.mu.Unlock()

	msg := ts.messages()[0]
	assert.Equal(t, EventRegister, msg.Type)
	reg, err := DecodeData[Registration](msg)
	require.NoError(t, err)
	assert.Equal(t, "U1", reg.UserID)
}

func TestConnectTwiceKeepsOneConnection(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1", userID: "U1"})

	ch.Connect(context.Background())
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, ts.connCount())
	assert.Equal(t, Connected, ch.State())
}

func TestConnectFailureLeavesDisconnected(t *testing.T) {
	ch := NewChannel("ws://127.0.0.1:1/nothing", fakeSession{token: "T1"}, nil)
	var states []State
	cancel := ch.OnStateChange(func(s State) { states = append(states, s) })
	defer cancel()

	ch.Connect(context.Background())

	assert.Equal(t, Disconnected, ch.State())
	assert.Equal(t, []State{Connecting, Disconnected}, states)
}

func TestEmitWhileDisconnectedIsDropped(t *testing.T) {
	ch := NewChannel("ws://127.0.0.1:1", fakeSession{}, nil)
	before := testutil.ToFloat64(metrics.EmitsDropped.WithLabelValues(string(EventJoinRoom)))

	ch.Emit(EventJoinRoom, map[string]string{"roomId": "R1"})

	after := testutil.ToFloat64(metrics.EmitsDropped.WithLabelValues(string(EventJoinRoom)))
	assert.Equal(t, before+1, after)
}

func TestEmitDelivers(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1"})

	ch.Emit(EventJoinRoom, map[string]string{"roomId": "R1", "userId": "U1"})

	require.Eventually(t, func() bool { return len(ts.messages()) == 1 }, time.Second, 10*time.Millisecond)
	msg := ts.messages()[0]
	assert.Equal(t, EventJoinRoom, msg.Type)
	assert.JSONEq(t, `{"roomId":"R1","userId":"U1"}`, string(msg.Data))
}

func TestSubscribeReceivesBatchedFrames(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1"})

	got := make(chan string, 4)
	ch.Subscribe(EventMessage, func(m WSMessage) { got <- string(m.Data) })

	ts.push(t, envelope(EventMessage, `{"n":1}`)+"\n"+envelope(EventMessage, `{"n":2}`))

	assert.JSONEq(t, `{"n":1}`, <-got)
	assert.JSONEq(t, `{"n":2}`, <-got)
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1"})

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})
	ch.Subscribe(EventMessage, func(WSMessage) { mu.Lock(); order = append(order, "a"); mu.Unlock() })
	ch.Subscribe(EventMessage, func(WSMessage) { panic("boom") })
	ch.Subscribe(EventMessage, func(WSMessage) { mu.Lock(); order = append(order, "c"); mu.Unlock(); close(done) })

	ts.push(t, envelope(EventMessage, `{}`))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "c"}, order)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1"})

	removed := make(chan struct{}, 1)
	kept := make(chan struct{}, 1)
	sub := ch.Subscribe(EventMessage, func(WSMessage) { removed <- struct{}{} })
	ch.Subscribe(EventMessage, func(WSMessage) { kept <- struct{}{} })
	ch.Unsubscribe(sub)

	ts.push(t, envelope(EventMessage, `{}`))

	<-kept
	assert.Empty(t, removed)
}

func TestMalformedFrameIsCountedAndSkipped(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1"})
	before := testutil.ToFloat64(metrics.FramesUndecodable)

	got := make(chan struct{}, 1)
	ch.Subscribe(EventMessage, func(WSMessage) { got <- struct{}{} })

	ts.push(t, "not json\n"+envelope(EventMessage, `{}`))

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("valid frame after a malformed one was not dispatched")
	}
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FramesUndecodable))
}

func TestServerCloseKeepsHandlers(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1"})
	ch.Subscribe(EventMessage, func(WSMessage) {})

	ts.closeLatest()

	require.Eventually(t, func() bool { return ch.State() == Disconnected }, 2*time.Second, 10*time.Millisecond)
	ch.mu.Lock()
	assert.Len(t, ch.handlers[EventMessage], 1)
	ch.mu.Unlock()
}

func TestDisconnectClearsHandlers(t *testing.T) {
	ts := newTestServer(t)
	ch := connected(t, ts, fakeSession{token: "T1"})
	ch.Subscribe(EventMessage, func(WSMessage) {})
	ch.Subscribe(EventJoinRoom, func(WSMessage) {})

	ch.Disconnect()

	assert.Equal(t, Disconnected, ch.State())
	ch.mu.Lock()
	assert.Empty(t, ch.handlers)
	ch.mu.Unlock()
}

func TestDecodeFrameAndData(t *testing.T) {
	frames := DecodeFrame([]byte(envelope(EventMessage, `"{\"a\":1}"`) + "\n\n{bad"))
	require.Len(t, frames, 2)
	assert.Equal(t, FrameEvent, frames[0].Kind)
	assert.Equal(t, FrameUnparseable, frames[1].Kind)
	assert.ErrorIs(t, frames[1].Err, ErrMalformedFrame)

	_, err := DecodeData[Registration](frames[0].Message)
	assert.ErrorIs(t, err, ErrMalformedFrame, "string payloads are not unwrapped")

	assert.True(t, strings.HasPrefix(string(frames[1].Raw), "{bad"))
}

// gatedDialer holds the n-th dial until gates[n] is closed.
func gatedDialer(entered chan<- int, gates []chan struct{}) *websocket.Dialer {
	var dials atomic.Int32
	return &websocket.Dialer{
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			n := int(dials.Add(1)) - 1
			entered <- n
			<-gates[n]
			return (&net.Dialer{}).DialContext(ctx, network, addr)
		},
	}
}

func TestStaleDialIsClosedAfterReconnect(t *testing.T) {
	ts := newTestServer(t)
	entered := make(chan int, 2)
	gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
	ch := NewChannel(ts.URL, fakeSession{token: "T1"}, nil, WithDialer(gatedDialer(entered, gates)))
	t.Cleanup(ch.Disconnect)
	ctx := context.Background()

	first := make(chan struct{})
	go func() { ch.Connect(ctx); close(first) }()
	require.Equal(t, 0, <-entered)
	ch.Disconnect()

	second := make(chan struct{})
	go func() { ch.Connect(ctx); close(second) }()
	require.Equal(t, 1, <-entered)

	// the old dial lands while the new one is still connecting
	close(gates[0])
	<-first
	assert.Equal(t, Connecting, ch.State())

	close(gates[1])
	<-second
	require.Equal(t, Connected, ch.State())

	require.Eventually(t, func() bool { return ts.connCount() == 2 && ts.goneCount() == 1 }, time.Second, 10*time.Millisecond)

	ch.Emit(EventJoinRoom, map[string]string{"roomId": "R1"})
	require.Eventually(t, func() bool { return len(ts.messages()) == 1 }, time.Second, 10*time.Millisecond)
}
