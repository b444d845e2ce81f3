package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"casino-monitor/src/helpers"
	"casino-monitor/src/models"
)

type staticToken string

func (s staticToken) Token() (string, error) {
	if s == "" {
		return "", helpers.ErrNotAuthenticated
	}
	return string(s), nil
}

const openPacket = `0{"sid":"s1","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`

// fakeServer accepts Engine.IO websocket connections, sends the open packet
// and hands the connection to script.
func fakeServer(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("EIO") != "4" || r.URL.Query().Get("transport") != "websocket" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(openPacket)); err != nil {
			return
		}
		script(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readText(conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	return string(msg), err
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func newTestClient(url string, token string, attempts int) *Client {
	cfg := models.MWebsocketConfig{
		BaseURL:              url,
		Path:                 "/socket.io/",
		HandshakeTimeout:     2,
		ReconnectMinMs:       10,
		ReconnectMaxMs:       50,
		MaxReconnectAttempts: attempts,
	}
	return NewClient(cfg, "/aviator", staticToken(token), nil, nil)
}

func nextFrame(t *testing.T, c *Client) models.MFrame {
	t.Helper()
	select {
	case f, ok := <-c.Frames():
		if !ok {
			t.Fatal("frames channel closed")
		}
		return f
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return models.MFrame{}
}

// -----------------------------------------------------------------------------

func TestClientJoinEventsAndEmit(t *testing.T) {
	received := make(chan string, 8)
	srv := fakeServer(t, func(conn *websocket.Conn) {
		msg, err := readText(conn)
		if err != nil {
			return
		}
		received <- msg
		conn.WriteMessage(websocket.TextMessage, []byte(`40/aviator,{"sid":"n1"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`42/other,["round",{"game_id":"x"}]`))
		conn.WriteMessage(websocket.TextMessage, []byte(`42/aviator,["round",{"game_id":"r1"}]`))
		if msg, err = readText(conn); err == nil {
			received <- msg
		}
		drain(conn)
	})

	c := newTestClient(srv.URL, "tok", 1)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Close()

	if got := <-received; got != `40/aviator,{"token":"tok"}` {
		t.Errorf("connect packet = %q", got)
	}
	if f := nextFrame(t, c); f.Kind != models.FrameConnected {
		t.Fatalf("first frame = %+v, want FrameConnected", f)
	}
	if !c.Connected() {
		t.Error("Connected() = false after join")
	}
	f := nextFrame(t, c)
	if f.Kind != models.FrameEvent || f.Event != "round" || string(f.Payload) != `{"game_id":"r1"}` {
		t.Errorf("event frame = %+v", f)
	}

	if err := c.Emit("join_aviator", map[string]int{"aviatorId": 7}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	select {
	case got := <-received:
		if got != `42/aviator,["join_aviator",{"aviatorId":7}]` {
			t.Errorf("emitted = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive emit")
	}
}

func TestClientAnswersPing(t *testing.T) {
	pong := make(chan string, 1)
	srv := fakeServer(t, func(conn *websocket.Conn) {
		if _, err := readText(conn); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`40/aviator,{"sid":"n1"}`))
		conn.WriteMessage(websocket.TextMessage, []byte("2"))
		if msg, err := readText(conn); err == nil {
			pong <- msg
		}
		drain(conn)
	})

	c := newTestClient(srv.URL, "tok", 1)
	c.Start(context.Background())
	defer c.Close()

	select {
	case got := <-pong:
		if got != "3" {
			t.Errorf("reply to ping = %q, want 3", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no pong")
	}
}

func TestClientReconnectsAfterDrop(t *testing.T) {
	connections := make(chan struct{}, 4)
	srv := fakeServer(t, func(conn *websocket.Conn) {
		if _, err := readText(conn); err != nil {
			return
		}
		connections <- struct{}{}
		conn.WriteMessage(websocket.TextMessage, []byte(`40/aviator,{"sid":"n1"}`))
		if len(connections) == 1 {
			// first connection is dropped by the server
			conn.WriteMessage(websocket.TextMessage, []byte(`41/aviator,`))
			return
		}
		drain(conn)
	})

	c := newTestClient(srv.URL, "tok", 3)
	c.Start(context.Background())
	defer c.Close()

	want := []models.FrameKind{models.FrameConnected, models.FrameDisconnected, models.FrameConnected}
	for i, kind := range want {
		if f := nextFrame(t, c); f.Kind != kind {
			t.Fatalf("frame %d = %+v, want kind %d", i, f, kind)
		}
	}
}

func TestClientRefusedNamespace(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn) {
		if _, err := readText(conn); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`44/aviator,{"message":"Authentication error"}`))
		drain(conn)
	})

	c := newTestClient(srv.URL, "tok", 1)
	c.Start(context.Background())
	defer c.Close()

	f := nextFrame(t, c)
	if f.Kind != models.FrameConnectError || !strings.Contains(f.Err.Error(), "Authentication error") {
		t.Errorf("frame = %+v, want connect error", f)
	}
	if err := c.Emit("join_aviator", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Emit() error = %v, want ErrNotConnected", err)
	}
}

func TestClientWithoutToken(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "", 1)
	c.Start(context.Background())

	f := nextFrame(t, c)
	if f.Kind != models.FrameConnectError || !errors.Is(f.Err, helpers.ErrNotAuthenticated) {
		t.Errorf("frame = %+v, want not authenticated", f)
	}
	c.Close()
	// Close returns after the run loop has closed the channel.
	for range c.Frames() {
	}
}

func TestClientCloseSendsDisconnect(t *testing.T) {
	got := make(chan string, 4)
	srv := fakeServer(t, func(conn *websocket.Conn) {
		if _, err := readText(conn); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`40/aviator,{"sid":"n1"}`))
		for {
			msg, err := readText(conn)
			if err != nil {
				return
			}
			got <- msg
		}
	})

	c := newTestClient(srv.URL, "tok", 1)
	c.Start(context.Background())
	if f := nextFrame(t, c); f.Kind != models.FrameConnected {
		t.Fatalf("frame = %+v, want FrameConnected", f)
	}
	c.Close()

	select {
	case msg := <-got:
		if msg != "41/aviator," {
			t.Errorf("close packet = %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnect packet")
	}
	if c.Connected() {
		t.Error("Connected() = true after Close")
	}
}
