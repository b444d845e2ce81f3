package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"casino-monitor/src/config"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
	"casino-monitor/src/normalizer"
	"casino-monitor/src/stream"

	"github.com/gorilla/websocket"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

// idleTransport accepts emits and never delivers frames.
type idleTransport struct {
	frames chan models.MFrame
	once   sync.Once
}

func (t *idleTransport) Start(context.Context) error    { return nil }
func (t *idleTransport) Frames() <-chan models.MFrame   { return t.frames }
func (t *idleTransport) Emit(string, interface{}) error { return nil }
func (t *idleTransport) Connected() bool                { return true }

func (t *idleTransport) Close() error {
	t.once.Do(func() { close(t.frames) })
	return nil
}

func newTestServer(t *testing.T) *DashboardServer {
	t.Helper()
	srv := newHublessServer(t)
	go srv.handleWebsockets()
	return srv
}

// newHublessServer leaves the hub loop stopped so tests can drain it by hand.
func newHublessServer(t *testing.T) *DashboardServer {
	t.Helper()
	cfg := &config.Config{MConfig: &models.MConfig{LogLevel: "error"}}
	cfg.ApplyDefaults()
	log := logger.NewLogger(cfg.MConfig, "test")

	factory := func(models.MSubscription, models.MGameConfig) interfaces.ITransport {
		return &idleTransport{frames: make(chan models.MFrame)}
	}
	mgr := stream.NewManager(cfg.MConfig, staticToken("tok"), normalizer.NewRegistryFromGames(cfg.Games), factory, log)
	srv := NewDashboardServer(cfg.MConfig, mgr, nil, log)
	mgr.SetExchanger(srv)

	t.Cleanup(func() {
		srv.Stop()
		mgr.Shutdown()
	})
	return srv
}

func do(t *testing.T, srv *DashboardServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/health = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["subscriptions"] != float64(0) {
		t.Errorf("health = %v", body)
	}
}

func TestConfigListsGames(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/config", "")
	var body struct {
		Games []string `json:"games"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Games) != 3 || body.Games[0] != "aviator" {
		t.Errorf("games = %v, want aviator first of 3", body.Games)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	payload := `{"game":"aviator","bookmakerId":1}`

	if rec := do(t, srv, http.MethodPost, "/api/subscriptions", payload); rec.Code != http.StatusCreated {
		t.Fatalf("first POST = %d, want 201: %s", rec.Code, rec.Body)
	}
	if rec := do(t, srv, http.MethodPost, "/api/subscriptions", payload); rec.Code != http.StatusOK {
		t.Errorf("second POST = %d, want 200", rec.Code)
	}
	if got := srv.Manager.Status().Handles; got != 1 {
		t.Errorf("handles = %d, want 1", got)
	}

	rec := do(t, srv, http.MethodGet, "/api/subscriptions", "")
	var list []models.MSubscriptionSnapshot
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list) != 1 || list[0].Key != "aviator:1" {
		t.Errorf("list = %+v", list)
	}

	if rec := do(t, srv, http.MethodGet, "/api/subscriptions/aviator:1?order=desc", ""); rec.Code != http.StatusOK {
		t.Errorf("GET key = %d, want 200", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/api/subscriptions/aviator:1/history", ""); rec.Code != http.StatusAccepted {
		t.Errorf("POST history = %d, want 202", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/subscriptions/aviator:1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d, want 204", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/subscriptions/aviator:1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
	if rec := do(t, srv, http.MethodDelete, "/api/subscriptions/aviator:1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", rec.Code)
	}
}

func TestOpenSubscriptionErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"unknown game", `{"game":"poker","bookmakerId":1}`, http.StatusBadRequest},
		{"sub key on crash game", `{"game":"spaceman","bookmakerId":1,"subKey":3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, srv, http.MethodPost, "/api/subscriptions", tt.body); rec.Code != tt.want {
				t.Errorf("POST = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequestOnUnknownKey(t *testing.T) {
	srv := newTestServer(t)
	if rec := do(t, srv, http.MethodPost, "/api/subscriptions/roulette:4/prediction", ""); rec.Code != http.StatusNotFound {
		t.Errorf("POST prediction = %d, want 404", rec.Code)
	}
}

func TestBackendRoutesWithoutBackend(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/bookmakers", "/api/connections/aviator"} {
		if rec := do(t, srv, http.MethodGet, path, ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, rec.Code)
		}
	}
}

// -----------------------------------------------------------------------------

func TestWebSocketFiltersByKey(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "aviator:1"})
	srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "aviator:2"})
	deadline := time.Now().Add(2 * time.Second)
	for {
		srv.stateMutex.RLock()
		n := len(srv.latest)
		srv.stateMutex.RUnlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("hub never cached the snapshots")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	read := func() models.MSubscriptionSnapshot {
		t.Helper()
		var snap models.MSubscriptionSnapshot
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return snap
	}

	for _, want := range []string{"aviator:1", "aviator:2"} {
		if got := read(); got.Key != want || got.Type != "INITIAL" {
			t.Errorf("initial = %s/%s, want %s/INITIAL", got.Key, got.Type, want)
		}
	}

	conn.WriteJSON(models.MSubscribeCommand{Command: "subscribe", Keys: []string{"aviator:2"}})
	if got := read(); got.Key != "aviator:2" {
		t.Errorf("subscribe reply = %s, want aviator:2", got.Key)
	}

	srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "aviator:1"})
	srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "aviator:2"})
	if got := read(); got.Key != "aviator:2" || got.Type != "UPDATE" {
		t.Errorf("update = %s/%s, want aviator:2/UPDATE", got.Key, got.Type)
	}

	srv.Forget("aviator:2")
	if got := read(); got.Key != "aviator:2" || got.Type != "REMOVED" {
		t.Errorf("forget = %s/%s, want aviator:2/REMOVED", got.Key, got.Type)
	}
}

// -----------------------------------------------------------------------------

func TestForgetWinsOverQueuedBroadcast(t *testing.T) {
	srv := newHublessServer(t)

	srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "aviator:1"})
	srv.Forget("aviator:1")
	srv.drainPending()

	if _, ok := srv.latest["aviator:1"]; ok {
		t.Error("latest still holds aviator:1 after Forget")
	}

	// A subscription reopened after removal is cached again.
	srv.Forget("aviator:2")
	srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "aviator:2"})
	srv.drainPending()
	if _, ok := srv.latest["aviator:2"]; !ok {
		t.Error("latest lacks aviator:2 after a later Broadcast")
	}
}

func TestBroadcastCoalescesPerKey(t *testing.T) {
	srv := newHublessServer(t)

	for i := 1; i <= 1000; i++ {
		srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "aviator:1", Timestamp: int64(i)})
	}
	srv.Broadcast(models.MSubscriptionSnapshot{Type: "UPDATE", Key: "roulette:4", Timestamp: 7})

	srv.pendingMu.Lock()
	pending, order := len(srv.pending), strings.Join(srv.order, ",")
	srv.pendingMu.Unlock()
	if pending != 2 || order != "aviator:1,roulette:4" {
		t.Errorf("pending = %d %q, want 2 \"aviator:1,roulette:4\"", pending, order)
	}

	srv.drainPending()
	if got := srv.latest["aviator:1"].Timestamp; got != 1000 {
		t.Errorf("latest aviator:1 timestamp = %d, want 1000", got)
	}
	if got := srv.latest["roulette:4"].Timestamp; got != 7 {
		t.Errorf("latest roulette:4 timestamp = %d, want 7", got)
	}
}
