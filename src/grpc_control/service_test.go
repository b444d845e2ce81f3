package grpc_control

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"casino-monitor/src/config"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
	"casino-monitor/src/normalizer"
	"casino-monitor/src/stream"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type idleTransport struct {
	frames chan models.MFrame
	once   sync.Once
}

func (t *idleTransport) Start(context.Context) error    { return nil }
func (t *idleTransport) Frames() <-chan models.MFrame   { return t.frames }
func (t *idleTransport) Emit(string, interface{}) error { return nil }
func (t *idleTransport) Connected() bool                { return false }

func (t *idleTransport) Close() error {
	t.once.Do(func() { close(t.frames) })
	return nil
}

func newTestClient(t *testing.T) (*MonitorControlClient, *ControlService) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &config.Config{MConfig: &models.MConfig{LogLevel: "error"}}
	cfg.ApplyDefaults()
	log := logger.NewLogger(cfg.MConfig, "test")

	factory := func(models.MSubscription, models.MGameConfig) interfaces.ITransport {
		return &idleTransport{frames: make(chan models.MFrame)}
	}
	mgr := stream.NewManager(cfg.MConfig, staticToken("tok"), normalizer.NewRegistryFromGames(cfg.Games), factory, log)
	svc := NewControlService(cfg, mgr, cfgPath, log)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterMonitorControlServer(srv, svc)
	go srv.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		svc.Shutdown()
		mgr.Shutdown()
	})
	return NewMonitorControlClient(conn), svc
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct() error = %v", err)
	}
	return s
}

// -----------------------------------------------------------------------------

func TestOpenListClose(t *testing.T) {
	client, svc := newTestClient(t)
	ctx := context.Background()

	out, err := client.OpenSubscription(ctx, mustStruct(t, map[string]interface{}{"game": "roulette", "bookmakerId": 4, "subKey": 17}))
	if err != nil {
		t.Fatalf("OpenSubscription() error = %v", err)
	}
	if got := out.Fields["key"].GetStringValue(); got != "roulette:4:17" {
		t.Errorf("key = %q, want roulette:4:17", got)
	}

	list, err := client.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions() error = %v", err)
	}
	if n := len(list.Fields["subscriptions"].GetListValue().GetValues()); n != 1 {
		t.Errorf("subscriptions = %d, want 1", n)
	}

	saved, err := os.ReadFile(svc.ConfigPath)
	if err != nil || !strings.Contains(string(saved), "bookmaker_id: 4") {
		t.Errorf("config file not updated: %v\n%s", err, saved)
	}

	st, err := client.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if got := st.Fields["handles"].GetNumberValue(); got != 1 {
		t.Errorf("handles = %v, want 1", got)
	}

	if _, err := client.CloseSubscription(ctx, mustStruct(t, map[string]interface{}{"key": "roulette:4:17"})); err != nil {
		t.Fatalf("CloseSubscription() error = %v", err)
	}
	if len(svc.Config.Subscriptions) != 0 {
		t.Errorf("config subscriptions = %v, want none", svc.Config.Subscriptions)
	}
	_, err = client.CloseSubscription(ctx, mustStruct(t, map[string]interface{}{"key": "roulette:4:17"}))
	if status.Code(err) != codes.NotFound {
		t.Errorf("second close code = %v, want NotFound", status.Code(err))
	}
}

func TestOpenRejectsInvalid(t *testing.T) {
	client, _ := newTestClient(t)
	tests := []struct {
		name string
		req  map[string]interface{}
	}{
		{"unknown game", map[string]interface{}{"game": "poker", "bookmakerId": 1}},
		{"missing bookmaker", map[string]interface{}{"game": "aviator"}},
		{"target out of range", map[string]interface{}{"game": "roulette", "bookmakerId": 1, "subKey": 40}},
		{"malformed key", map[string]interface{}{"key": "aviator"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.OpenSubscription(context.Background(), mustStruct(t, tt.req))
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("code = %v, want InvalidArgument (%v)", status.Code(err), err)
			}
		})
	}
}
