package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"casino-monitor/src/config"
	"casino-monitor/src/helpers"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
	"casino-monitor/src/stream"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService implements MonitorControlServer on top of the connection
// manager. Subscriptions opened here are written back to the config file.
type ControlService struct {
	Config     *config.Config
	Manager    *stream.Manager
	ConfigPath string
	Logger     *logger.Logger

	mu    sync.Mutex
	owned map[string]*stream.Handle
}

// NewControlService creates a new instance of ControlService
func NewControlService(cfg *config.Config, manager *stream.Manager, cfgPath string, log *logger.Logger) *ControlService {
	return &ControlService{
		Config:     cfg,
		Manager:    manager,
		ConfigPath: cfgPath,
		Logger:     log,
		owned:      make(map[string]*stream.Handle),
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListSubscriptions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snaps := s.Manager.Snapshots()
	list := make([]interface{}, 0, len(snaps))
	for _, snap := range snaps {
		list = append(list, summarize(snap))
	}
	return structpb.NewStruct(map[string]interface{}{"subscriptions": list})
}

// -----------------------------------------------------------------------------

func (s *ControlService) OpenSubscription(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sub, err := subscriptionFrom(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	key := sub.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.owned[key]; ok && h.Valid() {
		snap, _ := h.Snapshot()
		return structpb.NewStruct(summarize(snap))
	}

	h, err := s.Manager.Open(ctx, sub)
	if err != nil {
		return nil, toStatus(err)
	}
	s.owned[key] = h
	s.remember(sub)

	s.Logger.Info("gRPC: opened %s", key)
	snap, _ := h.Snapshot()
	return structpb.NewStruct(summarize(snap))
}

// -----------------------------------------------------------------------------

func (s *ControlService) CloseSubscription(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key := req.GetFields()["key"].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	s.mu.Lock()
	h, ok := s.owned[key]
	delete(s.owned, key)
	s.mu.Unlock()

	closed := 0
	if ok {
		s.Manager.Close(h)
		closed = 1
	} else if req.GetFields()["all"].GetBoolValue() {
		closed = s.Manager.CloseKey(key)
	}
	if closed == 0 {
		return nil, status.Errorf(codes.NotFound, "subscription %s not found", key)
	}
	s.mu.Lock()
	s.forget(key)
	s.mu.Unlock()

	s.Logger.Info("gRPC: closed %s (%d handles)", key, closed)
	return structpb.NewStruct(map[string]interface{}{"key": key, "closed": float64(closed)})
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.Manager.Status()
	keys := make([]interface{}, 0)
	for _, k := range s.Manager.Keys() {
		keys = append(keys, k)
	}
	return structpb.NewStruct(map[string]interface{}{
		"sessions": float64(st.Sessions),
		"handles":  float64(st.Handles),
		"pending":  float64(st.Pending),
		"errors":   float64(st.Errors),
		"keys":     keys,
	})
}

// Shutdown releases the handles opened over gRPC.
func (s *ControlService) Shutdown() {
	s.mu.Lock()
	owned := s.owned
	s.owned = make(map[string]*stream.Handle)
	s.mu.Unlock()
	for _, h := range owned {
		s.Manager.Close(h)
	}
}

// -----------------------------------------------------------------------------
// Config persistence
// -----------------------------------------------------------------------------

// remember and forget must be called with mu held.
func (s *ControlService) remember(sub models.MSubscription) {
	for _, c := range s.Config.Subscriptions {
		if configKey(c) == sub.Key() {
			return
		}
	}
	s.Config.Subscriptions = append(s.Config.Subscriptions, models.MSubscriptionConfig{
		Game:        string(sub.Game),
		BookmakerID: sub.BookmakerID,
		SubKey:      sub.SubKey,
	})
	s.save()
}

func (s *ControlService) forget(key string) {
	kept := make([]models.MSubscriptionConfig, 0, len(s.Config.Subscriptions))
	for _, c := range s.Config.Subscriptions {
		if configKey(c) != key {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(s.Config.Subscriptions) {
		return
	}
	s.Config.Subscriptions = kept
	s.save()
}

func (s *ControlService) save() {
	if s.ConfigPath == "" {
		return
	}
	if err := s.Config.Save(s.ConfigPath); err != nil {
		s.Logger.Error("gRPC: failed to save config: %v", err)
	}
}

func configKey(c models.MSubscriptionConfig) string {
	return models.MSubscription{Game: models.GameKind(c.Game), BookmakerID: c.BookmakerID, SubKey: c.SubKey}.Key()
}

// -----------------------------------------------------------------------------
// Conversions
// -----------------------------------------------------------------------------

func subscriptionFrom(req *structpb.Struct) (models.MSubscription, error) {
	fields := req.GetFields()
	if key := fields["key"].GetStringValue(); key != "" {
		return models.ParseSubscriptionKey(key)
	}
	sub := models.MSubscription{
		Game:        models.GameKind(fields["game"].GetStringValue()),
		BookmakerID: int(fields["bookmakerId"].GetNumberValue()),
	}
	if v, ok := fields["subKey"]; ok {
		if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
			return sub, fmt.Errorf("subKey must be a number")
		}
		n := int(v.GetNumberValue())
		sub.SubKey = &n
	}
	return sub, sub.Validate()
}

// summarize drops the history and stats bodies, which are served over HTTP.
func summarize(snap models.MSubscriptionSnapshot) map[string]interface{} {
	out := map[string]interface{}{
		"key":          snap.Key,
		"game":         string(snap.Subscription.Game),
		"bookmakerId":  float64(snap.Subscription.BookmakerID),
		"connectivity": string(snap.Connectivity),
		"historyLen":   float64(len(snap.History)),
	}
	if snap.Round != nil {
		if raw, err := json.Marshal(snap.Round); err == nil {
			var round map[string]interface{}
			if json.Unmarshal(raw, &round) == nil {
				out["round"] = round
			}
		}
	}
	return out
}

func toStatus(err error) error {
	var validation *helpers.ValidationError
	switch {
	case errors.Is(err, helpers.ErrNotAuthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.As(err, &validation), errors.Is(err, helpers.ErrUnknownGame):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, helpers.ErrSubscriptionClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
