package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"casino-monitor/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file, applies .env and environment overrides,
// fills defaults and validates.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment wins over the file for collaborator endpoints and secrets
	_ = godotenv.Load()
	config.ApplyEnv()
	config.ApplyDefaults()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"API_URL", &c.API.BaseURL},
		{"WS_URL", &c.Websocket.BaseURL},
		{"AUTH_TOKEN", &c.Auth.Token},
		{"AUTH_EMAIL", &c.Auth.Email},
		{"AUTH_PASSWORD", &c.Auth.Password},
		{"DB_CONNECTION_STRING", &c.Storage.DBConnectionString},
		{"REDIS_URL", &c.Redis.URL},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values with the default constants and game tables.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Websocket.Path == "" {
		c.Websocket.Path = "/socket.io/"
	}
	if c.Websocket.HandshakeTimeout <= 0 {
		c.Websocket.HandshakeTimeout = 10
	}
	if c.Websocket.ReconnectMinMs <= 0 {
		c.Websocket.ReconnectMinMs = 1000
	}
	if c.Websocket.ReconnectMaxMs <= 0 {
		c.Websocket.ReconnectMaxMs = 30000
	}
	if c.Network.RequestTimeout <= 0 {
		c.Network.RequestTimeout = 15
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "none"
	}
	if c.Storage.RetentionDays <= 0 {
		c.Storage.RetentionDays = 30
	}
	if c.Redis.StreamPrefix == "" {
		c.Redis.StreamPrefix = "rounds.finalized"
	}
	if c.Redis.MaxLen <= 0 {
		c.Redis.MaxLen = 10000
	}

	a := &c.Analysis
	if a.HistoryCapacity <= 0 {
		a.HistoryCapacity = 100
	}
	if a.TrendThreshold <= 0 {
		a.TrendThreshold = 2.01
	}
	if a.EMAPeriod <= 0 {
		a.EMAPeriod = 20
	}
	if a.BandPeriod <= 0 {
		a.BandPeriod = 20
	}
	if a.BandWidth <= 0 {
		a.BandWidth = 2
	}
	if a.LevelsLookback <= 0 {
		a.LevelsLookback = 40
	}
	if a.TrendWindow <= 0 {
		a.TrendWindow = a.HistoryCapacity
	}

	if c.Games == nil {
		c.Games = make(map[string]models.MGameConfig)
	}
	for name, def := range DefaultGames() {
		c.Games[name] = mergeGame(c.Games[name], def)
	}
}

// -----------------------------------------------------------------------------

// DefaultGames returns the default namespace and event tables.
func DefaultGames() map[string]models.MGameConfig {
	crash := func(game string) models.MGameConfig {
		return models.MGameConfig{
			Namespace:       "/" + game,
			IDField:         game + "Id",
			JoinEvent:       "join_" + game,
			LeaveEvent:      "leave_" + game,
			JoinAckEvent:    game + "_joined",
			HistoryEvent:    "latest_rounds",
			TickEvent:       "liveMultiplier",
			RoundEvent:      "round",
			PredictionEvent: "prediction",
			StatusEvents:    []string{"service_status", "connections_status"},
			HistoryRequest:  "get_latest_rounds",
			UpdateRequest:   "request_immediate_update",
		}
	}
	return map[string]models.MGameConfig{
		string(models.GameAviator):  crash(string(models.GameAviator)),
		string(models.GameSpaceman): crash(string(models.GameSpaceman)),
		string(models.GameRoulette): {
			Namespace:       "/roulette",
			IDField:         "bookmakerId",
			JoinEvent:       "subscribe_roulette",
			LeaveEvent:      "unsubscribe_roulette",
			JoinAckEvent:    "roulette_subscribed",
			HistoryEvent:    "latest_history",
			TickEvent:       "roulette_number",
			RoundEvent:      "roulette_round",
			PredictionEvent: "prediction",
			StatusEvents:    []string{"service_status"},
			HistoryRequest:  "get_latest_history",
			UpdateRequest:   "request_immediate_update",
		},
	}
}

func mergeGame(g, def models.MGameConfig) models.MGameConfig {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	g.Namespace = pick(g.Namespace, def.Namespace)
	g.IDField = pick(g.IDField, def.IDField)
	g.JoinEvent = pick(g.JoinEvent, def.JoinEvent)
	g.LeaveEvent = pick(g.LeaveEvent, def.LeaveEvent)
	g.JoinAckEvent = pick(g.JoinAckEvent, def.JoinAckEvent)
	g.HistoryEvent = pick(g.HistoryEvent, def.HistoryEvent)
	g.TickEvent = pick(g.TickEvent, def.TickEvent)
	g.RoundEvent = pick(g.RoundEvent, def.RoundEvent)
	g.PredictionEvent = pick(g.PredictionEvent, def.PredictionEvent)
	g.HistoryRequest = pick(g.HistoryRequest, def.HistoryRequest)
	g.UpdateRequest = pick(g.UpdateRequest, def.UpdateRequest)
	if len(g.StatusEvents) == 0 {
		g.StatusEvents = def.StatusEvents
	}
	return g
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Feed endpoint
	if c.Websocket.BaseURL == "" {
		return fmt.Errorf("websocket base url cannot be empty (set websocket.base_url or WS_URL)")
	}
	u, err := url.Parse(c.Websocket.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid websocket base url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("unsupported websocket scheme %q", u.Scheme)
	}
	if c.Websocket.ReconnectMinMs > c.Websocket.ReconnectMaxMs {
		return fmt.Errorf("reconnect_min_ms must not exceed reconnect_max_ms")
	}
	if c.Websocket.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max reconnect attempts cannot be negative")
	}

	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Storage
	switch c.Storage.DBType {
	case "none":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type %q", c.Storage.DBType)
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis is enabled but no url is configured")
	}

	if c.Analysis.HistoryCapacity < c.Analysis.LevelsLookback {
		return fmt.Errorf("history capacity %d is smaller than levels lookback %d", c.Analysis.HistoryCapacity, c.Analysis.LevelsLookback)
	}
	if c.Analysis.TrendWindow > c.Analysis.HistoryCapacity {
		return fmt.Errorf("trend window %d exceeds history capacity %d", c.Analysis.TrendWindow, c.Analysis.HistoryCapacity)
	}

	for i, s := range c.Subscriptions {
		sub := models.MSubscription{Game: models.GameKind(s.Game), BookmakerID: s.BookmakerID, SubKey: s.SubKey}
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("subscription %d: %w", i, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Game returns the event table for a game kind.
func (c *Config) Game(kind models.GameKind) (models.MGameConfig, bool) {
	g, ok := c.Games[string(kind)]
	return g, ok
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
