package models

// MConfig Structure
type MConfig struct {
	Name          string                 `yaml:"name"`
	Host          string                 `yaml:"host"`
	Port          int                    `yaml:"port"`
	LogLevel      string                 `yaml:"log_level"`
	GrpcHost      string                 `yaml:"grpc_host"`
	GrpcPort      int                    `yaml:"grpc_port"`
	API           MAPIConfig             `yaml:"api"`
	Websocket     MWebsocketConfig       `yaml:"websocket"`
	Auth          MAuthConfig            `yaml:"auth"`
	Network       MNetworkConfig         `yaml:"network"`
	Storage       MStorageConfig         `yaml:"storage"`
	Redis         MRedisConfig           `yaml:"redis"`
	Analysis      MAnalysisConfig        `yaml:"analysis"`
	Games         map[string]MGameConfig `yaml:"games"`
	Subscriptions []MSubscriptionConfig  `yaml:"subscriptions"`
}

// MAPIConfig points at the backend REST collaborator.
type MAPIConfig struct {
	BaseURL       string `yaml:"base_url"`
	StartServices bool   `yaml:"start_services"`
}

type MWebsocketConfig struct {
	BaseURL              string `yaml:"base_url"`
	Path                 string `yaml:"path"`
	HandshakeTimeout     int    `yaml:"handshake_timeout"`
	ReconnectMinMs       int    `yaml:"reconnect_min_ms"`
	ReconnectMaxMs       int    `yaml:"reconnect_max_ms"`
	MaxReconnectAttempts int    `yaml:"max_reconnect_attempts"`
}

type MAuthConfig struct {
	Token    string `yaml:"token"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MRedisConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	StreamPrefix string `yaml:"stream_prefix"`
	MaxLen       int64  `yaml:"max_len"`
}

// MAnalysisConfig holds the derived-statistics constants.
type MAnalysisConfig struct {
	HistoryCapacity int     `yaml:"history_capacity"`
	TrendThreshold  float64 `yaml:"trend_threshold"`
	EMAPeriod       int     `yaml:"ema_period"`
	BandPeriod      int     `yaml:"band_period"`
	BandWidth       float64 `yaml:"band_width"`
	LevelsLookback  int     `yaml:"levels_lookback"`
	// Newest rounds feeding the walk and its indicators. Defaults to
	// HistoryCapacity.
	TrendWindow int `yaml:"trend_window"`
}

// MGameConfig maps one game kind onto its Socket.IO namespace and event names.
type MGameConfig struct {
	Namespace       string   `yaml:"namespace"`
	IDField         string   `yaml:"id_field"`
	JoinEvent       string   `yaml:"join_event"`
	LeaveEvent      string   `yaml:"leave_event"`
	JoinAckEvent    string   `yaml:"join_ack_event"`
	HistoryEvent    string   `yaml:"history_event"`
	TickEvent       string   `yaml:"tick_event"`
	RoundEvent      string   `yaml:"round_event"`
	PredictionEvent string   `yaml:"prediction_event"`
	StatusEvents    []string `yaml:"status_events"`
	HistoryRequest  string   `yaml:"history_request"`
	UpdateRequest   string   `yaml:"update_request"`
}

type MSubscriptionConfig struct {
	Game        string `yaml:"game"`
	BookmakerID int    `yaml:"bookmaker_id"`
	SubKey      *int   `yaml:"sub_key,omitempty"`
}

// GetLogLevel lets the logger read the level from any config wrapper.
func (c *MConfig) GetLogLevel() string {
	if c == nil {
		return ""
	}
	return c.LogLevel
}
