package models

import "time"

const (
	HealthHealthy = "healthy"
	HealthWarning = "warning"
	HealthError   = "error"
)

// MServiceStatus is the backend's view of its upstream game connections.
type MServiceStatus struct {
	WebsocketStatus   string `json:"websocketStatus"`
	ActiveConnections int    `json:"activeConnections"`
	LastTokenUpdate   string `json:"lastTokenUpdate,omitempty"`
	ServiceHealth     string `json:"serviceHealth"`
}

// Connectivity describes the local transport link.
type Connectivity string

const (
	ConnConnecting   Connectivity = "connecting"
	ConnConnected    Connectivity = "connected"
	ConnDisconnected Connectivity = "disconnected"
	ConnClosed       Connectivity = "closed"
)

// MNotification is a user-facing toast raised by the stream layer.
type MNotification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
