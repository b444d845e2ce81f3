package models

// MSubscriptionSnapshot is everything a presentation consumer renders for one
// subscription.
type MSubscriptionSnapshot struct {
	Type          string          `json:"type"`
	Key           string          `json:"key"`
	Subscription  MSubscription   `json:"subscription"`
	Connectivity  Connectivity    `json:"connectivity"`
	Round         *MRoundState    `json:"round,omitempty"`
	History       []MHistoryEntry `json:"history"`
	Stats         *MDerivedStats  `json:"stats,omitempty"`
	Prediction    *MPrediction    `json:"prediction,omitempty"`
	ServiceStatus *MServiceStatus `json:"serviceStatus,omitempty"`
	Notification  *MNotification  `json:"notification,omitempty"`
	Timestamp     int64           `json:"timestamp"`
}

// MSubscribeCommand is sent by hub clients to filter the feed.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Keys    []string `json:"keys"`
}
