package models

// MAPIResponse is the backend's JSON envelope.
type MAPIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type MUser struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	PlanType string `json:"planType,omitempty"`
}

// MAuthSession is the login answer. It is not wrapped in the envelope.
type MAuthSession struct {
	Token   string `json:"token"`
	User    MUser  `json:"user"`
	Message string `json:"message,omitempty"`
}

type MBookmaker struct {
	ID           int    `json:"id"`
	Bookmaker    string `json:"bookmaker"`
	BookmakerImg string `json:"bookmakerImg"`
	GameID       int    `json:"gameId"`
}

type MGame struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	IsActive bool   `json:"isActive"`
}

// MConnectionInfo is one upstream feed leg as reported by the backend admin API.
type MConnectionInfo struct {
	BookmakerID int    `json:"bookmakerId"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status"`
}
