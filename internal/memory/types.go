package memory

import (
	"context"
	"time"
)

// TurnRecord archives a single completed dialogue turn.
type TurnRecord struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	UserText     string    `json:"user_text"`
	ResponseText string    `json:"response_text"`
	Intent       string    `json:"intent"`
	CreatedAt    time.Time `json:"created_at"`
}

// Preferences are the sticky per-user defaults remembered across sessions.
type Preferences struct {
	City        string `json:"city"`
	VehicleType string `json:"vehicle_type"`
}

// Store persists the turn archive and user preferences. Live session state
// never leaves the process; this is the only persistence boundary.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]TurnRecord, error)
	LoadPreferences(ctx context.Context, sessionID string) (Preferences, error)
	SavePreferences(ctx context.Context, sessionID string, prefs Preferences) error
	Close() error
}
