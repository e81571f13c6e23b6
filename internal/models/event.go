package models

import "time"

// Event is an entry in a user's activity feed ("X filed a grievance
// against you"). Stored in Redis with a TTL, streamed over SSE.
type Event struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	EventGrievanceFiled = "grievance_filed"
)
