package models

import "time"

type PushSubscription struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	Endpoint       string    `json:"endpoint"`
	ExpirationTime int64     `json:"expiration_time,omitempty"`
	P256dh         string    `json:"keys_p256dh"` // Mapped from keys.p256dh
	Auth           string    `json:"keys_auth"`   // Mapped from keys.auth
	UserAgent      string    `json:"user_agent"`
	CreatedAt      time.Time `json:"created_at"`
}
