package store

import (
	"context"
	"errors"

	"grievance-portal-go/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserStore handles user accounts (PostgreSQL)
type UserStore interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, id int) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUser2FA(ctx context.Context, userID int, totpSecret string, enabled bool) error
	Disable2FA(ctx context.Context, userID int) error
}

// GrievanceStore handles grievance records (PostgreSQL)
type GrievanceStore interface {
	CreateGrievance(ctx context.Context, by, against int, text string, images [][]byte) (models.Grievance, error)
	GetGrievancesBy(ctx context.Context, userID int) ([]models.GrievanceView, error)
	GetGrievancesAgainst(ctx context.Context, userID int) ([]models.GrievanceView, error)
}

// SubscriptionStore handles push subscriptions (PostgreSQL)
type SubscriptionStore interface {
	SaveSubscription(ctx context.Context, sub models.PushSubscription) error
	DeleteSubscription(ctx context.Context, userID int, userAgent string) error
	GetSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error)
}

// DataStore is the full persistent surface backed by PostgreSQL.
type DataStore interface {
	UserStore
	GrievanceStore
	SubscriptionStore
}

// ActivityStore handles the per-user activity feed (Redis)
type ActivityStore interface {
	AddEvent(ctx context.Context, userID int, kind, message string) (models.Event, error)
	GetEvents(ctx context.Context, userID int) ([]models.Event, error)
	ClearEvents(ctx context.Context, userID int) error
	Subscribe(ctx context.Context, userID int) *redis.PubSub
}
