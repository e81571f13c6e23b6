package store

import (
	"context"
	"database/sql"

	"grievance-portal-go/internal/models"
)

// Push subscription methods

// SaveSubscription upserts the subscription keyed by (user, device).
// A device re-subscribing replaces its previous endpoint and keys.
func (s *PostgresStore) SaveSubscription(ctx context.Context, sub models.PushSubscription) error {
	var expiration sql.NullInt64
	if sub.ExpirationTime != 0 {
		expiration = sql.NullInt64{Int64: sub.ExpirationTime, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, expiration_time, p256dh, auth, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (user_id, user_agent) DO UPDATE
		 SET endpoint = EXCLUDED.endpoint,
		     expiration_time = EXCLUDED.expiration_time,
		     p256dh = EXCLUDED.p256dh,
		     auth = EXCLUDED.auth`,
		sub.UserID, sub.Endpoint, expiration, sub.P256dh, sub.Auth, sub.UserAgent,
	)
	return err
}

// DeleteSubscription removes the (user, device) row. Deleting a row
// that does not exist is not an error.
func (s *PostgresStore) DeleteSubscription(ctx context.Context, userID int, userAgent string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE user_id = $1 AND user_agent = $2`,
		userID, userAgent,
	)
	return err
}

func (s *PostgresStore) GetSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, endpoint, expiration_time, p256dh, auth, user_agent, created_at
		 FROM push_subscriptions
		 WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var sub models.PushSubscription
		var expiration sql.NullInt64
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &expiration, &sub.P256dh, &sub.Auth, &sub.UserAgent, &sub.CreatedAt); err != nil {
			continue
		}
		if expiration.Valid {
			sub.ExpirationTime = expiration.Int64
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}
