package store

import (
	"context"

	"grievance-portal-go/internal/models"

	"github.com/lib/pq"
)

// Grievance methods

func (s *PostgresStore) CreateGrievance(ctx context.Context, by, against int, text string, images [][]byte) (models.Grievance, error) {
	var g models.Grievance
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO grievances (by_user, against_user, text, images, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING id, by_user, against_user, text, created_at, updated_at`,
		by, against, text, pq.ByteaArray(images),
	).Scan(&g.ID, &g.By, &g.Against, &g.Text, &g.CreatedAt, &g.UpdatedAt)

	if err != nil {
		return models.Grievance{}, err
	}

	g.Images = images
	return g, nil
}

// GetGrievancesBy returns grievances filed by userID, joined with the
// target's display name, oldest first.
func (s *PostgresStore) GetGrievancesBy(ctx context.Context, userID int) ([]models.GrievanceView, error) {
	return s.queryGrievanceViews(ctx,
		`SELECT g.id, g.text, u.id, u.name, g.created_at
		 FROM grievances g
		 INNER JOIN users u ON u.id = g.against_user
		 WHERE g.by_user = $1
		 ORDER BY g.created_at ASC`,
		userID,
	)
}

// GetGrievancesAgainst returns grievances filed against userID, joined
// with the filer's display name, oldest first.
func (s *PostgresStore) GetGrievancesAgainst(ctx context.Context, userID int) ([]models.GrievanceView, error) {
	return s.queryGrievanceViews(ctx,
		`SELECT g.id, g.text, u.id, u.name, g.created_at
		 FROM grievances g
		 INNER JOIN users u ON u.id = g.by_user
		 WHERE g.against_user = $1
		 ORDER BY g.created_at ASC`,
		userID,
	)
}

func (s *PostgresStore) queryGrievanceViews(ctx context.Context, query string, userID int) ([]models.GrievanceView, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.GrievanceView
	for rows.Next() {
		var v models.GrievanceView
		if err := rows.Scan(&v.ID, &v.Text, &v.Counterparty.ID, &v.Counterparty.Name, &v.CreatedAt); err != nil {
			continue
		}
		views = append(views, v)
	}

	return views, rows.Err()
}
