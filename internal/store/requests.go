package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/techdict/backend/internal/models"
)

const requestColumns = `id, type, word_id, word, description, status, created_at, updated_at`

func scanRequest(row pgx.Row) (models.Request, error) {
	var r models.Request
	err := row.Scan(&r.ID, &r.Type, &r.WordID, &r.Word, &r.Description, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PostgresStore) CreateRequest(ctx context.Context, r CreateRequestRequest) (models.Request, error) {
	req, err := scanRequest(s.db.QueryRow(ctx,
		`INSERT INTO requests (type, word_id, word, description, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+requestColumns,
		string(r.Type), r.WordID, r.Word, r.Description, string(r.Status),
	))
	if err != nil {
		return models.Request{}, fmt.Errorf("insert request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, id int64) (models.Request, error) {
	req, err := scanRequest(s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if err != nil {
		return models.Request{}, notFound(err)
	}
	return req, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context, r ListRequestsRequest) ([]models.Request, error) {
	var status *string
	if r.Status != nil {
		v := string(*r.Status)
		status = &v
	}
	var limit *int
	if r.Limit > 0 {
		limit = &r.Limit
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE $1::text IS NULL OR status = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Request, error) {
		return scanRequest(row)
	})
}

func (s *PostgresStore) UpdateRequestStatus(ctx context.Context, r UpdateRequestStatusRequest) (models.Request, error) {
	req, err := scanRequest(s.db.QueryRow(ctx,
		`UPDATE requests SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+requestColumns,
		r.ID, string(r.Status),
	))
	if err != nil {
		return models.Request{}, notFound(err)
	}
	return req, nil
}
