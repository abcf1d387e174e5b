package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/techdict/backend/internal/models"
)

func (s *PostgresStore) CountWords(ctx context.Context, status *models.WordStatus) (int64, error) {
	var st *string
	if status != nil {
		v := string(*status)
		st = &v
	}

	var n int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM words WHERE $1::text IS NULL OR status = $1`, st).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountRequests(ctx context.Context, status *models.RequestStatus) (int64, error) {
	var st *string
	if status != nil {
		v := string(*status)
		st = &v
	}

	var n int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM requests WHERE $1::text IS NULL OR status = $1`, st).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) WordsByClass(ctx context.Context) ([]models.Count, error) {
	return s.counts(ctx, `SELECT class, COUNT(*) AS n FROM words GROUP BY class ORDER BY n DESC, class`)
}

func (s *PostgresStore) RequestsByStatus(ctx context.Context) ([]models.Count, error) {
	return s.counts(ctx, `SELECT status, COUNT(*) AS n FROM requests GROUP BY status ORDER BY status`)
}

func (s *PostgresStore) RequestsByType(ctx context.Context) ([]models.Count, error) {
	return s.counts(ctx, `SELECT type, COUNT(*) AS n FROM requests GROUP BY type ORDER BY type`)
}

func (s *PostgresStore) NewWordsPerDay(ctx context.Context) ([]models.DailyCount, error) {
	return s.daily(ctx, `SELECT date_trunc('day', added_at) AS d, COUNT(*) FROM words GROUP BY d ORDER BY d`)
}

func (s *PostgresStore) WordUpdatesPerDay(ctx context.Context) ([]models.DailyCount, error) {
	return s.daily(ctx, `SELECT date_trunc('day', updated_at) AS d, COUNT(*) FROM words
		WHERE updated_at > added_at GROUP BY d ORDER BY d`)
}

func (s *PostgresStore) NewRequestsPerDay(ctx context.Context) ([]models.DailyCount, error) {
	return s.daily(ctx, `SELECT date_trunc('day', created_at) AS d, COUNT(*) FROM requests GROUP BY d ORDER BY d`)
}

func (s *PostgresStore) MostLookedUp(ctx context.Context, limit int) ([]models.TermLookups, error) {
	rows, err := s.db.Query(ctx,
		`SELECT term, lookup_count FROM words ORDER BY lookup_count DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("most looked up: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TermLookups, error) {
		var t models.TermLookups
		err := row.Scan(&t.Term, &t.LookupCount)
		return t, err
	})
}

// AvgResolveSeconds is the mean of updated_at - created_at over resolved
// requests, or nil when there are none.
func (s *PostgresStore) AvgResolveSeconds(ctx context.Context) (*float64, error) {
	var avg *float64
	err := s.db.QueryRow(ctx,
		`SELECT AVG(EXTRACT(EPOCH FROM (updated_at - created_at)))::float8
		 FROM requests WHERE status = 'Resolved'`,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average resolve time: %w", err)
	}
	return avg, nil
}

func (s *PostgresStore) counts(ctx context.Context, query string) ([]models.Count, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("group count: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Count, error) {
		var c models.Count
		err := row.Scan(&c.Key, &c.Count)
		return c, err
	})
}

func (s *PostgresStore) daily(ctx context.Context, query string) ([]models.DailyCount, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("daily count: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DailyCount, error) {
		var d models.DailyCount
		err := row.Scan(&d.Date, &d.Count)
		return d, err
	})
}
