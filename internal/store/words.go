package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/techdict/backend/internal/models"
)

const wordColumns = `id, term, class, meaning, pronunciation, history, example, status, lookup_count, added_at, updated_at`

func scanWord(row pgx.Row) (models.Word, error) {
	var w models.Word
	err := row.Scan(
		&w.ID, &w.Term, &w.Class, &w.Meaning, &w.Pronunciation, &w.History, &w.Example,
		&w.Status, &w.LookupCount, &w.AddedAt, &w.UpdatedAt,
	)
	return w, err
}

func collectWords(rows pgx.Rows) ([]models.Word, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Word, error) {
		return scanWord(row)
	})
}

func (s *PostgresStore) CreateWord(ctx context.Context, r CreateWordRequest) (models.Word, error) {
	w, err := scanWord(s.db.QueryRow(ctx,
		`INSERT INTO words (term, class, meaning, pronunciation, history, example, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+wordColumns,
		r.Term, r.Class, r.Meaning, r.Pronunciation, r.History, r.Example, string(r.Status),
	))
	if err != nil {
		return models.Word{}, fmt.Errorf("insert word: %w", err)
	}
	return w, nil
}

func (s *PostgresStore) GetWord(ctx context.Context, id int64) (models.Word, error) {
	w, err := scanWord(s.db.QueryRow(ctx, `SELECT `+wordColumns+` FROM words WHERE id = $1`, id))
	if err != nil {
		return models.Word{}, notFound(err)
	}
	return w, nil
}

func (s *PostgresStore) ListWords(ctx context.Context, r ListWordsRequest) ([]models.Word, error) {
	var status *string
	if r.Status != nil {
		v := string(*r.Status)
		status = &v
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+wordColumns+` FROM words
		 WHERE $1::text IS NULL OR status = $1
		 ORDER BY term, id`, status)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	return collectWords(rows)
}

func (s *PostgresStore) UpdateWord(ctx context.Context, r UpdateWordRequest) (models.Word, error) {
	var status *string
	if r.Status != nil {
		v := string(*r.Status)
		status = &v
	}

	w, err := scanWord(s.db.QueryRow(ctx,
		`UPDATE words
		 SET term = $2, class = $3, meaning = $4, pronunciation = $5, history = $6, example = $7,
		     status = COALESCE($8, status), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+wordColumns,
		r.ID, r.Term, r.Class, r.Meaning, r.Pronunciation, r.History, r.Example, status,
	))
	if err != nil {
		return models.Word{}, notFound(err)
	}
	return w, nil
}

func (s *PostgresStore) DeleteWord(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM words WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchWords matches term case-insensitively as a substring and counts one
// lookup for every word returned.
func (s *PostgresStore) SearchWords(ctx context.Context, query string) ([]models.Word, error) {
	rows, err := s.db.Query(ctx,
		`UPDATE words SET lookup_count = lookup_count + 1
		 WHERE term ILIKE '%' || $1::text || '%'
		 RETURNING `+wordColumns, escapeLike(query))
	if err != nil {
		return nil, fmt.Errorf("search words: %w", err)
	}

	words, err := collectWords(rows)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(words, func(a, b models.Word) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Term), strings.ToLower(b.Term)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return words, nil
}

// RandomWord picks one word with the given status uniformly at random.
func (s *PostgresStore) RandomWord(ctx context.Context, status models.WordStatus) (models.Word, error) {
	w, err := scanWord(s.db.QueryRow(ctx,
		`SELECT `+wordColumns+` FROM words WHERE status = $1 ORDER BY random() LIMIT 1`, string(status)))
	if err != nil {
		return models.Word{}, notFound(err)
	}
	return w, nil
}

func (s *PostgresStore) TopLookups(ctx context.Context, limit int) ([]models.Word, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+wordColumns+` FROM words ORDER BY lookup_count DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top lookups: %w", err)
	}
	return collectWords(rows)
}

func (s *PostgresStore) RecentWords(ctx context.Context, limit int) ([]models.Word, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+wordColumns+` FROM words ORDER BY added_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent words: %w", err)
	}
	return collectWords(rows)
}

// SuggestWord records a user supplied word as Pending together with the New
// request that tracks it.
func (s *PostgresStore) SuggestWord(ctx context.Context, r CreateWordRequest, description string) (models.Word, models.Request, error) {
	var (
		w   models.Word
		req models.Request
	)
	err := s.withTx(ctx, func(tx *PostgresStore) error {
		var err error
		r.Status = models.WordPending
		if w, err = tx.CreateWord(ctx, r); err != nil {
			return err
		}

		req, err = tx.CreateRequest(ctx, CreateRequestRequest{
			Type:        models.RequestNew,
			WordID:      &w.ID,
			Word:        w.Term,
			Description: description,
			Status:      models.RequestPending,
		})
		return err
	})

	return w, req, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
