package category

import (
	"context"
	"database/sql"
)

// Repository provides category facets derived from stored RFPs.
type Repository interface {
	List(ctx context.Context, limit int) ([]Summary, error)
}

// SQLRepository aggregates the `rfps` table.
type SQLRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLRepository)(nil)

// Blank categories are not a facet.
const listCategoriesQuery = `
	SELECT category, COUNT(*)
	FROM rfps
	WHERE category <> ''
	GROUP BY category
	ORDER BY category
	LIMIT $1
`

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Name, &s.Count); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
