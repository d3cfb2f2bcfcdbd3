package rfp

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/wichananm65/beartrak-search-backend/internal/database"
)

// SQLRepository stores RFPs in the `rfps` table. The queries are written in
// the subset of SQL shared by PostgreSQL and SQLite; only the lower-casing
// function in the search query differs per dialect.
type SQLRepository struct {
	db          *sql.DB
	searchQuery string
}

var _ Repository = (*SQLRepository)(nil)

const (
	rfpColumns = `id, title, organization, category, status, description, url, deadline, budget, created_at, updated_at`

	listRFPsQuery = `
		SELECT ` + rfpColumns + `
		FROM rfps
		ORDER BY id
	`
	// LOWER is replaced with the dialect's Unicode-aware function.
	searchRFPsQuery = `
		SELECT ` + rfpColumns + `
		FROM rfps
		WHERE LOWER(title) LIKE $1 ESCAPE '\'
		   OR LOWER(organization) LIKE $1 ESCAPE '\'
		   OR LOWER(category) LIKE $1 ESCAPE '\'
		   OR LOWER(description) LIKE $1 ESCAPE '\'
		ORDER BY id
	`
	getRFPByIDQuery = `
		SELECT ` + rfpColumns + `
		FROM rfps
		WHERE id = $1
	`
	insertRFPQuery = `
		INSERT INTO rfps (title, organization, category, status, description, url, deadline, budget, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`
	updateRFPQuery = `
		UPDATE rfps
		SET title = $1,
			organization = $2,
			category = $3,
			status = $4,
			description = $5,
			url = $6,
			deadline = $7,
			budget = $8,
			updated_at = $9
		WHERE id = $10
	`
	deleteRFPQuery = `DELETE FROM rfps WHERE id = $1`
)

func NewSQLRepository(db *sql.DB, dialect database.Dialect) *SQLRepository {
	return &SQLRepository{
		db:          db,
		searchQuery: strings.ReplaceAll(searchRFPsQuery, "LOWER(", dialect.LowerFunc()+"("),
	}
}

func (r *SQLRepository) List(ctx context.Context) ([]RFP, error) {
	rows, err := r.db.QueryContext(ctx, listRFPsQuery)
	if err != nil {
		return nil, err
	}
	return collectRFPs(rows)
}

func (r *SQLRepository) Search(ctx context.Context, needle string) ([]RFP, error) {
	if needle == "" {
		return []RFP{}, nil
	}
	rows, err := r.db.QueryContext(ctx, r.searchQuery, likePattern(needle))
	if err != nil {
		return nil, err
	}
	return collectRFPs(rows)
}

func (r *SQLRepository) GetByID(ctx context.Context, id int) (RFP, error) {
	row := r.db.QueryRowContext(ctx, getRFPByIDQuery, id)
	item, err := scanRFP(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RFP{}, ErrNotFound
		}
		return RFP{}, err
	}
	return item, nil
}

func (r *SQLRepository) Create(ctx context.Context, item RFP) (RFP, error) {
	var id int
	err := r.db.QueryRowContext(ctx,
		insertRFPQuery,
		item.Title,
		item.Organization,
		item.Category,
		item.Status,
		item.Description,
		item.URL,
		item.Deadline,
		item.Budget,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return RFP{}, err
	}
	item.ID = id
	return item, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int, item RFP) (RFP, error) {
	result, err := r.db.ExecContext(ctx,
		updateRFPQuery,
		item.Title,
		item.Organization,
		item.Category,
		item.Status,
		item.Description,
		item.URL,
		item.Deadline,
		item.Budget,
		item.UpdatedAt,
		id,
	)
	if err != nil {
		return RFP{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return RFP{}, err
	}
	if affected == 0 {
		return RFP{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SQLRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteRFPQuery, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func collectRFPs(rows *sql.Rows) ([]RFP, error) {
	defer rows.Close()

	out := make([]RFP, 0)
	for rows.Next() {
		item, err := scanRFP(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRFP(scanner rowScanner) (RFP, error) {
	item := RFP{}
	var url sql.NullString
	var deadline sql.NullString
	var budget sql.NullString

	if err := scanner.Scan(
		&item.ID,
		&item.Title,
		&item.Organization,
		&item.Category,
		&item.Status,
		&item.Description,
		&url,
		&deadline,
		&budget,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return RFP{}, err
	}

	if url.Valid {
		item.URL = &url.String
	}
	if deadline.Valid {
		item.Deadline = &deadline.String
	}
	if budget.Valid {
		item.Budget = &budget.String
	}

	return item, nil
}
