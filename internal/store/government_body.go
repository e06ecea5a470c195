package store

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/Bhuvanani14/goodcity/types"
)

// GovernmentBodyRepository handles the read-mostly department reference
// table. Rows are written by the seed command only.
type GovernmentBodyRepository struct {
	db *sql.DB
}

func NewGovernmentBodyRepository(db *sql.DB) *GovernmentBodyRepository {
	return &GovernmentBodyRepository{db: db}
}

// List returns active bodies, optionally narrowed by category and
// jurisdiction, ordered by priority classification then name.
func (r *GovernmentBodyRepository) List(ctx context.Context, category, jurisdiction string) ([]types.GovernmentBody, error) {
	query := `
		SELECT id, name, category, department, jurisdiction, priority,
		       phone, email, website, is_active, created_at, updated_at
		FROM government_bodies
		WHERE is_active`
	var args []any
	if category != "" {
		args = append(args, category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	if jurisdiction != "" {
		args = append(args, jurisdiction)
		query += ` AND jurisdiction = $` + strconv.Itoa(len(args))
	}
	query += `
		ORDER BY CASE priority
			WHEN 'primary' THEN 0
			WHEN 'secondary' THEN 1
			ELSE 2
		END, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bodies := make([]types.GovernmentBody, 0)
	for rows.Next() {
		var body types.GovernmentBody
		if err := rows.Scan(
			&body.ID,
			&body.Name,
			&body.Category,
			&body.Department,
			&body.Jurisdiction,
			&body.Priority,
			&body.ContactInfo.Phone,
			&body.ContactInfo.Email,
			&body.ContactInfo.Website,
			&body.IsActive,
			&body.CreatedAt,
			&body.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bodies, nil
}

// Insert adds one reference record. Used by the seed command.
func (r *GovernmentBodyRepository) Insert(ctx context.Context, body types.GovernmentBody) (types.GovernmentBody, error) {
	now := time.Now()
	body.CreatedAt = now
	body.UpdatedAt = now
	body.IsActive = true

	const query = `
		INSERT INTO government_bodies (name, category, department, jurisdiction, priority,
		                               phone, email, website, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		body.Name,
		body.Category,
		body.Department,
		body.Jurisdiction,
		body.Priority,
		body.ContactInfo.Phone,
		body.ContactInfo.Email,
		body.ContactInfo.Website,
		body.IsActive,
		body.CreatedAt,
		body.UpdatedAt,
	).Scan(&body.ID); err != nil {
		return types.GovernmentBody{}, err
	}
	return body, nil
}

// DeleteAll clears the table before reseeding.
func (r *GovernmentBodyRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM government_bodies`)
	return err
}
