package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Bhuvanani14/goodcity/types"
)

// IssueRepository handles persistence for issues.
type IssueRepository struct {
	db *sql.DB
}

func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// issueSelect joins the reporter and optional assignee so listings carry
// user reference projections instead of bare ids.
const issueSelect = `
	SELECT i.id, i.title, i.description, i.category, i.priority, i.status,
	       i.location, i.votes, i.images, i.created_at, i.updated_at, i.resolved_at,
	       r.id, r.username, a.id, a.username
	FROM issues i
	JOIN users r ON r.id = i.reporter_id
	LEFT JOIN users a ON a.id = i.assigned_to`

type issueScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row issueScanner) (types.Issue, error) {
	var issue types.Issue
	var imagesJSON []byte
	var assigneeID sql.NullInt64
	var assigneeName sql.NullString
	err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Priority,
		&issue.Status,
		&issue.Location,
		&issue.Votes,
		&imagesJSON,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.ResolvedAt,
		&issue.Reporter.ID,
		&issue.Reporter.Username,
		&assigneeID,
		&assigneeName,
	)
	if err != nil {
		return types.Issue{}, err
	}

	issue.Images = []string{}
	_ = json.Unmarshal(imagesJSON, &issue.Images)

	if assigneeID.Valid {
		issue.AssignedTo = &types.UserRef{
			ID:       int(assigneeID.Int64),
			Username: assigneeName.String,
		}
	}
	return issue, nil
}

// filterClause builds the WHERE clause for an equality filter. Arguments
// are appended to args and numbered after the existing ones.
func filterClause(filter types.IssueFilter, args []any) (string, []any) {
	clause := ""
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		if clause == "" {
			clause = " WHERE "
		} else {
			clause += " AND "
		}
		clause += column + " = $" + strconv.Itoa(len(args))
	}
	add("i.category", filter.Category)
	add("i.priority", filter.Priority)
	add("i.status", filter.Status)
	return clause, args
}

// List returns issues matching the filter ordered by creation time
// descending, along with the total match count.
func (r *IssueRepository) List(ctx context.Context, filter types.IssueFilter, offset, limit int) ([]types.Issue, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	where, args := filterClause(filter, nil)

	countQuery := `SELECT COUNT(1) FROM issues i` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, offset, limit)
	listQuery := issueSelect + where +
		` ORDER BY i.created_at DESC, i.id DESC OFFSET $` + strconv.Itoa(len(args)-1) + ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	issues := make([]types.Issue, 0, limit)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

// ListByReporter returns the issues filed by one user, newest first.
func (r *IssueRepository) ListByReporter(ctx context.Context, reporterID, offset, limit int) ([]types.Issue, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM issues i WHERE i.reporter_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, reporterID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = issueSelect + `
		WHERE i.reporter_id = $1
		ORDER BY i.created_at DESC, i.id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, reporterID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	issues := make([]types.Issue, 0, limit)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *IssueRepository) Get(ctx context.Context, id int) (types.Issue, error) {
	const query = issueSelect + ` WHERE i.id = $1`
	issue, err := scanIssue(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Issue{}, ErrNotFound
		}
		return types.Issue{}, err
	}
	return issue, nil
}

// Create persists a new issue and returns it with projections resolved.
func (r *IssueRepository) Create(ctx context.Context, issue types.Issue) (types.Issue, error) {
	now := time.Now()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	if issue.Images == nil {
		issue.Images = []string{}
	}
	imagesJSON, err := json.Marshal(issue.Images)
	if err != nil {
		return types.Issue{}, err
	}

	const query = `
		INSERT INTO issues (title, description, category, priority, status, location,
		                    reporter_id, votes, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Status,
		issue.Location,
		issue.Reporter.ID,
		issue.Votes,
		imagesJSON,
		issue.CreatedAt,
		issue.UpdatedAt,
	).Scan(&issue.ID); err != nil {
		return types.Issue{}, err
	}

	return r.Get(ctx, issue.ID)
}

// Update applies only the supplied fields in a single statement. A status
// transition to resolved stamps resolved_at; updated_at is always bumped.
func (r *IssueRepository) Update(ctx context.Context, id int, upd types.IssueUpdate) (types.Issue, error) {
	now := time.Now()

	const query = `
		UPDATE issues
		SET status = COALESCE($1, status),
			assigned_to = COALESCE($2, assigned_to),
			priority = COALESCE($3, priority),
			resolved_at = CASE WHEN $1 = 'resolved' THEN $4 ELSE resolved_at END,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, upd.Status, upd.AssignedTo, upd.Priority, now, id)
	if err != nil {
		return types.Issue{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Issue{}, err
	}
	if affected == 0 {
		return types.Issue{}, ErrNotFound
	}

	return r.Get(ctx, id)
}

// IncrementVotes bumps the vote counter in place and returns the new
// count. The increment happens inside the statement, so concurrent votes
// never lose updates.
func (r *IssueRepository) IncrementVotes(ctx context.Context, id int) (int, error) {
	const query = `
		UPDATE issues
		SET votes = votes + 1,
			updated_at = $1
		WHERE id = $2
		RETURNING votes`
	var votes int
	err := r.db.QueryRowContext(ctx, query, time.Now(), id).Scan(&votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return votes, nil
}

// AppendImage appends one object key to the issue's image list in place.
func (r *IssueRepository) AppendImage(ctx context.Context, id int, key string) (types.Issue, error) {
	const query = `
		UPDATE issues
		SET images = images || to_jsonb($1::text),
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
	if err != nil {
		return types.Issue{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Issue{}, err
	}
	if affected == 0 {
		return types.Issue{}, ErrNotFound
	}

	return r.Get(ctx, id)
}

// Stats aggregates issue counts and the average resolution time in days.
// The category filter applies to issue counts only; active users are
// counted across the whole system.
func (r *IssueRepository) Stats(ctx context.Context, category string) (types.Stats, error) {
	where, args := filterClause(types.IssueFilter{Category: category}, nil)

	query := `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE i.status = 'resolved'),
		       COUNT(1) FILTER (WHERE i.priority = 'urgent'),
		       COUNT(1) FILTER (WHERE i.status = 'in_progress'),
		       COALESCE(AVG(EXTRACT(EPOCH FROM i.resolved_at - i.created_at) / 86400)
		                FILTER (WHERE i.status = 'resolved' AND i.resolved_at IS NOT NULL), 0)
		FROM issues i` + where

	var stats types.Stats
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalIssues,
		&stats.ResolvedIssues,
		&stats.UrgentIssues,
		&stats.InProgressIssues,
		&stats.AvgResponseTime,
	); err != nil {
		return types.Stats{}, err
	}
	return stats, nil
}
