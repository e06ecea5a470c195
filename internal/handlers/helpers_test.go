package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/Bhuvanani14/goodcity/internal/store"
	"github.com/Bhuvanani14/goodcity/types"
)

const testSecret = "test-secret"

type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	user.IsActive = true
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.LastLogin = &at
	r.users[id] = user
	return nil
}

func (r *memUserRepo) SetActive(ctx context.Context, id int, active bool) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.IsActive = active
	r.users[id] = user
	return nil
}

func (r *memUserRepo) CountActive(ctx context.Context) (int, error) {
	count := 0
	for _, user := range r.users {
		if user.IsActive {
			count++
		}
	}
	return count, nil
}

type memIssueRepo struct {
	issues map[int]types.Issue
	nextID int
}

func newMemIssueRepo() *memIssueRepo {
	return &memIssueRepo{issues: map[int]types.Issue{}, nextID: 1}
}

func (r *memIssueRepo) sorted(filter types.IssueFilter) []types.Issue {
	matched := make([]types.Issue, 0)
	for _, issue := range r.issues {
		if filter.Category != "" && issue.Category != filter.Category {
			continue
		}
		if filter.Priority != "" && issue.Priority != filter.Priority {
			continue
		}
		if filter.Status != "" && issue.Status != filter.Status {
			continue
		}
		matched = append(matched, issue)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func page(issues []types.Issue, offset, limit int) []types.Issue {
	if offset > len(issues) {
		offset = len(issues)
	}
	end := offset + limit
	if end > len(issues) {
		end = len(issues)
	}
	return issues[offset:end]
}

func (r *memIssueRepo) List(ctx context.Context, filter types.IssueFilter, offset, limit int) ([]types.Issue, int, error) {
	matched := r.sorted(filter)
	return page(matched, offset, limit), len(matched), nil
}

func (r *memIssueRepo) ListByReporter(ctx context.Context, reporterID, offset, limit int) ([]types.Issue, int, error) {
	matched := make([]types.Issue, 0)
	for _, issue := range r.sorted(types.IssueFilter{}) {
		if issue.Reporter.ID == reporterID {
			matched = append(matched, issue)
		}
	}
	return page(matched, offset, limit), len(matched), nil
}

func (r *memIssueRepo) Get(ctx context.Context, id int) (types.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return types.Issue{}, store.ErrNotFound
	}
	return issue, nil
}

func (r *memIssueRepo) Create(ctx context.Context, issue types.Issue) (types.Issue, error) {
	issue.ID = r.nextID
	now := time.Now()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	r.nextID++
	r.issues[issue.ID] = issue
	return issue, nil
}

func (r *memIssueRepo) Update(ctx context.Context, id int, upd types.IssueUpdate) (types.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return types.Issue{}, store.ErrNotFound
	}
	now := time.Now()
	if upd.Status != nil {
		issue.Status = *upd.Status
		if *upd.Status == types.StatusResolved {
			issue.ResolvedAt = &now
		}
	}
	if upd.AssignedTo != nil {
		issue.AssignedTo = &types.UserRef{ID: *upd.AssignedTo}
	}
	if upd.Priority != nil {
		issue.Priority = *upd.Priority
	}
	issue.UpdatedAt = now
	r.issues[id] = issue
	return issue, nil
}

func (r *memIssueRepo) IncrementVotes(ctx context.Context, id int) (int, error) {
	issue, ok := r.issues[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	issue.Votes++
	r.issues[id] = issue
	return issue.Votes, nil
}

func (r *memIssueRepo) AppendImage(ctx context.Context, id int, key string) (types.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return types.Issue{}, store.ErrNotFound
	}
	issue.Images = append(issue.Images, key)
	r.issues[id] = issue
	return issue, nil
}

func (r *memIssueRepo) Stats(ctx context.Context, category string) (types.Stats, error) {
	var stats types.Stats
	for _, issue := range r.issues {
		if category != "" && issue.Category != category {
			continue
		}
		stats.TotalIssues++
		switch issue.Status {
		case types.StatusResolved:
			stats.ResolvedIssues++
		case types.StatusInProgress:
			stats.InProgressIssues++
		}
		if issue.Priority == types.PriorityUrgent {
			stats.UrgentIssues++
		}
	}
	return stats, nil
}
