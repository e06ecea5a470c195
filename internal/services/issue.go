package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Bhuvanani14/goodcity/internal/events"
	"github.com/Bhuvanani14/goodcity/internal/store"
	"github.com/Bhuvanani14/goodcity/types"
)

// IssueRepository defines persistence operations for issues.
type IssueRepository interface {
	List(ctx context.Context, filter types.IssueFilter, offset, limit int) ([]types.Issue, int, error)
	ListByReporter(ctx context.Context, reporterID, offset, limit int) ([]types.Issue, int, error)
	Get(ctx context.Context, id int) (types.Issue, error)
	Create(ctx context.Context, issue types.Issue) (types.Issue, error)
	Update(ctx context.Context, id int, upd types.IssueUpdate) (types.Issue, error)
	IncrementVotes(ctx context.Context, id int) (int, error)
	AppendImage(ctx context.Context, id int, key string) (types.Issue, error)
	Stats(ctx context.Context, category string) (types.Stats, error)
}

// IssueService encapsulates issue use-cases: listing, creation, admin
// triage, voting, and statistics.
type IssueService struct {
	repo      IssueRepository
	users     UserRepository
	publisher *events.Publisher
}

func NewIssueService(repo IssueRepository, users UserRepository, publisher *events.Publisher) *IssueService {
	return &IssueService{
		repo:      repo,
		users:     users,
		publisher: publisher,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// List returns issues matching the filter, newest first, with the total
// match count.
func (s *IssueService) List(ctx context.Context, filter types.IssueFilter, offset, limit int) ([]types.Issue, int, error) {
	return s.repo.List(ctx, filter, offset, clampLimit(limit))
}

// ListByReporter returns one user's issues, newest first.
func (s *IssueService) ListByReporter(ctx context.Context, reporterID, offset, limit int) ([]types.Issue, int, error) {
	return s.repo.ListByReporter(ctx, reporterID, offset, clampLimit(limit))
}

// Get loads one issue with user projections resolved.
func (s *IssueService) Get(ctx context.Context, id int) (types.Issue, error) {
	return s.repo.Get(ctx, id)
}

// Create files a new issue for the given reporter. Priority defaults to
// moderate and status to pending.
func (s *IssueService) Create(ctx context.Context, reporterID int, issue types.Issue) (types.Issue, error) {
	issue.Title = strings.TrimSpace(issue.Title)
	issue.Description = strings.TrimSpace(issue.Description)
	issue.Category = strings.TrimSpace(issue.Category)
	issue.Location = strings.TrimSpace(issue.Location)
	if issue.Title == "" || issue.Description == "" || issue.Category == "" || issue.Location == "" {
		return types.Issue{}, fmt.Errorf("%w: title, description, category, and location are required", ErrValidation)
	}

	if issue.Priority == "" {
		issue.Priority = types.PriorityModerate
	}
	if !validPriority(issue.Priority) {
		return types.Issue{}, fmt.Errorf("%w: unknown priority", ErrValidation)
	}

	issue.Status = types.StatusPending
	issue.Votes = 0
	issue.Reporter = types.UserRef{ID: reporterID}

	created, err := s.repo.Create(ctx, issue)
	if err != nil {
		return types.Issue{}, err
	}

	s.publish(ctx, types.EventIssueCreated, created)
	return created, nil
}

// Update applies admin triage fields. An assignee must resolve to an
// existing user; a transition to resolved stamps resolved_at.
func (s *IssueService) Update(ctx context.Context, id int, upd types.IssueUpdate) (types.Issue, error) {
	if upd.Status != nil && !validStatus(*upd.Status) {
		return types.Issue{}, fmt.Errorf("%w: unknown status", ErrValidation)
	}
	if upd.Priority != nil && !validPriority(*upd.Priority) {
		return types.Issue{}, fmt.Errorf("%w: unknown priority", ErrValidation)
	}
	if upd.AssignedTo != nil {
		if _, err := s.users.GetByID(ctx, *upd.AssignedTo); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.Issue{}, fmt.Errorf("%w: assigned user does not exist", ErrValidation)
			}
			return types.Issue{}, err
		}
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return types.Issue{}, err
	}

	if upd.Status != nil && *upd.Status == types.StatusResolved {
		s.publish(ctx, types.EventIssueResolved, updated)
	}
	return updated, nil
}

// Vote increments the issue's vote counter by one. Repeat votes by the
// same user are allowed.
func (s *IssueService) Vote(ctx context.Context, id int) (int, error) {
	return s.repo.IncrementVotes(ctx, id)
}

// AttachImage appends an uploaded image's object key to the issue.
func (s *IssueService) AttachImage(ctx context.Context, id int, key string) (types.Issue, error) {
	return s.repo.AppendImage(ctx, id, key)
}

// Stats aggregates issue counts, the active-user count, and the average
// resolution time in days.
func (s *IssueService) Stats(ctx context.Context, category string) (types.Stats, error) {
	stats, err := s.repo.Stats(ctx, category)
	if err != nil {
		return types.Stats{}, err
	}
	activeUsers, err := s.users.CountActive(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	stats.ActiveUsers = activeUsers
	return stats, nil
}

// publish sends a lifecycle event. Best effort: broker failures are
// logged, never surfaced to the caller.
func (s *IssueService) publish(ctx context.Context, eventType string, issue types.Issue) {
	if s.publisher == nil {
		return
	}
	event := types.IssueEvent{
		Type:     eventType,
		IssueID:  issue.ID,
		Category: issue.Category,
		Priority: issue.Priority,
		At:       time.Now(),
	}
	if err := s.publisher.PublishIssueEvent(ctx, event); err != nil {
		log.Printf("publish %s for issue %d: %v", eventType, issue.ID, err)
	}
}

func validPriority(priority string) bool {
	switch priority {
	case types.PriorityLow, types.PriorityModerate, types.PriorityUrgent:
		return true
	}
	return false
}

func validStatus(status string) bool {
	switch status {
	case types.StatusPending, types.StatusInProgress, types.StatusResolved:
		return true
	}
	return false
}
