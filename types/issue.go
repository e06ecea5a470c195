package types

import "time"

// Issue priorities.
const (
	PriorityLow      = "low"
	PriorityModerate = "moderate"
	PriorityUrgent   = "urgent"
)

// Issue statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Issue represents a citizen-reported municipal problem.
type Issue struct {
	// ID is the unique identifier of the issue.
	ID int `json:"id" db:"id"`

	// Title is the short human-readable summary of the problem.
	Title string `json:"title" db:"title"`

	// Description contains the full report text.
	Description string `json:"description" db:"description"`

	// Category classifies the problem (e.g. "infrastructure",
	// "sanitation", "safety") and keys the government-body lookup.
	Category string `json:"category" db:"category"`

	// Priority is the triage level: "low", "moderate", or "urgent".
	// Defaults to moderate at creation.
	Priority string `json:"priority" db:"priority"`

	// Status is the lifecycle state: "pending", "in_progress", or
	// "resolved". Defaults to pending at creation.
	Status string `json:"status" db:"status"`

	// Location is the free-form location of the problem.
	Location string `json:"location" db:"location"`

	// Reporter is the user who filed the issue. Set at creation,
	// immutable thereafter.
	Reporter UserRef `json:"reporter"`

	// AssignedTo is the user an admin assigned the issue to, nil when
	// unassigned.
	AssignedTo *UserRef `json:"assigned_to,omitempty"`

	// Votes is the number of upvotes the issue has received.
	Votes int `json:"votes" db:"votes"`

	// Images is the ordered list of image URLs or object keys attached
	// to the issue.
	Images []string `json:"images" db:"images"`

	// CreatedAt is the timestamp at which the issue was filed. Immutable.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is bumped on every mutation of the issue.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// ResolvedAt is stamped when the status is set to resolved. It is
	// never cleared if the status later moves away from resolved.
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// IssueFilter selects issues by equality on any present field.
// Absent fields match everything; present fields AND together.
type IssueFilter struct {
	Category string
	Priority string
	Status   string
}

// IssueUpdate carries the admin-settable fields of an issue.
// Nil fields are left untouched.
type IssueUpdate struct {
	Status     *string
	AssignedTo *int
	Priority   *string
}

// Stats is the aggregate view served to administrators.
type Stats struct {
	// TotalIssues is the number of issues matching the category filter.
	TotalIssues int `json:"totalIssues"`

	// ResolvedIssues is the number of matching issues with status resolved.
	ResolvedIssues int `json:"resolvedIssues"`

	// UrgentIssues is the number of matching issues with urgent priority.
	UrgentIssues int `json:"urgentIssues"`

	// InProgressIssues is the number of matching issues being worked on.
	InProgressIssues int `json:"inProgressIssues"`

	// ActiveUsers is the number of active accounts across the whole
	// system, regardless of any category filter.
	ActiveUsers int `json:"activeUsers"`

	// AvgResponseTime is the mean of (resolved_at - created_at) in days
	// over matching resolved issues, 0 when none are resolved.
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// Issue event types published to the broker.
const (
	EventIssueCreated  = "issue.created"
	EventIssueResolved = "issue.resolved"
)

// IssueEvent is the payload published when an issue is created or resolved.
type IssueEvent struct {
	Type     string    `json:"type"`
	IssueID  int       `json:"issue_id"`
	Category string    `json:"category"`
	Priority string    `json:"priority"`
	At       time.Time `json:"at"`
}
