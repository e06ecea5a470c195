package types

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a citizen or administrator account.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique alongside Username.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system
	// ("user" or "admin").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive marks whether the account counts toward active-user
	// statistics. Accounts are deactivated by admin action, never
	// hard-deleted.
	IsActive bool `json:"is_active" db:"is_active"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// LastLogin is the timestamp of the most recent successful login,
	// nil for accounts that have never logged in.
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// UserRef is the reduced projection of a User embedded in issue
// responses instead of the full record.
type UserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Ref returns the reference projection of the user.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}
