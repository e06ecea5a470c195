package types

import "time"

// Government body jurisdictions.
const (
	JurisdictionMunicipal = "municipal"
	JurisdictionState     = "state"
	JurisdictionCentral   = "central"
	JurisdictionLocal     = "local"
)

// Government body priority classifications.
const (
	BodyPrimary    = "primary"
	BodySecondary  = "secondary"
	BodySupporting = "supporting"
)

// GovernmentBody is a reference record mapping an issue category to the
// department responsible for it. Read-mostly; populated by the seed command.
type GovernmentBody struct {
	// ID is the unique identifier of the body.
	ID int `json:"id" db:"id"`

	// Name is the official name of the body.
	Name string `json:"name" db:"name"`

	// Category is the issue category the body is responsible for.
	Category string `json:"category" db:"category"`

	// Department is the department within the body handling the category.
	Department string `json:"department" db:"department"`

	// Jurisdiction is the level of government: "municipal", "state",
	// "central", or "local".
	Jurisdiction string `json:"jurisdiction" db:"jurisdiction"`

	// Priority classifies the body's responsibility for the category:
	// "primary", "secondary", or "supporting".
	Priority string `json:"priority" db:"priority"`

	// ContactInfo holds the public contact channels of the body.
	ContactInfo ContactInfo `json:"contact_info"`

	// IsActive marks whether the body should be returned by lookups.
	IsActive bool `json:"is_active" db:"is_active"`

	// CreatedAt is the timestamp the record was seeded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContactInfo holds public contact channels for a government body.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}
