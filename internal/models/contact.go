package models

import "time"

// OrganizationType represents the healthcare categories in the contact directory
type OrganizationType string

const (
	OrganizationTypeHospital      OrganizationType = "hospital"
	OrganizationTypeClinic        OrganizationType = "clinic"
	OrganizationTypeGroupPractice OrganizationType = "group-practice"
	OrganizationTypeMedicalCenter OrganizationType = "medical-center"
)

// Contact represents an entry in the external contact directory. Rows are
// written by the collection side; campaigns only read from here.
type Contact struct {
	ID               int              `json:"id" db:"id"`
	Organization     string           `json:"organization" db:"organization"`
	OrganizationType OrganizationType `json:"organization_type" db:"organization_type"`
	Canton           *string          `json:"canton,omitempty" db:"canton"`
	ContactPerson    *string          `json:"contact_person,omitempty" db:"contact_person"`
	Email            *string          `json:"email,omitempty" db:"email"`
	ContactEmail     *string          `json:"contact_email,omitempty" db:"contact_email"`
	Phone            *string          `json:"phone,omitempty" db:"phone"`
	Website          *string          `json:"website,omitempty" db:"website"`
	Source           *string          `json:"source,omitempty" db:"source"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// BestEmail returns the address campaigns should write to, preferring the
// primary address over the generic office one. Empty means the contact
// cannot receive mail and is skipped on import.
func (c *Contact) BestEmail() string {
	if c.Email != nil && *c.Email != "" {
		return *c.Email
	}
	if c.ContactEmail != nil && *c.ContactEmail != "" {
		return *c.ContactEmail
	}
	return ""
}

// DisplayName returns the salutation name, falling back to the
// organization name when no contact person is known.
func (c *Contact) DisplayName() string {
	if c.ContactPerson != nil && *c.ContactPerson != "" {
		return *c.ContactPerson
	}
	return c.Organization
}
