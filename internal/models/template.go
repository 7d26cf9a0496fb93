package models

import (
	"fmt"
	"regexp"
	"time"
)

// Template represents a reusable email template
type Template struct {
	ID        int       `json:"id" db:"id"`
	Handle    string    `json:"handle" db:"handle"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	HTMLBody  string    `json:"html_body" db:"html_body"`
	TextBody  string    `json:"text_body" db:"text_body"`
	Preheader string    `json:"preheader" db:"preheader"`
	Variables []string  `json:"variables"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

var handlePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validate checks if the template fields are valid
func (t *Template) Validate() error {
	if t.Handle == "" {
		return fmt.Errorf("template handle is required")
	}
	if !handlePattern.MatchString(t.Handle) {
		return fmt.Errorf("invalid handle %q: lowercase letters, digits and hyphens only", t.Handle)
	}
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if t.Subject == "" {
		return fmt.Errorf("template subject is required")
	}
	if t.HTMLBody == "" && t.TextBody == "" {
		return fmt.Errorf("template needs an HTML or text body")
	}
	return nil
}
