package repository

import (
	"context"
	"database/sql"
	"fmt"

	"praxismail/internal/models"

	"github.com/lib/pq"
)

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

const contactColumns = `id, organization, organization_type, canton, contact_person, email, contact_email,
		phone, website, source, created_at`

func scanContact(row rowScanner) (*models.Contact, error) {
	contact := &models.Contact{}
	err := row.Scan(
		&contact.ID,
		&contact.Organization,
		&contact.OrganizationType,
		&contact.Canton,
		&contact.ContactPerson,
		&contact.Email,
		&contact.ContactEmail,
		&contact.Phone,
		&contact.Website,
		&contact.Source,
		&contact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// GetByID retrieves a contact by ID
func (r *contactRepository) GetByID(ctx context.Context, id int) (*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1
	`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// GetByIDs retrieves multiple contacts by IDs
func (r *contactRepository) GetByIDs(ctx context.Context, ids []int) ([]*models.Contact, error) {
	if len(ids) == 0 {
		return []*models.Contact{}, nil
	}

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = ANY($1)
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

// ListByOrganizationType retrieves every contact in one category
func (r *contactRepository) ListByOrganizationType(ctx context.Context, orgType models.OrganizationType) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE organization_type = $1
		ORDER BY organization ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgType)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts by type: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

// List retrieves contacts with pagination
func (r *contactRepository) List(ctx context.Context, limit, offset int) ([]*models.Contact, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	var totalCount int
	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts").Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	return contacts, totalCount, nil
}
