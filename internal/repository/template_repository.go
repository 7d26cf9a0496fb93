package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"praxismail/internal/models"

	"github.com/lib/pq"
)

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB) TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = `id, handle, name, subject, html_body, text_body, preheader, variables, active,
		created_at, updated_at`

func scanTemplate(row rowScanner) (*models.Template, error) {
	template := &models.Template{}
	var variables []byte
	err := row.Scan(
		&template.ID,
		&template.Handle,
		&template.Name,
		&template.Subject,
		&template.HTMLBody,
		&template.TextBody,
		&template.Preheader,
		&variables,
		&template.Active,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(variables) > 0 {
		if err := json.Unmarshal(variables, &template.Variables); err != nil {
			return nil, fmt.Errorf("failed to decode template variables: %w", err)
		}
	}
	return template, nil
}

func marshalVariables(variables []string) (interface{}, error) {
	if len(variables) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template variables: %w", err)
	}
	return encoded, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create creates a new template
func (r *templateRepository) Create(ctx context.Context, template *models.Template) error {
	query := `
		INSERT INTO templates (handle, name, subject, html_body, text_body, preheader, variables, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	variables, err := marshalVariables(template.Variables)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(
		ctx,
		query,
		template.Handle,
		template.Name,
		template.Subject,
		template.HTMLBody,
		template.TextBody,
		template.Preheader,
		variables,
		template.Active,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// GetByID retrieves a template by ID
func (r *templateRepository) GetByID(ctx context.Context, id int) (*models.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM templates
		WHERE id = $1
	`

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

// GetByHandle retrieves a template by its stable handle
func (r *templateRepository) GetByHandle(ctx context.Context, handle string) (*models.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM templates
		WHERE handle = $1
	`

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, handle))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template by handle: %w", err)
	}

	return template, nil
}

// List retrieves templates, optionally only active ones
func (r *templateRepository) List(ctx context.Context, activeOnly bool) ([]*models.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM templates
	`
	if activeOnly {
		query += " WHERE active = true"
	}
	query += " ORDER BY handle ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []*models.Template{}
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	return templates, nil
}

// Update modifies a template
func (r *templateRepository) Update(ctx context.Context, template *models.Template) error {
	query := `
		UPDATE templates
		SET handle = $1, name = $2, subject = $3, html_body = $4, text_body = $5,
			preheader = $6, variables = $7, active = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
	`

	variables, err := marshalVariables(template.Variables)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		template.Handle,
		template.Name,
		template.Subject,
		template.HTMLBody,
		template.TextBody,
		template.Preheader,
		variables,
		template.Active,
		template.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a template. Campaigns referencing it keep sending with
// their stored subject; the foreign key sets their template_id to NULL.
func (r *templateRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM templates WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
