package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"praxismail/internal/models"

	"github.com/lib/pq"
)

type recipientRepository struct {
	db *sql.DB
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(db *sql.DB) RecipientRepository {
	return &recipientRepository{db: db}
}

const recipientColumns = `id, campaign_id, email, name, organization, organization_type, custom_data,
		status, message_id, last_error, sent_at, opened_at, clicked_at, bounced_at, created_at, updated_at`

func scanRecipient(row rowScanner) (*models.Recipient, error) {
	recipient := &models.Recipient{}
	var customData []byte
	err := row.Scan(
		&recipient.ID,
		&recipient.CampaignID,
		&recipient.Email,
		&recipient.Name,
		&recipient.Organization,
		&recipient.OrganizationType,
		&customData,
		&recipient.Status,
		&recipient.MessageID,
		&recipient.LastError,
		&recipient.SentAt,
		&recipient.OpenedAt,
		&recipient.ClickedAt,
		&recipient.BouncedAt,
		&recipient.CreatedAt,
		&recipient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(customData) > 0 {
		if err := json.Unmarshal(customData, &recipient.CustomData); err != nil {
			return nil, fmt.Errorf("failed to decode custom data: %w", err)
		}
	}
	return recipient, nil
}

func marshalCustomData(data map[string]string) (interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode custom data: %w", err)
	}
	return encoded, nil
}

// CreateBatch inserts recipients, silently skipping emails already in
// their campaign. Returns the number of rows actually created.
func (r *recipientRepository) CreateBatch(ctx context.Context, recipients []*models.Recipient) (int, error) {
	if len(recipients) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaign_recipients (campaign_id, email, name, organization, organization_type, custom_data, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (campaign_id, email) DO NOTHING
		RETURNING id, created_at, updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	created := 0
	for _, recipient := range recipients {
		customData, err := marshalCustomData(recipient.CustomData)
		if err != nil {
			return 0, err
		}

		err = stmt.QueryRowContext(
			ctx,
			recipient.CampaignID,
			recipient.Email,
			recipient.Name,
			recipient.Organization,
			recipient.OrganizationType,
			customData,
			recipient.Status,
		).Scan(&recipient.ID, &recipient.CreatedAt, &recipient.UpdatedAt)

		if err == sql.ErrNoRows {
			// Email already in the campaign
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to create recipient: %w", err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// GetByID retrieves a recipient by ID
func (r *recipientRepository) GetByID(ctx context.Context, id int) (*models.Recipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE id = $1
	`

	recipient, err := scanRecipient(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}

	return recipient, nil
}

// GetByMessageID resolves a provider message id to its recipient
func (r *recipientRepository) GetByMessageID(ctx context.Context, messageID string) (*models.Recipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE message_id = $1
	`

	recipient, err := scanRecipient(r.db.QueryRowContext(ctx, query, messageID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient by message id: %w", err)
	}

	return recipient, nil
}

// ListByCampaign retrieves campaign recipients with filters and pagination
func (r *recipientRepository) ListByCampaign(ctx context.Context, campaignID int, filters RecipientFilters) ([]*models.Recipient, int, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE campaign_id = $1
	`)

	args := []interface{}{campaignID}
	argPos := 2

	if filters.Status != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	queryBuilder.WriteString(" ORDER BY id ASC")

	limit := filters.PageSize
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	offset := (filters.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	recipients := []*models.Recipient{}
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}

	countQuery := "SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = $1"
	countArgs := []interface{}{campaignID}

	if filters.Status != nil {
		countQuery += " AND status = $2"
		countArgs = append(countArgs, *filters.Status)
	}

	var totalCount int
	err = r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	return recipients, totalCount, nil
}

// ListForExport retrieves every recipient of a campaign in insertion order
func (r *recipientRepository) ListForExport(ctx context.Context, campaignID int) ([]*models.Recipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE campaign_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients for export: %w", err)
	}
	defer rows.Close()

	recipients := []*models.Recipient{}
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}

	return recipients, nil
}

// GetPending retrieves the recipients of a campaign still waiting to be sent
func (r *recipientRepository) GetPending(ctx context.Context, campaignID int) ([]*models.Recipient, error) {
	query := `
		SELECT ` + recipientColumns + `
		FROM campaign_recipients
		WHERE campaign_id = $1 AND status = 'pending'
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending recipients: %w", err)
	}
	defer rows.Close()

	recipients := []*models.Recipient{}
	for rows.Next() {
		recipient, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}

	return recipients, nil
}

// ClaimPending flips pending recipients to queued and reports which rows
// were actually claimed. A row another job claimed first does not match,
// so two jobs never send to the same recipient.
func (r *recipientRepository) ClaimPending(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE campaign_recipients
		SET status = 'queued', updated_at = CURRENT_TIMESTAMP
		WHERE status = 'pending' AND id = ANY($1)
		RETURNING id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to claim recipients: %w", err)
	}
	defer rows.Close()

	claimed := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan claimed id: %w", err)
		}
		claimed = append(claimed, id)
	}

	return claimed, nil
}

// MarkSent records provider message ids for accepted batch items
func (r *recipientRepository) MarkSent(ctx context.Context, ids []int, messageIDs []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(messageIDs) {
		return fmt.Errorf("ids and message ids must pair up: %d vs %d", len(ids), len(messageIDs))
	}

	query := `
		UPDATE campaign_recipients
		SET status = 'sent',
			sent_at = CURRENT_TIMESTAMP,
			message_id = data.message_id,
			updated_at = CURRENT_TIMESTAMP
		FROM (
			SELECT UNNEST($1::int[]) as id, UNNEST($2::text[]) as message_id
		) as data
		WHERE campaign_recipients.id = data.id
	`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids), pq.Array(messageIDs)); err != nil {
		return fmt.Errorf("failed to mark recipients sent: %w", err)
	}

	return nil
}

// MarkFailed records send failures with their reasons
func (r *recipientRepository) MarkFailed(ctx context.Context, ids []int, reasons []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(reasons) {
		return fmt.Errorf("ids and reasons must pair up: %d vs %d", len(ids), len(reasons))
	}

	query := `
		UPDATE campaign_recipients
		SET status = 'failed',
			last_error = data.reason,
			updated_at = CURRENT_TIMESTAMP
		FROM (
			SELECT UNNEST($1::int[]) as id, UNNEST($2::text[]) as reason
		) as data
		WHERE campaign_recipients.id = data.id
	`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids), pq.Array(reasons)); err != nil {
		return fmt.Errorf("failed to mark recipients failed: %w", err)
	}

	return nil
}

// MarkDelivered advances a recipient to delivered unless a later status
// already took it further. Matching no row is a valid no-op.
func (r *recipientRepository) MarkDelivered(ctx context.Context, id int) error {
	query := `
		UPDATE campaign_recipients
		SET status = 'delivered', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status IN ('pending', 'queued', 'sent')
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark recipient delivered: %w", err)
	}

	return nil
}

// MarkOpened records an open. The first open stamps opened_at; the status
// only moves forward on the ladder and terminal rows stay untouched.
func (r *recipientRepository) MarkOpened(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE campaign_recipients
		SET status = CASE WHEN status IN ('pending', 'queued', 'sent', 'delivered') THEN 'opened' ELSE status END,
			opened_at = COALESCE(opened_at, $2),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status NOT IN ('bounced', 'failed', 'unsubscribed')
	`

	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to mark recipient opened: %w", err)
	}

	return nil
}

// MarkClicked records a click, stamping clicked_at on the first one
func (r *recipientRepository) MarkClicked(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE campaign_recipients
		SET status = CASE WHEN status IN ('pending', 'queued', 'sent', 'delivered', 'opened') THEN 'clicked' ELSE status END,
			clicked_at = COALESCE(clicked_at, $2),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status NOT IN ('bounced', 'failed', 'unsubscribed')
	`

	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to mark recipient clicked: %w", err)
	}

	return nil
}

// MarkBounced moves a recipient to bounced regardless of its current
// status and keeps the provider's description as the last error.
func (r *recipientRepository) MarkBounced(ctx context.Context, id int, at time.Time, description string) error {
	query := `
		UPDATE campaign_recipients
		SET status = 'bounced',
			bounced_at = COALESCE(bounced_at, $2),
			last_error = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, at, description)
	if err != nil {
		return fmt.Errorf("failed to mark recipient bounced: %w", err)
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

// Unsubscribe flips a recipient to unsubscribed when the given address
// matches the stored one. ErrNotFound covers both a missing row and a
// mismatched address; callers treat either as an invalid token.
func (r *recipientRepository) Unsubscribe(ctx context.Context, id int, email string) error {
	query := `
		UPDATE campaign_recipients
		SET status = 'unsubscribed', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND email = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, email)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe recipient: %w", err)
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
