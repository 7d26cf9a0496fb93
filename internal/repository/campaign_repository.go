package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"praxismail/internal/models"
)

type campaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, name, subject, template_id, from_name, from_email, reply_to, status,
		scheduled_at, completed_at, total_recipients, sent_count, opened_count, clicked_count,
		bounced_count, created_at, updated_at`

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	err := row.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Subject,
		&campaign.TemplateID,
		&campaign.FromName,
		&campaign.FromEmail,
		&campaign.ReplyTo,
		&campaign.Status,
		&campaign.ScheduledAt,
		&campaign.CompletedAt,
		&campaign.TotalRecipients,
		&campaign.SentCount,
		&campaign.OpenedCount,
		&campaign.ClickedCount,
		&campaign.BouncedCount,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// Create creates a new campaign
func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (name, subject, template_id, from_name, from_email, reply_to, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.Name,
		campaign.Subject,
		campaign.TemplateID,
		campaign.FromName,
		campaign.FromEmail,
		campaign.ReplyTo,
		campaign.Status,
		campaign.ScheduledAt,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID
func (r *campaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE id = $1
	`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

// GetWithStats retrieves a campaign with its live recipient status breakdown
func (r *campaignRepository) GetWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error) {
	campaign, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	statsQuery := `
		SELECT
			COUNT(*) as total,
			COUNT(*) FILTER (WHERE status = 'pending') as pending,
			COUNT(*) FILTER (WHERE status = 'queued') as queued,
			COUNT(*) FILTER (WHERE status = 'sent') as sent,
			COUNT(*) FILTER (WHERE status = 'delivered') as delivered,
			COUNT(*) FILTER (WHERE status = 'opened') as opened,
			COUNT(*) FILTER (WHERE status = 'clicked') as clicked,
			COUNT(*) FILTER (WHERE status = 'bounced') as bounced,
			COUNT(*) FILTER (WHERE status = 'failed') as failed,
			COUNT(*) FILTER (WHERE status = 'unsubscribed') as unsubscribed
		FROM campaign_recipients
		WHERE campaign_id = $1
	`

	stats := models.CampaignStats{}
	err = r.db.QueryRowContext(ctx, statsQuery, id).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Queued,
		&stats.Sent,
		&stats.Delivered,
		&stats.Opened,
		&stats.Clicked,
		&stats.Bounced,
		&stats.Failed,
		&stats.Unsubscribed,
	)

	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get campaign stats: %w", err)
	}

	return &models.CampaignWithStats{
		Campaign: *campaign,
		Stats:    stats,
	}, nil
}

// List retrieves campaigns with filters and pagination
func (r *campaignRepository) List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, int, error) {
	// Build query with filters
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE 1=1
	`)

	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	// Order by ID DESC for stable pagination
	queryBuilder.WriteString(" ORDER BY id DESC")

	limit := filters.PageSize
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := (filters.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM campaigns WHERE 1=1"
	countArgs := []interface{}{}

	if filters.Status != nil {
		countQuery += " AND status = $1"
		countArgs = append(countArgs, *filters.Status)
	}

	var totalCount int
	err = r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	return campaigns, totalCount, nil
}

// ListDue retrieves scheduled campaigns whose send time has passed
func (r *campaignRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = 'scheduled' AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, nil
}

// Update modifies campaign content. Only draft and scheduled campaigns
// match; anything later in the lifecycle is immutable.
func (r *campaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1, subject = $2, template_id = $3, from_name = $4, from_email = $5,
			reply_to = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7 AND status IN ('draft', 'scheduled')
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		campaign.Name,
		campaign.Subject,
		campaign.TemplateID,
		campaign.FromName,
		campaign.FromEmail,
		campaign.ReplyTo,
		campaign.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
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

// UpdateStatusFrom moves a campaign from one status to another. The guard
// on the current status makes the transition race-safe: whichever caller
// matches first wins, everyone else gets ErrNotFound.
func (r *campaignRepository) UpdateStatusFrom(ctx context.Context, id int, from, to models.CampaignStatus) error {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
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

// Schedule moves a draft campaign to scheduled with its send time
func (r *campaignRepository) Schedule(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE campaigns
		SET status = 'scheduled', scheduled_at = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = 'draft'
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to schedule campaign: %w", err)
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

// Cancel returns a scheduled or sending campaign to draft and clears its
// send time. Recipients already sent are left as they are.
func (r *campaignRepository) Cancel(ctx context.Context, id int) error {
	query := `
		UPDATE campaigns
		SET status = 'draft', scheduled_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status IN ('scheduled', 'sending')
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel campaign: %w", err)
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

// Complete moves a sending campaign to completed, stamping completed_at
// and a final sent_count counted from the recipient rows.
func (r *campaignRepository) Complete(ctx context.Context, id int) error {
	query := `
		UPDATE campaigns
		SET status = 'completed',
			completed_at = CURRENT_TIMESTAMP,
			sent_count = (
				SELECT COUNT(*) FROM campaign_recipients
				WHERE campaign_id = campaigns.id
				  AND status IN ('sent', 'delivered', 'opened', 'clicked', 'unsubscribed')
			),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'sending'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to complete campaign: %w", err)
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

// RecountRecipients recomputes total_recipients from the recipient rows.
// Always a full recount, never an increment.
func (r *campaignRepository) RecountRecipients(ctx context.Context, id int) error {
	query := `
		UPDATE campaigns
		SET total_recipients = (
				SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = campaigns.id
			),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to recount recipients: %w", err)
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

// RecountTracking recomputes the delivery counters from the recipient
// rows. A recipient past a status still counts for it: clicked implies
// opened, opened implies sent.
func (r *campaignRepository) RecountTracking(ctx context.Context, id int) error {
	query := `
		UPDATE campaigns
		SET sent_count = (
				SELECT COUNT(*) FROM campaign_recipients
				WHERE campaign_id = campaigns.id
				  AND status IN ('sent', 'delivered', 'opened', 'clicked', 'unsubscribed')
			),
			opened_count = (
				SELECT COUNT(*) FROM campaign_recipients
				WHERE campaign_id = campaigns.id AND status IN ('opened', 'clicked')
			),
			clicked_count = (
				SELECT COUNT(*) FROM campaign_recipients
				WHERE campaign_id = campaigns.id AND status = 'clicked'
			),
			bounced_count = (
				SELECT COUNT(*) FROM campaign_recipients
				WHERE campaign_id = campaigns.id AND status = 'bounced'
			),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to recount tracking: %w", err)
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

// Delete removes a draft campaign. Recipients and tracking events go
// with it through the foreign keys.
func (r *campaignRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM campaigns WHERE id = $1 AND status = 'draft'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
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
