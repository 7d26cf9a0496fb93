package repository

import (
	"context"
	"database/sql"
	"fmt"

	"praxismail/internal/models"
)

type trackingEventRepository struct {
	db *sql.DB
}

// NewTrackingEventRepository creates a new tracking event repository
func NewTrackingEventRepository(db *sql.DB) TrackingEventRepository {
	return &trackingEventRepository{db: db}
}

// Create appends a tracking event. The log is insert-only; a provider
// redelivering an event produces another row, never an update.
func (r *trackingEventRepository) Create(ctx context.Context, event *models.TrackingEvent) error {
	query := `
		INSERT INTO tracking_events (campaign_id, recipient_id, message_id, event_type, url, description,
			ip, user_agent, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, recorded_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		event.CampaignID,
		event.RecipientID,
		event.MessageID,
		event.EventType,
		event.URL,
		event.Description,
		event.IP,
		event.UserAgent,
		event.Payload,
		event.OccurredAt,
	).Scan(&event.ID, &event.RecordedAt)

	if err != nil {
		return fmt.Errorf("failed to create tracking event: %w", err)
	}

	return nil
}

// ClicksByURL aggregates click counts per link for a campaign
func (r *trackingEventRepository) ClicksByURL(ctx context.Context, campaignID int) ([]*models.URLClickCount, error) {
	query := `
		SELECT url, COUNT(*) as clicks
		FROM tracking_events
		WHERE campaign_id = $1 AND event_type = 'click' AND url IS NOT NULL
		GROUP BY url
		ORDER BY clicks DESC, url ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks by url: %w", err)
	}
	defer rows.Close()

	counts := []*models.URLClickCount{}
	for rows.Next() {
		count := &models.URLClickCount{}
		if err := rows.Scan(&count.URL, &count.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan click count: %w", err)
		}
		counts = append(counts, count)
	}

	return counts, nil
}

// Timeline aggregates per-day open/click/bounce totals for a campaign
func (r *trackingEventRepository) Timeline(ctx context.Context, campaignID int) ([]*models.TimelinePoint, error) {
	query := `
		SELECT
			DATE_TRUNC('day', occurred_at) as day,
			COUNT(*) FILTER (WHERE event_type = 'open') as opens,
			COUNT(*) FILTER (WHERE event_type = 'click') as clicks,
			COUNT(*) FILTER (WHERE event_type IN ('bounce', 'spam-complaint')) as bounces
		FROM tracking_events
		WHERE campaign_id = $1
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate timeline: %w", err)
	}
	defer rows.Close()

	points := []*models.TimelinePoint{}
	for rows.Next() {
		point := &models.TimelinePoint{}
		if err := rows.Scan(&point.Day, &point.Opens, &point.Clicks, &point.Bounces); err != nil {
			return nil, fmt.Errorf("failed to scan timeline point: %w", err)
		}
		points = append(points, point)
	}

	return points, nil
}
