package models

import "time"

// EventType represents the provider callback kinds we ingest
type EventType string

const (
	EventTypeDelivery      EventType = "delivery"
	EventTypeOpen          EventType = "open"
	EventTypeClick         EventType = "click"
	EventTypeBounce        EventType = "bounce"
	EventTypeSpamComplaint EventType = "spam-complaint"

	// EventTypeUnsubscribe is recorded by the unsubscribe endpoint, not
	// by a provider callback
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// TrackingEvent represents one provider callback. Rows are append-only:
// duplicate deliveries from the provider become extra audit rows, never
// updates.
type TrackingEvent struct {
	ID          int       `json:"id" db:"id"`
	CampaignID  int       `json:"campaign_id" db:"campaign_id"`
	RecipientID int       `json:"recipient_id" db:"recipient_id"`
	MessageID   string    `json:"message_id" db:"message_id"`
	EventType   EventType `json:"event_type" db:"event_type"`
	URL         *string   `json:"url,omitempty" db:"url"`
	Description *string   `json:"description,omitempty" db:"description"`
	IP          *string   `json:"ip,omitempty" db:"ip"`
	UserAgent   *string   `json:"user_agent,omitempty" db:"user_agent"`
	Payload     []byte    `json:"-" db:"payload"`
	OccurredAt  time.Time `json:"occurred_at" db:"occurred_at"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
}

// URLClickCount represents aggregated clicks for one link in a campaign
type URLClickCount struct {
	URL    string `json:"url"`
	Clicks int    `json:"clicks"`
}

// TimelinePoint represents per-day event totals for campaign analytics
type TimelinePoint struct {
	Day     time.Time `json:"day"`
	Opens   int       `json:"opens"`
	Clicks  int       `json:"clicks"`
	Bounces int       `json:"bounces"`
}
