package models

import "time"

// RecipientStatus represents valid recipient statuses
type RecipientStatus string

const (
	RecipientStatusPending      RecipientStatus = "pending"
	RecipientStatusQueued       RecipientStatus = "queued"
	RecipientStatusSent         RecipientStatus = "sent"
	RecipientStatusDelivered    RecipientStatus = "delivered"
	RecipientStatusOpened       RecipientStatus = "opened"
	RecipientStatusClicked      RecipientStatus = "clicked"
	RecipientStatusBounced      RecipientStatus = "bounced"
	RecipientStatusFailed       RecipientStatus = "failed"
	RecipientStatusUnsubscribed RecipientStatus = "unsubscribed"
)

// statusRank orders the delivery progression. Tracking events may arrive
// out of order; a status with a lower rank never overwrites a higher one.
var statusRank = map[RecipientStatus]int{
	RecipientStatusPending:   0,
	RecipientStatusQueued:    1,
	RecipientStatusSent:      2,
	RecipientStatusDelivered: 3,
	RecipientStatusOpened:    4,
	RecipientStatusClicked:   5,
}

// Rank returns the status position on the delivery ladder, or -1 for the
// terminal statuses outside it (bounced, failed, unsubscribed).
func (s RecipientStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Recipient represents one addressee of a campaign
type Recipient struct {
	ID               int               `json:"id" db:"id"`
	CampaignID       int               `json:"campaign_id" db:"campaign_id"`
	Email            string            `json:"email" db:"email"`
	Name             string            `json:"name" db:"name"`
	Organization     string            `json:"organization" db:"organization"`
	OrganizationType string            `json:"organization_type" db:"organization_type"`
	CustomData       map[string]string `json:"custom_data,omitempty" db:"custom_data"`
	Status           RecipientStatus   `json:"status" db:"status"`
	MessageID        *string           `json:"message_id,omitempty" db:"message_id"`
	LastError        *string           `json:"last_error,omitempty" db:"last_error"`
	SentAt           *time.Time        `json:"sent_at,omitempty" db:"sent_at"`
	OpenedAt         *time.Time        `json:"opened_at,omitempty" db:"opened_at"`
	ClickedAt        *time.Time        `json:"clicked_at,omitempty" db:"clicked_at"`
	BouncedAt        *time.Time        `json:"bounced_at,omitempty" db:"bounced_at"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// WasSent reports whether the message left the system (any status at or
// past sent on the ladder, plus unsubscribed, which implies delivery).
func (r *Recipient) WasSent() bool {
	if r.Status == RecipientStatusUnsubscribed {
		return true
	}
	return r.Status.Rank() >= statusRank[RecipientStatusSent]
}
