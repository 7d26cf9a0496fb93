package models

import (
	"fmt"
	"strings"
	"time"
)

// CampaignStatus represents valid campaign statuses
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// Campaign represents an email campaign
type Campaign struct {
	ID              int            `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	Subject         string         `json:"subject" db:"subject"`
	TemplateID      *int           `json:"template_id,omitempty" db:"template_id"`
	FromName        string         `json:"from_name" db:"from_name"`
	FromEmail       string         `json:"from_email" db:"from_email"`
	ReplyTo         *string        `json:"reply_to,omitempty" db:"reply_to"`
	Status          CampaignStatus `json:"status" db:"status"`
	ScheduledAt     *time.Time     `json:"scheduled_at,omitempty" db:"scheduled_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	TotalRecipients int            `json:"total_recipients" db:"total_recipients"`
	SentCount       int            `json:"sent_count" db:"sent_count"`
	OpenedCount     int            `json:"opened_count" db:"opened_count"`
	ClickedCount    int            `json:"clicked_count" db:"clicked_count"`
	BouncedCount    int            `json:"bounced_count" db:"bounced_count"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// CampaignStats represents the live recipient status breakdown of a campaign
type CampaignStats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Queued       int `json:"queued"`
	Sent         int `json:"sent"`
	Delivered    int `json:"delivered"`
	Opened       int `json:"opened"`
	Clicked      int `json:"clicked"`
	Bounced      int `json:"bounced"`
	Failed       int `json:"failed"`
	Unsubscribed int `json:"unsubscribed"`
}

// CampaignWithStats represents a campaign with its statistics
type CampaignWithStats struct {
	Campaign
	Stats CampaignStats `json:"stats"`
}

// Validate checks if the campaign fields are valid
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if c.Subject == "" {
		return fmt.Errorf("campaign subject is required")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("sender email is required")
	}
	if !strings.Contains(c.FromEmail, "@") {
		return fmt.Errorf("invalid sender email: %s", c.FromEmail)
	}
	return nil
}

// IsEditable checks if campaign content can still be modified
func (c *Campaign) IsEditable() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusScheduled
}

// CanCancel checks if campaign can be returned to draft
func (c *Campaign) CanCancel() bool {
	return c.Status == CampaignStatusScheduled || c.Status == CampaignStatusSending
}

// IsDue checks if a scheduled campaign has reached its send time
func (c *Campaign) IsDue(now time.Time) bool {
	return c.Status == CampaignStatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now)
}
