package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"praxismail/internal/metrics"
	"praxismail/internal/models"
	"praxismail/internal/postmark"
	"praxismail/internal/repository"
)

// TrackingService folds provider callbacks and unsubscribe requests
// into recipient state
type TrackingService struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.RecipientRepository
	eventRepo     repository.TrackingEventRepository
	metrics       *metrics.Metrics
}

// NewTrackingService creates a new tracking service
func NewTrackingService(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.RecipientRepository,
	eventRepo repository.TrackingEventRepository,
	m *metrics.Metrics,
) *TrackingService {
	return &TrackingService{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		eventRepo:     eventRepo,
		metrics:       m,
	}
}

// Ingest records one provider callback and projects it onto the
// matching recipient. Unknown record types and unmatched message ids
// are reported in the result, not as errors, so the provider never
// retries them.
func (s *TrackingService) Ingest(ctx context.Context, event *postmark.WebhookEvent, rawBody []byte) (*IngestResult, error) {
	var eventType models.EventType
	switch event.RecordType {
	case postmark.RecordDelivery:
		eventType = models.EventTypeDelivery
	case postmark.RecordOpen:
		eventType = models.EventTypeOpen
	case postmark.RecordClick:
		eventType = models.EventTypeClick
	case postmark.RecordBounce:
		eventType = models.EventTypeBounce
	case postmark.RecordSpamComplaint:
		eventType = models.EventTypeSpamComplaint
	default:
		log.Printf("Ignoring webhook with record type %q", event.RecordType)
		return &IngestResult{Ignored: true}, nil
	}

	if event.MessageID == "" {
		return nil, &ValidationError{Message: "message id is required"}
	}

	recipient, err := s.recipientRepo.GetByMessageID(ctx, event.MessageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncWebhookUnmatched()
			log.Printf("Webhook %s for unknown message %s", event.RecordType, event.MessageID)
			return &IngestResult{Matched: false, EventType: eventType}, nil
		}
		return nil, fmt.Errorf("failed to match message %s: %w", event.MessageID, err)
	}

	tracked := &models.TrackingEvent{
		CampaignID:  recipient.CampaignID,
		RecipientID: recipient.ID,
		MessageID:   event.MessageID,
		EventType:   eventType,
		Payload:     rawBody,
		OccurredAt:  event.OccurredTime(),
	}
	if eventType == models.EventTypeClick && event.OriginalLink != "" {
		tracked.URL = &event.OriginalLink
	}
	if event.Description != "" {
		tracked.Description = &event.Description
	}
	if event.UserAgent != "" {
		tracked.UserAgent = &event.UserAgent
	}
	if event.Geo != nil && event.Geo.IP != "" {
		tracked.IP = &event.Geo.IP
	}

	if err := s.eventRepo.Create(ctx, tracked); err != nil {
		return nil, fmt.Errorf("failed to record %s event: %w", eventType, err)
	}

	switch eventType {
	case models.EventTypeDelivery:
		err = s.recipientRepo.MarkDelivered(ctx, recipient.ID)
	case models.EventTypeOpen:
		err = s.recipientRepo.MarkOpened(ctx, recipient.ID, tracked.OccurredAt)
	case models.EventTypeClick:
		err = s.recipientRepo.MarkClicked(ctx, recipient.ID, tracked.OccurredAt)
	case models.EventTypeBounce, models.EventTypeSpamComplaint:
		description := event.Description
		if description == "" {
			if eventType == models.EventTypeSpamComplaint {
				description = "spam complaint"
			} else {
				description = "bounced"
			}
		}
		err = s.recipientRepo.MarkBounced(ctx, recipient.ID, tracked.OccurredAt, description)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update recipient %d: %w", recipient.ID, err)
	}

	if err := s.campaignRepo.RecountTracking(ctx, recipient.CampaignID); err != nil {
		return nil, fmt.Errorf("failed to recount campaign %d: %w", recipient.CampaignID, err)
	}

	s.metrics.IncWebhookEvent(event.RecordType)

	return &IngestResult{
		Matched:     true,
		EventType:   eventType,
		CampaignID:  recipient.CampaignID,
		RecipientID: recipient.ID,
	}, nil
}

// Unsubscribe processes an unsubscribe link click. The token must
// decode to a recipient id and the exact address the message went to.
func (s *TrackingService) Unsubscribe(ctx context.Context, token string) (*UnsubscribeResult, error) {
	recipientID, email, err := DecodeUnsubscribeToken(token)
	if err != nil {
		return nil, &ValidationError{Message: "invalid unsubscribe link"}
	}

	recipient, err := s.recipientRepo.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Message: "invalid unsubscribe link"}
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}

	if recipient.Status == models.RecipientStatusUnsubscribed {
		return &UnsubscribeResult{Email: recipient.Email, AlreadyDone: true}, nil
	}

	if err := s.recipientRepo.Unsubscribe(ctx, recipientID, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Message: "invalid unsubscribe link"}
		}
		return nil, fmt.Errorf("failed to unsubscribe recipient %d: %w", recipientID, err)
	}

	event := &models.TrackingEvent{
		CampaignID:  recipient.CampaignID,
		RecipientID: recipient.ID,
		EventType:   models.EventTypeUnsubscribe,
		OccurredAt:  time.Now(),
	}
	if recipient.MessageID != nil {
		event.MessageID = *recipient.MessageID
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record unsubscribe: %w", err)
	}

	if err := s.campaignRepo.RecountTracking(ctx, recipient.CampaignID); err != nil {
		return nil, fmt.Errorf("failed to recount campaign %d: %w", recipient.CampaignID, err)
	}

	s.metrics.IncUnsubscribe()
	log.Printf("🚫 Recipient %d unsubscribed from campaign %d", recipient.ID, recipient.CampaignID)

	return &UnsubscribeResult{Email: recipient.Email}, nil
}

// EncodeUnsubscribeToken builds the opaque token embedded in each
// message's unsubscribe link
func EncodeUnsubscribeToken(recipientID int, email string) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(recipientID) + ":" + email))
}

// DecodeUnsubscribeToken reverses EncodeUnsubscribeToken. Links from
// older mailings used the standard base64 alphabet, so both are
// accepted.
func DecodeUnsubscribeToken(token string) (int, string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return 0, "", fmt.Errorf("invalid token encoding")
		}
	}

	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", fmt.Errorf("malformed token")
	}

	recipientID, err := strconv.Atoi(parts[0])
	if err != nil || recipientID <= 0 {
		return 0, "", fmt.Errorf("malformed token")
	}

	return recipientID, parts[1], nil
}

// IngestResult reports what a webhook event did
type IngestResult struct {
	Ignored     bool             `json:"ignored,omitempty"`
	Matched     bool             `json:"matched"`
	EventType   models.EventType `json:"event_type,omitempty"`
	CampaignID  int              `json:"campaign_id,omitempty"`
	RecipientID int              `json:"recipient_id,omitempty"`
}

// UnsubscribeResult reports the outcome of an unsubscribe click
type UnsubscribeResult struct {
	Email       string `json:"email"`
	AlreadyDone bool   `json:"already_done,omitempty"`
}
