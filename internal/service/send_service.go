package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"praxismail/internal/metrics"
	"praxismail/internal/models"
	"praxismail/internal/postmark"
	"praxismail/internal/repository"
)

// SendService runs campaign dispatch jobs on the worker. A job claims
// the campaign, renders each pending recipient and submits batches to
// the provider, pausing between batches.
type SendService struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.RecipientRepository
	templateRepo  repository.TemplateRepository
	templates     *TemplateService
	transport     postmark.Transport
	metrics       *metrics.Metrics
	batchSize     int
	batchDelay    time.Duration
	publicBaseURL string
}

// NewSendService creates a new send service
func NewSendService(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.RecipientRepository,
	templateRepo repository.TemplateRepository,
	templates *TemplateService,
	transport postmark.Transport,
	m *metrics.Metrics,
	batchSize int,
	batchDelay time.Duration,
	publicBaseURL string,
) *SendService {
	if batchSize <= 0 {
		batchSize = 100
	}
	if batchSize > postmark.BatchMax {
		batchSize = postmark.BatchMax
	}

	return &SendService{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		templateRepo:  templateRepo,
		templates:     templates,
		transport:     transport,
		metrics:       m,
		batchSize:     batchSize,
		batchDelay:    batchDelay,
		publicBaseURL: publicBaseURL,
	}
}

// Run executes one dispatch job. It returns nil whenever the job should
// simply be dropped; an error means the job aborted partway and a manual
// re-send is needed to pick up the remaining recipients.
func (s *SendService) Run(ctx context.Context, campaignID int) error {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("⚠️ Dispatch for unknown campaign %d, dropping", campaignID)
			return nil
		}
		return fmt.Errorf("failed to load campaign %d: %w", campaignID, err)
	}

	switch campaign.Status {
	case models.CampaignStatusSending:
		// Manual send or re-send already moved the status
	case models.CampaignStatusScheduled:
		if !campaign.IsDue(time.Now()) {
			// Rescheduling leaves the old delayed message behind; the
			// new time fires via the sweep
			log.Printf("Campaign %d not due yet, dropping dispatch", campaignID)
			return nil
		}
		if err := s.campaignRepo.UpdateStatusFrom(ctx, campaignID, models.CampaignStatusScheduled, models.CampaignStatusSending); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("Campaign %d changed status, dropping dispatch", campaignID)
				return nil
			}
			return fmt.Errorf("failed to claim campaign %d: %w", campaignID, err)
		}
	default:
		log.Printf("Campaign %d is %s, dropping dispatch", campaignID, campaign.Status)
		return nil
	}

	template, err := s.resolveTemplate(ctx, campaign)
	if err != nil {
		log.Printf("❌ Campaign %d failed pre-flight: %v", campaignID, err)
		if casErr := s.campaignRepo.UpdateStatusFrom(ctx, campaignID, models.CampaignStatusSending, models.CampaignStatusFailed); casErr != nil && !errors.Is(casErr, repository.ErrNotFound) {
			return fmt.Errorf("failed to mark campaign %d failed: %w", campaignID, casErr)
		}
		return nil
	}

	pending, err := s.recipientRepo.GetPending(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to load pending recipients for campaign %d: %w", campaignID, err)
	}

	log.Printf("📨 Campaign %d: %d pending recipients", campaignID, len(pending))

	for start := 0; start < len(pending); start += s.batchSize {
		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}

		if err := s.sendBatch(ctx, campaign, template, pending[start:end]); err != nil {
			return fmt.Errorf("campaign %d aborted: %w", campaignID, err)
		}

		if end < len(pending) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}
	}

	if err := s.campaignRepo.Complete(ctx, campaignID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Canceled while the batches ran
			log.Printf("Campaign %d no longer sending, leaving as is", campaignID)
			return nil
		}
		return fmt.Errorf("failed to complete campaign %d: %w", campaignID, err)
	}

	log.Printf("✅ Campaign %d completed", campaignID)
	return nil
}

func (s *SendService) resolveTemplate(ctx context.Context, campaign *models.Campaign) (*models.Template, error) {
	if campaign.TemplateID == nil {
		return nil, fmt.Errorf("campaign has no template")
	}

	template, err := s.templateRepo.GetByID(ctx, *campaign.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("template %d not found", *campaign.TemplateID)
		}
		return nil, fmt.Errorf("failed to load template %d: %w", *campaign.TemplateID, err)
	}

	if !template.Active {
		return nil, fmt.Errorf("template %q is inactive", template.Handle)
	}

	return template, nil
}

// sendBatch claims one slice of recipients and submits it. Recipients
// another job claimed first are skipped. Returning nil means the batch
// is settled one way or the other and the loop may continue.
func (s *SendService) sendBatch(ctx context.Context, campaign *models.Campaign, template *models.Template, batch []*models.Recipient) error {
	ids := make([]int, len(batch))
	for i, recipient := range batch {
		ids[i] = recipient.ID
	}

	claimed, err := s.recipientRepo.ClaimPending(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to claim recipients: %w", err)
	}
	if len(claimed) == 0 {
		return nil
	}

	claimedSet := make(map[int]bool, len(claimed))
	for _, id := range claimed {
		claimedSet[id] = true
	}

	var sendList []*models.Recipient
	for _, recipient := range batch {
		if claimedSet[recipient.ID] {
			sendList = append(sendList, recipient)
		}
	}

	messages := make([]postmark.Message, len(sendList))
	for i, recipient := range sendList {
		vars := s.recipientVariables(campaign, recipient)

		subject := campaign.Subject
		if subject == "" {
			subject = template.Subject
		}

		messages[i] = postmark.Message{
			From:          fmt.Sprintf("%s <%s>", campaign.FromName, campaign.FromEmail),
			To:            recipient.Email,
			Subject:       s.templates.Render(subject, vars),
			HTMLBody:      s.templates.Render(template.HTMLBody, vars),
			TextBody:      s.templates.Render(template.TextBody, vars),
			TrackOpens:    true,
			TrackLinks:    "HtmlAndText",
			MessageStream: "broadcast",
			Metadata: map[string]string{
				"campaign_id":  strconv.Itoa(campaign.ID),
				"recipient_id": strconv.Itoa(recipient.ID),
			},
		}
		if campaign.ReplyTo != nil {
			messages[i].ReplyTo = *campaign.ReplyTo
		}
	}

	start := time.Now()
	results, err := s.transport.SendBatch(ctx, messages)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		var apiErr *postmark.APIError
		if errors.As(err, &apiErr) {
			// The provider rejected the whole batch; record it and let
			// the remaining batches try their luck
			failedIDs := make([]int, len(sendList))
			reasons := make([]string, len(sendList))
			for i, recipient := range sendList {
				failedIDs[i] = recipient.ID
				reasons[i] = apiErr.Error()
			}
			if markErr := s.recipientRepo.MarkFailed(ctx, failedIDs, reasons); markErr != nil {
				return fmt.Errorf("failed to record batch failure: %w", markErr)
			}
			s.metrics.AddEmailsFailed("provider_rejected", len(sendList))
			s.metrics.ObserveSendBatch("provider_error", elapsed)
			log.Printf("⚠️ Campaign %d: provider rejected batch of %d: %v", campaign.ID, len(sendList), apiErr)
			return nil
		}
		s.metrics.ObserveSendBatch("error", elapsed)
		return fmt.Errorf("failed to submit batch: %w", err)
	}

	if len(results) != len(sendList) {
		s.metrics.ObserveSendBatch("error", elapsed)
		return fmt.Errorf("provider returned %d results for %d messages", len(results), len(sendList))
	}

	var sentIDs []int
	var messageIDs []string
	var failedIDs []int
	var failReasons []string
	for i, result := range results {
		if result.Succeeded() {
			sentIDs = append(sentIDs, sendList[i].ID)
			messageIDs = append(messageIDs, result.MessageID)
		} else {
			failedIDs = append(failedIDs, sendList[i].ID)
			failReasons = append(failReasons, fmt.Sprintf("error %d: %s", result.ErrorCode, result.Message))
		}
	}

	if len(sentIDs) > 0 {
		if err := s.recipientRepo.MarkSent(ctx, sentIDs, messageIDs); err != nil {
			return fmt.Errorf("failed to mark recipients sent: %w", err)
		}
	}
	if len(failedIDs) > 0 {
		if err := s.recipientRepo.MarkFailed(ctx, failedIDs, failReasons); err != nil {
			return fmt.Errorf("failed to mark recipients failed: %w", err)
		}
	}

	s.metrics.AddEmailsSent(len(sentIDs))
	if len(failedIDs) > 0 {
		s.metrics.AddEmailsFailed("address_rejected", len(failedIDs))
	}
	s.metrics.ObserveSendBatch("ok", elapsed)

	log.Printf("📤 Campaign %d: batch done, %d sent, %d failed", campaign.ID, len(sentIDs), len(failedIDs))
	return nil
}

// recipientVariables builds the substitution map for one recipient.
// Custom data goes in first; the built-in keys overwrite any custom
// entry with the same name.
func (s *SendService) recipientVariables(campaign *models.Campaign, recipient *models.Recipient) map[string]string {
	now := time.Now()

	vars := make(map[string]string, len(recipient.CustomData)+7)
	for key, value := range recipient.CustomData {
		vars[key] = value
	}

	vars["name"] = recipient.Name
	vars["email"] = recipient.Email
	vars["organization"] = recipient.Organization
	vars["organization_type"] = recipient.OrganizationType
	vars["date"] = now.Format("02.01.2006")
	vars["year"] = strconv.Itoa(now.Year())
	vars["unsubscribe_url"] = s.publicBaseURL + "/unsubscribe?token=" + EncodeUnsubscribeToken(recipient.ID, recipient.Email)

	return vars
}
