package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"praxismail/internal/models"
	"praxismail/internal/repository"
)

// DispatchPublisher enqueues campaign dispatch jobs, immediately or
// after a delay. Implemented by queue.Publisher.
type DispatchPublisher interface {
	PublishDispatch(campaignID int) error
	PublishDispatchIn(campaignID int, delay time.Duration) error
}

// CampaignService handles campaign administration and lifecycle
type CampaignService struct {
	campaignRepo  repository.CampaignRepository
	contactRepo   repository.ContactRepository
	recipientRepo repository.RecipientRepository
	templateRepo  repository.TemplateRepository
	eventRepo     repository.TrackingEventRepository
	publisher     DispatchPublisher
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	recipientRepo repository.RecipientRepository,
	templateRepo repository.TemplateRepository,
	eventRepo repository.TrackingEventRepository,
	publisher DispatchPublisher,
) *CampaignService {
	return &CampaignService{
		campaignRepo:  campaignRepo,
		contactRepo:   contactRepo,
		recipientRepo: recipientRepo,
		templateRepo:  templateRepo,
		eventRepo:     eventRepo,
		publisher:     publisher,
	}
}

// CreateCampaign creates a new draft campaign
func (s *CampaignService) CreateCampaign(ctx context.Context, req *CreateCampaignRequest) (*models.Campaign, error) {
	campaign := &models.Campaign{
		Name:      req.Name,
		Subject:   req.Subject,
		FromName:  req.FromName,
		FromEmail: req.FromEmail,
		ReplyTo:   req.ReplyTo,
		Status:    models.CampaignStatusDraft,
	}

	if err := campaign.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if req.TemplateID != nil {
		if err := s.checkTemplateRef(ctx, *req.TemplateID); err != nil {
			return nil, err
		}
		campaign.TemplateID = req.TemplateID
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return campaign, nil
}

func (s *CampaignService) checkTemplateRef(ctx context.Context, templateID int) error {
	if _, err := s.templateRepo.GetByID(ctx, templateID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ValidationError{Message: fmt.Sprintf("template %d not found", templateID)}
		}
		return fmt.Errorf("failed to check template: %w", err)
	}
	return nil
}

// GetCampaign retrieves a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "campaign", ID: id}
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// GetCampaignWithStats retrieves a campaign with its recipient breakdown
func (s *CampaignService) GetCampaignWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error) {
	campaign, err := s.campaignRepo.GetWithStats(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "campaign", ID: id}
		}
		return nil, fmt.Errorf("failed to get campaign stats: %w", err)
	}
	return campaign, nil
}

// ListCampaigns lists campaigns with filters
func (s *CampaignService) ListCampaigns(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, *PaginationInfo, error) {
	campaigns, total, err := s.campaignRepo.List(ctx, filters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &PaginationInfo{
		Page:       filters.Page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	return campaigns, pagination, nil
}

// UpdateCampaign modifies campaign content while it is still editable
func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, req *UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	if !campaign.IsEditable() {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("campaign can only be edited in draft or scheduled status, current status is %s", campaign.Status),
		}
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Subject != nil {
		campaign.Subject = *req.Subject
	}
	if req.FromName != nil {
		campaign.FromName = *req.FromName
	}
	if req.FromEmail != nil {
		campaign.FromEmail = *req.FromEmail
	}
	if req.ReplyTo != nil {
		campaign.ReplyTo = req.ReplyTo
	}
	if req.TemplateID != nil {
		if err := s.checkTemplateRef(ctx, *req.TemplateID); err != nil {
			return nil, err
		}
		campaign.TemplateID = req.TemplateID
	}

	if err := campaign.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &BusinessLogicError{Message: "campaign is no longer editable"}
		}
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	return campaign, nil
}

// DeleteCampaign removes a draft campaign
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return err
	}

	if campaign.Status != models.CampaignStatusDraft {
		return &BusinessLogicError{
			Message: fmt.Sprintf("only draft campaigns can be deleted, current status is %s", campaign.Status),
		}
	}

	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &BusinessLogicError{Message: "campaign is no longer a draft"}
		}
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	return nil
}

// SendCampaign starts sending now. A campaign already in sending gets a
// fresh dispatch enqueued, picking up whatever is still pending.
func (s *CampaignService) SendCampaign(ctx context.Context, campaignID int) (*SendCampaignResult, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	switch campaign.Status {
	case models.CampaignStatusDraft, models.CampaignStatusScheduled:
		if campaign.TotalRecipients == 0 {
			return nil, &BusinessLogicError{Message: "campaign has no recipients"}
		}
		if err := s.campaignRepo.UpdateStatusFrom(ctx, campaignID, campaign.Status, models.CampaignStatusSending); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &BusinessLogicError{Message: "campaign changed status, try again"}
			}
			return nil, fmt.Errorf("failed to start campaign: %w", err)
		}
	case models.CampaignStatusSending:
		// Manual retry path
	default:
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("campaign cannot be sent: status is %s", campaign.Status),
		}
	}

	if err := s.publisher.PublishDispatch(campaignID); err != nil {
		// Campaign stays in sending; POSTing send again re-enqueues
		log.Printf("Warning: Failed to publish dispatch for campaign %d: %v", campaignID, err)
	}

	return &SendCampaignResult{
		CampaignID:      campaignID,
		Status:          models.CampaignStatusSending,
		TotalRecipients: campaign.TotalRecipients,
	}, nil
}

// ScheduleCampaign moves a draft campaign to scheduled and arms its
// dispatch for the send time
func (s *CampaignService) ScheduleCampaign(ctx context.Context, campaignID int, at time.Time) (*models.Campaign, error) {
	if !at.After(time.Now()) {
		return nil, &ValidationError{Message: "scheduled_at must be in the future"}
	}

	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != models.CampaignStatusDraft {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("only draft campaigns can be scheduled, current status is %s", campaign.Status),
		}
	}

	if err := s.campaignRepo.Schedule(ctx, campaignID, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &BusinessLogicError{Message: "campaign is no longer a draft"}
		}
		return nil, fmt.Errorf("failed to schedule campaign: %w", err)
	}

	if err := s.publisher.PublishDispatchIn(campaignID, time.Until(at)); err != nil {
		log.Printf("Warning: Failed to arm dispatch for campaign %d, the schedule sweep will fire it: %v", campaignID, err)
	}

	return s.GetCampaign(ctx, campaignID)
}

// CancelCampaign returns a scheduled or sending campaign to draft.
// Messages already handed to the provider are not recalled, and a
// dispatch job already running is not interrupted.
func (s *CampaignService) CancelCampaign(ctx context.Context, campaignID int) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if !campaign.CanCancel() {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("only scheduled or sending campaigns can be canceled, current status is %s", campaign.Status),
		}
	}

	if err := s.campaignRepo.Cancel(ctx, campaignID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &BusinessLogicError{Message: "campaign changed status, try again"}
		}
		return nil, fmt.Errorf("failed to cancel campaign: %w", err)
	}

	return s.GetCampaign(ctx, campaignID)
}

// ImportRecipients attaches contacts to a campaign, by explicit ids, by
// organization category, or as a single manual entry. Contacts without
// any email address are skipped; addresses already in the campaign are
// not duplicated.
func (s *CampaignService) ImportRecipients(ctx context.Context, campaignID int, req *ImportRecipientsRequest) (*ImportResult, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if !campaign.IsEditable() {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("recipients can only be added in draft or scheduled status, current status is %s", campaign.Status),
		}
	}

	if len(req.ContactIDs) == 0 && req.Category == "" && req.Manual == nil {
		return nil, &ValidationError{Message: "provide contact_ids, a category, or a manual recipient"}
	}

	contacts := []*models.Contact{}
	seen := map[int]bool{}

	if len(req.ContactIDs) > 0 {
		byID, err := s.contactRepo.GetByIDs(ctx, req.ContactIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load contacts: %w", err)
		}
		for _, contact := range byID {
			if !seen[contact.ID] {
				seen[contact.ID] = true
				contacts = append(contacts, contact)
			}
		}
	}

	if req.Category != "" {
		orgType, err := parseOrganizationType(req.Category)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		byType, err := s.contactRepo.ListByOrganizationType(ctx, orgType)
		if err != nil {
			return nil, fmt.Errorf("failed to load contacts by category: %w", err)
		}
		for _, contact := range byType {
			if !seen[contact.ID] {
				seen[contact.ID] = true
				contacts = append(contacts, contact)
			}
		}
	}

	recipients := []*models.Recipient{}
	skipped := 0
	for _, contact := range contacts {
		email := contact.BestEmail()
		if email == "" {
			skipped++
			continue
		}
		recipients = append(recipients, &models.Recipient{
			CampaignID:       campaignID,
			Email:            email,
			Name:             contact.DisplayName(),
			Organization:     contact.Organization,
			OrganizationType: string(contact.OrganizationType),
			Status:           models.RecipientStatusPending,
		})
	}

	if req.Manual != nil {
		if req.Manual.Email == "" || !strings.Contains(req.Manual.Email, "@") {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid recipient email %q", req.Manual.Email)}
		}
		recipients = append(recipients, &models.Recipient{
			CampaignID:       campaignID,
			Email:            req.Manual.Email,
			Name:             req.Manual.Name,
			Organization:     req.Manual.Organization,
			OrganizationType: req.Manual.OrganizationType,
			CustomData:       req.Manual.CustomData,
			Status:           models.RecipientStatusPending,
		})
	}

	created, err := s.recipientRepo.CreateBatch(ctx, recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to import recipients: %w", err)
	}

	if err := s.campaignRepo.RecountRecipients(ctx, campaignID); err != nil {
		return nil, fmt.Errorf("failed to recount recipients: %w", err)
	}

	updated, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Imported:        created,
		Duplicates:      len(recipients) - created,
		Skipped:         skipped,
		TotalRecipients: updated.TotalRecipients,
	}, nil
}

func parseOrganizationType(category string) (models.OrganizationType, error) {
	orgType := models.OrganizationType(category)
	switch orgType {
	case models.OrganizationTypeHospital,
		models.OrganizationTypeClinic,
		models.OrganizationTypeGroupPractice,
		models.OrganizationTypeMedicalCenter:
		return orgType, nil
	}
	return "", fmt.Errorf("unknown category %q", category)
}

// ListRecipients lists the recipients of a campaign
func (s *CampaignService) ListRecipients(ctx context.Context, campaignID int, filters repository.RecipientFilters) ([]*models.Recipient, *PaginationInfo, error) {
	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return nil, nil, err
	}

	recipients, total, err := s.recipientRepo.ListByCampaign(ctx, campaignID, filters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	pagination := &PaginationInfo{
		Page:       filters.Page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	return recipients, pagination, nil
}

// CampaignAnalytics returns the aggregate counters together with
// per-link clicks and the daily event timeline
func (s *CampaignService) CampaignAnalytics(ctx context.Context, campaignID int) (*AnalyticsResult, error) {
	withStats, err := s.GetCampaignWithStats(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	urlClicks, err := s.eventRepo.ClicksByURL(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load url clicks: %w", err)
	}

	timeline, err := s.eventRepo.Timeline(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}

	return &AnalyticsResult{
		Campaign:  withStats,
		URLClicks: urlClicks,
		Timeline:  timeline,
	}, nil
}

// Request/Response types

// CreateCampaignRequest represents a request to create a campaign
type CreateCampaignRequest struct {
	Name       string  `json:"name"`
	Subject    string  `json:"subject"`
	TemplateID *int    `json:"template_id,omitempty"`
	FromName   string  `json:"from_name"`
	FromEmail  string  `json:"from_email"`
	ReplyTo    *string `json:"reply_to,omitempty"`
}

// UpdateCampaignRequest represents a partial campaign update
type UpdateCampaignRequest struct {
	Name       *string `json:"name,omitempty"`
	Subject    *string `json:"subject,omitempty"`
	TemplateID *int    `json:"template_id,omitempty"`
	FromName   *string `json:"from_name,omitempty"`
	FromEmail  *string `json:"from_email,omitempty"`
	ReplyTo    *string `json:"reply_to,omitempty"`
}

// ScheduleCampaignRequest carries the future send time
type ScheduleCampaignRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// ImportRecipientsRequest selects contacts for a campaign
type ImportRecipientsRequest struct {
	ContactIDs []int            `json:"contact_ids,omitempty"`
	Category   string           `json:"category,omitempty"`
	Manual     *ManualRecipient `json:"manual,omitempty"`
}

// ManualRecipient is a recipient entered by hand rather than taken from
// the contact directory
type ManualRecipient struct {
	Email            string            `json:"email"`
	Name             string            `json:"name"`
	Organization     string            `json:"organization"`
	OrganizationType string            `json:"organization_type"`
	CustomData       map[string]string `json:"custom_data,omitempty"`
}

// ImportResult represents the outcome of a recipient import
type ImportResult struct {
	Imported        int `json:"imported"`
	Duplicates      int `json:"duplicates"`
	Skipped         int `json:"skipped"`
	TotalRecipients int `json:"total_recipients"`
}

// SendCampaignResult represents the result of starting a send
type SendCampaignResult struct {
	CampaignID      int                   `json:"campaign_id"`
	Status          models.CampaignStatus `json:"status"`
	TotalRecipients int                   `json:"total_recipients"`
}

// AnalyticsResult bundles campaign counters, per-link clicks and the
// daily timeline
type AnalyticsResult struct {
	Campaign  *models.CampaignWithStats `json:"campaign"`
	URLClicks []*models.URLClickCount   `json:"url_clicks"`
	Timeline  []*models.TimelinePoint   `json:"timeline"`
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
