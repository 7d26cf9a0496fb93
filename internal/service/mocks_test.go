package service

import (
	"context"
	"fmt"
	"time"

	"praxismail/internal/models"
	"praxismail/internal/postmark"
	"praxismail/internal/repository"
)

// MockCampaignRepository mocks repository.CampaignRepository
type MockCampaignRepository struct {
	CreateFunc            func(ctx context.Context, campaign *models.Campaign) error
	GetByIDFunc           func(ctx context.Context, id int) (*models.Campaign, error)
	GetWithStatsFunc      func(ctx context.Context, id int) (*models.CampaignWithStats, error)
	ListFunc              func(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, int, error)
	ListDueFunc           func(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	UpdateFunc            func(ctx context.Context, campaign *models.Campaign) error
	UpdateStatusFromFunc  func(ctx context.Context, id int, from, to models.CampaignStatus) error
	ScheduleFunc          func(ctx context.Context, id int, at time.Time) error
	CancelFunc            func(ctx context.Context, id int) error
	CompleteFunc          func(ctx context.Context, id int) error
	RecountRecipientsFunc func(ctx context.Context, id int) error
	RecountTrackingFunc   func(ctx context.Context, id int) error
	DeleteFunc            func(ctx context.Context, id int) error

	Calls map[string]int // Track method calls
}

func NewMockCampaignRepository() *MockCampaignRepository {
	return &MockCampaignRepository{
		Calls: make(map[string]int),
	}
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, campaign)
	}
	campaign.ID = 1
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = time.Now()
	return nil
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	campaign := NewTestCampaign()
	campaign.ID = id
	return campaign, nil
}

func (m *MockCampaignRepository) GetWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error) {
	m.Calls["GetWithStats"]++
	if m.GetWithStatsFunc != nil {
		return m.GetWithStatsFunc(ctx, id)
	}
	campaign := NewTestCampaign()
	campaign.ID = id
	return &models.CampaignWithStats{
		Campaign: *campaign,
		Stats: models.CampaignStats{
			Total:     10,
			Delivered: 6,
			Opened:    3,
			Bounced:   1,
		},
	}, nil
}

func (m *MockCampaignRepository) List(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, int, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filters)
	}
	campaigns := NewTestCampaigns(filters.PageSize)
	return campaigns, len(campaigns), nil
}

func (m *MockCampaignRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	m.Calls["ListDue"]++
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, now)
	}
	return []*models.Campaign{}, nil
}

func (m *MockCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, campaign)
	}
	return nil
}

func (m *MockCampaignRepository) UpdateStatusFrom(ctx context.Context, id int, from, to models.CampaignStatus) error {
	m.Calls["UpdateStatusFrom"]++
	if m.UpdateStatusFromFunc != nil {
		return m.UpdateStatusFromFunc(ctx, id, from, to)
	}
	return nil
}

func (m *MockCampaignRepository) Schedule(ctx context.Context, id int, at time.Time) error {
	m.Calls["Schedule"]++
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(ctx, id, at)
	}
	return nil
}

func (m *MockCampaignRepository) Cancel(ctx context.Context, id int) error {
	m.Calls["Cancel"]++
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepository) Complete(ctx context.Context, id int) error {
	m.Calls["Complete"]++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepository) RecountRecipients(ctx context.Context, id int) error {
	m.Calls["RecountRecipients"]++
	if m.RecountRecipientsFunc != nil {
		return m.RecountRecipientsFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepository) RecountTracking(ctx context.Context, id int) error {
	m.Calls["RecountTracking"]++
	if m.RecountTrackingFunc != nil {
		return m.RecountTrackingFunc(ctx, id)
	}
	return nil
}

func (m *MockCampaignRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockContactRepository mocks repository.ContactRepository
type MockContactRepository struct {
	GetByIDFunc                func(ctx context.Context, id int) (*models.Contact, error)
	GetByIDsFunc               func(ctx context.Context, ids []int) ([]*models.Contact, error)
	ListByOrganizationTypeFunc func(ctx context.Context, orgType models.OrganizationType) ([]*models.Contact, error)
	ListFunc                   func(ctx context.Context, limit, offset int) ([]*models.Contact, int, error)

	Calls map[string]int
}

func NewMockContactRepository() *MockContactRepository {
	return &MockContactRepository{
		Calls: make(map[string]int),
	}
}

func (m *MockContactRepository) GetByID(ctx context.Context, id int) (*models.Contact, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return NewTestContact(id), nil
}

func (m *MockContactRepository) GetByIDs(ctx context.Context, ids []int) ([]*models.Contact, error) {
	m.Calls["GetByIDs"]++
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	contacts := make([]*models.Contact, len(ids))
	for i, id := range ids {
		contacts[i] = NewTestContact(id)
	}
	return contacts, nil
}

func (m *MockContactRepository) ListByOrganizationType(ctx context.Context, orgType models.OrganizationType) ([]*models.Contact, error) {
	m.Calls["ListByOrganizationType"]++
	if m.ListByOrganizationTypeFunc != nil {
		return m.ListByOrganizationTypeFunc(ctx, orgType)
	}
	contacts := make([]*models.Contact, 3)
	for i := range contacts {
		contacts[i] = NewTestContact(i + 1)
		contacts[i].OrganizationType = orgType
	}
	return contacts, nil
}

func (m *MockContactRepository) List(ctx context.Context, limit, offset int) ([]*models.Contact, int, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	contacts := make([]*models.Contact, limit)
	for i := range contacts {
		contacts[i] = NewTestContact(offset + i + 1)
	}
	return contacts, limit, nil
}

// MockRecipientRepository mocks repository.RecipientRepository
type MockRecipientRepository struct {
	CreateBatchFunc    func(ctx context.Context, recipients []*models.Recipient) (int, error)
	GetByIDFunc        func(ctx context.Context, id int) (*models.Recipient, error)
	GetByMessageIDFunc func(ctx context.Context, messageID string) (*models.Recipient, error)
	ListByCampaignFunc func(ctx context.Context, campaignID int, filters repository.RecipientFilters) ([]*models.Recipient, int, error)
	ListForExportFunc  func(ctx context.Context, campaignID int) ([]*models.Recipient, error)
	GetPendingFunc     func(ctx context.Context, campaignID int) ([]*models.Recipient, error)
	ClaimPendingFunc   func(ctx context.Context, ids []int) ([]int, error)
	MarkSentFunc       func(ctx context.Context, ids []int, messageIDs []string) error
	MarkFailedFunc     func(ctx context.Context, ids []int, reasons []string) error
	MarkDeliveredFunc  func(ctx context.Context, id int) error
	MarkOpenedFunc     func(ctx context.Context, id int, at time.Time) error
	MarkClickedFunc    func(ctx context.Context, id int, at time.Time) error
	MarkBouncedFunc    func(ctx context.Context, id int, at time.Time, description string) error
	UnsubscribeFunc    func(ctx context.Context, id int, email string) error

	Calls map[string]int
}

func NewMockRecipientRepository() *MockRecipientRepository {
	return &MockRecipientRepository{
		Calls: make(map[string]int),
	}
}

func (m *MockRecipientRepository) CreateBatch(ctx context.Context, recipients []*models.Recipient) (int, error) {
	m.Calls["CreateBatch"]++
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, recipients)
	}
	for i, recipient := range recipients {
		recipient.ID = i + 1
	}
	return len(recipients), nil
}

func (m *MockRecipientRepository) GetByID(ctx context.Context, id int) (*models.Recipient, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return NewTestRecipient(id), nil
}

func (m *MockRecipientRepository) GetByMessageID(ctx context.Context, messageID string) (*models.Recipient, error) {
	m.Calls["GetByMessageID"]++
	if m.GetByMessageIDFunc != nil {
		return m.GetByMessageIDFunc(ctx, messageID)
	}
	recipient := NewTestRecipient(1)
	recipient.Status = models.RecipientStatusSent
	recipient.MessageID = StringPtr(messageID)
	return recipient, nil
}

func (m *MockRecipientRepository) ListByCampaign(ctx context.Context, campaignID int, filters repository.RecipientFilters) ([]*models.Recipient, int, error) {
	m.Calls["ListByCampaign"]++
	if m.ListByCampaignFunc != nil {
		return m.ListByCampaignFunc(ctx, campaignID, filters)
	}
	recipients := NewTestRecipients(3)
	return recipients, len(recipients), nil
}

func (m *MockRecipientRepository) ListForExport(ctx context.Context, campaignID int) ([]*models.Recipient, error) {
	m.Calls["ListForExport"]++
	if m.ListForExportFunc != nil {
		return m.ListForExportFunc(ctx, campaignID)
	}
	return NewTestRecipients(3), nil
}

func (m *MockRecipientRepository) GetPending(ctx context.Context, campaignID int) ([]*models.Recipient, error) {
	m.Calls["GetPending"]++
	if m.GetPendingFunc != nil {
		return m.GetPendingFunc(ctx, campaignID)
	}
	return NewTestRecipients(3), nil
}

func (m *MockRecipientRepository) ClaimPending(ctx context.Context, ids []int) ([]int, error) {
	m.Calls["ClaimPending"]++
	if m.ClaimPendingFunc != nil {
		return m.ClaimPendingFunc(ctx, ids)
	}
	return ids, nil
}

func (m *MockRecipientRepository) MarkSent(ctx context.Context, ids []int, messageIDs []string) error {
	m.Calls["MarkSent"]++
	if m.MarkSentFunc != nil {
		return m.MarkSentFunc(ctx, ids, messageIDs)
	}
	return nil
}

func (m *MockRecipientRepository) MarkFailed(ctx context.Context, ids []int, reasons []string) error {
	m.Calls["MarkFailed"]++
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, ids, reasons)
	}
	return nil
}

func (m *MockRecipientRepository) MarkDelivered(ctx context.Context, id int) error {
	m.Calls["MarkDelivered"]++
	if m.MarkDeliveredFunc != nil {
		return m.MarkDeliveredFunc(ctx, id)
	}
	return nil
}

func (m *MockRecipientRepository) MarkOpened(ctx context.Context, id int, at time.Time) error {
	m.Calls["MarkOpened"]++
	if m.MarkOpenedFunc != nil {
		return m.MarkOpenedFunc(ctx, id, at)
	}
	return nil
}

func (m *MockRecipientRepository) MarkClicked(ctx context.Context, id int, at time.Time) error {
	m.Calls["MarkClicked"]++
	if m.MarkClickedFunc != nil {
		return m.MarkClickedFunc(ctx, id, at)
	}
	return nil
}

func (m *MockRecipientRepository) MarkBounced(ctx context.Context, id int, at time.Time, description string) error {
	m.Calls["MarkBounced"]++
	if m.MarkBouncedFunc != nil {
		return m.MarkBouncedFunc(ctx, id, at, description)
	}
	return nil
}

func (m *MockRecipientRepository) Unsubscribe(ctx context.Context, id int, email string) error {
	m.Calls["Unsubscribe"]++
	if m.UnsubscribeFunc != nil {
		return m.UnsubscribeFunc(ctx, id, email)
	}
	return nil
}

// MockTemplateRepository mocks repository.TemplateRepository
type MockTemplateRepository struct {
	CreateFunc      func(ctx context.Context, template *models.Template) error
	GetByIDFunc     func(ctx context.Context, id int) (*models.Template, error)
	GetByHandleFunc func(ctx context.Context, handle string) (*models.Template, error)
	ListFunc        func(ctx context.Context, activeOnly bool) ([]*models.Template, error)
	UpdateFunc      func(ctx context.Context, template *models.Template) error
	DeleteFunc      func(ctx context.Context, id int) error

	Calls map[string]int
}

func NewMockTemplateRepository() *MockTemplateRepository {
	return &MockTemplateRepository{
		Calls: make(map[string]int),
	}
}

func (m *MockTemplateRepository) Create(ctx context.Context, template *models.Template) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, template)
	}
	template.ID = 1
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()
	return nil
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, id int) (*models.Template, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	template := NewTestTemplate()
	template.ID = id
	return template, nil
}

func (m *MockTemplateRepository) GetByHandle(ctx context.Context, handle string) (*models.Template, error) {
	m.Calls["GetByHandle"]++
	if m.GetByHandleFunc != nil {
		return m.GetByHandleFunc(ctx, handle)
	}
	template := NewTestTemplate()
	template.Handle = handle
	return template, nil
}

func (m *MockTemplateRepository) List(ctx context.Context, activeOnly bool) ([]*models.Template, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, activeOnly)
	}
	return []*models.Template{NewTestTemplate()}, nil
}

func (m *MockTemplateRepository) Update(ctx context.Context, template *models.Template) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, template)
	}
	return nil
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockTrackingEventRepository mocks repository.TrackingEventRepository.
// Events recorded through the default path are kept for inspection.
type MockTrackingEventRepository struct {
	CreateFunc      func(ctx context.Context, event *models.TrackingEvent) error
	ClicksByURLFunc func(ctx context.Context, campaignID int) ([]*models.URLClickCount, error)
	TimelineFunc    func(ctx context.Context, campaignID int) ([]*models.TimelinePoint, error)

	Events []*models.TrackingEvent
	Calls  map[string]int
}

func NewMockTrackingEventRepository() *MockTrackingEventRepository {
	return &MockTrackingEventRepository{
		Calls: make(map[string]int),
	}
}

func (m *MockTrackingEventRepository) Create(ctx context.Context, event *models.TrackingEvent) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, event)
	}
	event.ID = len(m.Events) + 1
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockTrackingEventRepository) ClicksByURL(ctx context.Context, campaignID int) ([]*models.URLClickCount, error) {
	m.Calls["ClicksByURL"]++
	if m.ClicksByURLFunc != nil {
		return m.ClicksByURLFunc(ctx, campaignID)
	}
	return []*models.URLClickCount{}, nil
}

func (m *MockTrackingEventRepository) Timeline(ctx context.Context, campaignID int) ([]*models.TimelinePoint, error) {
	m.Calls["Timeline"]++
	if m.TimelineFunc != nil {
		return m.TimelineFunc(ctx, campaignID)
	}
	return []*models.TimelinePoint{}, nil
}

// MockPublisher mocks the dispatch publisher
type MockPublisher struct {
	PublishDispatchFunc   func(campaignID int) error
	PublishDispatchInFunc func(campaignID int, delay time.Duration) error

	Dispatched []int
	Scheduled  []ScheduledDispatch
}

// ScheduledDispatch records one delayed dispatch request
type ScheduledDispatch struct {
	CampaignID int
	Delay      time.Duration
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishDispatch(campaignID int) error {
	if m.PublishDispatchFunc != nil {
		return m.PublishDispatchFunc(campaignID)
	}
	m.Dispatched = append(m.Dispatched, campaignID)
	return nil
}

func (m *MockPublisher) PublishDispatchIn(campaignID int, delay time.Duration) error {
	if m.PublishDispatchInFunc != nil {
		return m.PublishDispatchInFunc(campaignID, delay)
	}
	m.Scheduled = append(m.Scheduled, ScheduledDispatch{CampaignID: campaignID, Delay: delay})
	return nil
}

// MockTransport mocks postmark.Transport. The default path accepts every
// message with a generated message id and keeps the batches for
// inspection.
type MockTransport struct {
	SendBatchFunc func(ctx context.Context, messages []postmark.Message) ([]postmark.MessageResult, error)

	Batches [][]postmark.Message
}

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) SendBatch(ctx context.Context, messages []postmark.Message) ([]postmark.MessageResult, error) {
	if m.SendBatchFunc != nil {
		return m.SendBatchFunc(ctx, messages)
	}
	m.Batches = append(m.Batches, messages)
	results := make([]postmark.MessageResult, len(messages))
	for i, message := range messages {
		results[i] = postmark.MessageResult{
			To:          message.To,
			SubmittedAt: time.Now(),
			MessageID:   fmt.Sprintf("mock-%d-%d", len(m.Batches), i),
		}
	}
	return results, nil
}
