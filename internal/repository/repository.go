package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"praxismail/internal/models"
)

// ErrNotFound is returned when a requested row does not exist, or when a
// guarded update matched no row. Callers check it with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// constraint (template handles, recipient emails within a campaign).
var ErrDuplicate = errors.New("duplicate")

// ContactRepository defines read access to the contact directory
type ContactRepository interface {
	GetByID(ctx context.Context, id int) (*models.Contact, error)
	GetByIDs(ctx context.Context, ids []int) ([]*models.Contact, error)
	ListByOrganizationType(ctx context.Context, orgType models.OrganizationType) ([]*models.Contact, error)
	List(ctx context.Context, limit, offset int) ([]*models.Contact, int, error)
}

// TemplateRepository defines template data access operations
type TemplateRepository interface {
	Create(ctx context.Context, template *models.Template) error
	GetByID(ctx context.Context, id int) (*models.Template, error)
	GetByHandle(ctx context.Context, handle string) (*models.Template, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Template, error)
	Update(ctx context.Context, template *models.Template) error
	Delete(ctx context.Context, id int) error
}

// CampaignRepository defines campaign data access operations. The status
// mutators are guarded updates: they match the row only in the expected
// current status and return ErrNotFound when nothing matched, so racing
// callers cannot repeat a transition.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int) (*models.Campaign, error)
	GetWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error)
	List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, int, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	UpdateStatusFrom(ctx context.Context, id int, from, to models.CampaignStatus) error
	Schedule(ctx context.Context, id int, at time.Time) error
	Cancel(ctx context.Context, id int) error
	Complete(ctx context.Context, id int) error
	RecountRecipients(ctx context.Context, id int) error
	RecountTracking(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

// CampaignFilters defines filters for listing campaigns
type CampaignFilters struct {
	Page     int
	PageSize int
	Status   *models.CampaignStatus
}

// RecipientRepository defines campaign recipient data access operations
type RecipientRepository interface {
	CreateBatch(ctx context.Context, recipients []*models.Recipient) (int, error)
	GetByID(ctx context.Context, id int) (*models.Recipient, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.Recipient, error)
	ListByCampaign(ctx context.Context, campaignID int, filters RecipientFilters) ([]*models.Recipient, int, error)
	ListForExport(ctx context.Context, campaignID int) ([]*models.Recipient, error)
	GetPending(ctx context.Context, campaignID int) ([]*models.Recipient, error)
	ClaimPending(ctx context.Context, ids []int) ([]int, error)
	MarkSent(ctx context.Context, ids []int, messageIDs []string) error
	MarkFailed(ctx context.Context, ids []int, reasons []string) error
	MarkDelivered(ctx context.Context, id int) error
	MarkOpened(ctx context.Context, id int, at time.Time) error
	MarkClicked(ctx context.Context, id int, at time.Time) error
	MarkBounced(ctx context.Context, id int, at time.Time, description string) error
	Unsubscribe(ctx context.Context, id int, email string) error
}

// RecipientFilters defines filters for listing campaign recipients
type RecipientFilters struct {
	Page     int
	PageSize int
	Status   *models.RecipientStatus
}

// TrackingEventRepository defines the append-only tracking event log
type TrackingEventRepository interface {
	Create(ctx context.Context, event *models.TrackingEvent) error
	ClicksByURL(ctx context.Context, campaignID int) ([]*models.URLClickCount, error)
	Timeline(ctx context.Context, campaignID int) ([]*models.TimelinePoint, error)
}

// DB is a wrapper around *sql.DB to allow passing in transaction
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so the scan
// helpers serve single-row and list queries alike.
type rowScanner interface {
	Scan(dest ...interface{}) error
}
