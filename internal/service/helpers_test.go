package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"praxismail/internal/models"
)

// AssertNoError checks that no error occurred
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Expected no error but got: %v", err)
	}
}

// AssertError checks if error matches expected
func AssertError(t *testing.T, err error, expected string) {
	t.Helper()
	if err == nil {
		t.Errorf("Expected error %q but got nil", expected)
		return
	}
	if err.Error() != expected {
		t.Errorf("Expected error %q but got %q", expected, err.Error())
	}
}

// AssertEqual checks if two values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("Expected %v but got %v", want, got)
	}
}

// AssertNotNil checks if value is not nil
func AssertNotNil(t *testing.T, value interface{}) {
	t.Helper()
	if value == nil {
		t.Error("Expected non-nil value but got nil")
	}
}

// AssertContains checks if string contains substring
func AssertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected %q to contain %q", haystack, needle)
	}
}

// NewTestCampaign creates a draft campaign with all fields populated
func NewTestCampaign() *models.Campaign {
	templateID := 1
	return &models.Campaign{
		ID:         1,
		Name:       "Frühlings-Newsletter",
		Subject:    "Neuigkeiten aus Ihrer Praxis-Software",
		TemplateID: &templateID,
		FromName:   "PraxisMail",
		FromEmail:  "newsletter@praxismail.ch",
		Status:     models.CampaignStatusDraft,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// NewTestCampaignWithStatus creates a campaign with the given status
func NewTestCampaignWithStatus(status models.CampaignStatus) *models.Campaign {
	campaign := NewTestCampaign()
	campaign.Status = status
	return campaign
}

// NewTestCampaigns creates multiple campaigns for pagination tests
func NewTestCampaigns(count int) []*models.Campaign {
	statuses := []models.CampaignStatus{
		models.CampaignStatusDraft,
		models.CampaignStatusScheduled,
		models.CampaignStatusSending,
		models.CampaignStatusCompleted,
	}

	campaigns := make([]*models.Campaign, count)
	for i := 0; i < count; i++ {
		campaign := NewTestCampaign()
		campaign.ID = i + 1
		campaign.Name = fmt.Sprintf("Kampagne %d", i+1)
		campaign.Status = statuses[i%len(statuses)]
		campaigns[i] = campaign
	}
	return campaigns
}

// NewTestRecipient creates a pending recipient with the given ID
func NewTestRecipient(id int) *models.Recipient {
	return &models.Recipient{
		ID:               id,
		CampaignID:       1,
		Email:            fmt.Sprintf("empfaenger%d@example.ch", id),
		Name:             fmt.Sprintf("Dr. Muster %d", id),
		Organization:     "Kantonsspital Zürich",
		OrganizationType: "hospital",
		Status:           models.RecipientStatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// NewTestRecipients creates count pending recipients with IDs 1..count
func NewTestRecipients(count int) []*models.Recipient {
	recipients := make([]*models.Recipient, count)
	for i := 0; i < count; i++ {
		recipients[i] = NewTestRecipient(i + 1)
	}
	return recipients
}

// NewTestTemplate creates an active template
func NewTestTemplate() *models.Template {
	return &models.Template{
		ID:        1,
		Handle:    "newsletter",
		Name:      "Newsletter",
		Subject:   "Neuigkeiten von PraxisMail",
		HTMLBody:  "<p>Guten Tag {{name}}</p>",
		TextBody:  "Guten Tag {{name}}",
		Variables: []string{"name"},
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestContact creates a directory contact with both addresses set
func NewTestContact(id int) *models.Contact {
	return &models.Contact{
		ID:               id,
		Organization:     fmt.Sprintf("Kantonsspital %d", id),
		OrganizationType: models.OrganizationTypeHospital,
		ContactPerson:    StringPtr(fmt.Sprintf("Dr. Beispiel %d", id)),
		Email:            StringPtr(fmt.Sprintf("kontakt%d@spital.ch", id)),
		ContactEmail:     StringPtr(fmt.Sprintf("info%d@spital.ch", id)),
		CreatedAt:        time.Now(),
	}
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}

// BoolPtr returns a pointer to the given bool
func BoolPtr(b bool) *bool {
	return &b
}

// TimePtr returns a pointer to the given time
func TimePtr(t time.Time) *time.Time {
	return &t
}
