package repository

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"praxismail/internal/models"
)

// NewMockDB creates a mock database for testing
func NewMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	return db, mock
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
}

// AssertEqual checks if two values are equal
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("Expected %v but got %v", want, got)
	}
}

// AssertExpectationsMet fails the test if any mock expectation was not used
func AssertExpectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

// campaignRows returns an empty result set with the campaign columns
func campaignRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "subject", "template_id", "from_name", "from_email", "reply_to", "status",
		"scheduled_at", "completed_at", "total_recipients", "sent_count", "opened_count",
		"clicked_count", "bounced_count", "created_at", "updated_at",
	})
}

// addCampaignRow appends a campaign with the given id and status
func addCampaignRow(rows *sqlmock.Rows, id int, status models.CampaignStatus) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, fmt.Sprintf("Kampagne %d", id), "Neuigkeiten aus Ihrer Praxis-Software", nil,
		"PraxisMail", "newsletter@praxismail.ch", nil, status,
		nil, nil, 0, 0, 0, 0, 0, now, now,
	)
}

// recipientRows returns an empty result set with the recipient columns
func recipientRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "campaign_id", "email", "name", "organization", "organization_type", "custom_data",
		"status", "message_id", "last_error", "sent_at", "opened_at", "clicked_at", "bounced_at",
		"created_at", "updated_at",
	})
}

// addRecipientRow appends a pending recipient with the given id
func addRecipientRow(rows *sqlmock.Rows, id int, customData []byte) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, 1, fmt.Sprintf("empfaenger%d@example.ch", id), fmt.Sprintf("Dr. Muster %d", id),
		"Kantonsspital Zürich", "hospital", customData,
		"pending", nil, nil, nil, nil, nil, nil, now, now,
	)
}

// templateRows returns an empty result set with the template columns
func templateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "handle", "name", "subject", "html_body", "text_body", "preheader", "variables",
		"active", "created_at", "updated_at",
	})
}

// contactRows returns an empty result set with the contact columns
func contactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "organization", "organization_type", "canton", "contact_person", "email",
		"contact_email", "phone", "website", "source", "created_at",
	})
}

// addContactRow appends a hospital contact with the given id
func addContactRow(rows *sqlmock.Rows, id int) *sqlmock.Rows {
	return rows.AddRow(
		id, fmt.Sprintf("Kantonsspital %d", id), "hospital", "ZH", fmt.Sprintf("Dr. Beispiel %d", id),
		fmt.Sprintf("kontakt%d@spital.ch", id), nil, nil, nil, "import", time.Now(),
	)
}
