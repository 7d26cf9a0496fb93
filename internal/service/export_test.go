package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"praxismail/internal/models"
	"praxismail/internal/repository"
)

// ==================== Recipient Export Tests ====================

// TestCampaignService_ExportRecipientsCSV tests the CSV download
func TestCampaignService_ExportRecipientsCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("WritesQuotedRows", func(t *testing.T) {
		svc, m := setupCampaignService()

		sentAt := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
		openedAt := time.Date(2026, 3, 5, 14, 5, 0, 0, time.UTC)
		m.recipients.ListForExportFunc = func(ctx context.Context, campaignID int) ([]*models.Recipient, error) {
			opened := NewTestRecipient(1)
			opened.Name = `Praxis "Am See"`
			opened.Status = models.RecipientStatusOpened
			opened.SentAt = &sentAt
			opened.OpenedAt = &openedAt

			pending := NewTestRecipient(2)
			return []*models.Recipient{opened, pending}, nil
		}

		var buf bytes.Buffer
		err := svc.ExportRecipientsCSV(ctx, 1, &buf)

		AssertNoError(t, err)

		lines := strings.Split(buf.String(), "\r\n")
		// Header, two recipients, trailing empty line from the final CRLF
		AssertEqual(t, len(lines), 4)
		AssertEqual(t, lines[0], `"email","name","organization","organization_type","status","sent_at","opened_at","clicked_at"`)
		AssertEqual(t, lines[1], `"empfaenger1@example.ch","Praxis ""Am See""","Kantonsspital Zürich","hospital","opened","05.03.2026 09:30","05.03.2026 14:05",""`)
		AssertEqual(t, lines[2], `"empfaenger2@example.ch","Dr. Muster 2","Kantonsspital Zürich","hospital","pending","","",""`)
		AssertEqual(t, lines[3], "")
	})

	t.Run("EmptyCampaignStillWritesHeader", func(t *testing.T) {
		svc, m := setupCampaignService()
		m.recipients.ListForExportFunc = func(ctx context.Context, campaignID int) ([]*models.Recipient, error) {
			return []*models.Recipient{}, nil
		}

		var buf bytes.Buffer
		err := svc.ExportRecipientsCSV(ctx, 1, &buf)

		AssertNoError(t, err)
		AssertEqual(t, buf.String(), `"email","name","organization","organization_type","status","sent_at","opened_at","clicked_at"`+"\r\n")
	})

	t.Run("UnknownCampaign", func(t *testing.T) {
		svc, m := setupCampaignService()
		m.campaigns.GetByIDFunc = func(ctx context.Context, id int) (*models.Campaign, error) {
			return nil, repository.ErrNotFound
		}

		var buf bytes.Buffer
		err := svc.ExportRecipientsCSV(ctx, 99, &buf)

		var notFoundErr *NotFoundError
		if !errors.As(err, &notFoundErr) {
			t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
		}
		AssertEqual(t, buf.Len(), 0)
		AssertEqual(t, m.recipients.Calls["ListForExport"], 0)
	})
}
