package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"praxismail/internal/repository"
)

const exportTimeLayout = "02.01.2006 15:04"

var exportHeader = []string{
	"email", "name", "organization", "organization_type",
	"status", "sent_at", "opened_at", "clicked_at",
}

// ExportRecipientsCSV streams the full recipient list of a campaign as
// CSV, in import order. Every field is double-quoted; timestamps use
// dd.mm.yyyy hh:mm and stay empty until the event happened.
func (s *CampaignService) ExportRecipientsCSV(ctx context.Context, campaignID int, w io.Writer) error {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "campaign", ID: campaignID}
		}
		return fmt.Errorf("failed to get campaign: %w", err)
	}

	recipients, err := s.recipientRepo.ListForExport(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}

	if err := writeCSVRow(w, exportHeader); err != nil {
		return err
	}

	for _, recipient := range recipients {
		row := []string{
			recipient.Email,
			recipient.Name,
			recipient.Organization,
			recipient.OrganizationType,
			string(recipient.Status),
			formatExportTime(recipient.SentAt),
			formatExportTime(recipient.OpenedAt),
			formatExportTime(recipient.ClickedAt),
		}
		if err := writeCSVRow(w, row); err != nil {
			return err
		}
	}

	return nil
}

func writeCSVRow(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write export row: %w", err)
	}
	return nil
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeLayout)
}
