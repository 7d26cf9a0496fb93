package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"praxismail/internal/models"
)

// ==================== Campaign Repository Tests ====================

// TestCampaignRepository_Create tests campaign insertion
func TestCampaignRepository_Create(t *testing.T) {
	db, mock := NewMockDB(t)
	defer db.Close()
	repo := NewCampaignRepository(db)

	templateID := 3
	campaign := &models.Campaign{
		Name:       "Frühlings-Newsletter",
		Subject:    "Neuigkeiten aus Ihrer Praxis-Software",
		TemplateID: &templateID,
		FromName:   "PraxisMail",
		FromEmail:  "newsletter@praxismail.ch",
		Status:     models.CampaignStatusDraft,
	}

	now := time.Now()
	mock.ExpectQuery("INSERT INTO campaigns").
		WithArgs("Frühlings-Newsletter", "Neuigkeiten aus Ihrer Praxis-Software", 3,
			"PraxisMail", "newsletter@praxismail.ch", nil, "draft", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(1, now, now))

	err := repo.Create(context.Background(), campaign)

	AssertNoError(t, err)
	AssertEqual(t, campaign.ID, 1)
	AssertEqual(t, campaign.CreatedAt, now)
	AssertExpectationsMet(t, mock)
}

// TestCampaignRepository_GetByID tests single campaign lookup
func TestCampaignRepository_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
			WithArgs(1).
			WillReturnRows(addCampaignRow(campaignRows(), 1, models.CampaignStatusDraft))

		campaign, err := repo.GetByID(context.Background(), 1)

		AssertNoError(t, err)
		AssertEqual(t, campaign.ID, 1)
		AssertEqual(t, campaign.Name, "Kampagne 1")
		AssertEqual(t, campaign.Status, models.CampaignStatusDraft)
		if campaign.TemplateID != nil {
			t.Errorf("Expected nil template id, got %v", *campaign.TemplateID)
		}
		AssertExpectationsMet(t, mock)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
			WithArgs(99).
			WillReturnRows(campaignRows())

		_, err := repo.GetByID(context.Background(), 99)

		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		AssertExpectationsMet(t, mock)
	})
}

// TestCampaignRepository_GetWithStats tests the campaign plus its live breakdown
func TestCampaignRepository_GetWithStats(t *testing.T) {
	db, mock := NewMockDB(t)
	defer db.Close()
	repo := NewCampaignRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE id").
		WithArgs(1).
		WillReturnRows(addCampaignRow(campaignRows(), 1, models.CampaignStatusSending))

	statsRows := sqlmock.NewRows([]string{
		"total", "pending", "queued", "sent", "delivered", "opened", "clicked",
		"bounced", "failed", "unsubscribed",
	}).AddRow(10, 2, 0, 1, 3, 2, 1, 1, 0, 0)
	mock.ExpectQuery("SELECT (.+) FROM campaign_recipients WHERE campaign_id").
		WithArgs(1).
		WillReturnRows(statsRows)

	withStats, err := repo.GetWithStats(context.Background(), 1)

	AssertNoError(t, err)
	AssertEqual(t, withStats.ID, 1)
	AssertEqual(t, withStats.Stats.Total, 10)
	AssertEqual(t, withStats.Stats.Delivered, 3)
	AssertEqual(t, withStats.Stats.Bounced, 1)
	AssertExpectationsMet(t, mock)
}

// TestCampaignRepository_List tests filtered listing with pagination
func TestCampaignRepository_List(t *testing.T) {
	db, mock := NewMockDB(t)
	defer db.Close()
	repo := NewCampaignRepository(db)

	rows := campaignRows()
	addCampaignRow(rows, 2, models.CampaignStatusDraft)
	addCampaignRow(rows, 1, models.CampaignStatusDraft)
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE").
		WithArgs("draft", 20, 0).
		WillReturnRows(rows)

	mock.ExpectQuery("SELECT COUNT(.+) FROM campaigns WHERE").
		WithArgs("draft").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	status := models.CampaignStatusDraft
	campaigns, total, err := repo.List(context.Background(), CampaignFilters{Status: &status, Page: 1})

	AssertNoError(t, err)
	AssertEqual(t, len(campaigns), 2)
	AssertEqual(t, campaigns[0].ID, 2)
	AssertEqual(t, total, 2)
	AssertExpectationsMet(t, mock)
}

// TestCampaignRepository_ListDue tests the scheduled campaign sweep query
func TestCampaignRepository_ListDue(t *testing.T) {
	db, mock := NewMockDB(t)
	defer db.Close()
	repo := NewCampaignRepository(db)

	now := time.Now()
	rows := campaignRows()
	addCampaignRow(rows, 4, models.CampaignStatusScheduled)
	addCampaignRow(rows, 7, models.CampaignStatusScheduled)
	mock.ExpectQuery("SELECT (.+) FROM campaigns WHERE status = 'scheduled'").
		WithArgs(now).
		WillReturnRows(rows)

	campaigns, err := repo.ListDue(context.Background(), now)

	AssertNoError(t, err)
	AssertEqual(t, len(campaigns), 2)
	AssertEqual(t, campaigns[0].ID, 4)
	AssertExpectationsMet(t, mock)
}

// TestCampaignRepository_Update tests that only editable campaigns match
func TestCampaignRepository_Update(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		mock.ExpectExec("UPDATE campaigns").
			WithArgs("Neuer Name", "Neuer Betreff", nil, "PraxisMail", "newsletter@praxismail.ch", nil, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(context.Background(), &models.Campaign{
			ID:        1,
			Name:      "Neuer Name",
			Subject:   "Neuer Betreff",
			FromName:  "PraxisMail",
			FromEmail: "newsletter@praxismail.ch",
		})

		AssertNoError(t, err)
		AssertExpectationsMet(t, mock)
	})

	t.Run("NotEditable", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		mock.ExpectExec("UPDATE campaigns").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), &models.Campaign{
			ID:        1,
			Name:      "Neuer Name",
			Subject:   "Neuer Betreff",
			FromEmail: "newsletter@praxismail.ch",
		})

		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		AssertExpectationsMet(t, mock)
	})
}

// TestCampaignRepository_UpdateStatusFrom tests the guarded status transition
func TestCampaignRepository_UpdateStatusFrom(t *testing.T) {
	t.Run("WinsTransition", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		mock.ExpectExec("UPDATE campaigns SET status").
			WithArgs("sending", 1, "draft").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatusFrom(context.Background(), 1, models.CampaignStatusDraft, models.CampaignStatusSending)

		AssertNoError(t, err)
		AssertExpectationsMet(t, mock)
	})

	t.Run("LosesRace", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		// Another caller moved the campaign first, so the guard matches nothing
		mock.ExpectExec("UPDATE campaigns SET status").
			WithArgs("sending", 1, "scheduled").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatusFrom(context.Background(), 1, models.CampaignStatusScheduled, models.CampaignStatusSending)

		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		AssertExpectationsMet(t, mock)
	})
}

// TestCampaignRepository_Schedule tests scheduling a draft
func TestCampaignRepository_Schedule(t *testing.T) {
	db, mock := NewMockDB(t)
	defer db.Close()
	repo := NewCampaignRepository(db)

	at := time.Now().Add(2 * time.Hour)
	mock.ExpectExec("UPDATE campaigns").
		WithArgs(at, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Schedule(context.Background(), 1, at)

	AssertNoError(t, err)
	AssertExpectationsMet(t, mock)
}

// TestCampaignRepository_Cancel tests returning a campaign to draft
func TestCampaignRepository_Cancel(t *testing.T) {
	db, mock := NewMockDB(t)
	defer db.Close()
	repo := NewCampaignRepository(db)

	mock.ExpectExec("UPDATE campaigns").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Cancel(context.Background(), 1)

	AssertNoError(t, err)
	AssertExpectationsMet(t, mock)
}

// TestCampaignRepository_Complete tests finishing a sending campaign
func TestCampaignRepository_Complete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		mock.ExpectExec("UPDATE campaigns").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Complete(context.Background(), 1)

		AssertNoError(t, err)
		AssertExpectationsMet(t, mock)
	})

	t.Run("NoLongerSending", func(t *testing.T) {
		db, mock := NewMockDB(t)
		defer db.Close()
		repo := NewCampaignRepository(db)

		mock.ExpectExec("UPDATE campaigns").
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Complete(context.Background(), 1)

		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		AssertExpectationsMet(t, mock)
	})
}

// TestCampaignRepository_Delete tests that only drafts can be deleted
func TestCampaignRepository_Delete(t *testing.T) {
	db, mock := NewMockDB(t)
	defer db.Close()
	repo := NewCampaignRepository(db)

	mock.ExpectExec("DELETE FROM campaigns").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 1)

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	AssertExpectationsMet(t, mock)
}
