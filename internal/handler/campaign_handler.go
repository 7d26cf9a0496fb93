package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"praxismail/internal/models"
	"praxismail/internal/repository"
	"praxismail/internal/service"

	"github.com/gorilla/mux"
)

// CampaignHandler handles HTTP requests for campaign operations
type CampaignHandler struct {
	campaignService *service.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
	}
}

// campaignID extracts and validates the {id} path variable. On failure
// it writes the error response and returns false.
func campaignID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		WriteValidationError(w, "invalid campaign ID format")
		return 0, false
	}
	if id <= 0 {
		WriteValidationError(w, "campaign ID must be greater than 0")
		return 0, false
	}
	return id, true
}

// decodeBody parses a JSON request body into dst. On failure it writes
// the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return false
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return false
	}
	return true
}

// Create handles POST /api/campaigns - creates a new draft campaign
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	campaign, err := h.campaignService.CreateCampaign(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, campaign)
}

// List handles GET /api/campaigns - lists campaigns with filters
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	perPage := 20
	if perPageStr := query.Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 {
			perPage = pp
		}
	}
	if perPage > 100 {
		perPage = 100
	}

	filters := repository.CampaignFilters{
		Page:     page,
		PageSize: perPage,
	}

	if statusStr := query.Get("status"); statusStr != "" {
		validStatuses := map[string]models.CampaignStatus{
			"draft":     models.CampaignStatusDraft,
			"scheduled": models.CampaignStatusScheduled,
			"sending":   models.CampaignStatusSending,
			"completed": models.CampaignStatusCompleted,
			"failed":    models.CampaignStatusFailed,
		}
		status, ok := validStatuses[statusStr]
		if !ok {
			WriteValidationError(w, "invalid status: must be one of draft, scheduled, sending, completed, failed")
			return
		}
		filters.Status = &status
	}

	campaigns, pagination, err := h.campaignService.ListCampaigns(r.Context(), filters)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, ListCampaignsResponse{
		Campaigns:  campaigns,
		Pagination: pagination,
	})
}

// GetByID handles GET /api/campaigns/{id} - returns a campaign with its
// recipient breakdown
func (h *CampaignHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetCampaignWithStats(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Update handles PUT /api/campaigns/{id} - edits a draft or scheduled campaign
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req service.UpdateCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	campaign, err := h.campaignService.UpdateCampaign(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Delete handles DELETE /api/campaigns/{id} - removes a draft campaign
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	if err := h.campaignService.DeleteCampaign(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Send handles POST /api/campaigns/{id}/send - starts sending now
func (h *CampaignHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	result, err := h.campaignService.SendCampaign(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// Schedule handles POST /api/campaigns/{id}/schedule - arms a future send
func (h *CampaignHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req service.ScheduleCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.ScheduledAt.IsZero() {
		WriteValidationError(w, "scheduled_at is required")
		return
	}

	campaign, err := h.campaignService.ScheduleCampaign(r.Context(), id, req.ScheduledAt)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Cancel handles POST /api/campaigns/{id}/cancel - returns a scheduled
// or sending campaign to draft
func (h *CampaignHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaignService.CancelCampaign(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// ImportRecipients handles POST /api/campaigns/{id}/recipients - attaches
// contacts to a campaign
func (h *CampaignHandler) ImportRecipients(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req service.ImportRecipientsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.campaignService.ImportRecipients(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// ListRecipients handles GET /api/campaigns/{id}/recipients
func (h *CampaignHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	page := 1
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	perPage := 50
	if perPageStr := query.Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 {
			perPage = pp
		}
	}
	if perPage > 500 {
		perPage = 500
	}

	filters := repository.RecipientFilters{
		Page:     page,
		PageSize: perPage,
	}

	if statusStr := query.Get("status"); statusStr != "" {
		validStatuses := map[string]models.RecipientStatus{
			"pending":      models.RecipientStatusPending,
			"queued":       models.RecipientStatusQueued,
			"sent":         models.RecipientStatusSent,
			"delivered":    models.RecipientStatusDelivered,
			"opened":       models.RecipientStatusOpened,
			"clicked":      models.RecipientStatusClicked,
			"bounced":      models.RecipientStatusBounced,
			"failed":       models.RecipientStatusFailed,
			"unsubscribed": models.RecipientStatusUnsubscribed,
		}
		status, ok := validStatuses[statusStr]
		if !ok {
			WriteValidationError(w, "invalid recipient status filter")
			return
		}
		filters.Status = &status
	}

	recipients, pagination, err := h.campaignService.ListRecipients(r.Context(), id, filters)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, ListRecipientsResponse{
		Recipients: recipients,
		Pagination: pagination,
	})
}

// Export handles GET /api/campaigns/{id}/export - downloads the
// recipient list as CSV
func (h *CampaignHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	// Buffered so an export error can still become a JSON error response
	var buf bytes.Buffer
	if err := h.campaignService.ExportRecipientsCSV(r.Context(), id, &buf); err != nil {
		HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=campaign_%d_recipients.csv", id))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Analytics handles GET /api/campaigns/{id}/analytics
func (h *CampaignHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	result, err := h.campaignService.CampaignAnalytics(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// Request/Response types

// ListCampaignsResponse represents the response for listing campaigns
type ListCampaignsResponse struct {
	Campaigns  []*models.Campaign      `json:"campaigns"`
	Pagination *service.PaginationInfo `json:"pagination"`
}

// ListRecipientsResponse represents the response for listing recipients
type ListRecipientsResponse struct {
	Recipients []*models.Recipient     `json:"recipients"`
	Pagination *service.PaginationInfo `json:"pagination"`
}
