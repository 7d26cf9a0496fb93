package handler

import (
	"net/http"
	"strconv"

	"praxismail/internal/models"
	"praxismail/internal/service"

	"github.com/gorilla/mux"
)

// TemplateHandler handles HTTP requests for email templates
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

func templateID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		WriteValidationError(w, "invalid template ID format")
		return 0, false
	}
	if id <= 0 {
		WriteValidationError(w, "template ID must be greater than 0")
		return 0, false
	}
	return id, true
}

// Create handles POST /api/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	template, err := h.templateService.CreateTemplate(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, template)
}

// List handles GET /api/templates. With active=true only templates a
// campaign may still use are returned.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	templates, err := h.templateService.ListTemplates(r.Context(), activeOnly)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, ListTemplatesResponse{Templates: templates})
}

// Get handles GET /api/templates/{id}. A non-numeric segment is treated
// as a handle, so GET /api/templates/newsletter works too.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]

	id, err := strconv.Atoi(raw)
	if err != nil {
		template, err := h.templateService.GetTemplateByHandle(r.Context(), raw)
		if err != nil {
			HandleServiceError(w, err)
			return
		}
		WriteOK(w, template)
		return
	}

	if id <= 0 {
		WriteValidationError(w, "template ID must be greater than 0")
		return
	}

	template, err := h.templateService.GetTemplate(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, template)
}

// Update handles PUT /api/templates/{id}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	var req service.UpdateTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	template, err := h.templateService.UpdateTemplate(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, template)
}

// Delete handles DELETE /api/templates/{id}
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	if err := h.templateService.DeleteTemplate(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Preview handles POST /api/templates/{id}/preview - renders the
// template with the supplied variables, filling sample values for the
// rest
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := templateID(w, r)
	if !ok {
		return
	}

	// An empty body previews with sample values only
	var req PreviewTemplateRequest
	if r.ContentLength > 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	result, err := h.templateService.PreviewTemplate(r.Context(), id, req.Variables)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// Request/Response types

// PreviewTemplateRequest carries override values for a preview render
type PreviewTemplateRequest struct {
	Variables map[string]string `json:"variables,omitempty"`
}

// ListTemplatesResponse represents the response for listing templates
type ListTemplatesResponse struct {
	Templates []*models.Template `json:"templates"`
}
