package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"praxismail/internal/models"
	"praxismail/internal/repository"
)

// TemplateService handles template management and rendering
type TemplateService struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateService creates a new template service
func NewTemplateService(templateRepo repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes {{key}} tokens with their values. Plain substring
// replacement: no conditionals, no loops, no escaping. Tokens without a
// value stay in the text unchanged.
func (s *TemplateService) Render(content string, vars map[string]string) string {
	if content == "" || len(vars) == 0 {
		return content
	}

	rendered := content
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{{"+key+"}}", value)
	}
	return rendered
}

// ExtractTokens returns the distinct token names used in a template, in
// order of first appearance
func (s *TemplateService) ExtractTokens(content string) []string {
	seen := map[string]bool{}
	tokens := []string{}
	for _, match := range tokenPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			tokens = append(tokens, name)
		}
	}
	return tokens
}

// CreateTemplate creates a new template. When no variable list is given,
// the tokens found in the content document it.
func (s *TemplateService) CreateTemplate(ctx context.Context, req *CreateTemplateRequest) (*models.Template, error) {
	template := &models.Template{
		Handle:    req.Handle,
		Name:      req.Name,
		Subject:   req.Subject,
		HTMLBody:  req.HTMLBody,
		TextBody:  req.TextBody,
		Preheader: req.Preheader,
		Variables: req.Variables,
		Active:    true,
	}
	if req.Active != nil {
		template.Active = *req.Active
	}

	if err := template.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if len(template.Variables) == 0 {
		template.Variables = s.ExtractTokens(template.Subject + " " + template.HTMLBody + " " + template.TextBody)
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Resource: "template", Message: fmt.Sprintf("handle %q is already taken", template.Handle)}
		}
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return template, nil
}

// GetTemplate retrieves a template by ID
func (s *TemplateService) GetTemplate(ctx context.Context, id int) (*models.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "template", ID: id}
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

// GetTemplateByHandle retrieves a template by its stable handle
func (s *TemplateService) GetTemplateByHandle(ctx context.Context, handle string) (*models.Template, error) {
	template, err := s.templateRepo.GetByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "template", Handle: handle}
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

// ListTemplates lists templates, optionally only active ones
func (s *TemplateService) ListTemplates(ctx context.Context, activeOnly bool) ([]*models.Template, error) {
	templates, err := s.templateRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate modifies a template
func (s *TemplateService) UpdateTemplate(ctx context.Context, id int, req *UpdateTemplateRequest) (*models.Template, error) {
	template, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Handle != nil {
		template.Handle = *req.Handle
	}
	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Subject != nil {
		template.Subject = *req.Subject
	}
	if req.HTMLBody != nil {
		template.HTMLBody = *req.HTMLBody
	}
	if req.TextBody != nil {
		template.TextBody = *req.TextBody
	}
	if req.Preheader != nil {
		template.Preheader = *req.Preheader
	}
	if req.Variables != nil {
		template.Variables = req.Variables
	}
	if req.Active != nil {
		template.Active = *req.Active
	}

	if err := template.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Resource: "template", Message: fmt.Sprintf("handle %q is already taken", template.Handle)}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Resource: "template", ID: id}
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return template, nil
}

// DeleteTemplate removes a template. Campaigns that referenced it lose
// the reference and fail their next send pre-flight.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id int) error {
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Resource: "template", ID: id}
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// PreviewTemplate renders a template against sample values, so content
// can be checked before any campaign goes out
func (s *TemplateService) PreviewTemplate(ctx context.Context, id int, vars map[string]string) (*TemplatePreview, error) {
	template, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if vars == nil {
		vars = map[string]string{}
	}
	fillSampleVariables(vars)

	return &TemplatePreview{
		TemplateID: template.ID,
		Handle:     template.Handle,
		Subject:    s.Render(template.Subject, vars),
		HTMLBody:   s.Render(template.HTMLBody, vars),
		TextBody:   s.Render(template.TextBody, vars),
		Variables:  template.Variables,
	}, nil
}

// fillSampleVariables adds placeholder values for the built-in tokens a
// preview caller did not supply
func fillSampleVariables(vars map[string]string) {
	defaults := map[string]string{
		"name":              "Dr. Erika Muster",
		"email":             "erika.muster@example.ch",
		"organization":      "Praxis Muster",
		"organization_type": string(models.OrganizationTypeGroupPractice),
		"unsubscribe_url":   "https://example.ch/unsubscribe?token=preview",
	}
	for key, value := range defaults {
		if _, ok := vars[key]; !ok {
			vars[key] = value
		}
	}
}

// Request/Response types

// CreateTemplateRequest represents a request to create a template
type CreateTemplateRequest struct {
	Handle    string   `json:"handle"`
	Name      string   `json:"name"`
	Subject   string   `json:"subject"`
	HTMLBody  string   `json:"html_body"`
	TextBody  string   `json:"text_body"`
	Preheader string   `json:"preheader"`
	Variables []string `json:"variables,omitempty"`
	Active    *bool    `json:"active,omitempty"`
}

// UpdateTemplateRequest represents a partial template update
type UpdateTemplateRequest struct {
	Handle    *string  `json:"handle,omitempty"`
	Name      *string  `json:"name,omitempty"`
	Subject   *string  `json:"subject,omitempty"`
	HTMLBody  *string  `json:"html_body,omitempty"`
	TextBody  *string  `json:"text_body,omitempty"`
	Preheader *string  `json:"preheader,omitempty"`
	Variables []string `json:"variables,omitempty"`
	Active    *bool    `json:"active,omitempty"`
}

// TemplatePreview represents a template rendered with sample values
type TemplatePreview struct {
	TemplateID int      `json:"template_id"`
	Handle     string   `json:"handle"`
	Subject    string   `json:"subject"`
	HTMLBody   string   `json:"html_body"`
	TextBody   string   `json:"text_body"`
	Variables  []string `json:"variables"`
}
