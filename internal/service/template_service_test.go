package service

import (
	"context"
	"errors"
	"testing"

	"praxismail/internal/models"
	"praxismail/internal/repository"
)

// setupTemplateService wires a template service to a fresh mock
func setupTemplateService() (*TemplateService, *MockTemplateRepository) {
	templateRepo := NewMockTemplateRepository()
	return NewTemplateService(templateRepo), templateRepo
}

// ==================== Render Tests ====================

// TestTemplateService_Render tests token substitution
func TestTemplateService_Render(t *testing.T) {
	svc, _ := setupTemplateService()

	vars := map[string]string{
		"name":         "Dr. Muster",
		"organization": "Kantonsspital Zürich",
	}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "SingleToken",
			content: "Guten Tag {{name}}",
			want:    "Guten Tag Dr. Muster",
		},
		{
			name:    "RepeatedToken",
			content: "{{name}}, {{name}}",
			want:    "Dr. Muster, Dr. Muster",
		},
		{
			name:    "MultipleTokens",
			content: "{{name}} von {{organization}}",
			want:    "Dr. Muster von Kantonsspital Zürich",
		},
		{
			name:    "UnknownTokenLeftAlone",
			content: "Hallo {{vorname}}",
			want:    "Hallo {{vorname}}",
		},
		{
			name:    "SpacedTokenNotSubstituted",
			content: "Hallo {{ name }}",
			want:    "Hallo {{ name }}",
		},
		{
			name:    "NoTokens",
			content: "Kein Platzhalter hier",
			want:    "Kein Platzhalter hier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			AssertEqual(t, svc.Render(tt.content, vars), tt.want)
		})
	}

	t.Run("EmptyVars", func(t *testing.T) {
		AssertEqual(t, svc.Render("Hallo {{name}}", nil), "Hallo {{name}}")
	})
}

// TestTemplateService_ExtractTokens tests token discovery
func TestTemplateService_ExtractTokens(t *testing.T) {
	svc, _ := setupTemplateService()

	t.Run("DedupesInFirstAppearanceOrder", func(t *testing.T) {
		tokens := svc.ExtractTokens("{{name}} und {{organization}} und nochmal {{name}}")

		AssertEqual(t, len(tokens), 2)
		AssertEqual(t, tokens[0], "name")
		AssertEqual(t, tokens[1], "organization")
	})

	t.Run("AcceptsSpacedTokens", func(t *testing.T) {
		tokens := svc.ExtractTokens("{{ unsubscribe_url }}")

		AssertEqual(t, len(tokens), 1)
		AssertEqual(t, tokens[0], "unsubscribe_url")
	})

	t.Run("EmptyContent", func(t *testing.T) {
		AssertEqual(t, len(svc.ExtractTokens("")), 0)
	})
}

// ==================== CRUD Tests ====================

// TestTemplateService_CreateTemplate tests template creation
func TestTemplateService_CreateTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("FillsVariablesFromContent", func(t *testing.T) {
		svc, _ := setupTemplateService()

		template, err := svc.CreateTemplate(ctx, &CreateTemplateRequest{
			Handle:   "produkt-update",
			Name:     "Produkt-Update",
			Subject:  "Update für {{organization}}",
			HTMLBody: "<p>Hallo {{name}}</p><p><a href=\"{{unsubscribe_url}}\">Abmelden</a></p>",
		})

		AssertNoError(t, err)
		AssertEqual(t, len(template.Variables), 3)
		AssertEqual(t, template.Variables[0], "organization")
		AssertEqual(t, template.Variables[1], "name")
		AssertEqual(t, template.Variables[2], "unsubscribe_url")
		AssertEqual(t, template.Active, true)
	})

	t.Run("KeepsExplicitVariables", func(t *testing.T) {
		svc, _ := setupTemplateService()

		template, err := svc.CreateTemplate(ctx, &CreateTemplateRequest{
			Handle:    "newsletter",
			Name:      "Newsletter",
			Subject:   "Betreff",
			TextBody:  "Hallo {{name}}",
			Variables: []string{"name", "anrede"},
		})

		AssertNoError(t, err)
		AssertEqual(t, len(template.Variables), 2)
		AssertEqual(t, template.Variables[1], "anrede")
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()

		_, err := svc.CreateTemplate(ctx, &CreateTemplateRequest{
			Handle:   "Mein Newsletter",
			Name:     "Newsletter",
			Subject:  "Betreff",
			TextBody: "Text",
		})

		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected ValidationError, got %T: %v", err, err)
		}
		AssertEqual(t, templateRepo.Calls["Create"], 0)
	})

	t.Run("DuplicateHandle", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.CreateFunc = func(ctx context.Context, template *models.Template) error {
			return repository.ErrDuplicate
		}

		_, err := svc.CreateTemplate(ctx, &CreateTemplateRequest{
			Handle:   "newsletter",
			Name:     "Newsletter",
			Subject:  "Betreff",
			TextBody: "Text",
		})

		var conflictErr *ConflictError
		if !errors.As(err, &conflictErr) {
			t.Fatalf("Expected ConflictError, got %T: %v", err, err)
		}
		AssertContains(t, err.Error(), "newsletter")
	})
}

// TestTemplateService_GetTemplateByHandle tests the stable-handle lookup
func TestTemplateService_GetTemplateByHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.GetByHandleFunc = func(ctx context.Context, handle string) (*models.Template, error) {
			AssertEqual(t, handle, "newsletter")
			return NewTestTemplate(), nil
		}

		template, err := svc.GetTemplateByHandle(ctx, "newsletter")

		AssertNoError(t, err)
		AssertEqual(t, template.Handle, "newsletter")
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.GetByHandleFunc = func(ctx context.Context, handle string) (*models.Template, error) {
			return nil, repository.ErrNotFound
		}

		_, err := svc.GetTemplateByHandle(ctx, "fehlt")

		var notFoundErr *NotFoundError
		if !errors.As(err, &notFoundErr) {
			t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
		}
		AssertEqual(t, err.Error(), `template with handle "fehlt" not found`)
	})
}

// TestTemplateService_UpdateTemplate tests template updates
func TestTemplateService_UpdateTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("AppliesPartialUpdate", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()

		var updated *models.Template
		templateRepo.UpdateFunc = func(ctx context.Context, template *models.Template) error {
			updated = template
			return nil
		}

		template, err := svc.UpdateTemplate(ctx, 1, &UpdateTemplateRequest{
			HTMLBody: StringPtr("<p>Neuer Inhalt {{name}}</p>"),
			Active:   BoolPtr(false),
		})

		AssertNoError(t, err)
		AssertEqual(t, template.HTMLBody, "<p>Neuer Inhalt {{name}}</p>")
		AssertEqual(t, template.Active, false)
		// Untouched fields keep their loaded values
		AssertEqual(t, template.Handle, "newsletter")
		AssertNotNil(t, updated)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.GetByIDFunc = func(ctx context.Context, id int) (*models.Template, error) {
			return nil, repository.ErrNotFound
		}

		_, err := svc.UpdateTemplate(ctx, 7, &UpdateTemplateRequest{Name: StringPtr("Neu")})

		AssertError(t, err, "template with ID 7 not found")
	})

	t.Run("HandleConflict", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.UpdateFunc = func(ctx context.Context, template *models.Template) error {
			return repository.ErrDuplicate
		}

		_, err := svc.UpdateTemplate(ctx, 1, &UpdateTemplateRequest{Handle: StringPtr("produkt-update")})

		var conflictErr *ConflictError
		if !errors.As(err, &conflictErr) {
			t.Fatalf("Expected ConflictError, got %T: %v", err, err)
		}
	})
}

// TestTemplateService_DeleteTemplate tests template deletion
func TestTemplateService_DeleteTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()

		AssertNoError(t, svc.DeleteTemplate(ctx, 1))
		AssertEqual(t, templateRepo.Calls["Delete"], 1)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.DeleteFunc = func(ctx context.Context, id int) error {
			return repository.ErrNotFound
		}

		err := svc.DeleteTemplate(ctx, 7)

		AssertError(t, err, "template with ID 7 not found")
	})
}

// ==================== Preview Tests ====================

// TestTemplateService_PreviewTemplate tests rendering against sample values
func TestTemplateService_PreviewTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("FillsSampleValues", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.GetByIDFunc = func(ctx context.Context, id int) (*models.Template, error) {
			template := NewTestTemplate()
			template.Subject = "Für {{organization}}"
			template.TextBody = "Guten Tag {{name}}"
			return template, nil
		}

		preview, err := svc.PreviewTemplate(ctx, 1, nil)

		AssertNoError(t, err)
		AssertEqual(t, preview.Subject, "Für Praxis Muster")
		AssertEqual(t, preview.TextBody, "Guten Tag Dr. Erika Muster")
		AssertEqual(t, preview.Handle, "newsletter")
	})

	t.Run("CallerValuesWin", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.GetByIDFunc = func(ctx context.Context, id int) (*models.Template, error) {
			template := NewTestTemplate()
			template.TextBody = "Guten Tag {{name}} von {{organization}}"
			return template, nil
		}

		preview, err := svc.PreviewTemplate(ctx, 1, map[string]string{"name": "Dr. Eigene"})

		AssertNoError(t, err)
		// Supplied values stay, missing ones get samples
		AssertEqual(t, preview.TextBody, "Guten Tag Dr. Eigene von Praxis Muster")
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, templateRepo := setupTemplateService()
		templateRepo.GetByIDFunc = func(ctx context.Context, id int) (*models.Template, error) {
			return nil, repository.ErrNotFound
		}

		_, err := svc.PreviewTemplate(ctx, 9, nil)

		AssertError(t, err, "template with ID 9 not found")
	})
}
