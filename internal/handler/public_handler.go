package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"praxismail/internal/service"
)

// PublicHandler serves the pages linked from the emails themselves.
// These render HTML for recipients, not JSON for the admin UI.
type PublicHandler struct {
	trackingService *service.TrackingService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(trackingService *service.TrackingService) *PublicHandler {
	return &PublicHandler{
		trackingService: trackingService,
	}
}

var unsubscribePage = template.Must(template.New("unsubscribe").Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; background: #f5f6f8; margin: 0; }
  .card { max-width: 28rem; margin: 10vh auto; background: #fff; border-radius: 8px; padding: 2rem; box-shadow: 0 1px 4px rgba(0,0,0,.08); }
  h1 { font-size: 1.25rem; margin: 0 0 .75rem; }
  p { color: #444; line-height: 1.5; margin: 0; }
</style>
</head>
<body>
<div class="card">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</div>
</body>
</html>
`))

type unsubscribePageData struct {
	Title   string
	Message string
}

// Unsubscribe handles GET /unsubscribe?token=... A valid link opts the
// recipient out immediately and shows a confirmation page.
func (h *PublicHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.renderPage(w, http.StatusBadRequest, unsubscribePageData{
			Title:   "Ungültiger Link",
			Message: "Dieser Abmeldelink ist unvollständig. Bitte verwenden Sie den Link aus Ihrer E-Mail.",
		})
		return
	}

	result, err := h.trackingService.Unsubscribe(r.Context(), token)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			h.renderPage(w, http.StatusBadRequest, unsubscribePageData{
				Title:   "Ungültiger Link",
				Message: "Dieser Abmeldelink ist ungültig oder abgelaufen.",
			})
			return
		}
		log.Printf("ERROR: Unsubscribe failed: %v", err)
		h.renderPage(w, http.StatusInternalServerError, unsubscribePageData{
			Title:   "Etwas ist schiefgelaufen",
			Message: "Die Abmeldung konnte nicht verarbeitet werden. Bitte versuchen Sie es später erneut.",
		})
		return
	}

	if result.AlreadyDone {
		h.renderPage(w, http.StatusOK, unsubscribePageData{
			Title:   "Bereits abgemeldet",
			Message: fmt.Sprintf("Die Adresse %s wurde bereits abgemeldet.", result.Email),
		})
		return
	}

	h.renderPage(w, http.StatusOK, unsubscribePageData{
		Title:   "Abmeldung bestätigt",
		Message: fmt.Sprintf("Die Adresse %s erhält keine weiteren Mitteilungen von uns.", result.Email),
	})
}

func (h *PublicHandler) renderPage(w http.ResponseWriter, status int, data unsubscribePageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := unsubscribePage.Execute(w, data); err != nil {
		log.Printf("ERROR: Failed to render unsubscribe page: %v", err)
	}
}
