package handler

import (
	"github.com/gorilla/mux"

	"praxismail/internal/metrics"
	"praxismail/internal/middleware"
)

// RouterDeps bundles the handlers the HTTP surface is built from
type RouterDeps struct {
	Campaigns *CampaignHandler
	Templates *TemplateHandler
	Webhooks  *WebhookHandler
	Public    *PublicHandler
	Health    *HealthHandler
	Metrics   *metrics.Metrics
}

// NewRouter builds the full route table for the API server
func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	// Admin API
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/campaigns", deps.Campaigns.Create).Methods("POST")
	api.HandleFunc("/campaigns", deps.Campaigns.List).Methods("GET")
	api.HandleFunc("/campaigns/{id}", deps.Campaigns.GetByID).Methods("GET")
	api.HandleFunc("/campaigns/{id}", deps.Campaigns.Update).Methods("PUT")
	api.HandleFunc("/campaigns/{id}", deps.Campaigns.Delete).Methods("DELETE")
	api.HandleFunc("/campaigns/{id}/send", deps.Campaigns.Send).Methods("POST")
	api.HandleFunc("/campaigns/{id}/schedule", deps.Campaigns.Schedule).Methods("POST")
	api.HandleFunc("/campaigns/{id}/cancel", deps.Campaigns.Cancel).Methods("POST")
	api.HandleFunc("/campaigns/{id}/recipients", deps.Campaigns.ImportRecipients).Methods("POST")
	api.HandleFunc("/campaigns/{id}/recipients", deps.Campaigns.ListRecipients).Methods("GET")
	api.HandleFunc("/campaigns/{id}/export", deps.Campaigns.Export).Methods("GET")
	api.HandleFunc("/campaigns/{id}/analytics", deps.Campaigns.Analytics).Methods("GET")

	api.HandleFunc("/templates", deps.Templates.Create).Methods("POST")
	api.HandleFunc("/templates", deps.Templates.List).Methods("GET")
	api.HandleFunc("/templates/{id}", deps.Templates.Get).Methods("GET")
	api.HandleFunc("/templates/{id}", deps.Templates.Update).Methods("PUT")
	api.HandleFunc("/templates/{id}", deps.Templates.Delete).Methods("DELETE")
	api.HandleFunc("/templates/{id}/preview", deps.Templates.Preview).Methods("POST")

	// Provider callbacks and recipient-facing pages
	router.HandleFunc("/webhooks/postmark", deps.Webhooks.HandlePostmark).Methods("POST")
	router.HandleFunc("/unsubscribe", deps.Public.Unsubscribe).Methods("GET")

	// Operational endpoints
	router.HandleFunc("/health", deps.Health.HandleHealth).Methods("GET")
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	return router
}
