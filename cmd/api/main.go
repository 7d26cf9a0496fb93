package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"praxismail/internal/config"
	"praxismail/internal/handler"
	"praxismail/internal/metrics"
	"praxismail/internal/queue"
	"praxismail/internal/repository"
	"praxismail/internal/service"
)

const version = "1.0.0"

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Connected to database")

	conn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()

	publisher, err := queue.NewPublisher(conn, queue.DispatchQueue)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	m := metrics.New()

	campaignRepo := repository.NewCampaignRepository(db)
	contactRepo := repository.NewContactRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	eventRepo := repository.NewTrackingEventRepository(db)

	templateSvc := service.NewTemplateService(templateRepo)
	campaignSvc := service.NewCampaignService(campaignRepo, contactRepo, recipientRepo, templateRepo, eventRepo, publisher)
	trackingSvc := service.NewTrackingService(campaignRepo, recipientRepo, eventRepo, m)
	healthSvc := service.NewHealthService(db, cfg.GetRabbitMQURL(), cfg.Postmark.Sandbox, cfg.Postmark.ServerToken, version)
	log.Println("✅ Services initialized")

	if cfg.Postmark.WebhookSecret == "" {
		log.Println("⚠️  POSTMARK_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}
	if cfg.Postmark.Sandbox {
		log.Println("📪 Sandbox mode: sends are accepted locally, nothing reaches the provider")
	}

	router := handler.NewRouter(handler.RouterDeps{
		Campaigns: handler.NewCampaignHandler(campaignSvc),
		Templates: handler.NewTemplateHandler(templateSvc),
		Webhooks:  handler.NewWebhookHandler(trackingSvc, cfg.Postmark.WebhookSecret, m),
		Public:    handler.NewPublicHandler(trackingSvc),
		Health:    handler.NewHealthHandler(healthSvc),
		Metrics:   m,
	})

	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 API Server starting on port %s", addr)
		log.Printf("📍 Health check: http://localhost%s/health", addr)
		log.Printf("🌍 Environment: %s", cfg.Env)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("✅ API Server stopped")
}
