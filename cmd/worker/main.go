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
	"github.com/robfig/cron/v3"

	"praxismail/internal/config"
	"praxismail/internal/metrics"
	"praxismail/internal/postmark"
	"praxismail/internal/queue"
	"praxismail/internal/repository"
	"praxismail/internal/service"
)

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

	var transport postmark.Transport
	if cfg.Postmark.Sandbox {
		transport = postmark.NewSandboxClient()
		log.Println("📪 Sandbox mode: sends are accepted locally, nothing reaches the provider")
	} else {
		transport = postmark.NewClient(cfg.Postmark.BaseURL, cfg.Postmark.ServerToken)
	}

	m := metrics.New()

	campaignRepo := repository.NewCampaignRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	templateSvc := service.NewTemplateService(templateRepo)
	sendSvc := service.NewSendService(
		campaignRepo,
		recipientRepo,
		templateRepo,
		templateSvc,
		transport,
		m,
		cfg.Send.BatchSize,
		cfg.Send.BatchDelay,
		cfg.Server.PublicBaseURL,
	)
	log.Println("✅ Services initialized")

	conn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()

	publisher, err := queue.NewPublisher(conn, queue.DispatchQueue)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	consumer, err := queue.NewConsumer(conn, queue.DispatchQueue, func(ctx context.Context, job *queue.DispatchJob) error {
		return sendSvc.Run(ctx, job.CampaignID)
	})
	if err != nil {
		log.Fatalf("Failed to create consumer: %v", err)
	}

	if err := consumer.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}
	log.Printf("✅ Worker started, consuming from queue: %s", queue.DispatchQueue)

	// The sweep catches scheduled campaigns whose delayed dispatch was
	// lost or delayed in the wait queue
	sweeper := cron.New()
	_, err = sweeper.AddFunc("@every 30s", func() {
		sweepDueCampaigns(campaignRepo, publisher)
	})
	if err != nil {
		log.Fatalf("Failed to register schedule sweep: %v", err)
	}
	sweeper.Start()
	log.Println("⏰ Schedule sweep running every 30s")

	// Scrape endpoint on its own port; the worker has no other HTTP surface
	go func() {
		metricsAddr := ":" + cfg.Server.MetricsPort
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", m.Handler())

		log.Printf("📊 Metrics on http://localhost%s/metrics", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Printf("Metrics server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down gracefully...")

	if err := consumer.Stop(); err != nil {
		log.Printf("Error stopping consumer: %v", err)
	}

	sweepCtx := sweeper.Stop()
	<-sweepCtx.Done()

	conn.Close()
	db.Close()

	log.Println("✅ Worker stopped")
}

// sweepDueCampaigns enqueues a dispatch for every scheduled campaign
// whose send time has passed. The dispatch job itself claims the
// campaign, so a sweep racing a delayed message stays harmless.
func sweepDueCampaigns(campaignRepo repository.CampaignRepository, publisher *queue.Publisher) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	due, err := campaignRepo.ListDue(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Schedule sweep failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	log.Printf("⏰ Schedule sweep: %d campaign(s) due", len(due))
	for _, campaign := range due {
		if err := publisher.PublishDispatch(campaign.ID); err != nil {
			log.Printf("❌ Failed to enqueue dispatch for campaign %d: %v", campaign.ID, err)
		}
	}
}
