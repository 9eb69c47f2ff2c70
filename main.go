package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/sonuk-07/NeuroAI/auth"
	"github.com/sonuk-07/NeuroAI/classifier"
	"github.com/sonuk-07/NeuroAI/config"
	"github.com/sonuk-07/NeuroAI/database"
	handler "github.com/sonuk-07/NeuroAI/handlers"
	"github.com/sonuk-07/NeuroAI/imaging"
	"github.com/sonuk-07/NeuroAI/insight"
	"github.com/sonuk-07/NeuroAI/mailer"
	"github.com/sonuk-07/NeuroAI/middleware"
	"github.com/sonuk-07/NeuroAI/models"
	"github.com/sonuk-07/NeuroAI/otp"
	"github.com/sonuk-07/NeuroAI/review"
	"github.com/sonuk-07/NeuroAI/router"
	"github.com/sonuk-07/NeuroAI/storage"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Info("Starting NeuroAI...")

	db := database.GetDB()

	// Run migrations
	err := database.MigrateModels(
		&models.User{},
		&models.DoctorProfile{},
		&models.PatientProfile{},
		&models.ImageRecord{},
		&models.RecommendationRequest{},
		&models.Passcode{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	auth.SetupAuthService()

	// Blob storage: local disk, with an optional bucket mirror.
	local, err := storage.NewLocalStore(config.ConfigOr("UPLOAD_DIR", "./uploads"))
	if err != nil {
		log.Fatalf("Failed to prepare upload dir: %v", err)
	}
	var mirror storage.Mirror
	if bucket := config.ConfigOr("GCS_BUCKET_NAME", ""); bucket != "" {
		gcs, err := storage.NewGCSMirror(context.Background(), bucket)
		if err != nil {
			log.Fatalf("Failed to create bucket mirror: %v", err)
		}
		defer gcs.Close()
		mirror = gcs
	}
	store := storage.NewStore(local, mirror)

	// The MRI model is mandatory; the service cannot classify without it.
	model, err := classifier.New(config.ConfigOr("MODEL_PATH", "./models/brain_mri.tflite"))
	if err != nil {
		log.Fatalf("Failed to load classifier model: %v", err)
	}
	defer model.Close()

	// One mailer, one failure policy.
	var mail mailer.Mailer = mailer.Noop{}
	if url := config.ConfigOr("MAIL_URL", ""); url != "" {
		mail = mailer.NewShoutrrr(url)
	} else {
		log.Warn("MAIL_URL not set, outgoing mail disabled")
	}

	var insightSvc *insight.Service
	if config.ConfigOr("GEMINI_API_KEY", "") != "" {
		insightSvc, err = insight.New(context.Background())
		if err != nil {
			log.WithError(err).Warn("insight disabled")
			insightSvc = nil
		}
	}

	otpSvc := otp.NewService(db)
	imagingSvc := imaging.NewService(db, store, model,
		config.ConfigDuration("CLASSIFY_TIMEOUT", 30*time.Second))
	reviewSvc := review.NewService(db, mail,
		review.NewAssigner(config.ConfigOr("ASSIGN_STRATEGY", "first-available")))

	handler.Setup(handler.Services{
		Imaging:      imagingSvc,
		Review:       reviewSvc,
		OTP:          otpSvc,
		Mail:         mail,
		ResetSigner:  auth.NewResetSigner([]byte(config.Config("JWT_SECRET"))),
		Insight:      insightSvc,
		ContactEmail: config.ConfigOr("CONTACT_EMAIL", "support@neuroai.dev"),
	})

	// Periodic cleanup of expired passcodes.
	sweeper := cron.New()
	if err := otpSvc.StartSweeper(sweeper, config.ConfigOr("OTP_SWEEP_SCHEDULE", "@every 10m")); err != nil {
		log.Fatalf("Failed to schedule passcode sweep: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: config.ConfigInt("MAX_UPLOAD_BYTES", 25<<20),
	})
	app.Use(middleware.RequestLogger())
	router.SetupRoutes(app)

	// close the database connection
	defer func() {
		if err := database.CloseDB(); err != nil {
			log.Errorf("Error closing the database connection: %v", err)
		}
	}()

	addr := ":" + config.ConfigOr("PORT", "3000")
	log.Infof("Server is listening at %s", addr)
	log.Fatal(app.Listen(addr))
}
