package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/nnsurvey/config"
	"github.com/yoockh/nnsurvey/internal/api/handlers"
	"github.com/yoockh/nnsurvey/internal/api/middleware"
	"github.com/yoockh/nnsurvey/internal/api/routes"
	"github.com/yoockh/nnsurvey/internal/events"
	"github.com/yoockh/nnsurvey/internal/logger"
	pgrepo "github.com/yoockh/nnsurvey/internal/repositories/postgres"
	"github.com/yoockh/nnsurvey/internal/services"
	"github.com/yoockh/nnsurvey/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := config.InitDatabase(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("database init failed")
	}
	defer func() {
		if err := config.CloseDatabase(db); err != nil {
			log.WithError(err).Warn("database close failed")
		}
	}()
	log.WithField("driver", cfg.Database.Driver).Info("database connected")

	// Events
	var pub events.Publisher = events.Nop{}
	if cfg.RedisAddr != "" {
		rdb, err := config.InitRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Fatal("redis init failed")
		}
		defer rdb.Close()
		pub = events.NewRedisPublisher(rdb, cfg.EventsStream, 0)
		log.WithField("stream", cfg.EventsStream).Info("redis connected")
	}

	// Attachments
	var (
		store       storage.Store
		uploadDir   string
		attachments *handlers.AttachmentHandler
	)
	switch cfg.Storage.Driver {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, storage.GCSOptions{
			Bucket:          cfg.Storage.GCSBucket,
			Prefix:          cfg.Storage.GCSPrefix,
			CredentialsFile: cfg.Storage.GCSCredentialsFile,
			Public:          cfg.Storage.GCSPublic,
		})
		if err != nil {
			log.WithError(err).Fatal("gcs init failed")
		}
		defer gcs.Close()
		store = gcs
		attachments = handlers.NewAttachmentHandler(gcs, gcs)
	default:
		local, err := storage.NewLocalStore(cfg.Storage.UploadDir)
		if err != nil {
			log.WithError(err).Fatal("upload dir init failed")
		}
		store = local
		uploadDir = local.Dir()
	}

	if cfg.AdminJWTSecret == "" {
		log.Warn("ADMIN_JWT_SECRET is not set; admin routes are open")
	}

	limits := services.UploadLimits{MaxFileBytes: cfg.Upload.MaxFileBytes, MaxFiles: cfg.Upload.MaxFiles}

	subRepo := pgrepo.NewSubmissionRepo(db)
	surveyRepo := pgrepo.NewSurveyRepo(db)
	respRepo := pgrepo.NewResponseRepo(db)

	subSvc := services.NewSubmissionService(subRepo, store, limits, pub, log)
	surveySvc := services.NewSurveyService(surveyRepo, store, pub, log)
	respSvc := services.NewResponseService(surveyRepo, respRepo, store, limits, pub, log)
	authSvc := services.NewAuthService(cfg.AdminJWTSecret, cfg.AdminPasswordHash, cfg.AdminTokenTTL)
	qr := services.NewQRService(cfg.QRSize)
	exp := services.NewExporter(cfg.ExportTimezone)

	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("database handle")
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.MaxMultipartMemory = 8 << 20

	routes.RegisterRoutes(r, routes.Deps{
		Submissions: handlers.NewSubmissionHandler(subSvc, exp),
		Surveys:     handlers.NewSurveyHandler(surveySvc, qr, cfg.PublicBaseURL),
		Responses:   handlers.NewResponseHandler(respSvc, surveySvc, exp),
		QR:          handlers.NewQRHandler(qr, cfg.PublicBaseURL),
		Health:      handlers.NewHealthHandler(sqlDB),
		Auth:        handlers.NewAuthHandler(authSvc),
		AdminSecret: cfg.AdminJWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   uploadDir,
		Attachments: attachments,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
