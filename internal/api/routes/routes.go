package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yoockh/nnsurvey/internal/api/handlers"
	"github.com/yoockh/nnsurvey/internal/api/middleware"
)

type Deps struct {
	Submissions *handlers.SubmissionHandler
	Surveys     *handlers.SurveyHandler
	Responses   *handlers.ResponseHandler
	QR          *handlers.QRHandler
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	// Attachments serves /uploads when UploadDir is empty.
	Attachments *handlers.AttachmentHandler

	// AdminSecret empty leaves the admin routes open.
	AdminSecret string
	CORSOrigins []string
	// UploadDir is served under /uploads when attachments live on local disk.
	UploadDir string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	switch {
	case d.UploadDir != "":
		r.Static("/uploads", d.UploadDir)
	case d.Attachments != nil:
		r.GET("/uploads/:name", d.Attachments.Serve)
	}

	api := r.Group("/api")

	// Public
	api.GET("/health", d.Health.Check)
	api.GET("/qrcode", d.QR.Form)
	api.POST("/admin/login", d.Auth.Login)
	api.POST("/submissions", d.Submissions.Create)
	api.GET("/surveys/:id", d.Surveys.Get)
	api.GET("/surveys/:id/qrcode", d.Surveys.QRCode)
	api.POST("/surveys/:id/responses", d.Responses.Submit)

	// Admin
	admin := api.Group("")
	if d.AdminSecret != "" {
		admin.Use(middleware.JWTAuth(d.AdminSecret), middleware.RequireAdmin())
	}

	admin.GET("/submissions", d.Submissions.List)
	admin.GET("/submissions/export", d.Submissions.Export)
	admin.GET("/submissions/:id", d.Submissions.Get)
	admin.DELETE("/submissions/:id", d.Submissions.Delete)

	admin.POST("/surveys", d.Surveys.Create)
	admin.GET("/surveys", d.Surveys.List)
	admin.PATCH("/surveys/:id/status", d.Surveys.UpdateStatus)
	admin.DELETE("/surveys/:id", d.Surveys.Delete)

	admin.GET("/surveys/:id/responses", d.Responses.List)
	admin.GET("/surveys/:id/responses/export", d.Responses.Export)
	admin.DELETE("/surveys/:id/responses/:responseId", d.Responses.Delete)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
