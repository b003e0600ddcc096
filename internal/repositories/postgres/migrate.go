package postgres

import (
	"github.com/yoockh/nnsurvey/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the four tables. Parents go first so the
// foreign keys can be created.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Submission{},
		&models.File{},
		&models.Survey{},
		&models.SurveyResponse{},
	)
}
