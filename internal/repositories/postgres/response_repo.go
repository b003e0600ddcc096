package postgres

import (
	"context"

	"github.com/yoockh/nnsurvey/internal/models"
	"github.com/yoockh/nnsurvey/internal/utils"
	"gorm.io/gorm"
)

type ResponseRepository interface {
	Create(ctx context.Context, r *models.SurveyResponse) error
	ListBySurvey(ctx context.Context, surveyID string) ([]models.SurveyResponse, error)
	Delete(ctx context.Context, surveyID, id string) (*models.SurveyResponse, error)
}

type responseRepo struct {
	db *gorm.DB
}

func NewResponseRepo(db *gorm.DB) ResponseRepository {
	return &responseRepo{db: db}
}

func (r *responseRepo) Create(ctx context.Context, row *models.SurveyResponse) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *responseRepo) ListBySurvey(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	var rows []models.SurveyResponse
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *responseRepo) Delete(ctx context.Context, surveyID, id string) (*models.SurveyResponse, error) {
	var rows []models.SurveyResponse
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND survey_id = ?", id, surveyID).Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return utils.ErrNotFound
		}
		return tx.Where("id = ?", id).Delete(&models.SurveyResponse{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}
