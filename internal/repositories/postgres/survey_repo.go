package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/nnsurvey/internal/models"
	"github.com/yoockh/nnsurvey/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SurveyRepository interface {
	Create(ctx context.Context, s *models.Survey) error
	List(ctx context.Context) ([]models.Survey, error)
	GetByID(ctx context.Context, id string) (*models.Survey, error)
	SetActive(ctx context.Context, id string, active bool) error
	// Delete removes the survey with all of its responses and returns the
	// responses that were removed.
	Delete(ctx context.Context, id string) ([]models.SurveyResponse, error)
}

type surveyRepo struct {
	db *gorm.DB
}

func NewSurveyRepo(db *gorm.DB) SurveyRepository {
	return &surveyRepo{db: db}
}

func (r *surveyRepo) Create(ctx context.Context, s *models.Survey) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *surveyRepo) List(ctx context.Context) ([]models.Survey, error) {
	var rows []models.Survey
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *surveyRepo) GetByID(ctx context.Context, id string) (*models.Survey, error) {
	var row models.Survey
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *surveyRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Survey{}, "id = ?", id); err != nil {
			return err
		}
		return tx.Model(&models.Survey{}).
			Where("id = ?", id).
			Update("is_active", active).Error
	})
}

func (r *surveyRepo) Delete(ctx context.Context, id string) ([]models.SurveyResponse, error) {
	var responses []models.SurveyResponse
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Survey{}, "id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Find(&responses).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&models.SurveyResponse{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Survey{}).Error
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// requireRow returns utils.ErrNotFound unless a row of model matches.
func requireRow(tx *gorm.DB, model any, query string, args ...any) error {
	var n int64
	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrNotFound
	}
	return nil
}
