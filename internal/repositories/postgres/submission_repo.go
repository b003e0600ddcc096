package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/nnsurvey/internal/models"
	"github.com/yoockh/nnsurvey/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository interface {
	// CreateWithFiles inserts s and its files atomically.
	CreateWithFiles(ctx context.Context, s *models.Submission, files []models.File) error
	List(ctx context.Context) ([]models.Submission, error)
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	// Delete removes the submission and its file rows in one transaction
	// and returns the removed file rows.
	Delete(ctx context.Context, id string) ([]models.File, error)
}

type submissionRepo struct {
	db *gorm.DB
}

func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) CreateWithFiles(ctx context.Context, s *models.Submission, files []models.File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(s).Error; err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}
		for i := range files {
			files[i].SubmissionID = s.ID
		}
		return tx.Create(&files).Error
	})
}

func orderedFiles(db *gorm.DB) *gorm.DB {
	return db.Order("uploaded_at ASC").Order("id ASC")
}

func (r *submissionRepo) List(ctx context.Context) ([]models.Submission, error) {
	var rows []models.Submission
	err := r.db.WithContext(ctx).
		Preload("Files", orderedFiles).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	var row models.Submission
	err := r.db.WithContext(ctx).
		Preload("Files", orderedFiles).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *submissionRepo) Delete(ctx context.Context, id string) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Submission{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return utils.ErrNotFound
		}

		if err := tx.Where("submission_id = ?", id).Find(&files).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id = ?", id).Delete(&models.File{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Submission{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
