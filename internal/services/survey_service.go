package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/nnsurvey/internal/events"
	"github.com/yoockh/nnsurvey/internal/models"
	pgrepo "github.com/yoockh/nnsurvey/internal/repositories/postgres"
	"github.com/yoockh/nnsurvey/internal/storage"
	"github.com/yoockh/nnsurvey/internal/utils"
)

type SurveyService interface {
	Create(ctx context.Context, in models.SurveyInput) (*models.Survey, error)
	List(ctx context.Context) ([]models.Survey, error)
	Get(ctx context.Context, id string) (*models.Survey, error)
	SetStatus(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type surveyService struct {
	repo   pgrepo.SurveyRepository
	files  *attachments
	events events.Publisher
	log    *logrus.Logger
}

// NewSurveyService needs the store only to clean up response attachments
// when a survey is deleted.
func NewSurveyService(repo pgrepo.SurveyRepository, store storage.Store, pub events.Publisher, l *logrus.Logger) SurveyService {
	return &surveyService{
		repo:   repo,
		files:  &attachments{store: store, limits: DefaultUploadLimits, log: l},
		events: pub,
		log:    l,
	}
}

func (s *surveyService) Create(ctx context.Context, in models.SurveyInput) (*models.Survey, error) {
	const op = "SurveyService.Create"

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}

	questions := make([]models.Question, len(in.Questions))
	for i, q := range in.Questions {
		if q.ID == 0 {
			q.ID = int64(i + 1)
		}
		questions[i] = q
	}

	sv := &models.Survey{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Questions:   questions,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sv); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create survey", err)
	}
	return sv, nil
}

func (s *surveyService) List(ctx context.Context) ([]models.Survey, error) {
	const op = "SurveyService.List"

	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list surveys", err)
	}
	if out == nil {
		out = []models.Survey{}
	}
	return out, nil
}

func (s *surveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	const op = "SurveyService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	out, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "survey", "failed to load survey", err)
	}
	return out, nil
}

func (s *surveyService) SetStatus(ctx context.Context, id string, active bool) error {
	const op = "SurveyService.SetStatus"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return notFoundOr(op, "survey", "failed to update survey status", err)
	}
	return nil
}

func (s *surveyService) Delete(ctx context.Context, id string) error {
	const op = "SurveyService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	responses, err := s.repo.Delete(ctx, id)
	if err != nil {
		return notFoundOr(op, "survey", "failed to delete survey", err)
	}
	s.files.discard(ctx, models.ResponseFiles(responses...))

	announce(ctx, s.events, s.log, events.Event{Type: events.SurveyDeleted, ID: id, SurveyID: id})
	return nil
}
