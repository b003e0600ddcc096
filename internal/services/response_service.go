package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/nnsurvey/internal/events"
	"github.com/yoockh/nnsurvey/internal/models"
	pgrepo "github.com/yoockh/nnsurvey/internal/repositories/postgres"
	"github.com/yoockh/nnsurvey/internal/storage"
	"github.com/yoockh/nnsurvey/internal/utils"
)

type ResponseService interface {
	// Submit records one answer set. answers is a JSON array, or an object
	// keyed by question index; uploads are keyed by question index too.
	Submit(ctx context.Context, surveyID, answers string, uploads map[int][]Upload) (*models.SurveyResponse, error)
	List(ctx context.Context, surveyID string) ([]models.SurveyResponse, error)
	Delete(ctx context.Context, surveyID, id string) error
}

type responseService struct {
	surveys   pgrepo.SurveyRepository
	responses pgrepo.ResponseRepository
	files     *attachments
	events    events.Publisher
	log       *logrus.Logger
}

func NewResponseService(surveys pgrepo.SurveyRepository, responses pgrepo.ResponseRepository, store storage.Store, limits UploadLimits, pub events.Publisher, l *logrus.Logger) ResponseService {
	return &responseService{
		surveys:   surveys,
		responses: responses,
		files:     &attachments{store: store, limits: limits, log: l},
		events:    pub,
		log:       l,
	}
}

func (s *responseService) Submit(ctx context.Context, surveyID, answers string, uploads map[int][]Upload) (*models.SurveyResponse, error) {
	const op = "ResponseService.Submit"

	sv, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, notFoundOr(op, "survey", "failed to load survey", err)
	}
	if !sv.IsActive {
		return nil, utils.E(utils.CodeForbidden, op, "survey is not accepting responses", nil)
	}

	raw, err := models.ParseRawAnswers(answers, len(sv.Questions))
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}

	idx := make([]int, 0, len(uploads))
	var all []Upload
	for i := range uploads {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	pending := make(map[int][]models.StoredFile, len(uploads))
	for _, i := range idx {
		for _, u := range uploads[i] {
			all = append(all, u)
			pending[i] = append(pending[i], models.StoredFile{OriginalName: u.OriginalName})
		}
	}
	if err := s.files.validate(op, all); err != nil {
		return nil, err
	}
	// dry run against placeholders so nothing is stored for a bad answer set
	if _, err := models.BuildAnswers(sv.Questions, raw, pending); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}

	var stored []models.StoredFile
	byQuestion := make(map[int][]models.StoredFile, len(uploads))
	for _, i := range idx {
		files, err := s.files.save(ctx, op, uploads[i])
		if err != nil {
			s.files.discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, files...)
		byQuestion[i] = files
	}

	built, err := models.BuildAnswers(sv.Questions, raw, byQuestion)
	if err != nil {
		s.files.discard(ctx, stored)
		return nil, utils.E(utils.CodeInvalidArgument, op, err.Error(), err)
	}

	row := &models.SurveyResponse{
		ID:          uuid.NewString(),
		SurveyID:    sv.ID,
		Answers:     built,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.responses.Create(ctx, row); err != nil {
		s.files.discard(ctx, stored)
		return nil, utils.E(utils.CodeInternal, op, "failed to save response", err)
	}

	announce(ctx, s.events, s.log, events.Event{Type: events.ResponseCreated, ID: row.ID, SurveyID: sv.ID, At: row.SubmittedAt})
	return row, nil
}

func (s *responseService) List(ctx context.Context, surveyID string) ([]models.SurveyResponse, error) {
	const op = "ResponseService.List"

	if _, err := s.surveys.GetByID(ctx, surveyID); err != nil {
		return nil, notFoundOr(op, "survey", "failed to load survey", err)
	}
	out, err := s.responses.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list responses", err)
	}
	if out == nil {
		out = []models.SurveyResponse{}
	}
	return out, nil
}

func (s *responseService) Delete(ctx context.Context, surveyID, id string) error {
	const op = "ResponseService.Delete"

	if surveyID == "" || id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "survey id and response id are required", nil)
	}
	removed, err := s.responses.Delete(ctx, surveyID, id)
	if err != nil {
		return notFoundOr(op, "response", "failed to delete response", err)
	}
	s.files.discard(ctx, models.ResponseFiles(*removed))

	announce(ctx, s.events, s.log, events.Event{Type: events.ResponseDeleted, ID: id, SurveyID: surveyID})
	return nil
}
