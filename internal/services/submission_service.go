package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/nnsurvey/internal/events"
	"github.com/yoockh/nnsurvey/internal/models"
	pgrepo "github.com/yoockh/nnsurvey/internal/repositories/postgres"
	"github.com/yoockh/nnsurvey/internal/storage"
	"github.com/yoockh/nnsurvey/internal/utils"
)

type SubmissionService interface {
	Create(ctx context.Context, in models.SubmissionInput, uploads []Upload) (*models.Submission, error)
	List(ctx context.Context) ([]models.Submission, error)
	Get(ctx context.Context, id string) (*models.Submission, error)
	Delete(ctx context.Context, id string) error
}

type submissionService struct {
	repo   pgrepo.SubmissionRepository
	files  *attachments
	events events.Publisher
	log    *logrus.Logger
}

func NewSubmissionService(repo pgrepo.SubmissionRepository, store storage.Store, limits UploadLimits, pub events.Publisher, l *logrus.Logger) SubmissionService {
	return &submissionService{
		repo:   repo,
		files:  &attachments{store: store, limits: limits, log: l},
		events: pub,
		log:    l,
	}
}

func (s *submissionService) Create(ctx context.Context, in models.SubmissionInput, uploads []Upload) (*models.Submission, error) {
	const op = "SubmissionService.Create"

	if missing := in.MissingRequired(); len(missing) > 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "missing required fields: "+strings.Join(missing, ", "), nil)
	}
	if err := s.files.validate(op, uploads); err != nil {
		return nil, err
	}

	stored, err := s.files.save(ctx, op, uploads)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &models.Submission{
		ID:                 uuid.NewString(),
		CompanyName:        strings.TrimSpace(in.CompanyName),
		ContactName:        strings.TrimSpace(in.ContactName),
		Position:           strings.TrimSpace(in.Position),
		Phone:              strings.TrimSpace(in.Phone),
		Email:              strings.TrimSpace(in.Email),
		CompanySize:        strings.TrimSpace(in.CompanySize),
		Industry:           strings.TrimSpace(in.Industry),
		CooperationIntent:  strings.TrimSpace(in.CooperationIntent),
		ProjectDescription: strings.TrimSpace(in.ProjectDescription),
		SubmittedAt:        now,
	}

	rows := make([]models.File, len(stored))
	for i, f := range stored {
		rows[i] = models.File{
			ID:           uuid.NewString(),
			QuestionID:   models.AttachmentsQuestionID,
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			Filepath:     f.Filepath,
			Mimetype:     f.Mimetype,
			Size:         f.Size,
			UploadedAt:   now,
		}
	}

	if err := s.repo.CreateWithFiles(ctx, sub, rows); err != nil {
		s.files.discard(ctx, stored)
		return nil, utils.E(utils.CodeInternal, op, "failed to save submission", err)
	}
	sub.Files = rows

	announce(ctx, s.events, s.log, events.Event{Type: events.SubmissionCreated, ID: sub.ID, At: now})
	return sub, nil
}

func (s *submissionService) List(ctx context.Context) ([]models.Submission, error) {
	const op = "SubmissionService.List"

	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list submissions", err)
	}
	if out == nil {
		out = []models.Submission{}
	}
	for i := range out {
		if out[i].Files == nil {
			out[i].Files = []models.File{}
		}
	}
	return out, nil
}

func (s *submissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	const op = "SubmissionService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	out, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "submission", "failed to load submission", err)
	}
	if out.Files == nil {
		out.Files = []models.File{}
	}
	return out, nil
}

// Delete commits the row removal first and only then removes the stored
// bytes, so a failed transaction never loses attachments.
func (s *submissionService) Delete(ctx context.Context, id string) error {
	const op = "SubmissionService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return notFoundOr(op, "submission", "failed to delete submission", err)
	}

	stored := make([]models.StoredFile, len(removed))
	for i, f := range removed {
		stored[i] = models.StoredFile{Filename: f.Filename, Filepath: f.Filepath}
	}
	s.files.discard(ctx, stored)

	announce(ctx, s.events, s.log, events.Event{Type: events.SubmissionDeleted, ID: id})
	return nil
}
