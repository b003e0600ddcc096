package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/nnsurvey/internal/models"
	"github.com/yoockh/nnsurvey/internal/storage"
	"github.com/yoockh/nnsurvey/internal/utils"
)

// Upload is one client-supplied attachment, not yet stored.
type Upload struct {
	OriginalName string
	Size         int64
	ContentType  string
	Open         func() (io.ReadCloser, error)
}

type UploadLimits struct {
	MaxFileBytes int64
	MaxFiles     int
}

var DefaultUploadLimits = UploadLimits{MaxFileBytes: 10 << 20, MaxFiles: 10}

var allowedExt = map[string]struct{}{
	".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {}, ".pdf": {},
	".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".txt": {},
	".ppt": {}, ".pptx": {},
}

var allowedMIME = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.ms-excel":                                                  {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"text/plain":                                                                {},
	"application/vnd.ms-powerpoint":                                             {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
}

// attachments validates uploads and moves them in and out of the store.
type attachments struct {
	store  storage.Store
	limits UploadLimits
	log    *logrus.Logger
}

func (a *attachments) validate(op string, uploads []Upload) error {
	if len(uploads) > a.limits.MaxFiles {
		return utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("too many files (max %d)", a.limits.MaxFiles), nil)
	}
	for _, u := range uploads {
		ext := strings.ToLower(filepath.Ext(u.OriginalName))
		if _, ok := allowedExt[ext]; !ok {
			return utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unsupported file type: %s", u.OriginalName), nil)
		}
		if _, ok := allowedMIME[baseMIME(u.ContentType)]; !ok {
			return utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unsupported file type: %s", u.OriginalName), nil)
		}
		if u.Size > a.limits.MaxFileBytes {
			return utils.E(utils.CodeTooLarge, op, fmt.Sprintf("file too large (max %dMB): %s", a.limits.MaxFileBytes>>20, u.OriginalName), nil)
		}
	}
	return nil
}

// save stores every upload under a fresh name. On failure whatever was
// already stored is removed again.
func (a *attachments) save(ctx context.Context, op string, uploads []Upload) ([]models.StoredFile, error) {
	out := make([]models.StoredFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := a.saveOne(ctx, op, u)
		if err != nil {
			a.discard(ctx, out)
			var ae *utils.AppError
			if errors.As(err, &ae) {
				return nil, err
			}
			return nil, utils.E(utils.CodeInternal, op, "failed to store attachment", err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (a *attachments) saveOne(ctx context.Context, op string, u Upload) (models.StoredFile, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(u.OriginalName))
	ct := baseMIME(u.ContentType)

	r, err := u.Open()
	if err != nil {
		return models.StoredFile{}, err
	}
	defer r.Close()

	// one byte past the limit is enough to notice a lying Size
	lr := &io.LimitedReader{R: r, N: a.limits.MaxFileBytes + 1}
	stored, err := a.store.Upload(ctx, name, ct, lr)
	if err != nil {
		return models.StoredFile{}, err
	}
	if lr.N == 0 {
		_ = a.store.Remove(ctx, stored)
		return models.StoredFile{}, utils.E(utils.CodeTooLarge, op, fmt.Sprintf("file too large (max %dMB): %s", a.limits.MaxFileBytes>>20, u.OriginalName), nil)
	}

	return models.StoredFile{
		Filename:     name,
		OriginalName: u.OriginalName,
		Filepath:     stored,
		Mimetype:     ct,
		Size:         a.limits.MaxFileBytes + 1 - lr.N,
	}, nil
}

// discard removes stored bytes best-effort. Failures are logged and skipped.
func (a *attachments) discard(ctx context.Context, files []models.StoredFile) {
	for _, f := range files {
		if err := a.store.Remove(ctx, f.Filepath); err != nil {
			a.log.WithError(err).WithFields(logrus.Fields{
				"filepath": f.Filepath,
				"filename": f.Filename,
			}).Warn("failed to remove attachment")
		}
	}
}

func baseMIME(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}
