package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/nnsurvey/internal/events"
	"github.com/yoockh/nnsurvey/internal/utils"
)

// notFoundOr maps repository errors to a NOT_FOUND or INTERNAL AppError.
func notFoundOr(op, what, failMsg string, err error) error {
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, what+" not found", err)
	}
	return utils.E(utils.CodeInternal, op, failMsg, err)
}

// announce publishes e after a commit. Failures are logged only.
func announce(ctx context.Context, p events.Publisher, l *logrus.Logger, e events.Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		l.WithError(err).WithFields(logrus.Fields{
			"event": e.Type,
			"id":    e.ID,
		}).Warn("failed to publish event")
	}
}
