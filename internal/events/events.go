package events

import (
	"context"
	"time"
)

type Type string

const (
	SubmissionCreated Type = "submission.created"
	SubmissionDeleted Type = "submission.deleted"
	ResponseCreated   Type = "survey_response.created"
	ResponseDeleted   Type = "survey_response.deleted"
	SurveyDeleted     Type = "survey.deleted"
)

type Event struct {
	Type     Type      `json:"type"`
	ID       string    `json:"id"`
	SurveyID string    `json:"survey_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher announces committed changes. Callers treat failures as
// non-fatal: the write has already happened.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
