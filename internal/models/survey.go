package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionTextarea QuestionType = "textarea"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionFile     QuestionType = "file"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionRadio, QuestionCheckbox, QuestionFile:
		return true
	}
	return false
}

// IsChoice reports whether answers pick from Options.
func (t QuestionType) IsChoice() bool {
	return t == QuestionRadio || t == QuestionCheckbox
}

type Question struct {
	ID       int64        `json:"id,omitempty"`
	Type     QuestionType `json:"type"`
	Label    string       `json:"label"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty"`
}

// Validate checks the shape implied by q.Type.
func (q Question) Validate() error {
	if !q.Type.Valid() {
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	if isBlank(q.Label) {
		return fmt.Errorf("label is required")
	}
	if !q.Type.IsChoice() {
		if len(q.Options) > 0 {
			return fmt.Errorf("%s questions take no options", q.Type)
		}
		return nil
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%s questions need at least 2 options", q.Type)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		if isBlank(o) {
			return fmt.Errorf("options must not be empty")
		}
		if _, dup := seen[o]; dup {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = struct{}{}
	}
	return nil
}

func (q Question) hasOption(v string) bool {
	for _, o := range q.Options {
		if o == v {
			return true
		}
	}
	return false
}

type Survey struct {
	ID          string                        `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	Title       string                        `gorm:"column:title;type:varchar(500);not null" json:"title"`
	Description string                        `gorm:"column:description;type:text" json:"description"`
	Questions   datatypes.JSONSlice[Question] `gorm:"column:questions;not null" json:"questions"`
	IsActive    bool                          `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time                     `gorm:"column:created_at;not null;index" json:"created_at"`

	Responses []SurveyResponse `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Survey) TableName() string { return "surveys" }

type SurveyInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

func (in SurveyInput) Validate() error {
	if isBlank(in.Title) {
		return fmt.Errorf("title is required")
	}
	if in.Questions == nil {
		return fmt.Errorf("questions must be a list")
	}
	for i, q := range in.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// Normalize trims labels and options in place.
func (in *SurveyInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	for i := range in.Questions {
		q := &in.Questions[i]
		q.Type = QuestionType(strings.ToLower(strings.TrimSpace(string(q.Type))))
		q.Label = strings.TrimSpace(q.Label)
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(q.Options[j])
		}
	}
}
