package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type SurveyResponse struct {
	ID          string                      `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	SurveyID    string                      `gorm:"column:survey_id;type:varchar(255);not null;index" json:"survey_id"`
	Answers     datatypes.JSONSlice[Answer] `gorm:"column:answers;not null" json:"answers"`
	SubmittedAt time.Time                   `gorm:"column:submitted_at;not null;index" json:"submitted_at"`
}

func (SurveyResponse) TableName() string { return "survey_responses" }

// StoredFile points at bytes held by the attachment store.
type StoredFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Filepath     string `json:"filepath"`
	Mimetype     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// Answer is tagged by Type; only the field matching the type is set.
type Answer struct {
	Type    QuestionType `json:"type"`
	Text    string       `json:"text,omitempty"`
	Choice  string       `json:"choice,omitempty"`
	Choices []string     `json:"choices,omitempty"`
	Files   []StoredFile `json:"files,omitempty"`
}

func (a Answer) Answered() bool {
	switch a.Type {
	case QuestionText, QuestionTextarea:
		return !isBlank(a.Text)
	case QuestionRadio:
		return a.Choice != ""
	case QuestionCheckbox:
		return len(a.Choices) > 0
	case QuestionFile:
		return len(a.Files) > 0
	}
	return false
}

// Display renders the answer as a single export cell.
func (a Answer) Display() string {
	switch a.Type {
	case QuestionText, QuestionTextarea:
		return a.Text
	case QuestionRadio:
		return a.Choice
	case QuestionCheckbox:
		return strings.Join(a.Choices, ", ")
	case QuestionFile:
		names := make([]string, 0, len(a.Files))
		for _, f := range a.Files {
			names = append(names, f.OriginalName)
		}
		return strings.Join(names, ", ")
	}
	return ""
}

// ResponseFiles collects every stored file referenced by the responses.
func ResponseFiles(rs ...SurveyResponse) []StoredFile {
	var out []StoredFile
	for _, r := range rs {
		for _, a := range r.Answers {
			out = append(out, a.Files...)
		}
	}
	return out
}

// ParseRawAnswers accepts either a JSON array or an object keyed by question
// index and returns exactly n raw values (JSON null where nothing was sent).
// Blank input and a bare null both mean no answers.
func ParseRawAnswers(data string, n int) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, n)
	data = strings.TrimSpace(data)
	if data == "" || data == "null" {
		return out, nil
	}

	switch data[0] {
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(data), &arr); err != nil {
			return nil, fmt.Errorf("answers: %w", err)
		}
		if len(arr) > n {
			return nil, fmt.Errorf("answers: got %d values for %d questions", len(arr), n)
		}
		copy(out, arr)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			return nil, fmt.Errorf("answers: %w", err)
		}
		for k, v := range obj {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= n {
				return nil, fmt.Errorf("answers: unknown question index %q", k)
			}
			out[i] = v
		}
	default:
		return nil, fmt.Errorf("answers must be a JSON array or object")
	}
	return out, nil
}

// BuildAnswers validates raw answers and uploaded files against questions.
// files is keyed by question index.
func BuildAnswers(questions []Question, raw []json.RawMessage, files map[int][]StoredFile) ([]Answer, error) {
	if len(raw) != len(questions) {
		return nil, fmt.Errorf("expected %d answers, got %d", len(questions), len(raw))
	}
	idx := make([]int, 0, len(files))
	for i := range files {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for _, i := range idx {
		if i < 0 || i >= len(questions) || questions[i].Type != QuestionFile {
			return nil, fmt.Errorf("question %d does not accept files", i+1)
		}
	}

	answers := make([]Answer, len(questions))
	for i, q := range questions {
		a, err := buildAnswer(q, raw[i], files[i])
		if err != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i+1, q.Label, err)
		}
		if q.Required && !a.Answered() {
			return nil, fmt.Errorf("question %d (%s): answer is required", i+1, q.Label)
		}
		answers[i] = a
	}
	return answers, nil
}

func buildAnswer(q Question, raw json.RawMessage, files []StoredFile) (Answer, error) {
	a := Answer{Type: q.Type}
	empty := isNullJSON(raw)

	switch q.Type {
	case QuestionText, QuestionTextarea:
		if !empty {
			if err := json.Unmarshal(raw, &a.Text); err != nil {
				return a, fmt.Errorf("expected text")
			}
		}
	case QuestionRadio:
		if !empty {
			if err := json.Unmarshal(raw, &a.Choice); err != nil {
				return a, fmt.Errorf("expected a single choice")
			}
			if a.Choice != "" && !q.hasOption(a.Choice) {
				return a, fmt.Errorf("%q is not an option", a.Choice)
			}
		}
	case QuestionCheckbox:
		if !empty {
			var picked []string
			if err := json.Unmarshal(raw, &picked); err != nil {
				return a, fmt.Errorf("expected a list of choices")
			}
			seen := map[string]struct{}{}
			for _, p := range picked {
				if !q.hasOption(p) {
					return a, fmt.Errorf("%q is not an option", p)
				}
				if _, dup := seen[p]; !dup {
					seen[p] = struct{}{}
					a.Choices = append(a.Choices, p)
				}
			}
		}
	case QuestionFile:
		a.Files = files
	}
	return a, nil
}

func isNullJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte(`""`))
}
