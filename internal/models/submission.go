package models

import "time"

// AttachmentsQuestionID tags every file uploaded through the partner form.
const AttachmentsQuestionID = "attachments"

type Submission struct {
	ID                 string    `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	CompanyName        string    `gorm:"column:company_name;type:varchar(500);not null" json:"company_name"`
	ContactName        string    `gorm:"column:contact_name;type:varchar(200);not null" json:"contact_name"`
	Position           string    `gorm:"column:position;type:varchar(200)" json:"position"`
	Phone              string    `gorm:"column:phone;type:varchar(50);not null" json:"phone"`
	Email              string    `gorm:"column:email;type:varchar(200);not null" json:"email"`
	CompanySize        string    `gorm:"column:company_size;type:varchar(100)" json:"company_size"`
	Industry           string    `gorm:"column:industry;type:varchar(200)" json:"industry"`
	CooperationIntent  string    `gorm:"column:cooperation_intent;type:text" json:"cooperation_intent"`
	ProjectDescription string    `gorm:"column:project_description;type:text" json:"project_description"`
	SubmittedAt        time.Time `gorm:"column:submitted_at;not null;index" json:"submitted_at"`

	Files []File `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"files"`
}

func (Submission) TableName() string { return "submissions" }

type File struct {
	ID           string    `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	SubmissionID string    `gorm:"column:submission_id;type:varchar(255);not null;index" json:"submission_id"`
	QuestionID   string    `gorm:"column:question_id;type:varchar(255);not null" json:"question_id"`
	Filename     string    `gorm:"column:filename;type:varchar(500);not null" json:"filename"`
	OriginalName string    `gorm:"column:original_name;type:varchar(500);not null" json:"original_name"`
	Filepath     string    `gorm:"column:filepath;type:text;not null" json:"filepath"`
	Mimetype     string    `gorm:"column:mimetype;type:varchar(200)" json:"mimetype"`
	Size         int64     `gorm:"column:size" json:"size"`
	UploadedAt   time.Time `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
}

func (File) TableName() string { return "files" }

// SubmissionInput is the client-supplied part of a Submission.
type SubmissionInput struct {
	CompanyName        string `form:"company_name" json:"company_name"`
	ContactName        string `form:"contact_name" json:"contact_name"`
	Position           string `form:"position" json:"position"`
	Phone              string `form:"phone" json:"phone"`
	Email              string `form:"email" json:"email"`
	CompanySize        string `form:"company_size" json:"company_size"`
	Industry           string `form:"industry" json:"industry"`
	CooperationIntent  string `form:"cooperation_intent" json:"cooperation_intent"`
	ProjectDescription string `form:"project_description" json:"project_description"`
}

// MissingRequired lists the names of required fields that are blank.
func (in SubmissionInput) MissingRequired() []string {
	var missing []string
	for _, f := range []struct {
		name, val string
	}{
		{"company_name", in.CompanyName},
		{"contact_name", in.ContactName},
		{"phone", in.Phone},
		{"email", in.Email},
	} {
		if isBlank(f.val) {
			missing = append(missing, f.name)
		}
	}
	return missing
}
