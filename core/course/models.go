package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kyalo/darasa/core"
)

// Content kinds
const (
	KindVideo = "video"
	KindPDF   = "pdf"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	TeacherID   string    `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	// joined summary
	TeacherName string `json:"teacher_name,omitempty"`
}

type Enrollment struct {
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"` // UTC

	// joined summary
	StudentName string `json:"student_name,omitempty"`
}

// Content is an uploaded course material (video or pdf). The bytes live in
// a BlobStore; only metadata is kept here.
type Content struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Subject = core.CleanString(nc.Subject, true /* lower */)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
}

func (uc *UpdateCourse) Validate(origCrs Course, validate *validator.Validate) error {
	title := core.CleanString(uc.Title)
	if title != "" {
		uc.Title = title
	} else {
		uc.Title = origCrs.Title
	}

	uc.Description = core.CleanString(uc.Description)
	if uc.Description == "" {
		uc.Description = origCrs.Description
	}

	subject := core.CleanString(uc.Subject, true /* lower */)
	if subject != "" {
		uc.Subject = subject
	} else {
		uc.Subject = origCrs.Subject
	}
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Subject   string `query:"subject"`
	TeacherID string `query:"teacher"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Subject == "" && qf.TeacherID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Subject = core.CleanString(qf.Subject, true /* lower */)
}
