package session

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kyalo/darasa/core"
)

// Participant is the public summary of a session's teacher or student.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is a scheduled appointment between one teacher and one student,
// optionally tied to a course. Participants are fixed at creation; only
// Status and UpdatedAt mutate thereafter.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TeacherID   string    `json:"teacher_id"`
	StudentID   string    `json:"student_id"`
	CourseID    string    `json:"course_id,omitempty"`
	StartTime   time.Time `json:"start_time"` // UTC
	EndTime     time.Time `json:"end_time"`   // UTC
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	// joined summaries
	Teacher Participant `json:"teacher"`
	Student Participant `json:"student"`
}

// RoleOf returns the caller's role within this session.
func (s *Session) RoleOf(userID string) ActorRole {
	switch userID {
	case "":
		return ActorNone
	case s.TeacherID:
		return ActorTeacher
	case s.StudentID:
		return ActorStudent
	}
	return ActorNone
}

// Counterpart returns the participant opposite to `role`.
func (s *Session) Counterpart(role ActorRole) Participant {
	if role == ActorTeacher {
		return s.Student
	}
	return s.Teacher
}

// NewSession contains information needed to request a new Session.
type NewSession struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	TeacherID   string    `json:"teacher_id" validate:"required"`
	CourseID    string    `json:"course_id"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

// UpdateSessionStatus is the only mutation allowed on an existing Session.
type UpdateSessionStatus struct {
	Status Status `json:"status" validate:"required,sessionstatus"`
}

func (us *UpdateSessionStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

type QueryFilter struct {
	Status Status    `query:"status"`
	From   time.Time `query:"from"` // window on StartTime, inclusive
	To     time.Time `query:"to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.From.IsZero() && qf.To.IsZero()
}
