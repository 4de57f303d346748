package session

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/user"
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session) (Session, error)
		// GetSession returns the session joined with its teacher/student summaries.
		GetSession(ctx context.Context, id string) (Session, error)
		// QuerySessions returns sessions where participantID is the teacher or
		// the student, narrowed by filter. The date window applies to StartTime.
		QuerySessions(ctx context.Context, participantID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error)
		UpdateSessionStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
		DeleteSession(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, actor user.User, ns NewSession) (Session, error)
		Query(ctx context.Context, actor user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error)
		Get(ctx context.Context, actor user.User, id string) (Session, error)
		UpdateStatus(ctx context.Context, actor user.User, id string, target Status) (Session, error)
		Delete(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		mailSvc: mailSvc,
	}
}

// Create registers a new session request from `actor` (the student) to the
// chosen teacher. The session starts out pending.
func (svc *service) Create(ctx context.Context, actor user.User, ns NewSession) (Session, error) {
	if !actor.IsStudent() {
		return Session{}, ErrForbidden
	}

	teacherErr := func(msg string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: msg})
	}

	teacher, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: ns.TeacherID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Session{}, teacherErr("teacher not found")
		}
		return Session{}, errors.Wrap(err, "finding teacher")
	}
	if !teacher.IsTeacher() {
		return Session{}, teacherErr("user is not a teacher")
	}
	if teacher.ID == actor.ID {
		return Session{}, teacherErr("cannot request a session with yourself")
	}

	now := time.Now().UTC()
	sess := Session{
		Title:       ns.Title,
		Description: ns.Description,
		TeacherID:   teacher.ID,
		StudentID:   actor.ID,
		CourseID:    ns.CourseID,
		StartTime:   ns.StartTime.UTC(),
		EndTime:     ns.EndTime.UTC(),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	sess, err = svc.repo.CreateSession(ctx, sess)
	if err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	sess.Teacher = Participant{ID: teacher.ID, Name: teacher.Name, Email: teacher.Email}
	sess.Student = Participant{ID: actor.ID, Name: actor.Name, Email: actor.Email}

	svc.notify(sess.Teacher, sess)
	return sess, nil
}

func (svc *service) Query(ctx context.Context, actor user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Session, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "start_time", Ascending: true}}
	}
	return svc.repo.QuerySessions(ctx, actor.ID, filter, ordering)
}

// Get is participant-scoped: non-participants get ErrNotFound, not a
// permission error, so the session's existence is not leaked.
func (svc *service) Get(ctx context.Context, actor user.User, id string) (Session, error) {
	sess, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.RoleOf(actor.ID) == ActorNone {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (svc *service) UpdateStatus(ctx context.Context, actor user.User, id string, target Status) (Session, error) {
	sess, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}

	role := sess.RoleOf(actor.ID)
	if err = Transition(role, sess.Status, target); err != nil {
		return Session{}, err
	}
	if target == sess.Status {
		// same-value no-op, nothing to persist or notify
		return sess, nil
	}

	now := time.Now().UTC()
	if err = svc.repo.UpdateSessionStatus(ctx, id, target, now); err != nil {
		return Session{}, errors.Wrap(err, "updating session status")
	}
	sess.Status = target
	sess.UpdatedAt = now

	svc.notify(sess.Counterpart(role), sess)
	return sess, nil
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	sess, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess.RoleOf(actor.ID) == ActorNone {
		return ErrNotFound
	}
	return svc.repo.DeleteSession(ctx, id)
}

// notify emails a participant about the session's current status.
func (svc *service) notify(to Participant, sess Session) {
	if to.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: to.Name, Address: to.Email}},
		Subject:      "Session " + string(sess.Status),
		TemplateName: "session-status",
		TemplateData: struct{ Name, Title, Status, ID string }{to.Name, sess.Title, string(sess.Status), sess.ID},
	})
}
