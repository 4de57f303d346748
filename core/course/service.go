package course

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrContentNotFound = errors.New("content not found")
	ErrForbidden       = errors.New("permission denied")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, courseID, studentID string) error
		QueryEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
		EnrollmentExists(ctx context.Context, courseID, studentID string) (bool, error)

		CreateContent(ctx context.Context, cnt Content) (Content, error)
		GetContent(ctx context.Context, courseID, contentID string) (Content, error)
		QueryContents(ctx context.Context, courseID, kind string) ([]Content, error)
		DeleteContent(ctx context.Context, courseID, contentID string) error
	}

	// BlobStore holds uploaded course material bytes; Postgres only keeps
	// the metadata.
	BlobStore interface {
		Save(ctx context.Context, path string, r io.Reader) (int64, error)
		Remove(ctx context.Context, path string) error
	}

	// NewContent describes an incoming upload.
	NewContent struct {
		Kind        string
		Title       string
		Filename    string
		ContentType string
		Body        io.Reader
	}

	Service interface {
		Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error)
		Get(ctx context.Context, id string) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, actor user.User, id string) error

		Enroll(ctx context.Context, actor user.User, courseID string) (Enrollment, error)
		Unenroll(ctx context.Context, actor user.User, courseID string) error
		Enrollments(ctx context.Context, actor user.User, courseID string) ([]Enrollment, error)

		AddContent(ctx context.Context, actor user.User, courseID string, nc NewContent) (Content, error)
		Contents(ctx context.Context, courseID, kind string) ([]Content, error)
		RemoveContent(ctx context.Context, actor user.User, courseID, contentID string) error
	}

	service struct {
		repo   Repository
		blobs  BlobStore
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, blobs BlobStore, logger core.Logger) Service {
	return &service{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if !(actor.IsTeacher() || actor.IsAdmin()) {
		return Course{}, ErrForbidden
	}

	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		Subject:     nc.Subject,
		TeacherID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	crs.TeacherName = actor.Name
	return crs, nil
}

func (svc *service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

// mayManage reports whether actor owns the course or is an admin.
func (svc *service) mayManage(actor user.User, crs Course) bool {
	return crs.TeacherID == actor.ID || actor.IsAdmin()
}

func (svc *service) Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !svc.mayManage(actor, crs) {
		return Course{}, ErrForbidden
	}

	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.Subject = uc.Subject
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if !svc.mayManage(actor, crs) {
		return ErrForbidden
	}

	// drop stored material first; rows cascade with the course
	contents, err := svc.repo.QueryContents(ctx, id, "")
	if err != nil {
		return errors.Wrap(err, "querying course contents")
	}
	for _, cnt := range contents {
		if err = svc.blobs.Remove(ctx, cnt.StoragePath); err != nil {
			svc.logger.Warn(fmt.Sprintf("removing blob %s: %v", cnt.StoragePath, err), err)
		}
	}
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *service) Enroll(ctx context.Context, actor user.User, courseID string) (Enrollment, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if crs.TeacherID == actor.ID {
		return Enrollment{}, core.NewValidationError(nil,
			core.FieldError{Field: "course_id", Error: "cannot enroll in your own course"})
	}

	exists, err := svc.repo.EnrollmentExists(ctx, courseID, actor.ID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "checking enrollment")
	}
	if exists {
		return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled,
			core.FieldError{Field: "course_id", Error: ErrAlreadyEnrolled.Error()})
	}

	enr := Enrollment{
		CourseID:  courseID,
		StudentID: actor.ID,
		CreatedAt: time.Now().UTC(),
	}
	enr, err = svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	enr.StudentName = actor.Name
	return enr, nil
}

func (svc *service) Unenroll(ctx context.Context, actor user.User, courseID string) error {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return err
	}
	return svc.repo.DeleteEnrollment(ctx, courseID, actor.ID)
}

// Enrollments lists a course's roster; restricted to the owning teacher or admins.
func (svc *service) Enrollments(ctx context.Context, actor user.User, courseID string) ([]Enrollment, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !svc.mayManage(actor, crs) {
		return nil, ErrForbidden
	}
	return svc.repo.QueryEnrollments(ctx, courseID)
}

func (svc *service) AddContent(ctx context.Context, actor user.User, courseID string, nc NewContent) (Content, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Content{}, err
	}
	if !svc.mayManage(actor, crs) {
		return Content{}, ErrForbidden
	}

	fileErr := func(msg string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: msg})
	}
	var maxSize int64
	switch nc.Kind {
	case KindVideo:
		maxSize = core.Conf.Upload.MaxVideoSize
		if !strings.HasPrefix(nc.ContentType, "video/") {
			return Content{}, fileErr("file must be a video")
		}
	case KindPDF:
		maxSize = core.Conf.Upload.MaxPDFSize
		if nc.ContentType != "application/pdf" {
			return Content{}, fileErr("file must be a pdf")
		}
	}

	id := uuid.New().String()
	storagePath := path.Join("courses", courseID, id+"-"+path.Base(nc.Filename))
	// cap the stream one byte past the limit so oversize uploads are detectable
	size, err := svc.blobs.Save(ctx, storagePath, io.LimitReader(nc.Body, maxSize+1))
	if err != nil {
		return Content{}, errors.Wrap(err, "saving blob")
	}
	if size > maxSize {
		if rmErr := svc.blobs.Remove(ctx, storagePath); rmErr != nil {
			svc.logger.Warn(fmt.Sprintf("removing blob %s: %v", storagePath, rmErr), rmErr)
		}
		return Content{}, fileErr(fmt.Sprintf("file exceeds the %dMB size limit", maxSize>>20))
	}

	cnt := Content{
		ID:          id,
		CourseID:    courseID,
		Kind:        nc.Kind,
		Title:       nc.Title,
		Filename:    nc.Filename,
		ContentType: nc.ContentType,
		Size:        size,
		StoragePath: storagePath,
		CreatedAt:   time.Now().UTC(),
	}
	cnt, err = svc.repo.CreateContent(ctx, cnt)
	if err != nil {
		// best-effort cleanup of the orphaned blob
		if rmErr := svc.blobs.Remove(ctx, storagePath); rmErr != nil {
			svc.logger.Warn(fmt.Sprintf("removing blob %s: %v", storagePath, rmErr), rmErr)
		}
		return Content{}, errors.Wrap(err, "creating content")
	}
	return cnt, nil
}

func (svc *service) Contents(ctx context.Context, courseID, kind string) ([]Content, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryContents(ctx, courseID, kind)
}

func (svc *service) RemoveContent(ctx context.Context, actor user.User, courseID, contentID string) error {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !svc.mayManage(actor, crs) {
		return ErrForbidden
	}

	cnt, err := svc.repo.GetContent(ctx, courseID, contentID)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteContent(ctx, courseID, contentID); err != nil {
		return errors.Wrap(err, "deleting content")
	}
	if err = svc.blobs.Remove(ctx, cnt.StoragePath); err != nil {
		svc.logger.Warn(fmt.Sprintf("removing blob %s: %v", cnt.StoragePath, err), err)
	}
	return nil
}
