package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Subject     string    `db:"subject"`
	TeacherID   string    `db:"teacher_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	TeacherName string    `db:"teacher_name"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Subject:     r.Subject,
		TeacherID:   r.TeacherID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		TeacherName: r.TeacherName,
	}
}

const courseSelect = `
SELECT c.id, c.title, c.description, c.subject, c.teacher_id, c.created_at, c.updated_at,
       t.name AS teacher_name
FROM course c
JOIN "user" t ON t.id = c.teacher_id`

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course (id, title, description, subject, teacher_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		crs.ID, crs.Title, crs.Description, crs.Subject, crs.TeacherID, crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, courseSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	q := courseSelect
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(c.title ILIKE %[1]s OR c.description ILIKE %[1]s)", p))
		}
		if filter.Subject != "" {
			conds = append(conds, "c.subject = "+arg(filter.Subject))
		}
		if filter.TeacherID != "" {
			conds = append(conds, "c.teacher_id = "+arg(filter.TeacherID))
		}
	}

	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += qualifiedOrderBy("c", ordering, "c.created_at DESC")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, len(rows))
	for i, row := range rows {
		courses[i] = row.toCourse()
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE course SET title = $1, description = $2, subject = $3, updated_at = $4 WHERE id = $5`,
		crs.Title, crs.Description, crs.Subject, crs.UpdatedAt, crs.ID,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, crs.ID)
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}

// enrollments

type enrollmentRow struct {
	CourseID    string    `db:"course_id"`
	StudentID   string    `db:"student_id"`
	CreatedAt   time.Time `db:"created_at"`
	StudentName string    `db:"student_name"`
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO enrollment (id, course_id, student_id, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), enr.CourseID, enr.StudentID, enr.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *courseRepository) DeleteEnrollment(ctx context.Context, courseID, studentID string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM enrollment WHERE course_id = $1 AND student_id = $2`, courseID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, courseID string) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT e.course_id, e.student_id, e.created_at, s.name AS student_name
		 FROM enrollment e
		 JOIN "user" s ON s.id = e.student_id
		 WHERE e.course_id = $1
		 ORDER BY e.created_at ASC`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]course.Enrollment, len(rows))
	for i, row := range rows {
		enrs[i] = course.Enrollment{
			CourseID:    row.CourseID,
			StudentID:   row.StudentID,
			CreatedAt:   row.CreatedAt,
			StudentName: row.StudentName,
		}
	}
	return enrs, nil
}

func (repo *courseRepository) EnrollmentExists(ctx context.Context, courseID, studentID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM enrollment WHERE course_id = $1 AND student_id = $2)`,
		courseID, studentID)
	return exists, errors.Wrap(err, "checking enrollment")
}

// contents

type contentRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	Kind        string    `db:"kind"`
	Title       string    `db:"title"`
	Filename    string    `db:"filename"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	StoragePath string    `db:"storage_path"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r contentRow) toContent() course.Content {
	return course.Content(r)
}

func (repo *courseRepository) CreateContent(ctx context.Context, cnt course.Content) (course.Content, error) {
	if cnt.ID == "" {
		cnt.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course_content (id, course_id, kind, title, filename, content_type, size, storage_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		cnt.ID, cnt.CourseID, cnt.Kind, cnt.Title, cnt.Filename, cnt.ContentType, cnt.Size, cnt.StoragePath, cnt.CreatedAt,
	)
	if err != nil {
		return course.Content{}, errors.Wrap(err, "inserting content")
	}
	return cnt, nil
}

func (repo *courseRepository) GetContent(ctx context.Context, courseID, contentID string) (course.Content, error) {
	var row contentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, course_id, kind, title, filename, content_type, size, storage_path, created_at
		 FROM course_content WHERE course_id = $1 AND id = $2`, courseID, contentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Content{}, course.ErrContentNotFound
		}
		return course.Content{}, errors.Wrap(err, "getting content")
	}
	return row.toContent(), nil
}

func (repo *courseRepository) QueryContents(ctx context.Context, courseID, kind string) ([]course.Content, error) {
	q := `SELECT id, course_id, kind, title, filename, content_type, size, storage_path, created_at
	      FROM course_content WHERE course_id = $1`
	args := []interface{}{courseID}
	if kind != "" {
		q += ` AND kind = $2`
		args = append(args, kind)
	}
	q += ` ORDER BY created_at ASC`

	var rows []contentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying contents")
	}
	cnts := make([]course.Content, len(rows))
	for i, row := range rows {
		cnts[i] = row.toContent()
	}
	return cnts, nil
}

func (repo *courseRepository) DeleteContent(ctx context.Context, courseID, contentID string) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM course_content WHERE course_id = $1 AND id = $2`, courseID, contentID)
	if err != nil {
		return errors.Wrap(err, "deleting content")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrContentNotFound
	}
	return nil
}
