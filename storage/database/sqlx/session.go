package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/session"
)

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

type sessionRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	TeacherID    string         `db:"teacher_id"`
	StudentID    string         `db:"student_id"`
	CourseID     sql.NullString `db:"course_id"`
	StartTime    time.Time      `db:"start_time"`
	EndTime      time.Time      `db:"end_time"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	TeacherName  string         `db:"teacher_name"`
	TeacherEmail string         `db:"teacher_email"`
	StudentName  string         `db:"student_name"`
	StudentEmail string         `db:"student_email"`
}

func (r sessionRow) toSession() session.Session {
	sess := session.Session{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		StudentID:   r.StudentID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Status:      session.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Teacher:     session.Participant{ID: r.TeacherID, Name: r.TeacherName, Email: r.TeacherEmail},
		Student:     session.Participant{ID: r.StudentID, Name: r.StudentName, Email: r.StudentEmail},
	}
	if r.CourseID.Valid {
		sess.CourseID = r.CourseID.String
	}
	return sess
}

const sessionSelect = `
SELECT s.id, s.title, s.description, s.teacher_id, s.student_id, s.course_id,
       s.start_time, s.end_time, s.status, s.created_at, s.updated_at,
       t.name AS teacher_name, t.email AS teacher_email,
       st.name AS student_name, st.email AS student_email
FROM session s
JOIN "user" t ON t.id = s.teacher_id
JOIN "user" st ON st.id = s.student_id`

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	var courseID interface{}
	if sess.CourseID != "" {
		courseID = sess.CourseID
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO session (id, title, description, teacher_id, student_id, course_id, start_time, end_time, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sess.ID, sess.Title, sess.Description, sess.TeacherID, sess.StudentID, courseID,
		sess.StartTime, sess.EndTime, sess.Status, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return repo.GetSession(ctx, sess.ID)
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (session.Session, error) {
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, sessionSelect+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	return row.toSession(), nil
}

func (repo *sessionRepository) QuerySessions(
	ctx context.Context,
	participantID string,
	filter *session.QueryFilter,
	ordering []core.DBOrdering,
) ([]session.Session, error) {
	conds := []string{"(s.teacher_id = $1 OR s.student_id = $1)"}
	args := []interface{}{participantID}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Status != "" {
			conds = append(conds, "s.status = "+arg(filter.Status))
		}
		if !filter.From.IsZero() {
			conds = append(conds, "s.start_time >= "+arg(filter.From.UTC()))
		}
		if !filter.To.IsZero() {
			conds = append(conds, "s.start_time <= "+arg(filter.To.UTC()))
		}
	}

	q := sessionSelect + " WHERE " + strings.Join(conds, " AND ") + qualifiedOrderBy("s", ordering, "s.start_time ASC")

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]session.Session, len(rows))
	for i, row := range rows {
		sessions[i] = row.toSession()
	}
	return sessions, nil
}

func (repo *sessionRepository) UpdateSessionStatus(ctx context.Context, id string, status session.Status, updatedAt time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE session SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, id)
	if err != nil {
		return errors.Wrap(err, "updating session status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM session WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// qualifiedOrderBy is orderBy with a table alias prefix for joined queries.
func qualifiedOrderBy(alias string, ordering []core.DBOrdering, fallback string) string {
	var parts []string
	for _, ord := range ordering {
		if safeOrderingFields[ord.Field] {
			parts = append(parts, alias+"."+ord.String())
		}
	}
	if len(parts) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
