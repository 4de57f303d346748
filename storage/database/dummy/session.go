package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/session"
)

type sessionRepository struct {
	db      *sessionTable
	usersDB *userTable
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session, usersDB: db.user}
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	repo.db.table[sess.ID] = &sess
	return repo.join(sess), nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sess, ok := repo.db.table[id]; ok {
		return repo.join(*sess), nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) QuerySessions(
	_ context.Context,
	participantID string,
	filter *session.QueryFilter,
	ordering []core.DBOrdering,
) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var sessions []session.Session
	for _, sess := range repo.db.table {
		if sess.TeacherID != participantID && sess.StudentID != participantID {
			continue
		}
		if filter != nil {
			if filter.Status != "" && sess.Status != filter.Status {
				continue
			}
			if !filter.From.IsZero() && sess.StartTime.Before(filter.From.UTC()) {
				continue
			}
			if !filter.To.IsZero() && sess.StartTime.After(filter.To.UTC()) {
				continue
			}
		}
		sessions = append(sessions, repo.join(*sess))
	}

	ascending := true
	if len(ordering) > 0 {
		ascending = ordering[0].Ascending
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !ascending {
			a, b = b, a
		}
		return a.StartTime.Before(b.StartTime)
	})
	return sessions, nil
}

func (repo *sessionRepository) UpdateSessionStatus(_ context.Context, id string, status session.Status, updatedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sess, ok := repo.db.table[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.Status = status
	sess.UpdatedAt = updatedAt
	return nil
}

func (repo *sessionRepository) DeleteSession(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return session.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *sessionRepository) join(sess session.Session) session.Session {
	repo.usersDB.RLock()
	defer repo.usersDB.RUnlock()

	sess.Teacher = repo.participant(sess.TeacherID)
	sess.Student = repo.participant(sess.StudentID)
	return sess
}

func (repo *sessionRepository) participant(id string) session.Participant {
	if usr, ok := repo.usersDB.table[id]; ok {
		return session.Participant{ID: usr.ID, Name: usr.Name, Email: usr.Email}
	}
	return session.Participant{ID: id}
}
