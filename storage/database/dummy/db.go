// Package dummydb provides in-memory Repository implementations for tests.
package dummydb

import (
	"sync"

	"github.com/kyalo/darasa/core/course"
	"github.com/kyalo/darasa/core/message"
	"github.com/kyalo/darasa/core/session"
	"github.com/kyalo/darasa/core/user"
)

type (
	DB struct {
		user    *userTable
		session *sessionTable
		course  *courseTable
		message *messageTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}

	courseTable struct {
		sync.RWMutex
		courses     map[string]*course.Course
		enrollments map[string]*course.Enrollment // key: courseID + "/" + studentID
		contents    map[string]*course.Content
	}

	messageTable struct {
		sync.RWMutex
		table map[string]*message.Message
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		session: &sessionTable{table: make(map[string]*session.Session)},
		course: &courseTable{
			courses:     make(map[string]*course.Course),
			enrollments: make(map[string]*course.Enrollment),
			contents:    make(map[string]*course.Content),
		},
		message: &messageTable{table: make(map[string]*message.Message)},
	}
	return db, nil
}

// Reset drops all rows. For tests.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.session.Lock()
	db.session.table = make(map[string]*session.Session)
	db.session.Unlock()

	db.course.Lock()
	db.course.courses = make(map[string]*course.Course)
	db.course.enrollments = make(map[string]*course.Enrollment)
	db.course.contents = make(map[string]*course.Content)
	db.course.Unlock()

	db.message.Lock()
	db.message.table = make(map[string]*message.Message)
	db.message.Unlock()
}
