package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kyalo/darasa/core/course"
	"github.com/kyalo/darasa/core/message"
	"github.com/kyalo/darasa/core/session"
	"github.com/kyalo/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateSession(
	t *testing.T,
	repo session.Repository,
	title string,
	teacher, student user.User,
	start, end time.Time,
	status session.Status,
) session.Session {
	now := time.Now().UTC()
	sess := session.Session{
		Title:     title,
		TeacherID: teacher.ID,
		StudentID: student.ID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess, err := repo.CreateSession(context.Background(), sess)
	if err != nil {
		t.Fatalf("createSession() failed: %v", err)
	}
	return sess
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	title, subject string,
	teacher user.User,
) course.Course {
	now := time.Now().UTC()
	crs := course.Course{
		Title:     title,
		Subject:   subject,
		TeacherID: teacher.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func CreateMessage(
	t *testing.T,
	repo message.Repository,
	sender, recipient user.User,
	body string,
	createdAt ...time.Time,
) message.Message {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	msg := message.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Body:        body,
		CreatedAt:   tstamp,
	}
	msg, err := repo.CreateMessage(context.Background(), msg)
	if err != nil {
		t.Fatalf("createMessage() failed: %v", err)
	}
	return msg
}
