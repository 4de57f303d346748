package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/course"
)

type courseRepository struct {
	db      *courseTable
	usersDB *userTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course, usersDB: db.user}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	repo.db.courses[crs.ID] = &crs
	return repo.join(crs), nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return repo.join(*crs), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courses []course.Course
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(crs.Title), search) &&
					!strings.Contains(strings.ToLower(crs.Description), search) {
					continue
				}
			}
			if filter.Subject != "" && crs.Subject != filter.Subject {
				continue
			}
			if filter.TeacherID != "" && crs.TeacherID != filter.TeacherID {
				continue
			}
		}
		courses = append(courses, repo.join(*crs))
	}

	ascending := false // created_at DESC default
	if len(ordering) > 0 {
		ascending = ordering[0].Ascending
	}
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i], courses[j]
		if !ascending {
			a, b = b, a
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Title = crs.Title
	orig.Description = crs.Description
	orig.Subject = crs.Subject
	orig.UpdatedAt = crs.UpdatedAt
	return repo.join(*orig), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.courses, id)
	for key, enr := range repo.db.enrollments {
		if enr.CourseID == id {
			delete(repo.db.enrollments, key)
		}
	}
	for key, cnt := range repo.db.contents {
		if cnt.CourseID == id {
			delete(repo.db.contents, key)
		}
	}
	return nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := enr.CourseID + "/" + enr.StudentID
	if _, ok := repo.db.enrollments[key]; ok {
		return course.Enrollment{}, course.ErrAlreadyEnrolled
	}
	repo.db.enrollments[key] = &enr
	return enr, nil
}

func (repo *courseRepository) DeleteEnrollment(_ context.Context, courseID, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := courseID + "/" + studentID
	if _, ok := repo.db.enrollments[key]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.enrollments, key)
	return nil
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, courseID string) ([]course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrs []course.Enrollment
	for _, enr := range repo.db.enrollments {
		if enr.CourseID != courseID {
			continue
		}
		e := *enr
		repo.usersDB.RLock()
		if usr, ok := repo.usersDB.table[e.StudentID]; ok {
			e.StudentName = usr.Name
		}
		repo.usersDB.RUnlock()
		enrs = append(enrs, e)
	}
	sort.SliceStable(enrs, func(i, j int) bool { return enrs[i].CreatedAt.Before(enrs[j].CreatedAt) })
	return enrs, nil
}

func (repo *courseRepository) EnrollmentExists(_ context.Context, courseID, studentID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.enrollments[courseID+"/"+studentID]
	return ok, nil
}

func (repo *courseRepository) CreateContent(_ context.Context, cnt course.Content) (course.Content, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if cnt.ID == "" {
		cnt.ID = uuid.New().String()
	}
	repo.db.contents[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *courseRepository) GetContent(_ context.Context, courseID, contentID string) (course.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cnt, ok := repo.db.contents[contentID]; ok && cnt.CourseID == courseID {
		return *cnt, nil
	}
	return course.Content{}, course.ErrContentNotFound
}

func (repo *courseRepository) QueryContents(_ context.Context, courseID, kind string) ([]course.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cnts []course.Content
	for _, cnt := range repo.db.contents {
		if cnt.CourseID != courseID {
			continue
		}
		if kind != "" && cnt.Kind != kind {
			continue
		}
		cnts = append(cnts, *cnt)
	}
	sort.SliceStable(cnts, func(i, j int) bool { return cnts[i].CreatedAt.Before(cnts[j].CreatedAt) })
	return cnts, nil
}

func (repo *courseRepository) DeleteContent(_ context.Context, courseID, contentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if cnt, ok := repo.db.contents[contentID]; !ok || cnt.CourseID != courseID {
		return course.ErrContentNotFound
	}
	delete(repo.db.contents, contentID)
	return nil
}

func (repo *courseRepository) join(crs course.Course) course.Course {
	repo.usersDB.RLock()
	defer repo.usersDB.RUnlock()

	if usr, ok := repo.usersDB.table[crs.TeacherID]; ok {
		crs.TeacherName = usr.Name
	}
	return crs
}
