package ai

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/course"
	"github.com/kyalo/darasa/core/user"
)

// ErrEmptyCompletion is returned when the provider answers with content
// the feature cannot use and no fallback applies.
var ErrEmptyCompletion = errors.New("unusable completion")

const maxCandidates = 20

type courseSummary struct {
	ID      string
	Title   string
	Subject string
}

type (
	Service interface {
		Chat(ctx context.Context, usr user.User, cr ChatRequest) (string, error)
		Flashcards(ctx context.Context, usr user.User, ar AidRequest) ([]Flashcard, error)
		Quiz(ctx context.Context, usr user.User, ar AidRequest) ([]QuizQuestion, error)
		Summarize(ctx context.Context, usr user.User, sr SummaryRequest) (string, error)
		MatchTutors(ctx context.Context, usr user.User) ([]TutorMatch, error)
		RecommendCourses(ctx context.Context, usr user.User) ([]CourseRecommendation, error)
	}

	service struct {
		provider Provider
		usrRepo  user.Repository
		crsRepo  course.Repository
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(provider Provider, usrRepo user.Repository, crsRepo course.Repository, logger core.Logger) *service {
	return &service{provider: provider, usrRepo: usrRepo, crsRepo: crsRepo, logger: logger}
}

func (svc *service) Chat(ctx context.Context, usr user.User, cr ChatRequest) (string, error) {
	system := cr.SystemPrompt
	if system == "" {
		system = tutorSystemPrompt
	}
	resp, err := svc.provider.Complete(ctx, Prompt{
		System:  system,
		History: cr.History,
		Message: cr.Message,
	})
	if err != nil {
		return "", errors.Wrap(err, "completing chat")
	}
	return resp, nil
}

func (svc *service) Flashcards(ctx context.Context, usr user.User, ar AidRequest) ([]Flashcard, error) {
	raw, err := svc.provider.Complete(ctx, Prompt{Message: flashcardsPrompt(usr, ar.Topic, ar.Count)})
	if err != nil {
		return nil, errors.Wrap(err, "completing flashcards")
	}

	var cards []Flashcard
	if err = decodeJSON(raw, &cards); err != nil {
		svc.logger.Warn("decoding flashcards completion", "error", err)
		return nil, ErrEmptyCompletion
	}
	valid := cards[:0]
	for _, c := range cards {
		if c.Front != "" && c.Back != "" {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil, ErrEmptyCompletion
	}
	if len(valid) > ar.Count {
		valid = valid[:ar.Count]
	}
	return valid, nil
}

func (svc *service) Quiz(ctx context.Context, usr user.User, ar AidRequest) ([]QuizQuestion, error) {
	raw, err := svc.provider.Complete(ctx, Prompt{Message: quizPrompt(usr, ar.Topic, ar.Count)})
	if err != nil {
		return nil, errors.Wrap(err, "completing quiz")
	}

	var qs []QuizQuestion
	if err = decodeJSON(raw, &qs); err != nil {
		svc.logger.Warn("decoding quiz completion", "error", err)
		return nil, ErrEmptyCompletion
	}
	valid := qs[:0]
	for _, q := range qs {
		if q.Question != "" && len(q.Choices) >= 2 && q.Answer != "" {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, ErrEmptyCompletion
	}
	if len(valid) > ar.Count {
		valid = valid[:ar.Count]
	}
	return valid, nil
}

func (svc *service) Summarize(ctx context.Context, usr user.User, sr SummaryRequest) (string, error) {
	resp, err := svc.provider.Complete(ctx, Prompt{Message: summaryPrompt(sr.Text)})
	if err != nil {
		return "", errors.Wrap(err, "completing summary")
	}
	return resp, nil
}

func (svc *service) MatchTutors(ctx context.Context, usr user.User) ([]TutorMatch, error) {
	active := true
	tutors, err := svc.usrRepo.QueryUsers(ctx, &user.QueryFilter{Roles: []string{user.RoleTeacher}, IsActive: &active}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying tutors")
	}
	if len(tutors) > maxCandidates {
		tutors = tutors[:maxCandidates]
	}
	if len(tutors) == 0 {
		return []TutorMatch{}, nil
	}

	raw, err := svc.provider.Complete(ctx, Prompt{Message: matchTutorsPrompt(usr, tutors)})
	if err != nil {
		svc.logger.Warn("completing tutor match", "error", err)
		return fallbackTutorMatches(tutors), nil
	}
	var matches []TutorMatch
	if err = decodeJSON(raw, &matches); err != nil {
		svc.logger.Warn("decoding tutor match completion", "error", err)
		return fallbackTutorMatches(tutors), nil
	}

	// keep only IDs that actually exist in the candidate set
	known := make(map[string]bool, len(tutors))
	for _, t := range tutors {
		known[t.ID] = true
	}
	valid := matches[:0]
	for _, m := range matches {
		if known[m.TeacherID] {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		return fallbackTutorMatches(tutors), nil
	}
	return valid, nil
}

func (svc *service) RecommendCourses(ctx context.Context, usr user.User) ([]CourseRecommendation, error) {
	courses, err := svc.crsRepo.QueryCourses(ctx, &course.QueryFilter{}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	if len(courses) > maxCandidates {
		courses = courses[:maxCandidates]
	}
	if len(courses) == 0 {
		return []CourseRecommendation{}, nil
	}

	summaries := make([]courseSummary, len(courses))
	for i, c := range courses {
		summaries[i] = courseSummary{ID: c.ID, Title: c.Title, Subject: c.Subject}
	}

	raw, err := svc.provider.Complete(ctx, Prompt{Message: recommendCoursesPrompt(usr, summaries)})
	if err != nil {
		svc.logger.Warn("completing course recommendation", "error", err)
		return fallbackRecommendations(summaries), nil
	}
	var recs []CourseRecommendation
	if err = decodeJSON(raw, &recs); err != nil {
		svc.logger.Warn("decoding course recommendation completion", "error", err)
		return fallbackRecommendations(summaries), nil
	}

	known := make(map[string]bool, len(summaries))
	for _, c := range summaries {
		known[c.ID] = true
	}
	valid := recs[:0]
	for _, r := range recs {
		if known[r.CourseID] {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return fallbackRecommendations(summaries), nil
	}
	return valid, nil
}

func fallbackTutorMatches(tutors []user.User) []TutorMatch {
	matches := make([]TutorMatch, len(tutors))
	for i, t := range tutors {
		matches[i] = TutorMatch{TeacherID: t.ID}
	}
	return matches
}

func fallbackRecommendations(courses []courseSummary) []CourseRecommendation {
	recs := make([]CourseRecommendation, len(courses))
	for i, c := range courses {
		recs[i] = CourseRecommendation{CourseID: c.ID}
	}
	return recs
}
