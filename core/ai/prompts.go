package ai

import (
	"fmt"
	"strings"

	"github.com/kyalo/darasa/core/user"
)

const tutorSystemPrompt = "You are a friendly, patient tutor. Explain concepts clearly, " +
	"use simple examples, and encourage the student to think through problems themselves."

func profileLine(usr user.User) string {
	subjects := "none listed"
	if len(usr.Subjects) > 0 {
		subjects = strings.Join(usr.Subjects, ", ")
	}
	return fmt.Sprintf("Student profile: name %s; subjects of interest: %s.", usr.Name, subjects)
}

func flashcardsPrompt(usr user.User, topic string, count int) string {
	return fmt.Sprintf(
		"%s\nGenerate exactly %d study flashcards about %q. "+
			`Return ONLY a JSON array of objects with keys "front" and "back", no other text.`,
		profileLine(usr), count, topic,
	)
}

func quizPrompt(usr user.User, topic string, count int) string {
	return fmt.Sprintf(
		"%s\nGenerate exactly %d multiple-choice quiz questions about %q. "+
			`Return ONLY a JSON array of objects with keys "question", "choices" (4 strings) `+
			`and "answer" (one of the choices), no other text.`,
		profileLine(usr), count, topic,
	)
}

func summaryPrompt(text string) string {
	return "Summarize the following study material in a few short paragraphs. " +
		"Return plain text only.\n\n" + text
}

func matchTutorsPrompt(usr user.User, tutors []user.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nAvailable tutors:\n", profileLine(usr))
	for _, t := range tutors {
		fmt.Fprintf(&b, "- id %s: %s, teaches %s\n", t.ID, t.Name, strings.Join(t.Subjects, ", "))
	}
	b.WriteString(`Rank the tutors best suited to this student. Return ONLY a JSON array ` +
		`of objects with keys "teacher_id" and "reason", best match first, no other text.`)
	return b.String()
}

func recommendCoursesPrompt(usr user.User, courses []courseSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nAvailable courses:\n", profileLine(usr))
	for _, c := range courses {
		fmt.Fprintf(&b, "- id %s: %s (%s)\n", c.ID, c.Title, c.Subject)
	}
	b.WriteString(`Rank the courses this student should take next. Return ONLY a JSON array ` +
		`of objects with keys "course_id" and "reason", best match first, no other text.`)
	return b.String()
}
