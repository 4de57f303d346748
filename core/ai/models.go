package ai

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/kyalo/darasa/core"
)

// Provider completes a chat prompt against an external LLM service.
type Provider interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

type (
	// Turn is one prior exchange in a chat history.
	Turn struct {
		Role    string `json:"role" validate:"omitempty,oneof=user assistant"`
		Content string `json:"content"`
	}

	Prompt struct {
		System  string
		History []Turn
		Message string
	}
)

type (
	Flashcard struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}

	QuizQuestion struct {
		Question string   `json:"question"`
		Choices  []string `json:"choices"`
		Answer   string   `json:"answer"`
	}

	TutorMatch struct {
		TeacherID string `json:"teacher_id"`
		Reason    string `json:"reason,omitempty"`
	}

	CourseRecommendation struct {
		CourseID string `json:"course_id"`
		Reason   string `json:"reason,omitempty"`
	}
)

type (
	ChatRequest struct {
		Message      string `json:"message" validate:"required"`
		History      []Turn `json:"history" validate:"omitempty,dive"`
		SystemPrompt string `json:"system_prompt"`
	}

	AidRequest struct {
		Topic string `json:"topic" validate:"required"`
		Count int    `json:"count" validate:"omitempty,min=1,max=20"`
	}

	SummaryRequest struct {
		Text string `json:"text" validate:"required"`
	}
)

func (cr *ChatRequest) Validate(validate *validator.Validate) error {
	cr.Message = core.CleanString(cr.Message)
	return validate.Struct(cr)
}

func (ar *AidRequest) Validate(validate *validator.Validate) error {
	ar.Topic = core.CleanString(ar.Topic)
	if ar.Count == 0 {
		ar.Count = 5
	}
	return validate.Struct(ar)
}

func (sr *SummaryRequest) Validate(validate *validator.Validate) error {
	sr.Text = core.CleanString(sr.Text)
	return validate.Struct(sr)
}
