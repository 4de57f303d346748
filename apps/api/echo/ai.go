package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core/ai"
)

type aiApi struct {
	deps ServerDeps
}

func registerAIAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := aiApi{deps: deps}

	ag := g.Group("/ai", jwt)
	ag.POST("/chat", api.chat)
	ag.POST("/flashcards", api.flashcards)
	ag.POST("/quiz", api.quiz)
	ag.POST("/summary", api.summary)
	ag.POST("/match-tutors", api.matchTutors)
	ag.POST("/recommend-courses", api.recommendCourses)
}

type (
	ChatResponse struct {
		Success  bool   `json:"success"`
		Response string `json:"response"`
	}
)

func (api *aiApi) chat(ctx echo.Context) error {
	var data ai.ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	resp, err := api.deps.AISvc.Chat(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return aiError(err, "completing chat")
	}
	return ctx.JSON(http.StatusOK, ChatResponse{Success: true, Response: resp})
}

func (api *aiApi) flashcards(ctx echo.Context) error {
	var data ai.AidRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AidRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cards, err := api.deps.AISvc.Flashcards(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return aiError(err, "generating flashcards")
	}
	return ctx.JSON(http.StatusOK, cards)
}

func (api *aiApi) quiz(ctx echo.Context) error {
	var data ai.AidRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AidRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	qs, err := api.deps.AISvc.Quiz(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return aiError(err, "generating quiz")
	}
	return ctx.JSON(http.StatusOK, qs)
}

func (api *aiApi) summary(ctx echo.Context) error {
	var data ai.SummaryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SummaryRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	resp, err := api.deps.AISvc.Summarize(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return aiError(err, "summarizing")
	}
	return ctx.JSON(http.StatusOK, ChatResponse{Success: true, Response: resp})
}

func (api *aiApi) matchTutors(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	matches, err := api.deps.AISvc.MatchTutors(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return aiError(err, "matching tutors")
	}
	return ctx.JSON(http.StatusOK, matches)
}

func (api *aiApi) recommendCourses(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	recs, err := api.deps.AISvc.RecommendCourses(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return aiError(err, "recommending courses")
	}
	return ctx.JSON(http.StatusOK, recs)
}

// aiError maps provider failures to a 502; anything else is a server error.
func aiError(err error, msg string) error {
	if errors.Cause(err) == ai.ErrEmptyCompletion {
		return echo.NewHTTPError(http.StatusBadGateway, "the assistant could not produce a usable answer, please try again")
	}
	return errors.Wrap(err, msg)
}
