package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core/session"
)

type sessionApi struct {
	deps ServerDeps
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{deps: deps}

	sg := g.Group("/sessions", jwt)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PATCH("/:id", api.updateStatus)
	sg.DELETE("/:id", api.destroy)
}

func (api *sessionApi) create(ctx echo.Context) error {
	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sess, err := api.deps.SessionSvc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return sessionError(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *sessionApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(session.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sessions, err := api.deps.SessionSvc.Query(ctx.Request().Context(), ctxUsr, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sess, err := api.deps.SessionSvc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return sessionError(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) updateStatus(ctx echo.Context) error {
	var data session.UpdateSessionStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSessionStatus")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sess, err := api.deps.SessionSvc.UpdateStatus(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.Status)
	if err != nil {
		return sessionError(err, "updating session status")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.deps.SessionSvc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return sessionError(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// sessionError maps domain errors to HTTP status codes.
func sessionError(err error, msg string) error {
	switch cause := errors.Cause(err); cause {
	case session.ErrNotFound:
		return errHttpNotFound
	case session.ErrForbidden:
		return errHttpForbidden
	case session.ErrNotParticipant, session.ErrStatusForbidden:
		return echo.NewHTTPError(http.StatusForbidden, cause.Error())
	case session.ErrInvalidTransition:
		return echo.NewHTTPError(http.StatusBadRequest, cause.Error())
	default:
		return errors.Wrap(err, msg)
	}
}
