package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/course"
)

type courseApi struct {
	deps ServerDeps
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{deps: deps}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)

	dg.POST("/enroll", api.enroll)
	dg.DELETE("/enroll", api.unenroll)
	dg.GET("/enrollments", api.enrollments)

	dg.GET("/videos", api.queryVideos)
	dg.POST("/videos", api.uploadVideo)
	dg.DELETE("/videos/:contentID", api.destroyVideo)

	dg.GET("/pdfs", api.queryPDFs)
	dg.POST("/pdfs", api.uploadPDF)
	dg.DELETE("/pdfs/:contentID", api.destroyPDF)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.deps.CourseSvc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return courseError(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return err
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.deps.CourseSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.deps.CourseSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return courseError(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	// omitted fields keep the original values
	origCrs, err := api.deps.CourseSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return courseError(err, "getting course")
	}
	if err := data.Validate(origCrs, api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.deps.CourseSvc.Update(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return courseError(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.deps.CourseSvc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return courseError(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.deps.CourseSvc.Enroll(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return courseError(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.deps.CourseSvc.Unenroll(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return courseError(err, "unenrolling")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enrollments(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enrs, err := api.deps.CourseSvc.Enrollments(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return courseError(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

// contents

func (api *courseApi) queryVideos(ctx echo.Context) error {
	return api.queryContents(ctx, course.KindVideo)
}

func (api *courseApi) queryPDFs(ctx echo.Context) error {
	return api.queryContents(ctx, course.KindPDF)
}

func (api *courseApi) queryContents(ctx echo.Context, kind string) error {
	cnts, err := api.deps.CourseSvc.Contents(ctx.Request().Context(), ctx.Param("id"), kind)
	if err != nil {
		return courseError(err, "querying contents")
	}
	if cnts == nil {
		cnts = []course.Content{}
	}
	return ctx.JSON(http.StatusOK, cnts)
}

func (api *courseApi) uploadVideo(ctx echo.Context) error {
	return api.upload(ctx, course.KindVideo)
}

func (api *courseApi) uploadPDF(ctx echo.Context) error {
	return api.upload(ctx, course.KindPDF)
}

func (api *courseApi) upload(ctx echo.Context, kind string) error {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	f, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	nc := course.NewContent{
		Kind:        kind,
		Title:       core.CleanString(ctx.FormValue("title")),
		Filename:    fileHdr.Filename,
		ContentType: fileHdr.Header.Get("Content-Type"),
		Body:        f,
	}
	cnt, err := api.deps.CourseSvc.AddContent(ctx.Request().Context(), ctxUsr, ctx.Param("id"), nc)
	if err != nil {
		return courseError(err, "adding content")
	}
	return ctx.JSON(http.StatusCreated, cnt)
}

func (api *courseApi) destroyVideo(ctx echo.Context) error {
	return api.destroyContent(ctx)
}

func (api *courseApi) destroyPDF(ctx echo.Context) error {
	return api.destroyContent(ctx)
}

func (api *courseApi) destroyContent(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.deps.CourseSvc.RemoveContent(ctx.Request().Context(), ctxUsr, ctx.Param("id"), ctx.Param("contentID")); err != nil {
		return courseError(err, "removing content")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// courseError maps domain errors to HTTP status codes.
func courseError(err error, msg string) error {
	switch cause := errors.Cause(err); cause {
	case course.ErrNotFound, course.ErrContentNotFound:
		return errHttpNotFound
	case course.ErrForbidden:
		return errHttpForbidden
	default:
		return errors.Wrap(err, msg)
	}
}
