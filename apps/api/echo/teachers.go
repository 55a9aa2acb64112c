package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/roster"
)

type (
	teacherApi struct {
		svc         *roster.Service
		invitations *invitation.Service
		logger      core.Logger
		validate    *validator.Validate
	}

	teacherView struct {
		Teacher roster.Teacher      `json:"teacher"`
		Form    *roster.TeacherForm `json:"form,omitempty"`
	}
)

func registerTeacherAPI(
	g *echo.Group,
	gate echo.MiddlewareFunc,
	svc *roster.Service,
	invitations *invitation.Service,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := teacherApi{
		svc:         svc,
		invitations: invitations,
		logger:      logger,
		validate:    validate,
	}

	tg := g.Group("/teachers", gate)
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
	tg.POST("/:id/invite", api.invite)
}

// Handlers

func (api *teacherApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	rows, err := api.svc.TeacherRows(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"teachers": rows})
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data roster.TeacherForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, teacherView{Teacher: teacher})
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	teacher, err := api.svc.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving teacher")
	}
	form := roster.TeacherFormOf(teacher)
	return ctx.JSON(http.StatusOK, teacherView{Teacher: teacher, Form: &form})
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data roster.TeacherForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.UpdateTeacher(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, teacherView{Teacher: teacher})
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteTeacher(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) invite(ctx echo.Context) error {
	var data invitation.InviteForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving teacher")
	}
	res, err := api.invitations.InviteTeacher(ctx.Request().Context(), teacher, data)
	return respondInvitation(ctx, api.logger, res, err)
}

// respondInvitation answers with the invitation even when the backend failed to e-mail it,
// as long as a link could be handed out instead.
func respondInvitation(ctx echo.Context, logger core.Logger, res invitation.SendResult, err error) error {
	if err != nil {
		if !res.ManualShare {
			return err
		}
		logger.Warn("invitation not e-mailed by the backend", err, contextUserRecord(ctx))
	}
	return ctx.JSON(http.StatusCreated, res)
}
