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
	childrenApi struct {
		svc         *roster.Service
		invitations *invitation.Service
		logger      core.Logger
		validate    *validator.Validate
	}

	childView struct {
		Child roster.Child      `json:"child"`
		Form  *roster.ChildForm `json:"form,omitempty"`
	}

	// childChoices are the options of the child form selects.
	childChoices struct {
		Genders   []string `json:"genders"`
		Diagnoses []string `json:"diagnoses"`
		Languages []string `json:"languages"`
	}
)

var formChoices = childChoices{
	Genders:   roster.Genders,
	Diagnoses: roster.Diagnoses,
	Languages: roster.Languages,
}

func registerChildrenAPI(
	g *echo.Group,
	gate echo.MiddlewareFunc,
	svc *roster.Service,
	invitations *invitation.Service,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := childrenApi{
		svc:         svc,
		invitations: invitations,
		logger:      logger,
		validate:    validate,
	}

	g.GET("/data", api.data, gate)

	cg := g.Group("/children", gate)
	cg.GET("/choices", api.choices)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.POST("/:id/invite", api.invite)
}

// Handlers

func (api *childrenApi) data(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var filter DataFilter
	filter.Bind(ctx)

	view, err := api.svc.DataView(ctx.Request().Context(), usr, filter.Teacher)
	if err != nil {
		return errors.Wrap(err, "loading data view")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *childrenApi) choices(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, formChoices)
}

func (api *childrenApi) create(ctx echo.Context) error {
	var data roster.ChildForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChildForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	child, err := api.svc.CreateChild(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating child")
	}
	return ctx.JSON(http.StatusCreated, childView{Child: child})
}

func (api *childrenApi) retrieve(ctx echo.Context) error {
	child, err := api.svc.GetChild(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving child")
	}
	form := roster.ChildFormOf(child)
	return ctx.JSON(http.StatusOK, childView{Child: child, Form: &form})
}

func (api *childrenApi) update(ctx echo.Context) error {
	var data roster.ChildForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChildForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	child, err := api.svc.UpdateChild(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating child")
	}
	return ctx.JSON(http.StatusOK, childView{Child: child})
}

func (api *childrenApi) invite(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data invitation.InviteForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	child, err := api.svc.GetChild(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving child")
	}
	res, err := api.invitations.InviteParent(ctx.Request().Context(), usr, child, data)
	return respondInvitation(ctx, api.logger, res, err)
}
