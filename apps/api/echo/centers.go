package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core/roster"
)

type (
	centerApi struct {
		svc      *roster.Service
		validate *validator.Validate
	}

	centerView struct {
		Center roster.Center      `json:"center"`
		Form   *roster.CenterForm `json:"form,omitempty"`
	}
)

func registerCenterAPI(g *echo.Group, gate echo.MiddlewareFunc, svc *roster.Service, validate *validator.Validate) {
	api := centerApi{svc: svc, validate: validate}

	cg := g.Group("/centers", gate)
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *centerApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	rows, err := api.svc.CenterRows(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying centers")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"centers": rows})
}

func (api *centerApi) create(ctx echo.Context) error {
	var data roster.CenterForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CenterForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	center, err := api.svc.CreateCenter(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating center")
	}
	return ctx.JSON(http.StatusCreated, centerView{Center: center})
}

func (api *centerApi) retrieve(ctx echo.Context) error {
	center, err := api.svc.GetCenter(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving center")
	}
	form := roster.CenterFormOf(center)
	return ctx.JSON(http.StatusOK, centerView{Center: center, Form: &form})
}

func (api *centerApi) update(ctx echo.Context) error {
	var data roster.CenterForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CenterForm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	center, err := api.svc.UpdateCenter(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating center")
	}
	return ctx.JSON(http.StatusOK, centerView{Center: center})
}

func (api *centerApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteCenter(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting center")
	}
	return ctx.NoContent(http.StatusNoContent)
}
