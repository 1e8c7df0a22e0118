package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core/group"
)

type groupApi struct {
	svc      *group.Service
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, svc *group.Service, validate *validator.Validate) {
	api := groupApi{svc: svc, validate: validate}

	g.GET("/get-all", api.query)
	g.POST("/create", api.create)
	g.POST("/update", api.update)
	g.PUT("/update", api.update)
	g.DELETE("/remove/:id", api.destroy)
	g.GET("/students/:group_id", api.queryStudents)
	g.POST("/run-filters", api.runFilters)
}

// Handlers

func (api *groupApi) query(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	groups, err := api.svc.QueryAll(ctx.Request().Context(), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *groupApi) update(ctx echo.Context) error {
	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	g, err := api.svc.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) queryStudents(ctx echo.Context) error {
	id, err := pathID(ctx, "group_id")
	if err != nil {
		return err
	}

	students, err := api.svc.QueryStudents(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying group students")
	}
	return ctx.JSON(http.StatusOK, students)
}

// runFilters is not cancelled when the client goes away: memberships are already cleared once a run has started.
func (api *groupApi) runFilters(ctx echo.Context) error {
	summary, err := api.svc.RunFilters(context.WithoutCancel(ctx.Request().Context()))
	if err != nil {
		return errors.Wrap(err, "running group filters")
	}
	return ctx.JSON(http.StatusOK, summary)
}
