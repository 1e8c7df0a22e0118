package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core/roll"
)

type rollApi struct {
	svc      *roll.Service
	validate *validator.Validate
}

func registerRollAPI(g *echo.Group, svc *roll.Service, validate *validator.Validate) {
	api := rollApi{svc: svc, validate: validate}

	g.GET("/get-all", api.query)
	g.GET("/get-by-id/:id", api.retrieve)
	g.GET("/outcomes/:id", api.queryOutcomes)
	g.POST("/create", api.create)
	g.POST("/add-student-states/:id", api.addOutcomes)
}

func (api *rollApi) query(ctx echo.Context) error {
	rolls, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying rolls")
	}
	return ctx.JSON(http.StatusOK, rolls)
}

func (api *rollApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	r, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting roll")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rollApi) queryOutcomes(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	outcomes, err := api.svc.Outcomes(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying roll outcomes")
	}
	return ctx.JSON(http.StatusOK, outcomes)
}

func (api *rollApi) create(ctx echo.Context) error {
	var data roll.NewRoll
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoll")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating roll")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *rollApi) addOutcomes(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data roll.NewOutcomes
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOutcomes")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	outcomes, err := api.svc.AddOutcomes(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "adding roll outcomes")
	}
	return ctx.JSON(http.StatusOK, outcomes)
}
