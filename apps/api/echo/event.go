package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/event"
)

var errInvalidStatus = errors.New("unknown event status")

type (
	eventAPI struct {
		svc      event.ServiceInterface
		validate *validator.Validate
		logger   core.Logger
	}

	recomputeResponse struct {
		Results  map[event.Status]event.BranchResult `json:"results"`
		Failures map[event.Status]string             `json:"failures"`
		Modified int64                               `json:"modified"`
	}
)

func registerEventAPI(g *echo.Group, svc event.ServiceInterface, validate *validator.Validate, logger core.Logger) {
	api := eventAPI{
		svc:      svc,
		validate: validate,
		logger:   logger,
	}

	events := g.Group("/events")
	events.POST("", api.create)
	events.GET("", api.list)
	events.POST("/recompute", api.recompute)
	events.GET("/:id", api.retrieve)
	events.PUT("/:id", api.update)
	events.DELETE("/:id", api.destroy)
}

func (api *eventAPI) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.svc.Create(ctx.Request().Context(), callerID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

// list returns the caller's events. ?status= narrows to one cached status.
func (api *eventAPI) list(ctx echo.Context) error {
	status := event.Status(ctx.QueryParam("status"))
	switch status {
	case "", event.StatusUpcoming, event.StatusInProgress, event.StatusCompleted, event.StatusExpired:
	default:
		return core.NewValidationError(errInvalidStatus, core.FieldError{Field: "status", Error: errInvalidStatus.Error()})
	}

	events, err := api.svc.List(ctx.Request().Context(), callerID(ctx), status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventAPI) retrieve(ctx echo.Context) error {
	ev, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), callerID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventAPI) update(ctx echo.Context) error {
	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), callerID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventAPI) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), callerID(ctx)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// recompute runs a recompute pass on demand. Failed branches are reported, not raised.
func (api *eventAPI) recompute(ctx echo.Context) error {
	sum, err := api.svc.Recompute(ctx.Request().Context())
	if err != nil {
		api.logger.Warn("on-demand recompute", err, core.Person{ID: callerID(ctx)})
	}

	resp := recomputeResponse{
		Results:  sum.Results,
		Failures: make(map[event.Status]string, len(sum.Failures)),
		Modified: sum.Modified(),
	}
	for status, fErr := range sum.Failures {
		resp.Failures[status] = fErr.Error()
	}
	return ctx.JSON(http.StatusOK, resp)
}
