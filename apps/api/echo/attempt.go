package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/soma/core/attempt"
)

type attemptAPI struct {
	svc attempt.ServiceInterface
}

func registerAttemptAPI(g *echo.Group, svc attempt.ServiceInterface) {
	api := attemptAPI{svc: svc}

	attempts := g.Group("/attempts")
	attempts.GET("/:id", api.retrieve)
	attempts.POST("/:id/submit", api.submit)
}

func (api *attemptAPI) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

// submit grades the attempt. Re-submitting a completed attempt returns the stored result.
func (api *attemptAPI) submit(ctx echo.Context) error {
	var data attempt.SubmitAttempt
	if err := ctx.Bind(&data); err != nil {
		return err
	}

	a, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}
