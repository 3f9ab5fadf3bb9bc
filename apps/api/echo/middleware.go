package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/soma/core"
)

// callerHeader carries the caller's identity, set by the gateway in front of the API.
const (
	callerHeader     = "X-User-ID"
	callerContextKey = "caller"
)

func callerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id := strings.TrimSpace(ctx.Request().Header.Get(callerHeader))
		if id == "" {
			return errMissingCaller
		}
		ctx.Set(callerContextKey, core.Person{ID: id})
		return next(ctx)
	}
}

func contextCaller(ctx echo.Context) (core.Person, bool) {
	p, ok := ctx.Get(callerContextKey).(core.Person)
	return p, ok
}

// callerID is only called behind callerMiddleware.
func callerID(ctx echo.Context) string {
	p, _ := contextCaller(ctx)
	return p.ID
}
