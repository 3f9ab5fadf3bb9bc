package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/soma/core"
)

const orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads ?ordering=title,-created_at keeping only the allowed fields.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrdering(val, allowed...)
	}
}

type (
	ParticipantCheckRequest struct {
		ParticipantID string `json:"participant_id"`
	}

	ParticipantCheckResponse struct {
		Valid bool `json:"valid"`
	}
)
