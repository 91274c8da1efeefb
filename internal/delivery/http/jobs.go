package http

import (
	"net/http"

	"trading-journal/internal/dto"
	"trading-journal/pkg/logger"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	v1 := base.Group("/v1/jobs")
	{
		v1.POST("/tick", h.RunTick)
	}
}

// RunTick finalizes due scheduled trades and refreshes unrealized PnL on demand.
func (h *HttpAPIHandler) RunTick(c echo.Context) error {
	ctx := c.Request().Context()
	result, err := h.service.TradeService.Tick(ctx)
	if err != nil {
		// per-trade failures are already folded into the result counts
		h.log.WarnContext(ctx, "Tick finished with errors", logger.ErrorField(err))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Tick completed", result))
}
