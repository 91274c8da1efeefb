package http

import (
	"net/http"

	"trading-journal/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupTrades(base *echo.Group) {
	v1 := base.Group("/v1")
	{
		v1.GET("/positions", h.ListPositions)
		v1.POST("/trades", h.OpenTrade)
		v1.POST("/trades/:id/close", h.ClosePosition)
	}
}

func (h *HttpAPIHandler) ListPositions(c echo.Context) error {
	user, ok := sessionUser(c)
	if !ok {
		return unauthorized(c)
	}

	positions, err := h.service.TradeService.ListPositions(c.Request().Context(), user)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Positions", positions))
}

func (h *HttpAPIHandler) OpenTrade(c echo.Context) error {
	user, ok := sessionUser(c)
	if !ok {
		return unauthorized(c)
	}

	req := new(dto.OpenTradeRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	trade, err := h.service.TradeService.OpenTrade(c.Request().Context(), user, *req)
	if err != nil {
		return h.errorResponse(c, err)
	}

	message := "Trade opened"
	if trade.EntryDate == nil {
		message = "Trade scheduled"
	}
	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, message, dto.NewTradeResponse(*trade)))
}

func (h *HttpAPIHandler) ClosePosition(c echo.Context) error {
	user, ok := sessionUser(c)
	if !ok {
		return unauthorized(c)
	}

	req := new(dto.ClosePositionRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	trade, err := h.service.TradeService.ClosePosition(c.Request().Context(), user, c.Param("id"), *req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Trade closed", dto.NewTradeResponse(*trade)))
}
