package http

import (
	"net/http"

	"trading-journal/internal/dto"

	"github.com/labstack/echo/v4"
)

const (
	defaultCritiqueLimit = 20
	maxCritiqueLimit     = 100
)

func (h *HttpAPIHandler) SetupCritiques(base *echo.Group) {
	v1 := base.Group("/v1/critiques")
	{
		v1.POST("", h.CreateCritique)
		v1.GET("", h.ListCritiques)
	}
}

func (h *HttpAPIHandler) CreateCritique(c echo.Context) error {
	user, ok := sessionUser(c)
	if !ok {
		return unauthorized(c)
	}

	req := new(dto.CritiqueRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.CritiqueService.Critique(c.Request().Context(), user, *req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Critique", result))
}

func (h *HttpAPIHandler) ListCritiques(c echo.Context) error {
	user, ok := sessionUser(c)
	if !ok {
		return unauthorized(c)
	}

	limit := defaultCritiqueLimit
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("limit must be an integer"))
	}
	if limit <= 0 || limit > maxCritiqueLimit {
		limit = defaultCritiqueLimit
	}

	critiques, err := h.service.CritiqueService.ListCritiques(c.Request().Context(), user, limit)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Critiques", critiques))
}
