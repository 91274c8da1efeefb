package http

import (
	"errors"
	"net/http"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/internal/service"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	cfg       *config.Config
	log       *logger.Logger
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(cfg *config.Config, log *logger.Logger, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		cfg:       cfg,
		log:       log,
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.GET("/healthz", h.Healthz)
	h.SetupAuth(h.echo.Group("/auth"))

	base := h.echo.Group("/api",
		middleware.NewRateLimiterMiddleware(h.cfg.API),
		middleware.NewSessionMiddleware(h.cfg.Auth.CookieName, h.service.AuthService, h.log),
	)
	h.SetupTrades(base)
	h.SetupCritiques(base)
	h.SetupJobs(base)
}

func (h *HttpAPIHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}

// bindAndValidate binds the request body into req and runs struct validation on it.
// The returned error is safe to show to the caller.
func (h *HttpAPIHandler) bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.New("invalid request body")
	}
	return h.validator.Struct(req)
}

func sessionUser(c echo.Context) (dto.SessionUser, bool) {
	user, ok := dto.SessionFromContext(c.Request().Context())
	if !ok {
		return dto.SessionUser{}, false
	}
	return *user, true
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, dto.ErrTradeNotFound), errors.Is(err, dto.ErrCritiqueNotFound):
		return http.StatusNotFound
	case errors.Is(err, dto.ErrInvalidTradeState):
		return http.StatusConflict
	case errors.Is(err, dto.ErrMarketDataNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dto.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, dto.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, dto.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, dto.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse maps a service error to its status code. Internal errors are
// logged and never echoed back to the caller.
func (h *HttpAPIHandler) errorResponse(c echo.Context, err error) error {
	code := statusFromError(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		h.log.ErrorContext(c.Request().Context(), "Request failed",
			logger.StringField("path", c.Path()),
			logger.ErrorField(err),
		)
		message = "internal server error"
	}
	return c.JSON(code, dto.NewBaseResponse(code, message, nil))
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, dto.NewBaseResponse(http.StatusUnauthorized, "unauthorized", nil))
}
