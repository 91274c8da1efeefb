package http

import (
	"net/http"
	"time"

	"trading-journal/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAuth(group *echo.Group) {
	group.GET("/login", h.Login)
	group.GET("/callback", h.Callback)
	group.POST("/logout", h.Logout)
}

// Login redirects the browser to the provider consent page.
func (h *HttpAPIHandler) Login(c echo.Context) error {
	url, err := h.service.AuthService.LoginURL(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.Redirect(http.StatusFound, url)
}

func (h *HttpAPIHandler) Callback(c echo.Context) error {
	result, err := h.service.AuthService.HandleCallback(c.Request().Context(), c.QueryParam("code"), c.QueryParam("state"))
	if err != nil {
		return h.errorResponse(c, err)
	}

	c.SetCookie(h.sessionCookie(result.Token, result.ExpiresIn))
	return c.Redirect(http.StatusFound, h.cfg.Auth.PostLoginRedirect)
}

func (h *HttpAPIHandler) Logout(c echo.Context) error {
	cookie := h.sessionCookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Logged out", nil))
}

func (h *HttpAPIHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.Auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
