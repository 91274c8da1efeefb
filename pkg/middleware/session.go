package middleware

import (
	"net/http"
	"strings"

	"trading-journal/internal/dto"
	"trading-journal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SessionVerifier turns a session token into the user it was issued to.
type SessionVerifier interface {
	VerifySession(token string) (*dto.SessionUser, error)
}

// NewSessionMiddleware rejects requests without a valid session token. The token is
// read from the Authorization bearer header first, then from the session cookie.
// On success the session user and a user-scoped logger are stored in the request context.
func NewSessionMiddleware(cookieName string, verifier SessionVerifier, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c, cookieName)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, Response{
					Status:  http.StatusUnauthorized,
					Message: "Unauthorized: missing session",
				})
			}

			user, err := verifier.VerifySession(token)
			if err != nil {
				log.Debug("Rejected session token", logger.ErrorField(err))
				return c.JSON(http.StatusUnauthorized, Response{
					Status:  http.StatusUnauthorized,
					Message: "Unauthorized: invalid or expired session",
				})
			}

			req := c.Request()
			ctx := dto.WithSession(req.Context(), user)
			ctx = logger.NewContext(ctx, log.With(
				logger.StringField("user_id", user.UserID),
				logger.StringField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			))
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context, cookieName string) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
