package dto

import "context"

// SessionUser is the authenticated caller of a request.
type SessionUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type sessionContextKey struct{}

func WithSession(ctx context.Context, user *SessionUser) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, user)
}

func SessionFromContext(ctx context.Context) (*SessionUser, bool) {
	user, ok := ctx.Value(sessionContextKey{}).(*SessionUser)
	return user, ok && user != nil
}

// GoogleUserInfo is the subset of the OpenID userinfo document we rely on.
type GoogleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type LoginResult struct {
	Token     string
	ExpiresIn int
	User      SessionUser
}
