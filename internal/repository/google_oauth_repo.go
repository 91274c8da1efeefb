package repository

import (
	"context"
	"fmt"
	"net/http"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/pkg/logger"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type OAuthProviderRepository interface {
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the signed-in user's profile.
	Exchange(ctx context.Context, code string) (*dto.GoogleUserInfo, error)
}

type googleOAuthRepository struct {
	oauthConfig *oauth2.Config
	userInfoURL string
	logger      *logger.Logger
}

func NewGoogleOAuthRepository(cfg config.Auth, log *logger.Logger) OAuthProviderRepository {
	return newGoogleOAuthRepository(cfg, google.Endpoint, googleUserInfoURL, log)
}

func newGoogleOAuthRepository(cfg config.Auth, endpoint oauth2.Endpoint, userInfoURL string, log *logger.Logger) *googleOAuthRepository {
	return &googleOAuthRepository{
		oauthConfig: &oauth2.Config{
			RedirectURL:  cfg.RedirectURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		logger:      log,
	}
}

func (r *googleOAuthRepository) AuthCodeURL(state string) string {
	return r.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (r *googleOAuthRepository) Exchange(ctx context.Context, code string) (*dto.GoogleUserInfo, error) {
	token, err := r.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	var info dto.GoogleUserInfo
	resp, err := resty.NewWithClient(r.oauthConfig.Client(ctx, token)).R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&info).
		Get(r.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		r.logger.ErrorContext(ctx, "Google userinfo returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode()))
		return nil, fmt.Errorf("google userinfo returned status: %d", resp.StatusCode())
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("google userinfo is missing sub or email")
	}

	return &info, nil
}
