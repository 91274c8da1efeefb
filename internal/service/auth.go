package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/internal/model"
	"trading-journal/internal/repository"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AuthService interface {
	// LoginURL stores a fresh single-use state and returns the provider consent URL.
	LoginURL(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, code, state string) (*dto.LoginResult, error)
	VerifySession(token string) (*dto.SessionUser, error)
}

type authService struct {
	cfg            config.Auth
	log            *logger.Logger
	oauthRepo      repository.OAuthProviderRepository
	oauthStateRepo repository.OAuthStateRepository
	userRepo       repository.UserRepository
	unitOfWork     repository.UnitOfWork
	now            func() time.Time
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewAuthService(
	cfg *config.Config,
	log *logger.Logger,
	oauthRepo repository.OAuthProviderRepository,
	oauthStateRepo repository.OAuthStateRepository,
	userRepo repository.UserRepository,
	unitOfWork repository.UnitOfWork,
) AuthService {
	return newAuthService(cfg, log, oauthRepo, oauthStateRepo, userRepo, unitOfWork)
}

func newAuthService(
	cfg *config.Config,
	log *logger.Logger,
	oauthRepo repository.OAuthProviderRepository,
	oauthStateRepo repository.OAuthStateRepository,
	userRepo repository.UserRepository,
	unitOfWork repository.UnitOfWork,
) *authService {
	return &authService{
		cfg:            cfg.Auth,
		log:            log,
		oauthRepo:      oauthRepo,
		oauthStateRepo: oauthStateRepo,
		userRepo:       userRepo,
		unitOfWork:     unitOfWork,
		now:            time.Now,
	}
}

func (s *authService) LoginURL(ctx context.Context) (string, error) {
	state := &model.OAuthState{
		State:     uuid.NewString(),
		ExpiresAt: s.now().UTC().Add(s.cfg.StateTTL),
	}
	if err := s.oauthStateRepo.Store(ctx, state); err != nil {
		s.log.ErrorContext(ctx, "Failed to store oauth state", logger.ErrorField(err))
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return s.oauthRepo.AuthCodeURL(state.State), nil
}

func (s *authService) HandleCallback(ctx context.Context, code, state string) (*dto.LoginResult, error) {
	if code == "" || state == "" {
		return nil, fmt.Errorf("missing code or state: %w", dto.ErrUnauthorized)
	}

	ok, err := s.oauthStateRepo.Consume(ctx, state, s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to consume oauth state", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("unknown or expired oauth state: %w", dto.ErrUnauthorized)
	}

	info, err := s.oauthRepo.Exchange(ctx, code)
	if err != nil {
		s.log.WarnContext(ctx, "OAuth exchange failed", logger.ErrorField(err))
		return nil, fmt.Errorf("%v: %w", err, dto.ErrUnauthorized)
	}

	if !info.EmailVerified || !utils.ContainsFold(s.cfg.AllowedEmails, info.Email) {
		s.log.WarnContext(ctx, "Login rejected by allow-list", logger.StringField("email", info.Email))
		return nil, fmt.Errorf("email %s is not allowed: %w", info.Email, dto.ErrForbidden)
	}

	now := s.now().UTC()
	err = s.unitOfWork.Run(func(opts ...utils.DBOption) error {
		if err := s.userRepo.Upsert(ctx, &model.User{
			ID:          info.Sub,
			Email:       info.Email,
			Name:        info.Name,
			LastLoginAt: now,
		}, opts...); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if _, err := s.oauthStateRepo.DeleteExpired(ctx, now, opts...); err != nil {
			return fmt.Errorf("failed to purge expired oauth states: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to complete login", logger.ErrorField(err))
		return nil, err
	}

	user := dto.SessionUser{UserID: info.Sub, Email: info.Email}
	token, err := s.issueToken(user)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to issue session token", logger.ErrorField(err))
		return nil, err
	}

	s.log.InfoContext(ctx, "User logged in", logger.StringField("user_id", user.UserID))
	return &dto.LoginResult{
		Token:     token,
		ExpiresIn: int(s.cfg.SessionTTL.Seconds()),
		User:      user,
	}, nil
}

func (s *authService) issueToken(user dto.SessionUser) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", errors.New("auth.jwt_secret is not configured")
	}

	now := s.now()
	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

func (s *authService) VerifySession(tokenString string) (*dto.SessionUser, error) {
	if s.cfg.JWTSecret == "" {
		return nil, dto.ErrUnauthorized
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token: %w", dto.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("session token has no subject: %w", dto.ErrUnauthorized)
	}

	return &dto.SessionUser{UserID: claims.Subject, Email: claims.Email}, nil
}
