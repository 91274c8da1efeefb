package repository

import (
	"fmt"

	"trading-journal/config"
	"trading-journal/pkg/cache"
	"trading-journal/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	TradeRepo         TradeRepository
	UserRepo          UserRepository
	OAuthStateRepo    OAuthStateRepository
	CritiqueRepo      CritiqueRepository
	MarketDataRepo    MarketDataRepository
	CritiqueProvider  CritiqueProvider
	OAuthProviderRepo OAuthProviderRepository
	UnitOfWork        UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, inmemoryCache cache.Cache, log *logger.Logger) (*Repository, error) {
	provider, err := NewCritiqueProvider(cfg.Critique, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		TradeRepo:         NewTradeRepository(db),
		UserRepo:          NewUserRepository(db),
		OAuthStateRepo:    NewOAuthStateRepository(db),
		CritiqueRepo:      NewCritiqueRepository(db),
		MarketDataRepo:    NewYahooFinanceRepository(cfg.MarketData, inmemoryCache, log),
		CritiqueProvider:  provider,
		OAuthProviderRepo: NewGoogleOAuthRepository(cfg.Auth, log),
		UnitOfWork:        NewUnitOfWork(db),
	}, nil
}

// NewCritiqueProvider picks the language model backend named in config.
func NewCritiqueProvider(cfg config.Critique, log *logger.Logger) (CritiqueProvider, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiAIRepository(cfg, log)
	case ProviderOpenAI:
		return NewOpenAIRepository(cfg, log), nil
	default:
		return nil, fmt.Errorf("unsupported critique provider %q", cfg.Provider)
	}
}
