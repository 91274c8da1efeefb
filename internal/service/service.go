package service

import (
	"trading-journal/config"
	"trading-journal/internal/repository"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/telegram"
)

type Service struct {
	TradeService     TradeService
	CritiqueService  CritiqueService
	AuthService      AuthService
	SchedulerService SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	notifier telegram.Notifier,
) *Service {
	tradeService := NewTradeService(cfg, log, repo.TradeRepo, repo.CritiqueRepo, repo.MarketDataRepo, notifier)
	critiqueService := NewCritiqueService(cfg, log, repo.CritiqueProvider, repo.CritiqueRepo)
	authService := NewAuthService(cfg, log, repo.OAuthProviderRepo, repo.OAuthStateRepo, repo.UserRepo, repo.UnitOfWork)
	schedulerService := NewSchedulerService(cfg, log, tradeService)

	return &Service{
		TradeService:     tradeService,
		CritiqueService:  critiqueService,
		AuthService:      authService,
		SchedulerService: schedulerService,
	}
}
