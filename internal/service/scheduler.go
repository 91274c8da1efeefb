package service

import (
	"context"
	"fmt"
	"time"

	"trading-journal/config"
	"trading-journal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the lifecycle tick on a cron so positions advance
// without anyone opening the dashboard.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	NextRun() time.Time
}

type schedulerService struct {
	cfg          *config.Config
	log          *logger.Logger
	cronParser   cron.Parser
	cron         *cron.Cron
	entryID      cron.EntryID
	tradeService TradeService
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	tradeService TradeService,
) SchedulerService {
	return newSchedulerService(cfg, log, tradeService)
}

func newSchedulerService(cfg *config.Config, log *logger.Logger, tradeService TradeService) *schedulerService {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	loc, err := time.LoadLocation(cfg.Market.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	return &schedulerService{
		cfg:          cfg,
		log:          log,
		cronParser:   parser,
		cron:         cron.New(cron.WithParser(parser), cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		tradeService: tradeService,
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	if _, err := s.cronParser.Parse(s.cfg.Scheduler.Cron); err != nil {
		return fmt.Errorf("failed to parse cron expression %q: %w", s.cfg.Scheduler.Cron, err)
	}

	id, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
		s.run(context.WithoutCancel(ctx))
	})
	if err != nil {
		return fmt.Errorf("failed to register tick job: %w", err)
	}
	s.entryID = id

	s.cron.Start()
	s.log.InfoContext(ctx, "Scheduler started",
		logger.StringField("cron", s.cfg.Scheduler.Cron),
		logger.Field("next_run", s.NextRun()),
	)
	return nil
}

func (s *schedulerService) run(ctx context.Context) {
	start := time.Now()
	result, err := s.tradeService.Tick(ctx)
	if err != nil {
		s.log.ErrorContextWithAlert(ctx, "Scheduled tick failed",
			logger.ErrorField(err),
			logger.IntField("finalized", result.Finalized),
			logger.IntField("refreshed", result.Refreshed),
		)
		return
	}

	s.log.InfoContext(ctx, "Scheduled tick completed",
		logger.IntField("finalized", result.Finalized),
		logger.IntField("refreshed", result.Refreshed),
		logger.Field("duration", time.Since(start).String()),
	)
}

// Stop waits for a running tick to finish or for ctx to expire.
func (s *schedulerService) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.log.InfoContext(ctx, "Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *schedulerService) NextRun() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}
