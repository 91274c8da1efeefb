package service

import (
	"context"
	"fmt"
	"time"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/internal/model"
	"trading-journal/internal/repository"
	"trading-journal/pkg/common"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/telegram"
	"trading-journal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// TradeService owns the position lifecycle: scheduled -> open -> closed.
type TradeService interface {
	OpenImmediateTrade(ctx context.Context, param dto.OpenImmediateTradeParam) (*model.Trade, error)
	ScheduleTrade(ctx context.Context, param dto.ScheduleTradeParam) (*model.Trade, error)
	AutoFinalizeScheduled(ctx context.Context, today time.Time) (int, error)
	CloseTrade(ctx context.Context, tradeID string, closePrice float64, closeDate time.Time) (*model.Trade, error)
	RefreshUnrealizedPnl(ctx context.Context) (int, error)

	// Tick finalizes due scheduled trades and then refreshes unrealized PnL.
	// Concurrent calls share a single pass.
	Tick(ctx context.Context) (*dto.TickResult, error)
	OpenTrade(ctx context.Context, user dto.SessionUser, req dto.OpenTradeRequest) (*model.Trade, error)
	ClosePosition(ctx context.Context, user dto.SessionUser, tradeID string, req dto.ClosePositionRequest) (*model.Trade, error)
	ListPositions(ctx context.Context, user dto.SessionUser) (*dto.PositionsResponse, error)
	Today() time.Time
}

type tradeService struct {
	cfg            *config.Config
	log            *logger.Logger
	tradeRepo      repository.TradeRepository
	critiqueRepo   repository.CritiqueRepository
	marketDataRepo repository.MarketDataRepository
	notifier       telegram.Notifier
	loc            *time.Location
	now            func() time.Time
	tickGroup      singleflight.Group
}

func NewTradeService(
	cfg *config.Config,
	log *logger.Logger,
	tradeRepo repository.TradeRepository,
	critiqueRepo repository.CritiqueRepository,
	marketDataRepo repository.MarketDataRepository,
	notifier telegram.Notifier,
) TradeService {
	return newTradeService(cfg, log, tradeRepo, critiqueRepo, marketDataRepo, notifier)
}

func newTradeService(
	cfg *config.Config,
	log *logger.Logger,
	tradeRepo repository.TradeRepository,
	critiqueRepo repository.CritiqueRepository,
	marketDataRepo repository.MarketDataRepository,
	notifier telegram.Notifier,
) *tradeService {
	loc, err := utils.LoadLocation(cfg.Market.TimeZone)
	if err != nil {
		log.Warn("Falling back to UTC market calendar", logger.ErrorField(err))
		loc = time.UTC
	}
	if notifier == nil {
		notifier = telegram.NopNotifier{}
	}

	return &tradeService{
		cfg:            cfg,
		log:            log,
		tradeRepo:      tradeRepo,
		critiqueRepo:   critiqueRepo,
		marketDataRepo: marketDataRepo,
		notifier:       notifier,
		loc:            loc,
		now:            time.Now,
	}
}

func (s *tradeService) Today() time.Time {
	return utils.CivilDate(s.now().In(s.loc))
}

func (s *tradeService) OpenImmediateTrade(ctx context.Context, param dto.OpenImmediateTradeParam) (*model.Trade, error) {
	if err := validatePosition(param.PositionType, param.NumShares); err != nil {
		return nil, err
	}
	if !utils.IsFinitePositive(param.EntryPrice) {
		return nil, fmt.Errorf("entry price must be positive: %w", dto.ErrInvalidArgument)
	}

	trade := &model.Trade{
		ID:            uuid.NewString(),
		UserID:        param.UserID,
		Ticker:        utils.NormalizeTicker(param.Ticker),
		PositionType:  param.PositionType,
		NumShares:     param.NumShares,
		EntryDate:     utils.ToPointer(utils.CivilDate(param.EntryDate)),
		EntryPrice:    utils.ToPointer(param.EntryPrice),
		Status:        model.TradeStatusOpen,
		OpenedByUser:  param.OpenedByUser,
		OpenedByModel: param.OpenedByModel,
		CritiqueID:    param.CritiqueID,
	}

	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		s.log.ErrorContext(ctx, "Failed to create open trade", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create open trade: %w", err)
	}

	s.log.InfoContext(ctx, "Trade opened",
		logger.StringField("trade_id", trade.ID),
		logger.StringField("ticker", trade.Ticker),
	)
	return trade, nil
}

func (s *tradeService) ScheduleTrade(ctx context.Context, param dto.ScheduleTradeParam) (*model.Trade, error) {
	if err := validatePosition(param.PositionType, param.NumShares); err != nil {
		return nil, err
	}

	trade := &model.Trade{
		ID:              uuid.NewString(),
		UserID:          param.UserID,
		Ticker:          utils.NormalizeTicker(param.Ticker),
		PositionType:    param.PositionType,
		NumShares:       param.NumShares,
		Status:          model.TradeStatusScheduled,
		PendingOpenDate: utils.ToPointer(utils.CivilDate(param.ScheduledDate)),
		OpenedByUser:    param.OpenedByUser,
		OpenedByModel:   param.OpenedByModel,
		CritiqueID:      param.CritiqueID,
	}

	if err := s.tradeRepo.Create(ctx, trade); err != nil {
		s.log.ErrorContext(ctx, "Failed to create scheduled trade", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create scheduled trade: %w", err)
	}

	s.log.InfoContext(ctx, "Trade scheduled",
		logger.StringField("trade_id", trade.ID),
		logger.StringField("ticker", trade.Ticker),
		logger.StringField("pending_open_date", utils.FormatDate(*trade.PendingOpenDate)),
	)
	return trade, nil
}

func (s *tradeService) AutoFinalizeScheduled(ctx context.Context, today time.Time) (int, error) {
	today = utils.CivilDate(today)

	trades, err := s.tradeRepo.Get(ctx, dto.GetTradesParam{
		Statuses: []model.TradeStatus{model.TradeStatusScheduled},
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get scheduled trades", logger.ErrorField(err))
		return 0, fmt.Errorf("failed to get scheduled trades: %w", err)
	}

	var (
		finalized int
		errs      error
	)
	for _, trade := range trades {
		if ctx.Err() != nil {
			return finalized, multierr.Append(errs, ctx.Err())
		}
		if trade.PendingOpenDate == nil || trade.PendingOpenDate.After(today) {
			continue
		}

		hist, err := s.marketDataRepo.CloseOnOrBefore(ctx, trade.Ticker, *trade.PendingOpenDate)
		if err != nil {
			// left scheduled, retried on the next pass
			s.log.WarnContext(ctx, "No close price yet for scheduled trade",
				logger.StringField("trade_id", trade.ID),
				logger.StringField("ticker", trade.Ticker),
				logger.ErrorField(err),
			)
			continue
		}

		entryPrice := hist.Price
		ok, err := s.tradeRepo.Transition(ctx, trade.ID, model.TradeStatusScheduled, map[string]interface{}{
			"status":            model.TradeStatusOpen,
			"entry_price":       entryPrice,
			"entry_date":        hist.Date,
			"pending_open_date": nil,
		})
		if err != nil {
			s.log.ErrorContextWithAlert(ctx, "Failed to finalize scheduled trade",
				logger.StringField("trade_id", trade.ID),
				logger.ErrorField(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("finalize trade %s: %w", trade.ID, err))
			continue
		}
		if !ok {
			// someone else finalized it first
			continue
		}

		finalized++
		s.notify(ctx, telegram.FormatTradeOpened(trade.Ticker, string(trade.PositionType), trade.NumShares, entryPrice, utils.FormatDate(hist.Date)))
	}

	if finalized > 0 {
		s.log.InfoContext(ctx, "Scheduled trades finalized", logger.IntField("count", finalized))
	}
	return finalized, errs
}

func (s *tradeService) CloseTrade(ctx context.Context, tradeID string, closePrice float64, closeDate time.Time) (*model.Trade, error) {
	closeDate = utils.CivilDate(closeDate)

	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get trade", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	if trade == nil {
		return nil, dto.ErrTradeNotFound
	}
	// zero is a valid close for a delisted position
	if !utils.IsFiniteNonNegative(closePrice) {
		return nil, fmt.Errorf("close price must not be negative: %w", dto.ErrInvalidArgument)
	}
	if trade.Status != model.TradeStatusOpen {
		return nil, fmt.Errorf("trade %s is %s: %w", trade.ID, trade.Status, dto.ErrInvalidTradeState)
	}
	if trade.EntryPrice == nil || trade.EntryDate == nil {
		return nil, fmt.Errorf("trade %s has no entry: %w", trade.ID, dto.ErrInvalidTradeState)
	}
	if closeDate.Before(*trade.EntryDate) {
		return nil, fmt.Errorf("close date %s is before entry date %s: %w",
			utils.FormatDate(closeDate), utils.FormatDate(*trade.EntryDate), dto.ErrInvalidArgument)
	}

	pnl := CalculatePnL(trade.PositionType, *trade.EntryPrice, closePrice, trade.NumShares)
	roundedClose := roundPrice(closePrice)

	ok, err := s.tradeRepo.Transition(ctx, trade.ID, model.TradeStatusOpen, map[string]interface{}{
		"status":      model.TradeStatusClosed,
		"close_price": roundedClose,
		"close_date":  closeDate,
		"pnl_usd":     pnl.PnlUsd,
		"return_pct":  pnl.ReturnPct,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to close trade", logger.StringField("trade_id", trade.ID), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to close trade: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("trade %s was closed concurrently: %w", trade.ID, dto.ErrInvalidTradeState)
	}

	trade.Status = model.TradeStatusClosed
	trade.ClosePrice = utils.ToPointer(roundedClose)
	trade.CloseDate = utils.ToPointer(closeDate)
	trade.PnlUsd = utils.ToPointer(pnl.PnlUsd)
	trade.ReturnPct = utils.ToPointer(pnl.ReturnPct)

	s.log.InfoContext(ctx, "Trade closed",
		logger.StringField("trade_id", trade.ID),
		logger.FloatField("pnl_usd", pnl.PnlUsd),
	)
	s.notify(ctx, telegram.FormatTradeClosed(trade.Ticker, string(trade.PositionType), trade.NumShares, roundedClose, pnl.PnlUsd, pnl.ReturnPct, utils.FormatDate(closeDate)))

	return trade, nil
}

func (s *tradeService) RefreshUnrealizedPnl(ctx context.Context) (int, error) {
	trades, err := s.tradeRepo.Get(ctx, dto.GetTradesParam{
		Statuses: []model.TradeStatus{model.TradeStatusOpen},
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get open trades", logger.ErrorField(err))
		return 0, fmt.Errorf("failed to get open trades: %w", err)
	}

	// one lookup per ticker per pass; a failed lookup is remembered as a miss
	prices := make(map[string]*float64)
	priceFor := func(ticker string) *float64 {
		if p, ok := prices[ticker]; ok {
			return p
		}
		price, err := s.marketDataRepo.LatestPrice(ctx, ticker)
		if err != nil {
			s.log.WarnContext(ctx, "Latest price unavailable, marking at entry",
				logger.StringField("ticker", ticker),
				logger.ErrorField(err),
			)
			prices[ticker] = nil
			return nil
		}
		prices[ticker] = &price
		return &price
	}

	var (
		refreshed int
		errs      error
	)
	for _, trade := range trades {
		if ctx.Err() != nil {
			return refreshed, multierr.Append(errs, ctx.Err())
		}
		if trade.EntryPrice == nil {
			errs = multierr.Append(errs, fmt.Errorf("trade %s: %w", trade.ID, dto.ErrInvalidTradeState))
			continue
		}

		mark := *trade.EntryPrice
		if p := priceFor(trade.Ticker); p != nil {
			mark = *p
		}

		pnl := CalculatePnL(trade.PositionType, *trade.EntryPrice, mark, trade.NumShares)
		ok, err := s.tradeRepo.UpdateUnrealized(ctx, trade.ID, pnl.PnlUsd, pnl.ReturnPct)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to update unrealized pnl",
				logger.StringField("trade_id", trade.ID),
				logger.ErrorField(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("refresh trade %s: %w", trade.ID, err))
			continue
		}
		if ok {
			refreshed++
		}
	}

	return refreshed, errs
}

func (s *tradeService) Tick(ctx context.Context) (*dto.TickResult, error) {
	v, err, shared := s.tickGroup.Do(common.KEY_TICK, func() (interface{}, error) {
		// the pass outlives the request that happened to start it
		tickCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.tickTimeout())
		defer cancel()

		finalized, finalizeErr := s.AutoFinalizeScheduled(tickCtx, s.Today())
		refreshed, refreshErr := s.RefreshUnrealizedPnl(tickCtx)
		return &dto.TickResult{Finalized: finalized, Refreshed: refreshed}, multierr.Combine(finalizeErr, refreshErr)
	})

	s.log.DebugContext(ctx, "Tick completed", logger.Field("shared", shared))

	result, _ := v.(*dto.TickResult)
	if result == nil {
		result = &dto.TickResult{}
	}
	return result, err
}

func (s *tradeService) OpenTrade(ctx context.Context, user dto.SessionUser, req dto.OpenTradeRequest) (*model.Trade, error) {
	entryDate, err := utils.ParseDate(req.EntryDate)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, dto.ErrInvalidArgument)
	}
	ticker := utils.NormalizeTicker(req.Ticker)
	positionType := model.PositionType(req.PositionType)

	var (
		critiqueID    *string
		openedByModel bool
	)
	if req.CritiqueID != "" {
		critique, err := s.critiqueRepo.GetByID(ctx, req.CritiqueID)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to get critique", logger.ErrorField(err))
			return nil, fmt.Errorf("failed to get critique: %w", err)
		}
		if critique == nil || critique.UserID != user.UserID {
			return nil, dto.ErrCritiqueNotFound
		}
		critiqueID = &critique.ID
		openedByModel = dto.Decision(critique.Decision) == dto.DecisionFollow
	}

	if entryDate.Before(s.Today()) {
		hist, err := s.marketDataRepo.CloseOnOrBefore(ctx, ticker, entryDate)
		if err != nil {
			s.log.WarnContext(ctx, "Could not resolve historical entry price",
				logger.StringField("ticker", ticker),
				logger.ErrorField(err),
			)
			return nil, fmt.Errorf("could not open trade: %w", err)
		}

		return s.OpenImmediateTrade(ctx, dto.OpenImmediateTradeParam{
			UserID:        user.UserID,
			Ticker:        ticker,
			PositionType:  positionType,
			NumShares:     req.NumShares,
			EntryDate:     hist.Date,
			EntryPrice:    hist.Price,
			OpenedByUser:  true,
			OpenedByModel: openedByModel,
			CritiqueID:    critiqueID,
		})
	}

	// today or later: opened at that day's close once it is known
	return s.ScheduleTrade(ctx, dto.ScheduleTradeParam{
		UserID:        user.UserID,
		Ticker:        ticker,
		PositionType:  positionType,
		NumShares:     req.NumShares,
		ScheduledDate: entryDate,
		OpenedByUser:  true,
		OpenedByModel: openedByModel,
		CritiqueID:    critiqueID,
	})
}

func (s *tradeService) ClosePosition(ctx context.Context, user dto.SessionUser, tradeID string, req dto.ClosePositionRequest) (*model.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get trade", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	if trade == nil || trade.UserID != user.UserID {
		return nil, dto.ErrTradeNotFound
	}

	closeDate := s.Today()
	if req.CloseDate != "" {
		closeDate, err = utils.ParseDate(req.CloseDate)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, dto.ErrInvalidArgument)
		}
	}

	var closePrice float64
	switch req.PriceSource {
	case dto.PriceSourceLatest:
		if trade.Status != model.TradeStatusOpen {
			return nil, fmt.Errorf("trade %s is %s: %w", trade.ID, trade.Status, dto.ErrInvalidTradeState)
		}
		closePrice, err = s.marketDataRepo.LatestPrice(ctx, trade.Ticker)
		if err != nil {
			return nil, fmt.Errorf("could not resolve latest price: %w", err)
		}
	default:
		if req.ClosePrice == nil {
			return nil, fmt.Errorf("close price is required: %w", dto.ErrInvalidArgument)
		}
		closePrice = *req.ClosePrice
	}

	return s.CloseTrade(ctx, trade.ID, closePrice, closeDate)
}

func (s *tradeService) ListPositions(ctx context.Context, user dto.SessionUser) (*dto.PositionsResponse, error) {
	if _, err := s.Tick(ctx); err != nil {
		// partial failures are already logged per trade; the view still renders
		s.log.WarnContext(ctx, "Tick finished with errors", logger.ErrorField(err))
	}

	trades, err := s.tradeRepo.Get(ctx, dto.GetTradesParam{UserID: user.UserID})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user trades", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get user trades: %w", err)
	}

	resp := dto.NewPositionsResponse(trades)
	return &resp, nil
}

func (s *tradeService) tickTimeout() time.Duration {
	if s.cfg.Scheduler.TimeoutDuration > 0 {
		return s.cfg.Scheduler.TimeoutDuration
	}
	return 2 * time.Minute
}

func (s *tradeService) notify(ctx context.Context, message string) {
	notifyCtx := context.WithoutCancel(ctx)
	utils.GoSafe(func() {
		ctx, cancel := context.WithTimeout(notifyCtx, 30*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, message); err != nil {
			s.log.WarnContext(ctx, "Failed to send notification", logger.ErrorField(err))
		}
	})
}

func validatePosition(positionType model.PositionType, numShares int) error {
	if !positionType.IsValid() {
		return fmt.Errorf("unknown position type %q: %w", positionType, dto.ErrInvalidArgument)
	}
	if numShares <= 0 {
		return fmt.Errorf("number of shares must be positive: %w", dto.ErrInvalidArgument)
	}
	return nil
}
