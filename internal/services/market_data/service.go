package market_data

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"augur/internal/adapters/config"
	"augur/internal/domain/market_data"
	"augur/internal/metrics"
	"augur/pkg/errors"
	"augur/pkg/logger"
)

// Compile-time check
var _ market_data.Provider = (*Service)(nil)

// Service is the rate-limited gateway between the signal engine and bar
// storage. It implements market_data.Provider over the ClickHouse repository
// and owns retries, so callers see either ascending bars or a typed error.
type Service struct {
	repository market_data.Repository
	limiter    *rate.Limiter
	retries    int
	log        *logger.Logger
}

// NewService creates a new market data service
func NewService(
	repository market_data.Repository,
	cfg config.EngineConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		repository: repository,
		limiter:    rate.NewLimiter(rate.Limit(cfg.FetchRatePerSec), 1),
		retries:    cfg.FetchRetries,
		log:        log.With("service", "market_data"),
	}
}

// GetRates returns the latest count bars for a symbol, ascending by open
// time. Returns ErrInvalidTimeframe for unknown timeframes and ErrNoData when
// storage has nothing for the symbol.
func (s *Service) GetRates(ctx context.Context, symbol string, timeframe market_data.Timeframe, count int) ([]market_data.Bar, error) {
	if !timeframe.Valid() {
		return nil, errors.Wrapf(errors.ErrInvalidTimeframe, "timeframe %q", timeframe)
	}
	if count <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "bar count must be positive, got %d", count)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}

	bars, err := s.fetchWithRetry(ctx, symbol, timeframe, count)
	if err != nil {
		metrics.RecordProviderFetch(symbol, "error")
		return nil, err
	}

	if len(bars) == 0 {
		metrics.RecordProviderFetch(symbol, "empty")
		return nil, errors.Wrapf(errors.ErrNoData, "no bars for %s %s", symbol, timeframe)
	}

	metrics.RecordProviderFetch(symbol, "success")
	return bars, nil
}

// StoreBars persists a batch of bars
func (s *Service) StoreBars(ctx context.Context, bars []market_data.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	if err := s.repository.InsertBars(ctx, bars); err != nil {
		return errors.Wrap(err, "insert bars")
	}

	s.log.Debugw("Inserted bars", "count", len(bars))
	return nil
}

// GetBars retrieves bars with query parameters, ascending by open time
func (s *Service) GetBars(ctx context.Context, query market_data.Query) ([]market_data.Bar, error) {
	if !query.Timeframe.Valid() {
		return nil, errors.Wrapf(errors.ErrInvalidTimeframe, "timeframe %q", query.Timeframe)
	}
	return s.repository.GetBars(ctx, query)
}

func (s *Service) fetchWithRetry(ctx context.Context, symbol string, timeframe market_data.Timeframe, count int) ([]market_data.Bar, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := s.repository.GetLatestBars(ctx, symbol, timeframe, count)
		if err == nil {
			return bars, nil
		}

		lastErr = err
		s.log.Warnw("Bar fetch failed",
			"symbol", symbol,
			"timeframe", timeframe,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, errors.NewDomainError("MARKET_DATA_FETCH",
		fmt.Sprintf("%s %s after %d attempts", symbol, timeframe, s.retries+1), lastErr)
}
