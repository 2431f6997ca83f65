package market_data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"augur/internal/adapters/config"
	"augur/internal/domain/market_data"
	"augur/pkg/errors"
	"augur/pkg/logger"
)

type stubRepository struct {
	bars     []market_data.Bar
	failures int
	calls    int
}

func (r *stubRepository) InsertBars(_ context.Context, bars []market_data.Bar) error {
	r.bars = append(r.bars, bars...)
	return nil
}

func (r *stubRepository) GetLatestBars(_ context.Context, _ string, _ market_data.Timeframe, limit int) ([]market_data.Bar, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, errors.ErrUnavailable
	}
	if limit < len(r.bars) {
		return r.bars[len(r.bars)-limit:], nil
	}
	return r.bars, nil
}

func (r *stubRepository) GetBars(context.Context, market_data.Query) ([]market_data.Bar, error) {
	return r.bars, nil
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		FetchRatePerSec: 1000,
		FetchRetries:    2,
	}
}

func someBars(n int) []market_data.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market_data.Bar, n)
	for i := range bars {
		bars[i] = market_data.Bar{
			Symbol:    "EURUSD",
			Timeframe: "H1",
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			Close:     1.1,
		}
	}
	return bars
}

func TestGetRates_ReturnsAscendingBars(t *testing.T) {
	repo := &stubRepository{bars: someBars(10)}
	s := NewService(repo, testConfig(), logger.Get())

	bars, err := s.GetRates(context.Background(), "EURUSD", market_data.TimeframeH1, 5)
	require.NoError(t, err)
	require.Len(t, bars, 5)

	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].OpenTime.After(bars[i-1].OpenTime))
	}
}

func TestGetRates_InvalidTimeframe(t *testing.T) {
	s := NewService(&stubRepository{}, testConfig(), logger.Get())

	_, err := s.GetRates(context.Background(), "EURUSD", "H7", 10)
	assert.True(t, errors.Is(err, errors.ErrInvalidTimeframe))
}

func TestGetRates_InvalidCount(t *testing.T) {
	s := NewService(&stubRepository{}, testConfig(), logger.Get())

	_, err := s.GetRates(context.Background(), "EURUSD", market_data.TimeframeH1, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestGetRates_EmptyIsNoData(t *testing.T) {
	s := NewService(&stubRepository{}, testConfig(), logger.Get())

	_, err := s.GetRates(context.Background(), "EURUSD", market_data.TimeframeH1, 10)
	assert.True(t, errors.Is(err, errors.ErrNoData))
}

func TestGetRates_RetriesTransientFailures(t *testing.T) {
	repo := &stubRepository{bars: someBars(10), failures: 2}
	s := NewService(repo, testConfig(), logger.Get())

	bars, err := s.GetRates(context.Background(), "EURUSD", market_data.TimeframeH1, 5)
	require.NoError(t, err)
	assert.Len(t, bars, 5)
	assert.Equal(t, 3, repo.calls)
}

func TestGetRates_ExhaustedRetries(t *testing.T) {
	repo := &stubRepository{bars: someBars(10), failures: 10}
	s := NewService(repo, testConfig(), logger.Get())

	_, err := s.GetRates(context.Background(), "EURUSD", market_data.TimeframeH1, 5)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.Equal(t, 3, repo.calls)

	// The failure is tagged with the fetch code and symbol/timeframe context
	var domainErr *errors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "MARKET_DATA_FETCH", domainErr.Code)
	assert.Contains(t, domainErr.Message, "EURUSD")
}

func TestStoreBars_EmptyBatchIsNoop(t *testing.T) {
	repo := &stubRepository{}
	s := NewService(repo, testConfig(), logger.Get())

	require.NoError(t, s.StoreBars(context.Background(), nil))
	assert.Empty(t, repo.bars)
}
