package market_data

import (
	"context"
)

// Provider supplies ordered historical bars for the signal engine. The returned
// slice is ascending by open time. Implementations return ErrNoData when
// nothing is available for the symbol.
type Provider interface {
	GetRates(ctx context.Context, symbol string, timeframe Timeframe, count int) ([]Bar, error)
}

// Repository defines the interface for bar storage (ClickHouse)
type Repository interface {
	InsertBars(ctx context.Context, bars []Bar) error
	GetLatestBars(ctx context.Context, symbol string, timeframe Timeframe, limit int) ([]Bar, error)
	GetBars(ctx context.Context, query Query) ([]Bar, error)
}
