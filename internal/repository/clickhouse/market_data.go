package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"augur/internal/domain/market_data"
	"augur/pkg/errors"
)

// Compile-time check
var _ market_data.Repository = (*MarketDataRepository)(nil)

// MarketDataRepository implements market_data.Repository using ClickHouse
type MarketDataRepository struct {
	conn driver.Conn
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(conn driver.Conn) *MarketDataRepository {
	return &MarketDataRepository{conn: conn}
}

// InsertBars inserts OHLCV bars in batch
func (r *MarketDataRepository) InsertBars(ctx context.Context, bars []market_data.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			symbol, timeframe, open_time, open, high, low, close, volume
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, bar := range bars {
		err := batch.Append(
			bar.Symbol, bar.Timeframe, bar.OpenTime,
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append bar")
		}
	}

	return batch.Send()
}

// GetLatestBars retrieves the latest N bars in ascending open_time order
func (r *MarketDataRepository) GetLatestBars(ctx context.Context, symbol string, timeframe market_data.Timeframe, limit int) ([]market_data.Bar, error) {
	var bars []market_data.Bar

	sql := `
		SELECT symbol, timeframe, open_time, open, high, low, close, volume
		FROM bars
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY open_time DESC
		LIMIT $3`

	if err := r.conn.Select(ctx, &bars, sql, symbol, timeframe.String(), limit); err != nil {
		return nil, errors.Wrap(err, "failed to select latest bars")
	}

	// Selected newest-first for the LIMIT; callers consume oldest-first
	reverseBars(bars)
	return bars, nil
}

// GetBars retrieves bars with query parameters, ascending by open_time
func (r *MarketDataRepository) GetBars(ctx context.Context, query market_data.Query) ([]market_data.Bar, error) {
	var bars []market_data.Bar

	sql := `
		SELECT symbol, timeframe, open_time, open, high, low, close, volume
		FROM bars
		WHERE symbol = $1 AND timeframe = $2`

	args := []interface{}{query.Symbol, query.Timeframe.String()}

	if !query.StartTime.IsZero() {
		sql += fmt.Sprintf(` AND open_time >= $%d`, len(args)+1)
		args = append(args, query.StartTime)
	}

	if !query.EndTime.IsZero() {
		sql += fmt.Sprintf(` AND open_time <= $%d`, len(args)+1)
		args = append(args, query.EndTime)
	}

	sql += ` ORDER BY open_time ASC`

	if query.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, query.Limit)
	}

	if err := r.conn.Select(ctx, &bars, sql, args...); err != nil {
		return nil, errors.Wrap(err, "failed to select bars")
	}

	return bars, nil
}

func reverseBars(bars []market_data.Bar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}
