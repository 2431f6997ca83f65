package signals

import (
	"context"
	"time"

	"augur/internal/domain/market_data"
	"augur/internal/domain/signal"
	"augur/internal/metrics"
	"augur/pkg/errors"
)

// recentTradesKept bounds the trade detail list in reports; summary
// statistics still cover the full run
const recentTradesKept = 10

// predictor maps one unscaled feature vector to a class prediction
type predictor func(values []float64) (Label, error)

// simulationConfig holds the replay parameters of one backtest run
type simulationConfig struct {
	Warmup         int
	RiskFraction   float64
	InitialBalance float64
}

// Backtest replays the trained model over roughly days of history and
// reports simulated performance. Thin history degrades to a zeroed report
// rather than an error. A missing model triggers one training run first.
func (s *Service) Backtest(ctx context.Context, symbol string, timeframe market_data.Timeframe, days int) (*signal.BacktestReport, error) {
	if days <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "days must be positive, got %d", days)
	}

	model, ok := s.store.Get(symbol, timeframe)
	if !ok {
		var err error
		model, err = s.Train(ctx, symbol, timeframe)
		if err != nil {
			return nil, errors.Wrapf(err, "%v: training before backtest", errors.ErrModelNotTrained)
		}
	}

	start := time.Now()
	defer func() {
		metrics.ObserveBacktestDuration(symbol, time.Since(start))
	}()

	bars, err := s.provider.GetRates(ctx, symbol, timeframe, days*s.cfg.BarsPerDay)
	if err != nil {
		return nil, err
	}

	rows, err := ComputeFeatures(bars)
	if err != nil {
		return nil, err
	}

	if len(rows) < s.cfg.MinBacktestRows {
		s.log.Warnw("Backtest degraded to empty report",
			"symbol", symbol,
			"usable_rows", len(rows),
			"required", s.cfg.MinBacktestRows,
		)
		return s.emptyReport(), nil
	}

	predict := func(values []float64) (Label, error) {
		scaled, err := model.Scaler.TransformRow(values)
		if err != nil {
			return LabelHold, err
		}
		class, _ := model.Forest.Predict(scaled)
		return Label(class), nil
	}

	report, err := simulate(rows, predict, simulationConfig{
		Warmup:         s.cfg.WarmupBars,
		RiskFraction:   s.cfg.RiskFraction,
		InitialBalance: s.cfg.InitialBalance,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "backtest %s %s", symbol, timeframe)
	}

	s.log.Infow("Backtest finished",
		"symbol", symbol,
		"timeframe", timeframe,
		"trades", report.TotalTrades,
		"win_rate_pct", report.WinRatePct,
		"return_pct", report.TotalReturnPct,
	)

	return report, nil
}

// simulate replays predictions bar by bar over the feature rows. One
// position at a time; a position closes only when the prediction reverses,
// and the reversal bar itself opens nothing, re-entry waits for the next
// non-hold bar. A still-open position at series end stays open and is
// excluded from the completed-trade statistics.
func simulate(rows []FeatureRow, predict predictor, cfg simulationConfig) (*signal.BacktestReport, error) {
	balance := cfg.InitialBalance
	var position *signal.OpenPosition
	var trades []signal.BacktestTrade
	wins := 0
	profitSum := 0.0

	for i := cfg.Warmup; i < len(rows); i++ {
		row := rows[i]

		label, err := predict(row.Values)
		if err != nil {
			return nil, err
		}

		price := row.Bar.Close

		if position == nil {
			if label != LabelHold {
				sigType := signal.TypeBuy
				if label == LabelSell {
					sigType = signal.TypeSell
				}

				position = &signal.OpenPosition{
					Type:       sigType,
					EntryTime:  row.Bar.OpenTime,
					EntryPrice: price,
					Size:       balance * cfg.RiskFraction / price,
				}
			}
		} else if reversed(position.Type, label) {
			profit := closeProfit(position, price)
			balance += profit
			profitSum += profit
			if profit > 0 {
				wins++
			}

			trades = append(trades, signal.BacktestTrade{
				EntryTime:  position.EntryTime,
				ExitTime:   row.Bar.OpenTime,
				Type:       position.Type,
				EntryPrice: position.EntryPrice,
				ExitPrice:  price,
				Size:       position.Size,
				Profit:     profit,
				ExitReason: "signal reversal",
			})
			position = nil
		}
	}

	report := &signal.BacktestReport{
		InitialBalance: cfg.InitialBalance,
		FinalBalance:   balance,
		TotalReturnPct: (balance - cfg.InitialBalance) / cfg.InitialBalance * 100,
		TotalTrades:    len(trades),
		WinningTrades:  wins,
		OpenPosition:   position,
	}

	if len(trades) > 0 {
		report.WinRatePct = float64(wins) / float64(len(trades)) * 100
		report.AvgProfit = profitSum / float64(len(trades))
	}

	if len(trades) > recentTradesKept {
		trades = trades[len(trades)-recentTradesKept:]
	}
	report.Trades = trades

	return report, nil
}

func (s *Service) emptyReport() *signal.BacktestReport {
	return &signal.BacktestReport{
		InitialBalance: s.cfg.InitialBalance,
		FinalBalance:   s.cfg.InitialBalance,
	}
}

func reversed(positionType signal.Type, label Label) bool {
	return (positionType == signal.TypeBuy && label == LabelSell) ||
		(positionType == signal.TypeSell && label == LabelBuy)
}

func closeProfit(position *signal.OpenPosition, exitPrice float64) float64 {
	if position.Type == signal.TypeBuy {
		return (exitPrice - position.EntryPrice) * position.Size
	}
	return (position.EntryPrice - exitPrice) * position.Size
}
