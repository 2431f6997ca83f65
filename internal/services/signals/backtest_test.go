package signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"augur/internal/domain/market_data"
	"augur/internal/domain/signal"
)

// indexedRows builds rows whose Values carry the row index so a test
// predictor can key decisions off position in the series
func indexedRows(closes []float64) []FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]FeatureRow, len(closes))
	for i, c := range closes {
		rows[i] = FeatureRow{
			Bar: market_data.Bar{
				Symbol:   "EURUSD",
				OpenTime: start.Add(time.Duration(i) * time.Hour),
				Close:    c,
			},
			Values: []float64{float64(i)},
		}
	}
	return rows
}

func testSimulationConfig() simulationConfig {
	return simulationConfig{
		Warmup:         50,
		RiskFraction:   0.10,
		InitialBalance: 10000,
	}
}

func TestSimulate_AlwaysBuyNeverCloses(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.01
	}
	rows := indexedRows(closes)

	alwaysBuy := func(_ []float64) (Label, error) { return LabelBuy, nil }

	report, err := simulate(rows, alwaysBuy, testSimulationConfig())
	require.NoError(t, err)

	// One position opened at the first post-warmup bar, never reversed, so
	// it stays open and no completed trade is recorded
	assert.Equal(t, 0, report.TotalTrades)
	assert.Empty(t, report.Trades)
	assert.Equal(t, report.InitialBalance, report.FinalBalance)

	require.NotNil(t, report.OpenPosition)
	assert.Equal(t, signal.TypeBuy, report.OpenPosition.Type)
	assert.Equal(t, rows[50].Bar.OpenTime, report.OpenPosition.EntryTime)
	assert.Equal(t, rows[50].Bar.Close, report.OpenPosition.EntryPrice)
}

func TestSimulate_ReversalClosesThenReentersNextBar(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rows := indexedRows(closes)

	// Buy until index 60, then sell
	predict := func(values []float64) (Label, error) {
		if values[0] < 60 {
			return LabelBuy, nil
		}
		return LabelSell, nil
	}

	report, err := simulate(rows, predict, testSimulationConfig())
	require.NoError(t, err)

	require.Equal(t, 1, report.TotalTrades)
	require.Len(t, report.Trades, 1)

	trade := report.Trades[0]
	assert.Equal(t, signal.TypeBuy, trade.Type)
	assert.Equal(t, rows[50].Bar.Close, trade.EntryPrice)
	assert.Equal(t, rows[60].Bar.Close, trade.ExitPrice)
	assert.Equal(t, "signal reversal", trade.ExitReason)

	// Long from 150 to 160 with 10% sizing
	size := 10000.0 * 0.10 / 150.0
	assert.InDelta(t, 10*size, trade.Profit, 1e-9)
	assert.InDelta(t, 10000+10*size, report.FinalBalance, 1e-9)

	assert.Equal(t, 1, report.WinningTrades)
	assert.Equal(t, 100.0, report.WinRatePct)
	assert.InDelta(t, 10*size, report.AvgProfit, 1e-9)

	// The reversal bar only closes; the short opens on the following bar
	require.NotNil(t, report.OpenPosition)
	assert.Equal(t, signal.TypeSell, report.OpenPosition.Type)
	assert.Equal(t, rows[61].Bar.OpenTime, report.OpenPosition.EntryTime)
	assert.Equal(t, rows[61].Bar.Close, report.OpenPosition.EntryPrice)
	assert.NotEqual(t, trade.ExitTime, report.OpenPosition.EntryTime)
}

func TestSimulate_ShortProfit(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	rows := indexedRows(closes)

	predict := func(values []float64) (Label, error) {
		if values[0] < 70 {
			return LabelSell, nil
		}
		return LabelBuy, nil
	}

	report, err := simulate(rows, predict, testSimulationConfig())
	require.NoError(t, err)

	require.Equal(t, 1, report.TotalTrades)
	trade := report.Trades[0]
	assert.Equal(t, signal.TypeSell, trade.Type)

	// Short from 150 down to 130
	size := 10000.0 * 0.10 / 150.0
	assert.InDelta(t, 20*size, trade.Profit, 1e-9)
	assert.Greater(t, report.FinalBalance, report.InitialBalance)
}

func TestSimulate_KeepsOnlyRecentTrades(t *testing.T) {
	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}
	rows := indexedRows(closes)

	// Direction flips every bar: even bars open a long while flat, odd bars
	// close it on reversal, so each trade spans exactly two bars
	alternate := func(values []float64) (Label, error) {
		if int(values[0])%2 == 0 {
			return LabelBuy, nil
		}
		return LabelSell, nil
	}

	report, err := simulate(rows, alternate, testSimulationConfig())
	require.NoError(t, err)

	assert.Equal(t, 20, report.TotalTrades)
	assert.Len(t, report.Trades, recentTradesKept)
	assert.Nil(t, report.OpenPosition)

	// The detail list holds the most recent trades
	assert.Equal(t, rows[89].Bar.OpenTime, report.Trades[len(report.Trades)-1].ExitTime)
}

func TestSimulate_NeverHoldsTwoPositions(t *testing.T) {
	rows := indexedRows(make([]float64, 70))
	for i := range rows {
		rows[i].Bar.Close = 100
	}

	alwaysBuy := func(_ []float64) (Label, error) { return LabelBuy, nil }

	report, err := simulate(rows, alwaysBuy, testSimulationConfig())
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalTrades)
	require.NotNil(t, report.OpenPosition)
	assert.Equal(t, rows[50].Bar.OpenTime, report.OpenPosition.EntryTime)
}

func TestBacktest_ThinHistoryReturnsEmptyReport(t *testing.T) {
	s := newTestService(map[string][]market_data.Bar{"EURUSD": syntheticBars(500, 3)})

	_, err := s.Train(context.Background(), "EURUSD", market_data.TimeframeH1)
	require.NoError(t, err)

	// 2 days of hourly bars is 48, below the indicator warmup, so the
	// report degrades to zeros instead of failing
	report, err := s.Backtest(context.Background(), "EURUSD", market_data.TimeframeH1, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalTrades)
	assert.Equal(t, report.InitialBalance, report.FinalBalance)
	assert.Zero(t, report.TotalReturnPct)
}

func TestBacktest_RunsWithTrainedModel(t *testing.T) {
	s := newTestService(map[string][]market_data.Bar{"EURUSD": syntheticBars(500, 3)})

	report, err := s.Backtest(context.Background(), "EURUSD", market_data.TimeframeH1, 20)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, report.InitialBalance)
	assert.GreaterOrEqual(t, report.TotalTrades, 0)
	assert.LessOrEqual(t, len(report.Trades), recentTradesKept)
	if report.TotalTrades > 0 {
		assert.Equal(t, float64(report.WinningTrades)/float64(report.TotalTrades)*100, report.WinRatePct)
	}
}

func TestBacktest_InvalidDays(t *testing.T) {
	s := newTestService(map[string][]market_data.Bar{"EURUSD": syntheticBars(500, 3)})

	_, err := s.Backtest(context.Background(), "EURUSD", market_data.TimeframeH1, 0)
	assert.Error(t, err)
}
