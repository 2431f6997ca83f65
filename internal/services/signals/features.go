package signals

import (
	"github.com/markcheno/go-talib"

	"augur/internal/domain/market_data"
	"augur/pkg/errors"
)

// MaxLookback is the longest indicator window in the feature set (SMA 50).
// The first MaxLookback-1 bars of any series cannot produce a complete
// feature row and are dropped, never zero-filled.
const MaxLookback = 50

// Feature column positions. The order is part of the model contract: a
// trained model only accepts rows built with the same column list.
const (
	colSMA20 = iota
	colSMA50
	colEMA12
	colEMA26
	colBBWidth
	colRSI
	colMACD
	colMACDSignal
	colMACDHist
	colStochK
	colStochD
	colATR
	colPriceChange
	colHighLowRange
	colOpenCloseRange
	colPriceAboveSMA20
	colPriceAboveSMA50
	colSMA20AboveSMA50
	colCloseLag1
	colCloseLag2
	colRSILag1
	colRSILag2
	colMACDLag1
	colMACDLag2
	numFeatures
)

var featureColumns = []string{
	"sma_20", "sma_50", "ema_12", "ema_26", "bb_width",
	"rsi", "macd", "macd_signal", "macd_histogram",
	"stoch_k", "stoch_d", "atr",
	"price_change", "high_low_range", "open_close_range",
	"price_above_sma20", "price_above_sma50", "sma20_above_sma50",
	"close_lag1", "close_lag2", "rsi_lag1", "rsi_lag2", "macd_lag1", "macd_lag2",
}

// FeatureColumns returns the ordered feature column names
func FeatureColumns() []string {
	out := make([]string, len(featureColumns))
	copy(out, featureColumns)
	return out
}

// FeatureRow is one bar together with its complete feature vector, ordered
// as FeatureColumns()
type FeatureRow struct {
	Bar    market_data.Bar
	Values []float64
}

// ATR returns the Average True Range value of the row
func (r FeatureRow) ATR() float64 { return r.Values[colATR] }

// RSI returns the RSI value of the row
func (r FeatureRow) RSI() float64 { return r.Values[colRSI] }

// MACD returns the MACD line value of the row
func (r FeatureRow) MACD() float64 { return r.Values[colMACD] }

// ComputeFeatures derives one feature row per bar, dropping the leading bars
// whose indicator windows are incomplete. For a series of length L it returns
// exactly L-MaxLookback+1 rows, preserving bar order, and no rows at all when
// L < MaxLookback. Bars must be strictly ascending by open time.
func ComputeFeatures(bars []market_data.Bar) ([]FeatureRow, error) {
	for i := 1; i < len(bars); i++ {
		if !bars[i].OpenTime.After(bars[i-1].OpenTime) {
			return nil, errors.Wrapf(errors.ErrInvalidInput,
				"bars must be strictly ascending by open time, violated at index %d", i)
		}
	}

	if len(bars) < MaxLookback {
		return nil, nil
	}

	n := len(bars)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, bar := range bars {
		opens[i] = bar.Open
		highs[i] = bar.High
		lows[i] = bar.Low
		closes[i] = bar.Close
	}

	sma20 := talib.Sma(closes, 20)
	sma50 := talib.Sma(closes, 50)
	ema12 := talib.Ema(closes, 12)
	ema26 := talib.Ema(closes, 26)
	bbUpper, bbMiddle, bbLower := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)
	rsi := talib.Rsi(closes, 14)
	macd, macdSignal, macdHist := talib.Macd(closes, 12, 26, 9)
	stochK, stochD := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
	atr := talib.Atr(highs, lows, closes, 14)

	// SMA 50 is the longest window, so every indicator above is defined from
	// this index on, including the 2-bar lags
	start := MaxLookback - 1

	rows := make([]FeatureRow, 0, n-start)
	for i := start; i < n; i++ {
		v := make([]float64, numFeatures)

		v[colSMA20] = sma20[i]
		v[colSMA50] = sma50[i]
		v[colEMA12] = ema12[i]
		v[colEMA26] = ema26[i]
		// Band width relative to the middle band, so the feature is
		// independent of the price level
		v[colBBWidth] = (bbUpper[i] - bbLower[i]) / bbMiddle[i]
		v[colRSI] = rsi[i]
		v[colMACD] = macd[i]
		v[colMACDSignal] = macdSignal[i]
		v[colMACDHist] = macdHist[i]
		v[colStochK] = stochK[i]
		v[colStochD] = stochD[i]
		v[colATR] = atr[i]

		v[colPriceChange] = (closes[i] - closes[i-1]) / closes[i-1]
		v[colHighLowRange] = (highs[i] - lows[i]) / closes[i]
		v[colOpenCloseRange] = (closes[i] - opens[i]) / opens[i]

		v[colPriceAboveSMA20] = boolFeature(closes[i] > sma20[i])
		v[colPriceAboveSMA50] = boolFeature(closes[i] > sma50[i])
		v[colSMA20AboveSMA50] = boolFeature(sma20[i] > sma50[i])

		v[colCloseLag1] = closes[i-1]
		v[colCloseLag2] = closes[i-2]
		v[colRSILag1] = rsi[i-1]
		v[colRSILag2] = rsi[i-2]
		v[colMACDLag1] = macd[i-1]
		v[colMACDLag2] = macd[i-2]

		rows = append(rows, FeatureRow{Bar: bars[i], Values: v})
	}

	return rows, nil
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
