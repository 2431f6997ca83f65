package signal

import (
	"time"

	"augur/internal/domain/market_data"
)

// Type is the direction of a trade signal. A HOLD prediction produces no
// Signal at all, so there is no hold type.
type Type string

const (
	TypeBuy  Type = "buy"
	TypeSell Type = "sell"
)

// Analysis is the audit payload attached to a signal: the raw class
// probability vector and the indicator values the construction used.
type Analysis struct {
	Probabilities map[string]float64 `json:"probabilities"`
	ATR           float64            `json:"atr"`
	RSI           float64            `json:"rsi"`
	MACD          float64            `json:"macd"`
}

// Signal is an actionable trade proposal. Immutable after creation.
type Signal struct {
	ID          string                 `json:"id"`
	Symbol      string                 `json:"symbol"`
	Type        Type                   `json:"type"`
	Confidence  float64                `json:"confidence"`
	EntryPrice  float64                `json:"entry_price"`
	StopLoss    float64                `json:"stop_loss"`
	TakeProfit  float64                `json:"take_profit"`
	RiskReward  float64                `json:"risk_reward"`
	Timeframe   market_data.Timeframe  `json:"timeframe"`
	GeneratedAt time.Time              `json:"generated_at"`
	Analysis    Analysis               `json:"analysis"`
}

// Sentiment summarizes signals across multiple symbols
type Sentiment struct {
	Bullish           int                `json:"bullish_signals"`
	Bearish           int                `json:"bearish_signals"`
	Neutral           int                `json:"neutral_signals"`
	AverageConfidence float64            `json:"average_confidence"`
	Overall           string             `json:"overall_sentiment"` // bullish, bearish or neutral
	Symbols           map[string]*Signal `json:"symbol_analysis"`
}
