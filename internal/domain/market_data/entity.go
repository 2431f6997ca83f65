package market_data

import "time"

// Bar represents one OHLCV candlestick. Bars are immutable once fetched and
// ordered ascending by OpenTime with no duplicate timestamps.
type Bar struct {
	Symbol    string    `ch:"symbol" json:"symbol"`
	Timeframe string    `ch:"timeframe" json:"timeframe"`
	OpenTime  time.Time `ch:"open_time" json:"open_time"`
	Open      float64   `ch:"open" json:"open"`
	High      float64   `ch:"high" json:"high"`
	Low       float64   `ch:"low" json:"low"`
	Close     float64   `ch:"close" json:"close"`
	Volume    float64   `ch:"volume" json:"volume"`
}

// Timeframe identifies a bar interval
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"
)

// Valid reports whether tf is a known timeframe code
func (tf Timeframe) Valid() bool {
	switch tf {
	case TimeframeM1, TimeframeM5, TimeframeM15, TimeframeM30,
		TimeframeH1, TimeframeH4, TimeframeD1:
		return true
	}
	return false
}

// Duration returns the bar interval length
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeM1:
		return time.Minute
	case TimeframeM5:
		return 5 * time.Minute
	case TimeframeM15:
		return 15 * time.Minute
	case TimeframeM30:
		return 30 * time.Minute
	case TimeframeH1:
		return time.Hour
	case TimeframeH4:
		return 4 * time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	}
	return 0
}

func (tf Timeframe) String() string {
	return string(tf)
}

// Query represents query parameters for bar retrieval
type Query struct {
	Symbol    string
	Timeframe Timeframe
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}
