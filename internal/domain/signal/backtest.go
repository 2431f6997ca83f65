package signal

import "time"

// BacktestTrade is one completed round trip of the simulator
type BacktestTrade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	Type       Type      `json:"type"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Size       float64   `json:"size"`
	Profit     float64   `json:"profit"`
	ExitReason string    `json:"exit_reason"`
}

// OpenPosition describes a position still open when the simulated series
// ended. It is never force-closed and is excluded from the completed-trade
// statistics.
type OpenPosition struct {
	Type       Type      `json:"type"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	Size       float64   `json:"size"`
}

// BacktestReport summarizes one simulator run. Summary statistics cover the
// full run; Trades holds only the most recent completed trades.
type BacktestReport struct {
	InitialBalance float64         `json:"initial_balance"`
	FinalBalance   float64         `json:"final_balance"`
	TotalReturnPct float64         `json:"total_return_pct"`
	TotalTrades    int             `json:"num_trades"`
	WinningTrades  int             `json:"winning_trades"`
	WinRatePct     float64         `json:"win_rate_pct"`
	AvgProfit      float64         `json:"average_profit_per_trade"`
	Trades         []BacktestTrade `json:"trades"`
	OpenPosition   *OpenPosition   `json:"open_position,omitempty"`
}
