package types

import "time"

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitReasonStopLoss         ExitReason = "stop_loss"
	ExitReasonTakeProfit       ExitReason = "take_profit"
	ExitReasonSignal           ExitReason = "signal"
	ExitReasonMaxHoldingPeriod ExitReason = "max_holding_period"
	ExitReasonTrailingStop     ExitReason = "trailing_stop"
	ExitReasonEndOfPeriod      ExitReason = "end_of_period"
)

// AllExitReasons lists every reason a trade may carry.
var AllExitReasons = []ExitReason{
	ExitReasonStopLoss,
	ExitReasonTakeProfit,
	ExitReasonSignal,
	ExitReasonMaxHoldingPeriod,
	ExitReasonTrailingStop,
	ExitReasonEndOfPeriod,
}

// Valid reports whether r is one of the enumerated reasons.
func (r ExitReason) Valid() bool {
	for _, reason := range AllExitReasons {
		if r == reason {
			return true
		}
	}

	return false
}

// Trade is an immutable record of a closed position.
type Trade struct {
	ID string `json:"id" yaml:"id"`
	// Timestamp is the exit time
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	EntryTime  time.Time `json:"entry_time" yaml:"entry_time"`
	Symbol     string    `json:"symbol" yaml:"symbol"`
	Direction  Direction `json:"direction" yaml:"direction"`
	EntryPrice float64   `json:"entry_price" yaml:"entry_price"`
	ExitPrice  float64   `json:"exit_price" yaml:"exit_price"`
	Size       float64   `json:"size" yaml:"size"`
	Leverage   float64   `json:"leverage" yaml:"leverage"`
	// RealizedPnL is net of entry and exit fees
	RealizedPnL   float64       `json:"realized_pnl" yaml:"realized_pnl"`
	Fee           float64       `json:"fee" yaml:"fee"`
	StopLoss      float64       `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit    float64       `json:"take_profit" yaml:"take_profit"`
	ExitReason    ExitReason    `json:"exit_reason" yaml:"exit_reason"`
	HoldingPeriod time.Duration `json:"holding_period" yaml:"holding_period"`
}

// HoldingMinutes returns the holding period in minutes.
func (t Trade) HoldingMinutes() float64 {
	return t.HoldingPeriod.Minutes()
}
