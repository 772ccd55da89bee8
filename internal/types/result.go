package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Stats are the metrics derived from the trade log.
type Stats struct {
	// NumberOfTrades is the total number of closed trades
	NumberOfTrades int `json:"number_of_trades" yaml:"number_of_trades"`
	// NumberOfWinningTrades counts trades with positive realized PnL
	NumberOfWinningTrades int `json:"number_of_winning_trades" yaml:"number_of_winning_trades"`
	// NumberOfLosingTrades counts trades with zero or negative realized PnL
	NumberOfLosingTrades int `json:"number_of_losing_trades" yaml:"number_of_losing_trades"`
	// WinRate is winning trades over all trades, 0 with no trades
	WinRate float64 `json:"win_rate" yaml:"win_rate"`
	// TotalPnL is the sum of realized PnL
	TotalPnL float64 `json:"total_pnl" yaml:"total_pnl"`
	// TotalFees is the commission paid on entries and exits
	TotalFees float64 `json:"total_fees" yaml:"total_fees"`
	// SharpeRatio is the annualized risk-adjusted return of per-trade returns
	SharpeRatio float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	// ProfitFactor is gross profit over gross loss, 0 when there is no loss
	ProfitFactor float64 `json:"profit_factor" yaml:"profit_factor"`
	AverageWin   float64 `json:"average_win" yaml:"average_win"`
	AverageLoss  float64 `json:"average_loss" yaml:"average_loss"`
	LargestWin   float64 `json:"largest_win" yaml:"largest_win"`
	LargestLoss  float64 `json:"largest_loss" yaml:"largest_loss"`
	// AverageHoldingPeriod is the mean holding period of closed trades
	AverageHoldingPeriod time.Duration `json:"average_holding_period" yaml:"average_holding_period"`
	// TotalReturn is (current - initial) / initial
	TotalReturn float64 `json:"total_return" yaml:"total_return"`
}

// Result is the account state and trade log of one engine run.
type Result struct {
	ID             string    `json:"id" yaml:"id"`
	Symbol         string    `json:"symbol" yaml:"symbol"`
	Interval       string    `json:"interval" yaml:"interval"`
	InitialCapital float64   `json:"initial_capital" yaml:"initial_capital"`
	CurrentCapital float64   `json:"current_capital" yaml:"current_capital"`
	PeakCapital    float64   `json:"peak_capital" yaml:"peak_capital"`
	MaxDrawdown    float64   `json:"max_drawdown" yaml:"max_drawdown"`
	Stats          Stats     `json:"stats" yaml:"stats"`
	Trades         []Trade   `json:"trades" yaml:"trades"`
	OpenPosition   *Position `json:"open_position,omitempty" yaml:"open_position,omitempty"`
	BarsProcessed  int       `json:"bars_processed" yaml:"bars_processed"`
	StartTime      time.Time `json:"start_time" yaml:"start_time"`
	EndTime        time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// Clone returns a copy that shares no mutable state with r.
func (r Result) Clone() Result {
	clone := r
	clone.Trades = append([]Trade(nil), r.Trades...)

	if r.OpenPosition != nil {
		position := *r.OpenPosition
		clone.OpenPosition = &position
	}

	return clone
}

// WriteResult writes the result, trade log excluded, to a YAML file.
func WriteResult(path string, result Result) error {
	summary := result.Clone()
	summary.Trades = nil

	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	return nil
}

// ReadResult reads a result summary written by WriteResult.
func ReadResult(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read result: %w", err)
	}

	var result Result
	if err := yaml.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return result, nil
}
