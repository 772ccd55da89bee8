package types

import "time"

// RiskParams are the protective levels and size computed at entry.
type RiskParams struct {
	StopLoss   float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64 `json:"take_profit" yaml:"take_profit"`
	Size       float64 `json:"size" yaml:"size"`
	Leverage   float64 `json:"leverage" yaml:"leverage"`
}

// Position is the single open exposure an engine holds.
type Position struct {
	Symbol     string    `json:"symbol" yaml:"symbol"`
	Direction  Direction `json:"direction" yaml:"direction"`
	EntryPrice float64   `json:"entry_price" yaml:"entry_price"`
	Size       float64   `json:"size" yaml:"size"`
	Leverage   float64   `json:"leverage" yaml:"leverage"`
	StopLoss   float64   `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit float64   `json:"take_profit" yaml:"take_profit"`
	EntryTime  time.Time `json:"entry_time" yaml:"entry_time"`
	EntryFee   float64   `json:"entry_fee" yaml:"entry_fee"`
	// BestPrice is the most favourable close seen since entry.
	BestPrice float64 `json:"best_price" yaml:"best_price"`
}

// UnrealizedPnL is the gross profit of the position at price, before fees.
func (p Position) UnrealizedPnL(price float64) float64 {
	leverage := p.Leverage
	if leverage < 1 {
		leverage = 1
	}

	if p.Direction == DirectionShort {
		return (p.EntryPrice - price) * p.Size * leverage
	}

	return (price - p.EntryPrice) * p.Size * leverage
}

// IsFavorable reports whether price is beyond entry on the profitable side.
func (p Position) IsFavorable(price float64) bool {
	if p.Direction == DirectionShort {
		return price < p.EntryPrice
	}

	return price > p.EntryPrice
}
