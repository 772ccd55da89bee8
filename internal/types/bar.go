package types

import "time"

// Bar is one OHLCV interval sample for a symbol.
type Bar struct {
	Time   time.Time `json:"time" yaml:"time"`
	Symbol string    `json:"symbol" yaml:"symbol"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume" yaml:"volume"`
}

// Closes extracts the close prices of a window, oldest first.
func Closes(window []Bar) []float64 {
	closes := make([]float64, len(window))
	for i, bar := range window {
		closes[i] = bar.Close
	}

	return closes
}
