package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Direction is the side a signal or position points to.
type Direction string

const (
	// DirectionLong profits when the price rises
	DirectionLong Direction = "long"
	// DirectionShort profits when the price falls
	DirectionShort Direction = "short"
	// DirectionNone means no action
	DirectionNone Direction = "none"
)

// Opposite returns the other side; none stays none.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionLong:
		return DirectionShort
	case DirectionShort:
		return DirectionLong
	default:
		return DirectionNone
	}
}

// Signal is a provider's recommendation for the current bar.
type Signal struct {
	// Time is the time of the bar the signal was computed on
	Time time.Time `json:"time"`
	// Symbol is the symbol of the signal
	Symbol string `json:"symbol"`
	// Direction is the recommended side
	Direction Direction `json:"direction"`
	// EntryPrice is the suggested entry price, usually the last close
	EntryPrice optional.Option[float64] `json:"entry_price"`
	// Volatility is an optional volatility estimate used for stop placement
	Volatility optional.Option[float64] `json:"volatility"`
	// Exit asks the engine to close an open position
	Exit bool `json:"exit"`
	// Name is the name of the provider that produced the signal
	Name string `json:"name"`
	// Reason is a human readable explanation
	Reason string `json:"reason"`
	// Metadata carries indicator values for inspection
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NeutralSignal returns a no-action signal for the last bar of a window.
func NeutralSignal(name string, window []Bar, reason string) Signal {
	signal := Signal{
		Direction:  DirectionNone,
		EntryPrice: optional.None[float64](),
		Volatility: optional.None[float64](),
		Name:       name,
		Reason:     reason,
	}

	if len(window) > 0 {
		last := window[len(window)-1]
		signal.Time = last.Time
		signal.Symbol = last.Symbol
	}

	return signal
}
