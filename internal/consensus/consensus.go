// Package consensus folds the signals of several providers into one
// trading decision.
package consensus

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/types"
)

// Decide applies the count rule: a single voter decides alone, two voters
// must agree, and with three or more a direction needs a strict majority.
// Directions other than long and short count as abstentions.
func Decide(signals []types.Signal) types.Direction {
	n := len(signals)
	if n == 0 {
		return types.DirectionNone
	}

	if n == 1 {
		switch signals[0].Direction {
		case types.DirectionLong, types.DirectionShort:
			return signals[0].Direction
		default:
			return types.DirectionNone
		}
	}

	long, short := Count(signals)

	if n == 2 {
		switch {
		case long == 2:
			return types.DirectionLong
		case short == 2:
			return types.DirectionShort
		default:
			return types.DirectionNone
		}
	}

	// count > n/2 in integers, without truncation
	switch {
	case 2*long > n:
		return types.DirectionLong
	case 2*short > n:
		return types.DirectionShort
	default:
		return types.DirectionNone
	}
}

// Count returns the number of long and short votes.
func Count(signals []types.Signal) (long, short int) {
	for _, signal := range signals {
		switch signal.Direction {
		case types.DirectionLong:
			long++
		case types.DirectionShort:
			short++
		}
	}

	return long, short
}

// EntryHints returns the entry price and volatility of the first signal
// that agrees with decision.
func EntryHints(signals []types.Signal, decision types.Direction) (entryPrice, volatility optional.Option[float64]) {
	if decision == types.DirectionNone {
		return optional.None[float64](), optional.None[float64]()
	}

	for _, signal := range signals {
		if signal.Direction == decision {
			return signal.EntryPrice, signal.Volatility
		}
	}

	return optional.None[float64](), optional.None[float64]()
}

// AnyExit reports whether any provider asked to exit.
func AnyExit(signals []types.Signal) bool {
	for _, signal := range signals {
		if signal.Exit {
			return true
		}
	}

	return false
}
