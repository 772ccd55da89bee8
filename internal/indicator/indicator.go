// Package indicator implements the technical indicators signal providers
// are built from. Every function is pure: it reads the window it is given,
// oldest value first, and never retains it.
package indicator

import (
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

// Type names an indicator.
type Type string

const (
	TypeSMA       Type = "sma"
	TypeEMA       Type = "ema"
	TypeRSI       Type = "rsi"
	TypeBollinger Type = "bollinger_bands"
	TypeMACD      Type = "macd"
	TypeATR       Type = "atr"
)

func checkPeriod(name Type, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s period must be a positive integer, got %d", name, period)
	}

	return nil
}

func checkLength(name Type, required, actual int) error {
	if actual < required {
		return errors.NewInsufficientDataErrorf(required, actual, string(name),
			"insufficient data points for %s: required %d, got %d", name, required, actual)
	}

	return nil
}
