package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-consensus/internal/types"
)

// TrueRange is the largest of the bar's range and its gaps from the
// previous close.
func TrueRange(bar types.Bar, prevClose float64) float64 {
	return math.Max(
		bar.High-bar.Low,
		math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)),
	)
}

// ATR returns the simple average of the last period true ranges. It needs
// period+1 bars.
func ATR(window []types.Bar, period int) (float64, error) {
	if err := checkPeriod(TypeATR, period); err != nil {
		return 0, err
	}

	if err := checkLength(TypeATR, period+1, len(window)); err != nil {
		return 0, err
	}

	var sum float64
	for i := len(window) - period; i < len(window); i++ {
		sum += TrueRange(window[i], window[i-1].Close)
	}

	return sum / float64(period), nil
}
